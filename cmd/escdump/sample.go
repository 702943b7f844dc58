// cmd/escdump/sample.go
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"receipt-emulator/internal/receipt"
)

func newSampleCmd() *cobra.Command {
	var (
		file     string
		codepage string
		width    int
		cut      bool
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Write a generated ESC/POS receipt to stdout",
		Long: `Lay out a receipt as an ESC/POS job and write the raw bytes to standard
output, ready to be sent to the emulator:

  escdump sample | nc localhost 9100

Without --file a built-in sample receipt is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := receipt.Sample()
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read receipt file: %w", err)
				}
				r = &receipt.Receipt{}
				if err := json.Unmarshal(data, r); err != nil {
					return fmt.Errorf("failed to parse receipt file: %w", err)
				}
			}

			flags := cmd.Flags()
			if flags.Changed("codepage") {
				r.Codepage = codepage
			}
			if flags.Changed("width") {
				r.PaperWidth = width
			}
			if flags.Changed("cut") {
				r.Cut = cut
			}

			data, err := receipt.Build(r)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON receipt to lay out")
	cmd.Flags().StringVar(&codepage, "codepage", "", "codepage of the receipt text")
	cmd.Flags().IntVar(&width, "width", receipt.DefaultPaperWidth, "paper width in characters")
	cmd.Flags().BoolVar(&cut, "cut", true, "finish the receipt with a full cut")
	return cmd
}
