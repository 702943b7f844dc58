// cmd/escdump/main.go
package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "escdump",
		Short: "Decode captured ESC/POS print jobs",
		Long: `escdump decodes ESC/POS byte streams captured from a receipt printer port
into the same rich text and plain text renderings the emulator stores.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newDecodeCmd())
	rootCmd.AddCommand(newCodepagesCmd())
	rootCmd.AddCommand(newSampleCmd())
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
