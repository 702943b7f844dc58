// cmd/escdump/decode.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"receipt-emulator/internal/escpos"
)

type decodeFlags struct {
	codepage       string
	outputCodepage string
	format         string
	hex            bool
}

func newDecodeCmd() *cobra.Command {
	flags := &decodeFlags{}

	cmd := &cobra.Command{
		Use:   "decode <file|->",
		Short: "Decode a captured print job",
		Long: `Decode a print job read from a file, or from standard input when the
argument is "-".

Formats:
  rich    symbolic commands and text, one line per printed line (UTF-8)
  plain   printed text only, encoded with the output codepage
  tokens  one line per decoded token with its offset and raw bytes
  json    tokens and both renderings as a JSON document`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecode(cmd, args[0], flags)
		},
	}

	defaults := escpos.DefaultOptions()
	cmd.Flags().StringVar(&flags.codepage, "codepage", defaults.DefaultCodepage.String(), "codepage in effect at the start of the job")
	cmd.Flags().StringVar(&flags.outputCodepage, "output-codepage", defaults.OutputCodepage.String(), "codepage of the plain text rendering")
	cmd.Flags().StringVarP(&flags.format, "format", "f", "rich", "output format: rich, plain, tokens or json")
	cmd.Flags().BoolVar(&flags.hex, "hex", false, "input is a hex dump instead of raw bytes")
	return cmd
}

func runDecode(cmd *cobra.Command, source string, flags *decodeFlags) error {
	options, err := parseOptions(flags.codepage, flags.outputCodepage)
	if err != nil {
		return err
	}

	data, err := readInput(cmd.InOrStdin(), source)
	if err != nil {
		return err
	}
	if flags.hex {
		if data, err = escpos.ParseHex(string(data)); err != nil {
			return err
		}
	}

	tr := escpos.Transcribe(data, options)
	out := cmd.OutOrStdout()

	switch flags.format {
	case "rich":
		_, err = fmt.Fprintln(out, tr.RichText)
	case "plain":
		_, err = out.Write(tr.PlainText)
	case "tokens":
		err = writeTokens(out, tr.Tokens)
	case "json":
		err = writeJSON(out, tr, options)
	default:
		return fmt.Errorf("unknown format: %s", flags.format)
	}
	if err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func parseOptions(codepage, outputCodepage string) (escpos.Options, error) {
	options := escpos.DefaultOptions()

	var err error
	if options.DefaultCodepage, err = escpos.ParseCodepage(codepage); err != nil {
		return options, err
	}
	if options.OutputCodepage, err = escpos.ParseCodepage(outputCodepage); err != nil {
		return options, err
	}
	return options, nil
}

func readInput(stdin io.Reader, source string) ([]byte, error) {
	if source == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read input file: %w", err)
	}
	return data, nil
}

func writeTokens(out io.Writer, tokens []escpos.Token) error {
	for _, tok := range tokens {
		desc := tok.Tag()
		if tok.Kind == escpos.TokenText {
			text, _ := tok.Text()
			desc = fmt.Sprintf("%q", text)
		}
		if _, err := fmt.Fprintf(out, "%06d  %-18s % X  %s\n", tok.Offset, tok.Kind, tok.Raw, desc); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(out io.Writer, tr *escpos.Transcript, options escpos.Options) error {
	plain, _ := options.OutputCodepage.Decode(tr.PlainText)

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(map[string]interface{}{
		"codepage":        options.DefaultCodepage,
		"output_codepage": options.OutputCodepage,
		"token_count":     tr.TokenCount,
		"tokens":          tr.Tokens,
		"rich_text":       tr.RichText,
		"plain_text":      plain,
	})
}
