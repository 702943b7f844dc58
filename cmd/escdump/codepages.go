// cmd/escdump/codepages.go
package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"receipt-emulator/internal/escpos"
)

func newCodepagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "codepages",
		Short: "List the ESC t code table numbers",
		Args:  cobra.NoArgs,
		RunE:  runCodepages,
	}
}

func runCodepages(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCODEPAGE\tSCHEME")
	for _, table := range escpos.CodeTables() {
		fmt.Fprintf(w, "%d\t%s\t%s\n", table.ID, table.Codepage, table.Scheme)
	}
	return w.Flush()
}
