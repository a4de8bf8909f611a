package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"invoiceledger/internal/domain"
	"invoiceledger/internal/invoice"
	"invoiceledger/internal/pdftext"
)

func parseCmd() *cobra.Command {
	var trace bool
	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse an invoice and print it as JSON",
		Long: `Parse a PDF invoice, or a .txt file holding already extracted text, and
print the parsed invoice as JSON. With --trace the state transition taken for
every line is printed first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			lines := invoice.SplitLines(text)

			var inv *domain.ParsedInvoice
			if trace {
				var transitions []invoice.Transition
				inv, transitions = invoice.Trace(lines)
				writeTrace(cmd.OutOrStdout(), transitions)
			} else {
				inv = invoice.Parse(lines)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(inv)
		},
	}
	cmd.Flags().BoolVar(&trace, "trace", false, "print the parser state transition for each line")
	return cmd
}

func extractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <file.pdf>",
		Short: "Print the text extracted from a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readText(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), text)
			return err
		},
	}
}

// readText returns the text of a .txt file as is and extracts the text of
// anything else as a PDF.
func readText(ctx context.Context, path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		return string(data), nil
	}
	text, err := pdftext.NewExtractor().Extract(ctx, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return text, nil
}

func writeTrace(w io.Writer, transitions []invoice.Transition) {
	for _, t := range transitions {
		fmt.Fprintf(w, "%4d  %-17s -> %-17s %-28s %q\n", t.LineNo, t.From, t.To, t.Kind, t.Line)
	}
	fmt.Fprintln(w)
}
