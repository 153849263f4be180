package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dcheck/dcheck/internal/config"
	"github.com/dcheck/dcheck/internal/report"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Convert an available-domains file to an XLSX report",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		input, _ := cmd.Flags().GetString("input")
		output, _ := cmd.Flags().GetString("output")

		if err := exportReport(input, output, os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	exportCmd.Flags().StringP("input", "i", config.DefaultCheckConfig().Output, "Available domains file, one per line")
	exportCmd.Flags().StringP("output", "o", "available_domains.xlsx", "XLSX file to write")
	rootCmd.AddCommand(exportCmd)
}

func exportReport(input, output string, w io.Writer) error {
	domains, err := report.ReadLines(input)
	if err != nil {
		return err
	}
	if err := report.WriteXLSX(output, domains, nil); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Exported %s domains to %s\n", green("✓"), formatNumber(int64(len(domains))), output)
	return nil
}
