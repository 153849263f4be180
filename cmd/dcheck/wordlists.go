package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dcheck/dcheck/internal/wordlist"
)

var wordlistsCmd = &cobra.Command{
	Use:   "wordlists",
	Short: "List the wordlists available for download",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		listWordlists(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(wordlistsCmd)
}

func listWordlists(w io.Writer) {
	fmt.Fprintln(w, "Available wordlists:")
	fmt.Fprintln(w, strings.Repeat("=", 50))
	for _, src := range wordlist.List() {
		fmt.Fprintf(w, "  %s - %s\n", cyan(fmt.Sprintf("%-15s", src.Name)), src.Description)
	}
}
