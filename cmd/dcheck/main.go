// Command dcheck finds unregistered domain names by querying RDAP.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// version is overridden at build time via -ldflags
var version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "dcheck",
	Short: "Domain availability checker",
	Long: `dcheck enumerates candidate domain names from a pattern or a wordlist and
asks RDAP whether each one is registered. Available names are printed and
saved as they are found.

Running dcheck without a subcommand is the same as "dcheck check".`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if defaultToCheck(os.Args[1:]) {
		rootCmd.SetArgs(append([]string{"check"}, os.Args[1:]...))
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// defaultToCheck reports whether args should be routed to the check command:
// true unless they name a subcommand or ask for help or the version.
func defaultToCheck(args []string) bool {
	if len(args) == 0 {
		return false
	}
	first := args[0]
	switch first {
	case "-h", "--help", "help", "--version", "-v", "completion", "__complete":
		return false
	}
	if !strings.HasPrefix(first, "-") {
		for _, c := range rootCmd.Commands() {
			if c.Name() == first || c.HasAlias(first) {
				return false
			}
		}
	}
	return true
}
