// Package cli implements the swapdesk command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the command tree. Output goes to out.
func NewRootCmd(out io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "swapdesk",
		Short: "Trade quoting and platform-fee service in front of the 0x aggregator",
		Long: `swapdesk quotes token swaps through the 0x aggregator, applies the platform
fee and records the resulting trades.

Examples:
  swapdesk serve
  swapdesk quote --chain 1 --sell 0xA0b8...eB48 --buy 0xC02a...6Cc2 --sell-amount 1000000
  swapdesk fees 1000000 500000 --bps 50
  swapdesk chains`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	root.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")

	root.AddCommand(newServeCmd(), newQuoteCmd(), newFeesCmd(), newChainsCmd())
	return root
}

// Execute runs the root command
func Execute() error {
	err := NewRootCmd(os.Stdout).Execute()
	if err != nil {
		printError(os.Stderr, err)
	}
	return err
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "\n%s %v\n\n", color.RedString("Error:"), err)
}
