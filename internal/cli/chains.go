package cli

import (
	"fmt"
	"strings"

	"swapdesk/internal/services/chain"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newChainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "chains",
		Aliases: []string{"list-chains"},
		Short:   "List supported chains",
		RunE: func(cmd *cobra.Command, args []string) error {
			chains := chain.NewDefaultRegistry().All()
			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return printJSON(out, chains)
			}

			fmt.Fprintln(out, "\n"+strings.Repeat("=", 72))
			fmt.Fprintln(out, color.GreenString("                         SUPPORTED CHAINS"))
			fmt.Fprintln(out, strings.Repeat("=", 72))
			fmt.Fprintf(out, "%-12s %-12s %-6s %-5s %-5s %-5s %s\n", "ID", "NAME", "SYMBOL", "VM", "QUOTE", "SWAP", "EXPLORER")
			for _, c := range chains {
				fmt.Fprintf(out, "%-12d %-12s %-6s %-5s %-5s %-5s %s\n", c.ID, c.Name, c.Symbol, c.VM, yesNo(c.Features.Quote), yesNo(c.Features.Swap), c.ExplorerURL)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return color.GreenString("yes")
	}
	return color.RedString("no ")
}
