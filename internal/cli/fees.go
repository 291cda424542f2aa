package cli

import (
	"fmt"
	"strings"

	"swapdesk/internal/models"
	"swapdesk/internal/services/fee"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newFeesCmd() *cobra.Command {
	var bps int

	cmd := &cobra.Command{
		Use:   "fees <buyAmount> [sellAmount]",
		Short: "Compute the platform fee for an amount offline",
		Long: `Compute the platform fee breakdown for a buy amount in base units.

Examples:
  swapdesk fees 1000000
  swapdesk fees 1000000 500000 --bps 50`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := models.FeeRequest{BuyAmount: args[0]}
			if len(args) == 2 {
				req.SellAmount = args[1]
			}
			if cmd.Flags().Changed("bps") {
				req.CustomFeeBps = &bps
			}

			calc := fee.NewCalculator(fee.Config{Bps: bps})
			breakdown, err := calc.Calculate(req)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOutput(cmd) {
				return printJSON(out, breakdown)
			}
			displayFees(cmd, breakdown)
			return nil
		},
	}
	cmd.Flags().IntVar(&bps, "bps", 50, "Fee in basis points (0-10000)")
	return cmd
}

func displayFees(cmd *cobra.Command, b *models.FeeBreakdown) {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "\n"+strings.Repeat("=", 48))
	fmt.Fprintln(out, color.GreenString("                 FEE BREAKDOWN"))
	fmt.Fprintln(out, strings.Repeat("=", 48))
	fmt.Fprintf(out, "Buy amount:      %s\n", b.BuyAmount)
	fmt.Fprintf(out, "Fee:             %d bps (%s%%)\n", b.FeeBps, b.FeePercentage.String())
	fmt.Fprintf(out, "Platform fee:    %s\n", color.YellowString(b.PlatformFeeAmount))
	fmt.Fprintf(out, "User receives:   %s\n", color.CyanString(b.UserReceives))
	if b.SellAmount != "0" {
		fmt.Fprintf(out, "Effective rate:  %s\n", b.EffectiveRate.String())
	}
	if b.PriceImpactWarning {
		fmt.Fprintln(out, color.RedString("Warning: fee above 1%% of the buy amount"))
	}
	fmt.Fprintln(out)
}
