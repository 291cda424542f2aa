package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"swapdesk/internal/config"
	"swapdesk/internal/models"
	"swapdesk/internal/observability"
	"swapdesk/internal/repositories"
	"swapdesk/internal/services/aggregator"
	"swapdesk/internal/services/chain"
	"swapdesk/internal/services/fee"
	"swapdesk/internal/services/quote"
	"swapdesk/internal/services/trade"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type quoteFlags struct {
	chainID     int64
	sell        string
	buy         string
	sellAmount  string
	buyAmount   string
	slippageBps int
	noFee       bool
}

func newQuoteCmd() *cobra.Command {
	var f quoteFlags

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Fetch an indicative quote with the platform fee applied",
		Long: `Fetch an indicative price from the aggregator and show the platform fee,
the amount the taker receives and the slippage-protected minimum.

Examples:
  swapdesk quote --chain 1 --sell 0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48 \
    --buy 0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2 --sell-amount 1000000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			svc := newQuoteService(cfg)

			req := models.QuoteRequest{
				ChainID:    f.chainID,
				SellToken:  f.sell,
				BuyToken:   f.buy,
				SellAmount: f.sellAmount,
				BuyAmount:  f.buyAmount,
			}
			if cmd.Flags().Changed("slippage-bps") {
				req.SlippageBps = &f.slippageBps
			}
			if f.noFee {
				include := false
				req.IncludePlatformFee = &include
			}

			out := cmd.OutOrStdout()
			asJSON := jsonOutput(cmd)
			s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
			if !asJSON {
				s.Suffix = " Fetching quote..."
				s.Start()
			}
			q, err := svc.GetQuote(cmd.Context(), req)
			if !asJSON {
				s.Stop()
			}
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(out, q)
			}
			displayQuote(out, q)
			return nil
		},
	}

	cmd.Flags().Int64Var(&f.chainID, "chain", 1, "Chain ID")
	cmd.Flags().StringVar(&f.sell, "sell", "", "Token to sell")
	cmd.Flags().StringVar(&f.buy, "buy", "", "Token to buy")
	cmd.Flags().StringVar(&f.sellAmount, "sell-amount", "", "Sell amount in base units")
	cmd.Flags().StringVar(&f.buyAmount, "buy-amount", "", "Buy amount in base units")
	cmd.Flags().IntVar(&f.slippageBps, "slippage-bps", 100, "Slippage tolerance in basis points")
	cmd.Flags().BoolVar(&f.noFee, "no-fee", false, "Quote without the platform fee")
	_ = cmd.MarkFlagRequired("sell")
	_ = cmd.MarkFlagRequired("buy")
	return cmd
}

// newQuoteService wires a quote service whose trades stay in memory; the
// CLI never builds swaps.
func newQuoteService(cfg *config.Config) quote.Service {
	chains := chain.NewDefaultRegistry()
	client := aggregator.NewClient(cfg.Aggregator.BaseURL,
		aggregator.WithAPIKey(cfg.Aggregator.APIKey),
		aggregator.WithTimeout(cfg.Aggregator.Timeout),
	)
	fees := fee.NewCalculator(fee.Config{
		Bps:                cfg.Fee.Bps,
		Recipient:          cfg.Fee.Recipient,
		DefaultSlippageBps: cfg.Fee.DefaultSlippageBps,
	})
	trades := trade.NewService(repositories.NewMemoryTradeRepository(), chains, observability.NoopMetricsCollector{}, nil)
	return quote.NewService(chains, client, fees, trades, quote.Config{QuoteTTL: cfg.Aggregator.QuoteTTL})
}

func displayQuote(out io.Writer, q *models.EnrichedQuote) {
	fmt.Fprintln(out, "\n"+strings.Repeat("=", 60))
	fmt.Fprintln(out, color.GreenString("                         QUOTE"))
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "Chain:          %s (%d)\n", q.Metadata.ChainName, q.Metadata.ChainID)
	fmt.Fprintf(out, "Price:          %s\n", q.Quote.Price)
	fmt.Fprintf(out, "Sell amount:    %s\n", q.Quote.SellAmount)
	fmt.Fprintf(out, "Buy amount:     %s\n", q.Quote.BuyAmount)
	fmt.Fprintf(out, "Platform fee:   %s (%d bps)\n", color.YellowString(q.PlatformFee.Amount), q.PlatformFee.Bps)
	fmt.Fprintf(out, "You receive:    %s\n", color.CyanString(q.Parameters.UserReceives))
	fmt.Fprintf(out, "Min received:   %s (slippage %d bps)\n", q.Parameters.MinReceived, q.Parameters.SlippageBps)
	fmt.Fprintf(out, "Price impact:   %s%%\n", q.Parameters.PriceImpact.StringFixed(4))
	if len(q.Route) > 0 {
		fmt.Fprintln(out, "Route:")
		for _, leg := range q.Route {
			fmt.Fprintf(out, "  %-24s %s%%\n", leg.Exchange, leg.Percentage.StringFixed(2))
		}
	}
	fmt.Fprintf(out, "Expires:        %s\n\n", q.Metadata.ExpiresAt.Format(time.RFC3339))
}
