// Package fee implements platform fee, slippage and price impact arithmetic.
// Token amounts are *big.Int throughout; only ratios use decimals.
package fee

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	apperrors "swapdesk/internal/errors"
	"swapdesk/internal/models"
	"swapdesk/internal/validation"
)

// BpsDenominator is 100% in basis points.
const BpsDenominator = 10000

// WarningThresholdBps is the fee above which callers are warned (1%).
const WarningThresholdBps = 100

// RatePrecision is the number of decimal places kept for effective rates.
const RatePrecision = 18

var bpsDenominator = big.NewInt(BpsDenominator)

// Config holds the platform fee settings.
type Config struct {
	Bps                int
	Recipient          string
	DefaultSlippageBps int
}

// Calculator applies the configured platform fee.
type Calculator struct {
	config Config
}

// NewCalculator creates a calculator. A negative default slippage falls back to 1%.
func NewCalculator(cfg Config) *Calculator {
	if cfg.DefaultSlippageBps < 0 {
		cfg.DefaultSlippageBps = 100
	}
	return &Calculator{config: cfg}
}

// Enabled reports whether quotes carry a platform fee. Both a rate and a
// recipient are needed; the aggregator rejects a fee without a recipient.
func (c *Calculator) Enabled() bool {
	return c.config.Bps > 0 && c.config.Recipient != ""
}

// Bps returns the rate applied to quotes, 0 when the fee is disabled.
func (c *Calculator) Bps() int {
	if !c.Enabled() {
		return 0
	}
	return c.config.Bps
}

func (c *Calculator) Recipient() string {
	return c.config.Recipient
}

func (c *Calculator) DefaultSlippageBps() int {
	return c.config.DefaultSlippageBps
}

// Config returns the active configuration as exposed to callers.
func (c *Calculator) Config() models.FeeConfig {
	return models.FeeConfig{
		Bps:                c.config.Bps,
		Percentage:         Percentage(c.config.Bps),
		Recipient:          c.config.Recipient,
		Enabled:            c.Enabled(),
		DefaultSlippageBps: c.config.DefaultSlippageBps,
	}
}

// Calculate produces a fee breakdown without any network call. CustomFeeBps
// defaults to the configured rate.
func (c *Calculator) Calculate(req models.FeeRequest) (*models.FeeBreakdown, error) {
	v := validation.New()
	v.FeeRequest(&req)
	if err := v.Err(); err != nil {
		return nil, err
	}

	bps := c.config.Bps
	if req.CustomFeeBps != nil {
		bps = *req.CustomFeeBps
	}

	buy, _ := validation.ParseBaseUnits(req.BuyAmount)
	sell := new(big.Int)
	if req.SellAmount != "" {
		sell, _ = validation.ParseBaseUnits(req.SellAmount)
	}

	fee := PlatformFee(buy, bps)
	receives := new(big.Int).Sub(buy, fee)

	rate := decimal.Zero
	if sell.Sign() > 0 {
		rate = decimal.NewFromBigInt(receives, 0).DivRound(decimal.NewFromBigInt(sell, 0), RatePrecision)
	}

	return &models.FeeBreakdown{
		BuyAmount:          buy.String(),
		SellAmount:         sell.String(),
		FeeBps:             bps,
		FeePercentage:      Percentage(bps),
		PlatformFeeAmount:  fee.String(),
		UserReceives:       receives.String(),
		EffectiveRate:      rate,
		PriceImpactWarning: bps > WarningThresholdBps,
	}, nil
}

// PlatformFee returns floor(amount * bps / 10000).
func PlatformFee(amount *big.Int, bps int) *big.Int {
	if amount == nil || amount.Sign() <= 0 || bps <= 0 {
		return new(big.Int)
	}
	fee := new(big.Int).Mul(amount, big.NewInt(int64(bps)))
	return fee.Quo(fee, bpsDenominator)
}

// MinReceived applies the fee first and then the slippage tolerance to what is left:
// net = amount - fee, min = net - floor(net * slippageBps / 10000).
func MinReceived(amount, fee *big.Int, slippageBps int) (net, min *big.Int) {
	net = new(big.Int).Sub(amount, fee)
	if net.Sign() < 0 {
		net.SetInt64(0)
	}
	min = new(big.Int).Sub(net, PlatformFee(net, slippageBps))
	return net, min
}

// PriceImpactPercent returns |price - guaranteed| / price * 100. Unparseable
// or zero inputs yield 0.
func PriceImpactPercent(price, guaranteed string) decimal.Decimal {
	p, err := decimal.NewFromString(price)
	if err != nil || p.IsZero() {
		return decimal.Zero
	}
	g, err := decimal.NewFromString(guaranteed)
	if err != nil || g.IsZero() {
		return decimal.Zero
	}
	return p.Sub(g).Abs().Div(p).Mul(decimal.NewFromInt(100))
}

// Fraction expresses bps as a decimal fraction, e.g. 100 -> 0.01.
func Fraction(bps int) decimal.Decimal {
	return decimal.New(int64(bps), -4)
}

// Percentage expresses bps as a percent, e.g. 50 -> 0.5.
func Percentage(bps int) decimal.Decimal {
	return decimal.New(int64(bps), -2)
}

// ParseAmount parses an amount returned by an upstream. Malformed values are
// an internal failure, not a caller error.
func ParseAmount(field, s string) (*big.Int, error) {
	n, ok := validation.ParseBaseUnits(s)
	if !ok {
		return nil, apperrors.Internal("malformed aggregator response", fmt.Errorf("field %s is not an integer: %q", field, s))
	}
	return n, nil
}
