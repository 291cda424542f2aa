package models

import "github.com/shopspring/decimal"

// FeeRequest is the input of the offline fee calculator.
type FeeRequest struct {
	BuyAmount    string `json:"buyAmount" query:"buyAmount"`
	SellAmount   string `json:"sellAmount" query:"sellAmount"`
	CustomFeeBps *int   `json:"customFeeBps,omitempty" query:"customFeeBps"`
}

// FeeBreakdown is the result of the offline fee calculator.
type FeeBreakdown struct {
	BuyAmount          string          `json:"buyAmount"`
	SellAmount         string          `json:"sellAmount"`
	FeeBps             int             `json:"feeBps"`
	FeePercentage      decimal.Decimal `json:"feePercentage"`
	PlatformFeeAmount  string          `json:"platformFeeAmount"`
	UserReceives       string          `json:"userReceives"`
	EffectiveRate      decimal.Decimal `json:"effectiveRate"`
	PriceImpactWarning bool            `json:"priceImpactWarning"`
}

// FeeConfig is the active platform fee configuration as exposed to callers.
type FeeConfig struct {
	Bps                int             `json:"feeBps"`
	Percentage         decimal.Decimal `json:"feePercentage"`
	Recipient          string          `json:"recipient,omitempty"`
	Enabled            bool            `json:"enabled"`
	DefaultSlippageBps int             `json:"defaultSlippageBps"`
}
