package models

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// QuoteRequest is the caller's trade intent. Amounts are base-unit integer strings;
// exactly one of SellAmount and BuyAmount is set.
type QuoteRequest struct {
	SellToken          string `json:"sellToken" query:"sellToken"`
	BuyToken           string `json:"buyToken" query:"buyToken"`
	SellAmount         string `json:"sellAmount,omitempty" query:"sellAmount"`
	BuyAmount          string `json:"buyAmount,omitempty" query:"buyAmount"`
	ChainID            int64  `json:"chainId" query:"chainId"`
	TakerAddress       string `json:"takerAddress,omitempty" query:"takerAddress"`
	SlippageBps        *int   `json:"slippageBps,omitempty" query:"slippageBps"`
	IncludePlatformFee *bool  `json:"includePlatformFee,omitempty" query:"includePlatformFee"`
	GasPrice           string `json:"gasPrice,omitempty" query:"gasPrice"`
}

// LiquiditySource is one venue in the aggregator's route.
type LiquiditySource struct {
	Name       string `json:"name"`
	Proportion string `json:"proportion"`
}

// AggregatorQuote mirrors the 0x price/quote response fields we rely on.
type AggregatorQuote struct {
	ChainID          int64             `json:"chainId,omitempty"`
	Price            string            `json:"price"`
	GuaranteedPrice  string            `json:"guaranteedPrice,omitempty"`
	SellTokenAddress string            `json:"sellTokenAddress,omitempty"`
	BuyTokenAddress  string            `json:"buyTokenAddress,omitempty"`
	SellAmount       string            `json:"sellAmount"`
	BuyAmount        string            `json:"buyAmount"`
	Sources          []LiquiditySource `json:"sources"`
	AllowanceTarget  string            `json:"allowanceTarget,omitempty"`
	To               string            `json:"to,omitempty"`
	Data             string            `json:"data,omitempty"`
	Value            string            `json:"value,omitempty"`
	Gas              string            `json:"gas,omitempty"`
	EstimatedGas     string            `json:"estimatedGas,omitempty"`
	GasPrice         string            `json:"gasPrice,omitempty"`
	Orders           json.RawMessage   `json:"orders,omitempty"`
}

// PlatformFee is the fee taken from the buy side.
type PlatformFee struct {
	Bps       int    `json:"bps"`
	Amount    string `json:"amount"`
	Recipient string `json:"recipient,omitempty"`
}

// TradeParameters are the derived execution bounds of a quote.
type TradeParameters struct {
	SlippageBps        int             `json:"slippageBps"`
	SlippagePercentage decimal.Decimal `json:"slippagePercentage"`
	PriceImpact        decimal.Decimal `json:"priceImpact"`
	UserReceives       string          `json:"userReceives"`
	MinReceived        string          `json:"minReceived"`
}

// RouteLeg is a liquidity source with its share of the order in percent.
type RouteLeg struct {
	Exchange   string          `json:"exchange"`
	Percentage decimal.Decimal `json:"percentage"`
}

// QuoteMetadata carries the logical validity window of a quote. Expiry is
// advisory; callers are expected to refresh after ExpiresAt.
type QuoteMetadata struct {
	ChainID   int64     `json:"chainId"`
	ChainName string    `json:"chainName"`
	Timestamp time.Time `json:"timestamp"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// EnrichedQuote is a quote with fees, bounds and route attached.
type EnrichedQuote struct {
	Quote       AggregatorQuote `json:"quote"`
	PlatformFee PlatformFee     `json:"platformFee"`
	Parameters  TradeParameters `json:"parameters"`
	Route       []RouteLeg      `json:"route"`
	Metadata    QuoteMetadata   `json:"metadata"`
}

// SwapTransaction is the unsigned transaction the taker submits.
type SwapTransaction struct {
	To           string `json:"to"`
	Data         string `json:"data"`
	Value        string `json:"value"`
	GasPrice     string `json:"gasPrice,omitempty"`
	EstimatedGas string `json:"estimatedGas,omitempty"`
}

// SwapResponse is returned by the swap endpoint.
type SwapResponse struct {
	Transaction SwapTransaction `json:"transaction"`
	Trade       *TradeRecord    `json:"trade"`
	PlatformFee PlatformFee     `json:"platformFee"`
	Parameters  TradeParameters `json:"parameters"`
	Route       []RouteLeg      `json:"route"`
	Orders      json.RawMessage `json:"orders,omitempty"`
	Metadata    QuoteMetadata   `json:"metadata"`
}
