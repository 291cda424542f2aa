package quote

import "time"

// DefaultQuoteTTL is how long a quote is advertised as valid.
const DefaultQuoteTTL = 30 * time.Second

// Quote kinds for metrics.
const (
	KindPrice = "price"
	KindSwap  = "swap"
)

// Config holds quote settings.
type Config struct {
	QuoteTTL time.Duration
}
