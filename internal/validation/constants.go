package validation

const (
	// MaxBps is 100% expressed in basis points.
	MaxBps = 10000

	// MaxAmountBits bounds amounts to the EVM word size.
	MaxAmountBits = 256

	// MaxTokenLength rejects absurd token identifiers before parsing.
	MaxTokenLength = 128
)
