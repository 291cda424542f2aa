package models

// Virtual machine families. Address formats and allowance semantics depend on it.
const (
	VMEVM = "evm"
	VMSVM = "svm"
)

// ChainFeatures lists what the aggregator supports on a chain.
type ChainFeatures struct {
	Quote   bool `json:"quote"`
	Swap    bool `json:"swap"`
	Gasless bool `json:"gasless"`
}

// ChainConfig is the static record for a supported chain.
type ChainConfig struct {
	ID          int64         `json:"id"`
	Name        string        `json:"name"`
	Symbol      string        `json:"symbol"`
	ExplorerURL string        `json:"explorerUrl"`
	VM          string        `json:"vm"`
	NativeToken string        `json:"nativeToken"`
	Features    ChainFeatures `json:"features"`
}
