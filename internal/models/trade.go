package models

import (
	"strings"
	"time"
)

// TradeStatus is the lifecycle state of a requested swap.
type TradeStatus string

const (
	TradeStatusPending   TradeStatus = "pending"
	TradeStatusCompleted TradeStatus = "completed"
	TradeStatusFailed    TradeStatus = "failed"
)

// Valid reports whether s is a known status.
func (s TradeStatus) Valid() bool {
	switch s {
	case TradeStatusPending, TradeStatusCompleted, TradeStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s TradeStatus) Terminal() bool {
	return s == TradeStatusCompleted || s == TradeStatusFailed
}

// TradeRecord is advisory bookkeeping for a swap the service built. The chain,
// not this record, is the source of truth for whether funds moved.
type TradeRecord struct {
	ID                string      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ChainID           int64       `gorm:"not null;index" json:"chainId"`
	SellToken         string      `gorm:"not null" json:"sellToken"`
	BuyToken          string      `gorm:"not null;index" json:"buyToken"`
	SellAmount        string      `gorm:"type:varchar(80);not null" json:"sellAmount"`
	BuyAmount         string      `gorm:"type:varchar(80);not null" json:"buyAmount"`
	TakerAddress      string      `gorm:"not null;index" json:"takerAddress"`
	PlatformFeeAmount string      `gorm:"type:varchar(80);not null;default:'0'" json:"platformFeeAmount"`
	FeeBps            int         `gorm:"not null;default:0" json:"feeBps"`
	Status            TradeStatus `gorm:"type:varchar(16);not null;default:'pending';index" json:"status"`
	TransactionHash   string      `json:"transactionHash,omitempty"`
	ExplorerURL       string      `json:"explorerUrl,omitempty"`
	Metadata          JSON        `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt         time.Time   `json:"createdAt"`
	UpdatedAt         time.Time   `json:"updatedAt"`
}

// TradeStatusUpdate is the body of a status change.
type TradeStatusUpdate struct {
	Status          TradeStatus `json:"status"`
	TransactionHash string      `json:"transactionHash,omitempty"`
}

// TradeFilter narrows a trade listing. Zero values match everything.
type TradeFilter struct {
	TakerAddress string
	Status       TradeStatus
	ChainID      int64
	Limit        int
}

// Matches reports whether t satisfies the filter.
func (f TradeFilter) Matches(t *TradeRecord) bool {
	if f.TakerAddress != "" && !strings.EqualFold(f.TakerAddress, t.TakerAddress) {
		return false
	}
	if f.Status != "" && f.Status != t.Status {
		return false
	}
	if f.ChainID != 0 && f.ChainID != t.ChainID {
		return false
	}
	return true
}

// TradeStats aggregates recorded trades. Fees are summed per buy token because
// amounts in different tokens cannot be added.
type TradeStats struct {
	Total       int               `json:"total"`
	Pending     int               `json:"pending"`
	Completed   int               `json:"completed"`
	Failed      int               `json:"failed"`
	FeesByToken map[string]string `json:"feesByToken"`
	GeneratedAt time.Time         `json:"generatedAt"`
}
