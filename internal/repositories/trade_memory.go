package repositories

import (
	"context"
	"sort"
	"sync"

	"swapdesk/internal/models"
)

// MemoryTradeRepository keeps trades in process memory. Records are lost on restart.
type MemoryTradeRepository struct {
	mu   sync.RWMutex
	data map[string]*models.TradeRecord
}

// NewMemoryTradeRepository creates a new in-memory trade repository.
func NewMemoryTradeRepository() *MemoryTradeRepository {
	return &MemoryTradeRepository{
		data: make(map[string]*models.TradeRecord),
	}
}

func (r *MemoryTradeRepository) Create(_ context.Context, t *models.TradeRecord) error {
	if err := validTrade(t); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[t.ID]; exists {
		return ErrDuplicateTrade
	}
	r.data[t.ID] = cloneTrade(t)
	return nil
}

func (r *MemoryTradeRepository) GetByID(_ context.Context, id string) (*models.TradeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, exists := r.data[id]
	if !exists {
		return nil, ErrTradeNotFound
	}
	return cloneTrade(t), nil
}

func (r *MemoryTradeRepository) Update(_ context.Context, t *models.TradeRecord, expected models.TradeStatus) error {
	if err := validTrade(t); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	existing, exists := r.data[t.ID]
	if !exists {
		return ErrTradeNotFound
	}
	if existing.Status != expected {
		return ErrTradeConflict
	}
	updated := cloneTrade(existing)
	updated.Status = t.Status
	updated.TransactionHash = t.TransactionHash
	updated.ExplorerURL = t.ExplorerURL
	updated.Metadata = cloneJSON(t.Metadata)
	updated.UpdatedAt = t.UpdatedAt
	r.data[t.ID] = updated
	return nil
}

func (r *MemoryTradeRepository) List(_ context.Context, filter models.TradeFilter) ([]*models.TradeRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*models.TradeRecord, 0)
	for _, t := range r.data {
		if filter.Matches(t) {
			result = append(result, cloneTrade(t))
		}
	}
	sortNewestFirst(result)

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *MemoryTradeRepository) Ping(context.Context) error {
	return nil
}

func sortNewestFirst(trades []*models.TradeRecord) {
	sort.SliceStable(trades, func(i, j int) bool {
		if trades[i].CreatedAt.Equal(trades[j].CreatedAt) {
			return trades[i].ID > trades[j].ID
		}
		return trades[i].CreatedAt.After(trades[j].CreatedAt)
	})
}

func cloneTrade(t *models.TradeRecord) *models.TradeRecord {
	c := *t
	c.Metadata = cloneJSON(t.Metadata)
	return &c
}

func cloneJSON(j models.JSON) models.JSON {
	if j == nil {
		return nil
	}
	c := make(models.JSON, len(j))
	for k, v := range j {
		c[k] = v
	}
	return c
}

var _ TradeRepository = (*MemoryTradeRepository)(nil)
