package allowance

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"swapdesk/internal/models"
)

// Query identifies one allowance slot.
type Query struct {
	ChainID int64
	Token   common.Address
	Owner   common.Address
	Spender common.Address
}

// Reader reads the amount Owner has approved Spender to move.
// The returned string names the source of the figure.
type Reader interface {
	Allowance(ctx context.Context, q Query) (*big.Int, string, error)
}

// PlaceholderReader reports a zero allowance for every query, so callers are
// always handed an approval transaction.
type PlaceholderReader struct{}

func (PlaceholderReader) Allowance(context.Context, Query) (*big.Int, string, error) {
	return new(big.Int), models.AllowanceSourcePlaceholder, nil
}

// DialFunc connects to a JSON-RPC endpoint.
type DialFunc func(ctx context.Context, url string) (ethereum.ContractCaller, error)

func dialEthclient(ctx context.Context, url string) (ethereum.ContractCaller, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// RPCReader calls allowance(owner, spender) on chains with a configured RPC
// endpoint and defers to the fallback everywhere else.
type RPCReader struct {
	urls     map[int64]string
	fallback Reader
	dial     DialFunc

	mu      sync.Mutex
	callers map[int64]ethereum.ContractCaller
}

// ReaderOption configures RPCReader.
type ReaderOption func(*RPCReader)

// WithDialer replaces the ethclient dialer.
func WithDialer(dial DialFunc) ReaderOption {
	return func(r *RPCReader) {
		r.dial = dial
	}
}

// WithFallback sets the reader used for chains without an RPC URL.
func WithFallback(fallback Reader) ReaderOption {
	return func(r *RPCReader) {
		r.fallback = fallback
	}
}

// NewRPCReader creates a reader over urls keyed by chain ID.
func NewRPCReader(urls map[int64]string, opts ...ReaderOption) *RPCReader {
	r := &RPCReader{
		urls:     urls,
		fallback: PlaceholderReader{},
		dial:     dialEthclient,
		callers:  make(map[int64]ethereum.ContractCaller),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RPCReader) Allowance(ctx context.Context, q Query) (*big.Int, string, error) {
	url, ok := r.urls[q.ChainID]
	if !ok || url == "" {
		return r.fallback.Allowance(ctx, q)
	}

	caller, err := r.caller(ctx, q.ChainID, url)
	if err != nil {
		return nil, models.AllowanceSourceRPC, err
	}

	data, err := parsedERC20.Pack("allowance", q.Owner, q.Spender)
	if err != nil {
		return nil, models.AllowanceSourceRPC, fmt.Errorf("failed to pack allowance data: %w", err)
	}

	token := q.Token
	result, err := caller.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, models.AllowanceSourceRPC, fmt.Errorf("failed to call allowance: %w", err)
	}
	if len(result) == 0 {
		return nil, models.AllowanceSourceRPC, fmt.Errorf("token %s returned no data; not a contract on chain %d", q.Token.Hex(), q.ChainID)
	}

	out, err := parsedERC20.Unpack("allowance", result)
	if err != nil {
		return nil, models.AllowanceSourceRPC, fmt.Errorf("failed to unpack allowance: %w", err)
	}
	amount, ok := out[0].(*big.Int)
	if !ok {
		return nil, models.AllowanceSourceRPC, fmt.Errorf("unexpected allowance type %T", out[0])
	}
	return amount, models.AllowanceSourceRPC, nil
}

func (r *RPCReader) caller(ctx context.Context, chainID int64, url string) (ethereum.ContractCaller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.callers[chainID]; ok {
		return c, nil
	}
	c, err := r.dial(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint for chain %d: %w", chainID, err)
	}
	r.callers[chainID] = c
	return c, nil
}

var (
	_ Reader = PlaceholderReader{}
	_ Reader = (*RPCReader)(nil)
)
