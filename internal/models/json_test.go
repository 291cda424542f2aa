package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONScan(t *testing.T) {
	var j JSON
	require.NoError(t, j.Scan([]byte(`{"source":"0x"}`)))
	assert.Equal(t, "0x", j["source"])

	require.NoError(t, j.Scan(`{"n":1}`))
	assert.Equal(t, float64(1), j["n"])

	require.NoError(t, j.Scan(nil))
	assert.Nil(t, j)

	assert.Error(t, j.Scan(42))
}

func TestTradeStatus(t *testing.T) {
	assert.True(t, TradeStatusPending.Valid())
	assert.False(t, TradeStatus("settled").Valid())
	assert.False(t, TradeStatusPending.Terminal())
	assert.True(t, TradeStatusCompleted.Terminal())
	assert.True(t, TradeStatusFailed.Terminal())
}

func TestTradeFilterMatches(t *testing.T) {
	rec := &TradeRecord{ChainID: 1, TakerAddress: "0xAbC", Status: TradeStatusPending}

	assert.True(t, TradeFilter{}.Matches(rec))
	assert.True(t, TradeFilter{TakerAddress: "0xabc"}.Matches(rec))
	assert.False(t, TradeFilter{TakerAddress: "0xabd"}.Matches(rec))
	assert.False(t, TradeFilter{Status: TradeStatusFailed}.Matches(rec))
	assert.False(t, TradeFilter{ChainID: 137}.Matches(rec))
}

func TestAdminClaimsHasPermission(t *testing.T) {
	c := &AdminClaims{Permissions: GetDefaultPermissions("admin")}
	assert.True(t, c.HasPermission(PermissionTradesRead))

	c = &AdminClaims{Permissions: GetDefaultPermissions("auditor")}
	assert.False(t, c.HasPermission(PermissionTradesRead))
}
