package observability

import (
	"bytes"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics("test")

	m.RecordUpstreamCall("price", OutcomeOK, 120*time.Millisecond)
	m.RecordUpstreamCall("price", OutcomeTimeout, 5*time.Second)
	m.RecordQuote("price", 1)
	m.RecordAllowanceCheck("placeholder", true)
	m.RecordTradeStatus("completed")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("price", OutcomeTimeout)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.QuotesServed.WithLabelValues("price", "1")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AllowanceChecks.WithLabelValues("placeholder", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.TradeStatuses.WithLabelValues("completed")))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics("test")
	m.RecordQuote("swap", 137)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_trade_quotes_total{chain_id="137",kind="swap"} 1`)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(&buf, "warn", true)
	log.Info("dropped")
	log.Warn("kept", "k", "v")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}
