package handlers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"swapdesk/internal/handlers"
	"swapdesk/internal/observability"
	"swapdesk/internal/repositories"
	"swapdesk/internal/routes"
	"swapdesk/internal/services/aggregator"
	"swapdesk/internal/services/allowance"
	"swapdesk/internal/services/chain"
	"swapdesk/internal/services/fee"
	"swapdesk/internal/services/quote"
	"swapdesk/internal/services/trade"
	"swapdesk/internal/utils"
)

const (
	weth         = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
	usdc         = "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"
	taker        = "0x1111111111111111111111111111111111111111"
	feeRecipient = "0x9999999999999999999999999999999999999999"
	adminSecret  = "test-admin-secret"
	txHash       = "0x5c504ed432cb51138bcf09aa5e8a410dd4a1e204ef84bfed1be16dfba1b22060"

	// Upstream rejects this sell amount with a 400.
	rejectedAmount = "13"
)

const upstreamBody = `{
	"chainId": 1,
	"price": "1800",
	"guaranteedPrice": "1782",
	"sellAmount": "1000000000000000000",
	"buyAmount": "1000000",
	"allowanceTarget": "0xdef1c0ded9bec7f1a1670819833240f027b25eff",
	"to": "0xdef1c0ded9bec7f1a1670819833240f027b25eff",
	"data": "0xd9627aa4",
	"value": "0",
	"gas": "180000",
	"gasPrice": "20000000000",
	"sources": [{"name": "Uniswap_V3", "proportion": "0.75"}, {"name": "Curve", "proportion": "0.25"}]
}`

func fakeAggregator(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("sellAmount") == rejectedAmount {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"reason":"INSUFFICIENT_ASSET_LIQUIDITY"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(upstreamBody))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	srv := fakeAggregator(t)

	chains := chain.NewDefaultRegistry()
	metrics := observability.NewMetrics("swapdesk")
	client := aggregator.NewClient(srv.URL, aggregator.WithTimeout(2*time.Second), aggregator.WithMetrics(metrics))
	fees := fee.NewCalculator(fee.Config{Bps: 50, Recipient: feeRecipient, DefaultSlippageBps: 100})
	repo := repositories.NewMemoryTradeRepository()

	trades := trade.NewService(repo, chains, metrics, nil)
	quotes := quote.NewService(chains, client, fees, trades, quote.Config{}, quote.WithMetrics(metrics))
	allowances := allowance.NewService(chains, client, allowance.PlaceholderReader{}, metrics, nil, allowance.Config{})

	app := fiber.New()
	routes.SetupRoutes(app, routes.Handlers{
		Trade:       handlers.NewTradeHandler(quotes, trades, allowances, fees, nil),
		Chain:       handlers.NewChainHandler(chains),
		Health:      handlers.NewHealthHandler(repo, "memory", nil),
		Admin:       handlers.NewAdminHandler(trades, nil),
		Metrics:     metrics.Handler(),
		AdminSecret: adminSecret,
	})
	return app
}

func do(t *testing.T, app *fiber.App, method, target, body string, header ...string) (int, map[string]interface{}) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp.StatusCode, out
}

func quoteBody(extra string) string {
	return `{"sellToken":"` + weth + `","buyToken":"` + usdc + `","sellAmount":"1000000000000000000","chainId":1` + extra + `}`
}

func TestQuote(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/api/trade/quote", quoteBody(""))
	require.Equal(t, http.StatusOK, status, body)

	platformFee := body["platformFee"].(map[string]interface{})
	assert.Equal(t, "5000", platformFee["amount"])
	assert.Equal(t, float64(50), platformFee["bps"])
	assert.Equal(t, feeRecipient, platformFee["recipient"])

	params := body["parameters"].(map[string]interface{})
	assert.Equal(t, "995000", params["userReceives"])
	assert.Equal(t, "985050", params["minReceived"])
	assert.Len(t, body["route"], 2)
}

func TestQuoteErrors(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"unsupported chain", `{"sellToken":"` + weth + `","buyToken":"` + usdc + `","sellAmount":"1","chainId":999999}`, 400, "UNSUPPORTED_CHAIN"},
		{"no amount", `{"sellToken":"` + weth + `","buyToken":"` + usdc + `","chainId":1}`, 400, "INVALID_REQUEST"},
		{"malformed body", `{"sellToken":`, 400, "INVALID_REQUEST"},
		{"upstream rejection", `{"sellToken":"` + weth + `","buyToken":"` + usdc + `","sellAmount":"` + rejectedAmount + `","chainId":1}`, 400, "UPSTREAM_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := do(t, app, http.MethodPost, "/api/trade/quote", tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body["code"])
			assert.NotEmpty(t, body["error"])
		})
	}

	_, body := do(t, app, http.MethodPost, "/api/trade/quote", tests[3].body)
	assert.Contains(t, body["details"], "INSUFFICIENT_ASSET_LIQUIDITY")
}

func TestSwapLifecycle(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/api/trade/swap", quoteBody(`,"takerAddress":"`+taker+`","gasPrice":"25000000000"`))
	require.Equal(t, http.StatusOK, status, body)

	tx := body["transaction"].(map[string]interface{})
	assert.Equal(t, "0xd9627aa4", tx["data"])
	assert.Equal(t, "25000000000", tx["gasPrice"])
	assert.Equal(t, "180000", tx["estimatedGas"])

	rec := body["trade"].(map[string]interface{})
	id := rec["id"].(string)
	assert.Equal(t, "pending", rec["status"])
	assert.Equal(t, "5000", rec["platformFeeAmount"])

	status, body = do(t, app, http.MethodGet, "/api/trade/swap?tradeId="+id, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, id, body["trade"].(map[string]interface{})["id"])

	status, body = do(t, app, http.MethodGet, "/api/trade/swap?takerAddress="+strings.ToLower(taker), "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["count"])

	status, body = do(t, app, http.MethodPatch, "/api/trade/swap?tradeId="+id, `{"status":"completed","transactionHash":"`+txHash+`"}`)
	require.Equal(t, http.StatusOK, status, body)
	updated := body["trade"].(map[string]interface{})
	assert.Equal(t, "completed", updated["status"])
	assert.Equal(t, "https://etherscan.io/tx/"+txHash, updated["explorerUrl"])

	status, body = do(t, app, http.MethodPatch, "/api/trade/swap?tradeId="+id, `{"status":"failed"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUEST", body["code"])

	status, body = do(t, app, http.MethodGet, "/api/trade/fees?action=history", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, float64(1), body["completed"])
}

func TestSwapRequiresTaker(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, http.MethodPost, "/api/trade/swap", quoteBody(""))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUEST", body["code"])
}

func TestSwapLookupErrors(t *testing.T) {
	app := newTestApp(t)

	status, _ := do(t, app, http.MethodGet, "/api/trade/swap", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := do(t, app, http.MethodGet, "/api/trade/swap?tradeId=0b8e9c4e-5c1f-4a0e-9f3e-3b8d7f1c2a10", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", body["code"])

	status, _ = do(t, app, http.MethodPatch, "/api/trade/swap?tradeId=0b8e9c4e-5c1f-4a0e-9f3e-3b8d7f1c2a10", `{"status":"failed"}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = do(t, app, http.MethodPatch, "/api/trade/swap", `{"status":"failed"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAllowance(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/api/trade/allowance?tokenAddress="+usdc+"&ownerAddress="+taker+"&chainId=1", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "0", body["allowance"])
	assert.Equal(t, true, body["isApprovalNeeded"])
	assert.Equal(t, "placeholder", body["source"])
	approval := body["approvalTransaction"].(map[string]interface{})
	assert.True(t, strings.HasPrefix(approval["data"].(string), "0x095ea7b3"))

	status, body = do(t, app, http.MethodPost, "/api/trade/allowance", `{"tokenAddress":"`+usdc+`","ownerAddress":"`+taker+`","chainId":1}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, true, body["isApprovalNeeded"])

	status, body = do(t, app, http.MethodGet, "/api/trade/allowance?tokenAddress="+usdc+"&ownerAddress=nope&chainId=1", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUEST", body["code"])
}

func TestFees(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/api/trade/fees?buyAmount=1000000&sellAmount=500000", "")
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "5000", body["platformFeeAmount"])
	assert.Equal(t, "995000", body["userReceives"])
	assert.Equal(t, "1.99", body["effectiveRate"])

	status, body = do(t, app, http.MethodPost, "/api/trade/fees", `{"buyAmount":"1000000","customFeeBps":0}`)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "0", body["platformFeeAmount"])

	status, body = do(t, app, http.MethodGet, "/api/trade/fees?action=config", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(50), body["feeBps"])
	assert.Equal(t, true, body["enabled"])
	assert.Equal(t, feeRecipient, body["recipient"])

	status, _ = do(t, app, http.MethodGet, "/api/trade/fees?action=bogus", "")
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = do(t, app, http.MethodGet, "/api/trade/fees?buyAmount=abc", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_REQUEST", body["code"])
}

func TestChainsAndHealth(t *testing.T) {
	app := newTestApp(t)

	status, body := do(t, app, http.MethodGet, "/api/chains", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(len(chain.DefaultChains())), body["count"])

	status, body = do(t, app, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	app := newTestApp(t)
	do(t, app, http.MethodPost, "/api/trade/quote", quoteBody(""))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "swapdesk_")
}

func TestAdminRoutes(t *testing.T) {
	app := newTestApp(t)

	status, _ := do(t, app, http.MethodGet, "/api/admin/trades", "")
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = do(t, app, http.MethodGet, "/api/admin/trades", "", "Authorization", "Bearer garbage")
	assert.Equal(t, http.StatusUnauthorized, status)

	auditor, err := utils.GenerateAdminToken(adminSecret, "ops", "auditor", time.Hour)
	require.NoError(t, err)
	status, _ = do(t, app, http.MethodGet, "/api/admin/trades", "", "Authorization", "Bearer "+auditor)
	assert.Equal(t, http.StatusForbidden, status)
	status, _ = do(t, app, http.MethodGet, "/api/admin/stats", "", "Authorization", "Bearer "+auditor)
	assert.Equal(t, http.StatusOK, status)

	admin, err := utils.GenerateAdminToken(adminSecret, "ops", "admin", time.Hour)
	require.NoError(t, err)
	status, body := do(t, app, http.MethodGet, "/api/admin/trades?limit=10", "", "Authorization", "Bearer "+admin)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["count"])
	assert.Equal(t, float64(10), body["limit"])

	forged, err := utils.GenerateAdminToken("other-secret", "ops", "admin", time.Hour)
	require.NoError(t, err)
	status, _ = do(t, app, http.MethodGet, "/api/admin/trades", "", "Authorization", "Bearer "+forged)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAdminRoutesAbsentWithoutSecret(t *testing.T) {
	chains := chain.NewDefaultRegistry()
	repo := repositories.NewMemoryTradeRepository()
	trades := trade.NewService(repo, chains, nil, nil)

	app := fiber.New()
	routes.SetupRoutes(app, routes.Handlers{
		Chain:  handlers.NewChainHandler(chains),
		Health: handlers.NewHealthHandler(repo, "memory", nil),
		Admin:  handlers.NewAdminHandler(trades, nil),
	})

	status, _ := do(t, app, http.MethodGet, "/api/admin/trades", "")
	assert.Equal(t, http.StatusNotFound, status)
}
