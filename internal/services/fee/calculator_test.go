package fee

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "swapdesk/internal/errors"
	"swapdesk/internal/models"
)

func intPtr(i int) *int { return &i }

func bi(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic(s)
	}
	return n
}

func maxUint256() *big.Int {
	return new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
}

func TestCalculate(t *testing.T) {
	c := NewCalculator(Config{Bps: 30, Recipient: "0xfee"})

	got, err := c.Calculate(models.FeeRequest{BuyAmount: "1000000", SellAmount: "500000", CustomFeeBps: intPtr(50)})
	require.NoError(t, err)
	assert.Equal(t, "5000", got.PlatformFeeAmount)
	assert.Equal(t, "995000", got.UserReceives)
	assert.Equal(t, 50, got.FeeBps)
	assert.True(t, got.FeePercentage.Equal(decimal.RequireFromString("0.5")))
	assert.True(t, got.EffectiveRate.Equal(decimal.RequireFromString("1.99")), got.EffectiveRate.String())
	assert.False(t, got.PriceImpactWarning)
}

func TestCalculateDefaultsToConfiguredRate(t *testing.T) {
	c := NewCalculator(Config{Bps: 30})

	got, err := c.Calculate(models.FeeRequest{BuyAmount: "1000000"})
	require.NoError(t, err)
	assert.Equal(t, 30, got.FeeBps)
	assert.Equal(t, "3000", got.PlatformFeeAmount)
	assert.True(t, got.EffectiveRate.IsZero())
}

func TestCalculateWarning(t *testing.T) {
	c := NewCalculator(Config{})

	got, err := c.Calculate(models.FeeRequest{BuyAmount: "1000", CustomFeeBps: intPtr(101)})
	require.NoError(t, err)
	assert.True(t, got.PriceImpactWarning)

	got, err = c.Calculate(models.FeeRequest{BuyAmount: "1000", CustomFeeBps: intPtr(100)})
	require.NoError(t, err)
	assert.False(t, got.PriceImpactWarning)
}

func TestCalculateRejectsMalformedInput(t *testing.T) {
	c := NewCalculator(Config{Bps: 50})

	for _, req := range []models.FeeRequest{
		{BuyAmount: ""},
		{BuyAmount: "1.5"},
		{BuyAmount: "-10"},
		{BuyAmount: "100", SellAmount: "abc"},
		{BuyAmount: "100", CustomFeeBps: intPtr(-1)},
		{BuyAmount: "100", CustomFeeBps: intPtr(10001)},
	} {
		_, err := c.Calculate(req)
		require.Error(t, err, "%+v", req)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRequest)
	}
}

func TestPlatformFeeZeroBps(t *testing.T) {
	for _, amount := range []string{"0", "1", "999999999999999999", maxUint256().String()} {
		buy := bi(amount)
		fee := PlatformFee(buy, 0)
		assert.Equal(t, int64(0), fee.Int64())

		net, _ := MinReceived(buy, fee, 0)
		assert.Equal(t, 0, net.Cmp(buy))
	}
}

func TestPlatformFeeIsFloor(t *testing.T) {
	amounts := []*big.Int{
		big.NewInt(1),
		big.NewInt(9999),
		big.NewInt(10001),
		bi("1000000000000000000"),
		bi("123456789012345678901234567890"),
		new(big.Int).Lsh(big.NewInt(1), 255),
		maxUint256(),
	}
	for _, amount := range amounts {
		for _, bps := range []int{1, 3, 30, 50, 99, 100, 333, 9999, 10000} {
			fee := PlatformFee(amount, bps)

			product := new(big.Int).Mul(amount, big.NewInt(int64(bps)))
			lower := new(big.Int).Mul(fee, big.NewInt(BpsDenominator))
			upper := new(big.Int).Add(lower, big.NewInt(BpsDenominator))
			assert.True(t, lower.Cmp(product) <= 0, "amount=%s bps=%d", amount, bps)
			assert.True(t, product.Cmp(upper) < 0, "amount=%s bps=%d", amount, bps)
		}
	}

	assert.Equal(t, 0, PlatformFee(maxUint256(), 10000).Cmp(maxUint256()))
}

func TestMinReceived(t *testing.T) {
	buy := big.NewInt(1_000_000)
	fee := PlatformFee(buy, 50)

	net, min := MinReceived(buy, fee, 100)
	assert.Equal(t, "995000", net.String())
	assert.Equal(t, "985050", min.String())

	net, min = MinReceived(buy, big.NewInt(0), 0)
	assert.Equal(t, "1000000", net.String())
	assert.Equal(t, "1000000", min.String())
}

func TestPriceImpactPercent(t *testing.T) {
	tests := []struct {
		price, guaranteed, want string
	}{
		{"100", "100", "0"},
		{"0", "99", "0"},
		{"100", "0", "0"},
		{"", "", "0"},
		{"abc", "1", "0"},
		{"100", "99", "1"},
		{"2", "2.5", "25"},
	}
	for _, tt := range tests {
		got := PriceImpactPercent(tt.price, tt.guaranteed)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%s/%s got %s", tt.price, tt.guaranteed, got)
	}
}

func TestFractionAndPercentage(t *testing.T) {
	assert.Equal(t, "0.01", Fraction(100).String())
	assert.Equal(t, "0.005", Fraction(50).String())
	assert.Equal(t, "0.5", Percentage(50).String())
}

func TestEnabled(t *testing.T) {
	assert.True(t, NewCalculator(Config{Bps: 50, Recipient: "0xfee"}).Enabled())
	assert.False(t, NewCalculator(Config{Bps: 50}).Enabled())
	assert.False(t, NewCalculator(Config{Recipient: "0xfee"}).Enabled())

	c := NewCalculator(Config{Bps: 50})
	assert.Equal(t, 0, c.Bps())
	cfg := c.Config()
	assert.Equal(t, 50, cfg.Bps)
	assert.False(t, cfg.Enabled)
}

func TestParseAmount(t *testing.T) {
	n, err := ParseAmount("buyAmount", "42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), n.Int64())

	_, err = ParseAmount("buyAmount", "4.2")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInternal)
}
