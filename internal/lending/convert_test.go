package lending

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "landq/pkg/domain-errors"
)

func TestUSDTFromBTC(t *testing.T) {
	// Rate: 65,000 USDT per BTC = 65_000_000_000 USDT subunits per whole BTC.
	rate := big.NewInt(65_000_000_000)

	// 1 BTC.
	assert.Equal(t, big.NewInt(65_000_000_000), usdtFromBTC(big.NewInt(100_000_000), rate))
	// 0.5 BTC.
	assert.Equal(t, big.NewInt(32_500_000_000), usdtFromBTC(big.NewInt(50_000_000), rate))
	// 1 satoshi: 650 USDT subunits exactly.
	assert.Equal(t, big.NewInt(650), usdtFromBTC(big.NewInt(1), rate))
}

func TestUSDTFromBTCTruncates(t *testing.T) {
	// 1 satoshi at a rate that does not divide evenly: 65,000.000001 USDT/BTC.
	rate := big.NewInt(65_000_000_001)
	// 65_000_000_001 / 10^8 = 650.00000001 → truncated to 650.
	assert.Equal(t, big.NewInt(650), usdtFromBTC(big.NewInt(1), rate))
}

func TestBTCFromUSDT(t *testing.T) {
	rate := big.NewInt(65_000_000_000)

	// 65,000 USDT buys exactly 1 BTC.
	assert.Equal(t, big.NewInt(100_000_000), btcFromUSDT(big.NewInt(65_000_000_000), rate))
	// 650 USDT subunits buy exactly 1 satoshi.
	assert.Equal(t, big.NewInt(1), btcFromUSDT(big.NewInt(650), rate))
	// Less than one satoshi's worth truncates to zero. Compared via Cmp
	// because big.NewInt(0) and a computed zero differ in internal
	// representation (nil vs empty abs slice), which trips assert.Equal.
	assert.Equal(t, 0, big.NewInt(0).Cmp(btcFromUSDT(big.NewInt(649), rate)))
}

func TestConversionHandlesLargeAmounts(t *testing.T) {
	// 1,000,000 BTC at 100,000 USDT/BTC overflows int64 USDT subunits.
	rate := big.NewInt(100_000_000_000)
	btc := new(big.Int).Mul(big.NewInt(1_000_000), btcSubunitsPerBTC)

	want, _ := new(big.Int).SetString("100000000000000000", 10)
	assert.Equal(t, want, usdtFromBTC(btc, rate))
}

func TestMaxPrincipal(t *testing.T) {
	// 1000 USDT appraisal → at most 500 USDT principal.
	assert.Equal(t, big.NewInt(500_000_000), maxPrincipal(big.NewInt(1_000_000_000)))
	// Odd appraisal truncates down.
	assert.Equal(t, big.NewInt(2), maxPrincipal(big.NewInt(5)))
}

func TestParseAmount(t *testing.T) {
	amount, err := parseAmount("500000")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(500_000), amount)

	for _, raw := range []string{"", "abc", "1.5", "0", "-1"} {
		_, err := parseAmount(raw)
		assert.True(t, dErrors.Is(err, dErrors.CodeBadRequest), "input %q", raw)
	}
}
