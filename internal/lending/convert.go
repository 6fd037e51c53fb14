// Package lending runs the collateralized loan lifecycle: principal issuance
// bounded by the appraisal, and repayment in USDT or BTC at the ledger's spot
// rate. All amounts are *big.Int subunits (USDT 6 decimals, BTC 8 decimals);
// no floating point enters any monetary computation.
package lending

import (
	"math/big"

	dErrors "landq/pkg/domain-errors"
)

// btcSubunitsPerBTC is 10^8, the satoshi scale.
var btcSubunitsPerBTC = big.NewInt(100_000_000)

// usdtFromBTC converts BTC subunits to USDT subunits at the given rate.
// rate is USDT subunits per whole BTC, as read from the ledger. Division
// truncates toward zero, matching the on-chain settlement arithmetic.
func usdtFromBTC(btcSubunits, rate *big.Int) *big.Int {
	product := new(big.Int).Mul(btcSubunits, rate)
	return product.Quo(product, btcSubunitsPerBTC)
}

// btcFromUSDT converts USDT subunits to BTC subunits at the given rate,
// truncating toward zero.
func btcFromUSDT(usdtSubunits, rate *big.Int) *big.Int {
	product := new(big.Int).Mul(usdtSubunits, btcSubunitsPerBTC)
	return product.Quo(product, rate)
}

// parseAmount parses a base-10 subunit amount from external input and
// requires it to be positive.
func parseAmount(raw string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, dErrors.New(dErrors.CodeBadRequest, "amount must be a base-10 integer")
	}
	if amount.Sign() <= 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "amount must be positive")
	}
	return amount, nil
}

// maxPrincipal is the issuance ceiling: half the appraised valuation,
// truncated. Appraisals are stored in USDT subunits.
func maxPrincipal(appraisedUSD *big.Int) *big.Int {
	return new(big.Int).Quo(appraisedUSD, big.NewInt(2))
}
