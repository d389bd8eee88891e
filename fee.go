package marketseed

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/permadex/marketseed/schema"
)

// FeeAccounting computes the marketplace cut from the deployment fee rate.
// The rate is fixed at construction and never mutated.
type FeeAccounting struct {
	feeRate   *big.Int // hundredths of a percent, e.g. 25 = 2.5%
	recipient common.Address
}

func NewFeeAccounting(feeRate int64, recipient common.Address) *FeeAccounting {
	if feeRate < 0 {
		panic("fee rate can not be negative")
	}
	return &FeeAccounting{
		feeRate:   big.NewInt(feeRate),
		recipient: recipient,
	}
}

// FeeOf returns floor(price * feeRate / 1000). big.Int Div truncates
// toward zero, which equals floor for the non-negative operands used here;
// the exact rounding determines the payment a buyer must supply.
func (f *FeeAccounting) FeeOf(price *big.Int) *big.Int {
	fee := new(big.Int).Mul(price, f.feeRate)
	return fee.Div(fee, big.NewInt(schema.FeeRateDenominator))
}

// TotalPrice returns price plus the marketplace cut, the exact amount a
// buyer must supply.
func (f *FeeAccounting) TotalPrice(price *big.Int) *big.Int {
	return new(big.Int).Add(price, f.FeeOf(price))
}

func (f *FeeAccounting) Rate() int64 {
	return f.feeRate.Int64()
}

func (f *FeeAccounting) Recipient() common.Address {
	return f.recipient
}
