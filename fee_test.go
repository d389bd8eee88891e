package marketseed

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
)

func TestFeeOf(t *testing.T) {
	fee := NewFeeAccounting(25, common.HexToAddress("0xfee"))

	assert.Equal(t, "2", fee.FeeOf(big.NewInt(100)).String())
	assert.Equal(t, "102", fee.TotalPrice(big.NewInt(100)).String())

	// truncation, never rounding up
	assert.Equal(t, "2", fee.FeeOf(big.NewInt(101)).String())
	assert.Equal(t, "103", fee.TotalPrice(big.NewInt(101)).String())
	assert.Equal(t, "0", fee.FeeOf(big.NewInt(39)).String())
	assert.Equal(t, "39", fee.TotalPrice(big.NewInt(39)).String())
	assert.Equal(t, "1", fee.FeeOf(big.NewInt(40)).String())
}

func TestFeeOfZeroRate(t *testing.T) {
	fee := NewFeeAccounting(0, common.HexToAddress("0xfee"))
	assert.Equal(t, "0", fee.FeeOf(big.NewInt(1000000)).String())
	assert.Equal(t, "1000000", fee.TotalPrice(big.NewInt(1000000)).String())
}

func TestFeeNegativeRatePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewFeeAccounting(-1, common.HexToAddress("0xfee"))
	})
}

func TestFeeOfLargePrice(t *testing.T) {
	fee := NewFeeAccounting(25, common.HexToAddress("0xfee"))
	price, ok := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457", 10)
	assert.True(t, ok)
	want := new(big.Int).Mul(price, big.NewInt(25))
	want.Div(want, big.NewInt(1000))
	assert.Equal(t, want.String(), fee.FeeOf(price).String())
}
