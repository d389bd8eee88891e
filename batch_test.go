package marketseed

import (
	"math/big"
	"testing"

	"github.com/permadex/marketseed/schema"
	"github.com/stretchr/testify/assert"
)

func newTestBatch() (*BatchProcessor, *Ledger, *mockPort) {
	ledger := NewLedger()
	port := newMockPort()
	port.owners[schema.TokenRef{Collection: testColl, TokenId: 7}] = testSeller
	port.approved[testSeller] = true
	fee := NewFeeAccounting(25, testFeeAddr)
	return NewBatchProcessor(fee, testOperator), ledger, port
}

func TestBatchPurchaseStagedUntilFlush(t *testing.T) {
	batch, ledger, port := newTestBatch()

	// pre-existing listing
	reg := NewItemRegistry(ledger, port, testOperator)
	_, _, err := reg.List(testColl, 7, big.NewInt(100), testSeller)
	assert.NoError(t, err)

	st, err := batch.Run(ledger, port, []schema.BatchIntent{
		{Kind: schema.IntentKindPurchase, ItemId: 1, Payment: big.NewInt(102)},
	}, testBuyer)
	assert.NoError(t, err)
	assert.Len(t, st.Events, 1)
	assert.Len(t, st.Receipts, 1)
	assert.Equal(t, []uint64{1}, st.ItemIds)

	// nothing visible before commit
	assert.Equal(t, 0, port.transfers)
	base, _ := ledger.Item(1)
	assert.False(t, base.Sold)
	assert.Equal(t, "0", ledger.BalanceOf(testSeller).String())

	// staged state carries the settlement
	staged, _ := st.Ledger.Item(1)
	assert.True(t, staged.Sold)
	assert.Equal(t, "100", st.Ledger.BalanceOf(testSeller).String())
	assert.Equal(t, "2", st.Ledger.BalanceOf(testFeeAddr).String())

	assert.NoError(t, st.Port.flush())
	assert.Equal(t, 1, port.transfers)
	assert.Equal(t, testBuyer, port.owners[schema.TokenRef{Collection: testColl, TokenId: 7}])
}

func TestBatchListThenPurchaseSameBatch(t *testing.T) {
	batch, ledger, port := newTestBatch()
	port.approved[testSeller] = true

	st, err := batch.Run(ledger, port, []schema.BatchIntent{
		{Kind: schema.IntentKindList, Collection: testColl, TokenId: 7, Price: big.NewInt(100)},
		{Kind: schema.IntentKindPurchase, ItemId: 1, Payment: big.NewInt(102)},
	}, testSeller)
	assert.NoError(t, err)
	assert.Equal(t, []uint64{1, 1}, st.ItemIds)
	assert.Len(t, st.Events, 2)
	assert.Equal(t, schema.EventKindListed, st.Events[0].Kind)
	assert.Equal(t, schema.EventKindBought, st.Events[1].Kind)

	staged, _ := st.Ledger.Item(1)
	assert.True(t, staged.Sold)
	// the caller paid 102 and earned the 100 sale price back
	assert.Equal(t, "100", st.Ledger.BalanceOf(testSeller).String())
	assert.Equal(t, "2", st.Ledger.BalanceOf(testFeeAddr).String())
}

func TestBatchPurchaseWithoutApproval(t *testing.T) {
	batch, ledger, port := newTestBatch()

	reg := NewItemRegistry(ledger, port, testOperator)
	_, _, err := reg.List(testColl, 7, big.NewInt(100), testSeller)
	assert.NoError(t, err)

	// approval revoked between listing and purchase; staging must refuse
	// the move for the same reason the real port would at flush time
	port.approved[testSeller] = false

	_, err = batch.Run(ledger, port, []schema.BatchIntent{
		{Kind: schema.IntentKindPurchase, ItemId: 1, Payment: big.NewInt(102)},
	}, testBuyer)

	bie := &schema.BatchIntentError{}
	assert.ErrorAs(t, err, &bie)
	assert.Equal(t, 0, bie.Index)
	assert.ErrorIs(t, bie.Err, schema.ErrTransferRejected)

	assert.Equal(t, 0, port.transfers)
	base, _ := ledger.Item(1)
	assert.False(t, base.Sold)
	assert.Equal(t, testSeller, port.owners[schema.TokenRef{Collection: testColl, TokenId: 7}])
}

func TestBatchFirstFailureAborts(t *testing.T) {
	batch, ledger, port := newTestBatch()

	_, err := batch.Run(ledger, port, []schema.BatchIntent{
		{Kind: schema.IntentKindList, Collection: testColl, TokenId: 7, Price: big.NewInt(100)},
		{Kind: schema.IntentKindPurchase, ItemId: 42, Payment: big.NewInt(1000)},
	}, testSeller)

	bie := &schema.BatchIntentError{}
	assert.ErrorAs(t, err, &bie)
	assert.Equal(t, 1, bie.Index)
	assert.ErrorIs(t, bie.Err, schema.ErrItemNotFound)

	// zero net effect on the base state
	assert.Equal(t, uint64(0), ledger.LastItemId())
	assert.Equal(t, 0, port.transfers)
	assert.Equal(t, testSeller, port.owners[schema.TokenRef{Collection: testColl, TokenId: 7}])
}

func TestBatchInsufficientPaymentMidway(t *testing.T) {
	batch, ledger, port := newTestBatch()

	_, err := batch.Run(ledger, port, []schema.BatchIntent{
		{Kind: schema.IntentKindList, Collection: testColl, TokenId: 7, Price: big.NewInt(100)},
		{Kind: schema.IntentKindPurchase, ItemId: 1, Payment: big.NewInt(101)},
	}, testSeller)

	bie := &schema.BatchIntentError{}
	assert.ErrorAs(t, err, &bie)
	assert.Equal(t, 1, bie.Index)
	assert.ErrorIs(t, bie.Err, schema.ErrInsufficientPayment)
	assert.Equal(t, uint64(0), ledger.LastItemId())
}

func TestBatchUnknownIntent(t *testing.T) {
	batch, ledger, port := newTestBatch()

	_, err := batch.Run(ledger, port, []schema.BatchIntent{
		{Kind: "melt", ItemId: 1},
	}, testBuyer)

	bie := &schema.BatchIntentError{}
	assert.ErrorAs(t, err, &bie)
	assert.Equal(t, 0, bie.Index)
	assert.ErrorIs(t, bie.Err, schema.ErrUnknownIntent)
}

func TestBatchEmpty(t *testing.T) {
	batch, ledger, port := newTestBatch()

	st, err := batch.Run(ledger, port, nil, testBuyer)
	assert.NoError(t, err)
	assert.Empty(t, st.Events)
	assert.Empty(t, st.ItemIds)
}
