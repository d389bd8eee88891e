package marketseed

import (
	"math/big"
	"testing"

	"github.com/permadex/marketseed/schema"
	"github.com/stretchr/testify/assert"
)

func newTestMarket(t *testing.T) *MarketSeed {
	dir := t.TempDir()
	s := New(
		dir, "", dir, true,
		"", "", "",
		false, "", "", "", "", "",
		false, false, "", "", "", "",
		false, "",
		"", false,
	)
	t.Cleanup(s.Close)
	return s
}

func mintAndApprove(t *testing.T, s *MarketSeed) uint64 {
	tokenId, err := s.book.Mint(testColl, testSeller, "ar://meta")
	assert.NoError(t, err)
	assert.NoError(t, s.book.SetApprovalFor(testColl, testSeller, s.operator, true))
	return tokenId
}

func TestMarketListAndPurchase(t *testing.T) {
	s := newTestMarket(t)
	tokenId := mintAndApprove(t, s)

	item, err := s.ListItem(testColl, tokenId, big.NewInt(100), testSeller)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), item.ItemId)
	assert.Equal(t, uint64(1), s.ItemCount())

	total, err := s.GetTotalPrice(1)
	assert.NoError(t, err)
	assert.Equal(t, "102", total.String())

	receipt, err := s.PurchaseItem(1, testBuyer, big.NewInt(102))
	assert.NoError(t, err)
	assert.Equal(t, "100", receipt.Price.String())
	assert.Equal(t, "2", receipt.Fee.String())

	assert.Equal(t, "100", s.BalanceOf(testSeller).String())
	assert.Equal(t, "2", s.BalanceOf(s.fee.Recipient()).String())

	// ownership really moved
	owner, err := s.book.OwnerOf(schema.TokenRef{Collection: testColl, TokenId: tokenId})
	assert.NoError(t, err)
	assert.Equal(t, testBuyer, owner)

	// both events are durable, in commit order
	events, err := s.wdb.GetEvents(schema.EventFilter{ItemId: 1})
	assert.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, schema.EventKindListed, events[0].Kind)
	assert.Equal(t, schema.EventKindBought, events[1].Kind)
}

func TestMarketPurchaseFailureLeavesNoTrace(t *testing.T) {
	s := newTestMarket(t)
	tokenId := mintAndApprove(t, s)

	_, err := s.ListItem(testColl, tokenId, big.NewInt(100), testSeller)
	assert.NoError(t, err)

	_, err = s.PurchaseItem(1, testBuyer, big.NewInt(101))
	assert.ErrorIs(t, err, schema.ErrInsufficientPayment)

	item, err := s.GetItem(1)
	assert.NoError(t, err)
	assert.False(t, item.Sold)
	assert.Equal(t, "0", s.BalanceOf(testSeller).String())

	events, err := s.wdb.GetEvents(schema.EventFilter{Kind: schema.EventKindBought})
	assert.NoError(t, err)
	assert.Empty(t, events)
}

func TestMarketRunBatch(t *testing.T) {
	s := newTestMarket(t)
	tokenId := mintAndApprove(t, s)
	assert.NoError(t, s.book.SetApprovalFor(testColl, testSeller, s.operator, true))

	br, err := s.RunBatch(testSeller, []schema.BatchIntent{
		{Kind: schema.IntentKindList, Collection: testColl, TokenId: tokenId, Price: big.NewInt(100)},
		{Kind: schema.IntentKindPurchase, ItemId: 1, Payment: big.NewInt(102)},
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, br.BatchId)
	assert.Equal(t, []uint64{1, 1}, br.ItemIds)
	assert.Len(t, br.Events, 2)

	// the receipt is re-fetchable from the KV store and the batch row exists
	got, err := s.store.LoadBatchReceipt(br.BatchId)
	assert.NoError(t, err)
	assert.Equal(t, br.BatchId, got.BatchId)

	rec, err := s.wdb.GetBatch(br.BatchId)
	assert.NoError(t, err)
	assert.Equal(t, 2, rec.EventNum)
}

func TestMarketRunBatchAborts(t *testing.T) {
	s := newTestMarket(t)
	tokenId := mintAndApprove(t, s)

	_, err := s.RunBatch(testSeller, []schema.BatchIntent{
		{Kind: schema.IntentKindList, Collection: testColl, TokenId: tokenId, Price: big.NewInt(100)},
		{Kind: schema.IntentKindPurchase, ItemId: 42, Payment: big.NewInt(1000)},
	})
	bie := &schema.BatchIntentError{}
	assert.ErrorAs(t, err, &bie)
	assert.Equal(t, 1, bie.Index)

	// the aborted batch left nothing behind
	assert.Equal(t, uint64(0), s.ItemCount())
	events, err := s.wdb.GetEvents(schema.EventFilter{})
	assert.NoError(t, err)
	assert.Empty(t, events)
	owner, err := s.book.OwnerOf(schema.TokenRef{Collection: testColl, TokenId: tokenId})
	assert.NoError(t, err)
	assert.Equal(t, testSeller, owner)
}

func TestMarketPurchaseAfterApprovalRevoked(t *testing.T) {
	s := newTestMarket(t)
	tokenId := mintAndApprove(t, s)

	_, err := s.ListItem(testColl, tokenId, big.NewInt(100), testSeller)
	assert.NoError(t, err)

	// the seller withdraws the operator approval between listing and sale
	assert.NoError(t, s.book.SetApprovalFor(testColl, testSeller, s.operator, false))

	_, err = s.PurchaseItem(1, testBuyer, big.NewInt(102))
	assert.ErrorIs(t, err, schema.ErrTransferRejected)

	// nothing durable: the mirror still shows the listing, no bought event
	rec, err := s.wdb.GetItem(1)
	assert.NoError(t, err)
	assert.False(t, rec.Sold)
	events, err := s.wdb.GetEvents(schema.EventFilter{Kind: schema.EventKindBought})
	assert.NoError(t, err)
	assert.Empty(t, events)

	assert.Equal(t, "0", s.BalanceOf(testSeller).String())
	owner, err := s.book.OwnerOf(schema.TokenRef{Collection: testColl, TokenId: tokenId})
	assert.NoError(t, err)
	assert.Equal(t, testSeller, owner)

	item, err := s.GetItem(1)
	assert.NoError(t, err)
	assert.False(t, item.Sold)
}

func TestMarketRejectedFlushLeavesNoTrace(t *testing.T) {
	s := newTestMarket(t)
	tokenId := mintAndApprove(t, s)

	_, err := s.ListItem(testColl, tokenId, big.NewInt(100), testSeller)
	assert.NoError(t, err)

	// a port that validates but refuses the real move at commit time
	port := newMockPort()
	port.owners[schema.TokenRef{Collection: testColl, TokenId: tokenId}] = testSeller
	port.approved[testSeller] = true
	port.rejectTransfer = true
	s.port = port

	_, err = s.PurchaseItem(1, testBuyer, big.NewInt(102))
	assert.ErrorIs(t, err, schema.ErrTransferRejected)

	rec, err := s.wdb.GetItem(1)
	assert.NoError(t, err)
	assert.False(t, rec.Sold)
	events, err := s.wdb.GetEvents(schema.EventFilter{Kind: schema.EventKindBought})
	assert.NoError(t, err)
	assert.Empty(t, events)
	assert.Equal(t, "0", s.BalanceOf(testSeller).String())
	assert.Equal(t, "0", s.BalanceOf(s.fee.Recipient()).String())

	item, err := s.GetItem(1)
	assert.NoError(t, err)
	assert.False(t, item.Sold)
}

func TestMarketItemNotFound(t *testing.T) {
	s := newTestMarket(t)
	_, err := s.GetItem(5)
	assert.ErrorIs(t, err, schema.ErrItemNotFound)
	_, err = s.GetTotalPrice(5)
	assert.ErrorIs(t, err, schema.ErrItemNotFound)
}

func TestMarketInfo(t *testing.T) {
	s := newTestMarket(t)
	info := s.MarketInfo()
	assert.Equal(t, schema.DefaultFeeRate, info.FeeRate)
	assert.Equal(t, uint64(0), info.ItemCount)

	tokenId := mintAndApprove(t, s)
	_, err := s.ListItem(testColl, tokenId, big.NewInt(100), testSeller)
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), s.MarketInfo().ItemCount)
}
