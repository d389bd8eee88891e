package marketseed

import (
	"testing"

	"github.com/permadex/marketseed/schema"
	"github.com/stretchr/testify/assert"
)

func newTestWdb(t *testing.T) *Wdb {
	wdb := NewSqliteDb(t.TempDir())
	assert.NoError(t, wdb.Migrate())
	t.Cleanup(wdb.Close)
	return wdb
}

func TestWdbCommitUnit(t *testing.T) {
	wdb := newTestWdb(t)

	items := []schema.MarketItem{
		{ItemId: 1, Collection: testColl.Hex(), TokenId: 7, Seller: testSeller.Hex(), Price: "100"},
	}
	events := []schema.MarketEvent{
		{Kind: schema.EventKindListed, ItemId: 1, Price: "100", Seller: testSeller.Hex()},
	}
	assert.NoError(t, wdb.CommitUnit(items, events, nil))

	got, err := wdb.GetItem(1)
	assert.NoError(t, err)
	assert.Equal(t, "100", got.Price)
	assert.False(t, got.Sold)

	// upsert flips the same row instead of inserting a second one
	items[0].Sold = true
	items[0].Buyer = testBuyer.Hex()
	events = []schema.MarketEvent{
		{Kind: schema.EventKindBought, ItemId: 1, Price: "100", Seller: testSeller.Hex(), Buyer: testBuyer.Hex()},
	}
	batch := &schema.BatchRecord{BatchId: "b-1", Caller: testBuyer.Hex(), IntentNum: 1, EventNum: 1}
	assert.NoError(t, wdb.CommitUnit(items, events, batch))

	all, err := wdb.LoadItems()
	assert.NoError(t, err)
	assert.Len(t, all, 1)
	assert.True(t, all[0].Sold)

	br, err := wdb.GetBatch("b-1")
	assert.NoError(t, err)
	assert.Equal(t, testBuyer.Hex(), br.Caller)

	_, err = wdb.GetBatch("nope")
	assert.ErrorIs(t, err, schema.ErrNotExist)
}

func TestWdbGetItemNotFound(t *testing.T) {
	wdb := newTestWdb(t)
	_, err := wdb.GetItem(1)
	assert.ErrorIs(t, err, schema.ErrItemNotFound)
}

func TestWdbGetItemsUnsold(t *testing.T) {
	wdb := newTestWdb(t)
	items := []schema.MarketItem{
		{ItemId: 1, Seller: testSeller.Hex(), Price: "100"},
		{ItemId: 2, Seller: testSeller.Hex(), Price: "200", Sold: true, Buyer: testBuyer.Hex()},
		{ItemId: 3, Seller: testBuyer.Hex(), Price: "300"},
	}
	assert.NoError(t, wdb.CommitUnit(items, nil, nil))

	unsold, err := wdb.GetItems(true)
	assert.NoError(t, err)
	assert.Len(t, unsold, 2)

	all, err := wdb.GetItems(false)
	assert.NoError(t, err)
	assert.Len(t, all, 3)

	bySeller, err := wdb.GetItemsBySeller(testSeller.Hex())
	assert.NoError(t, err)
	assert.Len(t, bySeller, 2)
}

func TestWdbGetEventsFilter(t *testing.T) {
	wdb := newTestWdb(t)
	events := []schema.MarketEvent{
		{Kind: schema.EventKindListed, ItemId: 1, Price: "100", Seller: testSeller.Hex()},
		{Kind: schema.EventKindListed, ItemId: 2, Price: "200", Seller: testBuyer.Hex()},
		{Kind: schema.EventKindBought, ItemId: 1, Price: "100", Seller: testSeller.Hex(), Buyer: testBuyer.Hex()},
	}
	assert.NoError(t, wdb.CommitUnit(nil, events, nil))

	bought, err := wdb.GetEvents(schema.EventFilter{Kind: schema.EventKindBought})
	assert.NoError(t, err)
	assert.Len(t, bought, 1)

	// account matches seller or buyer
	byBuyer, err := wdb.GetEvents(schema.EventFilter{Account: testBuyer.Hex()})
	assert.NoError(t, err)
	assert.Len(t, byBuyer, 2)

	byItem, err := wdb.GetEvents(schema.EventFilter{ItemId: 1})
	assert.NoError(t, err)
	assert.Len(t, byItem, 2)

	// afterId is exclusive
	after, err := wdb.GetEvents(schema.EventFilter{AfterId: byItem[0].ID})
	assert.NoError(t, err)
	assert.Len(t, after, 2)

	limited, err := wdb.GetEvents(schema.EventFilter{Limit: 1})
	assert.NoError(t, err)
	assert.Len(t, limited, 1)
	assert.Equal(t, schema.EventKindListed, limited[0].Kind)
}

func TestWdbFeeConfigSingleton(t *testing.T) {
	wdb := newTestWdb(t)

	fc, err := wdb.GetFeeConfig()
	assert.NoError(t, err)
	assert.Equal(t, schema.DefaultFeeRate, fc.FeeRate)

	fc.FeeRecipient = testFeeAddr.Hex()
	fc.Operator = testOperator.Hex()
	assert.NoError(t, wdb.StoreFeeConfig(fc))

	again, err := wdb.GetFeeConfig()
	assert.NoError(t, err)
	assert.Equal(t, testFeeAddr.Hex(), again.FeeRecipient)
	assert.Equal(t, uint(1), again.ID)
}

func TestWdbStatistics(t *testing.T) {
	wdb := newTestWdb(t)

	st := schema.DailyStatistic{Sales: 3, Volume: "300", Fees: "6"}
	assert.NoError(t, wdb.UpdateStatistic(st))
	st.Sales = 4
	st.Volume = "402"
	assert.NoError(t, wdb.UpdateStatistic(st))

	days, err := wdb.GetStatistics(7)
	assert.NoError(t, err)
	assert.Len(t, days, 1)
	assert.Equal(t, int64(4), days[0].Sales)
	assert.Equal(t, "402", days[0].Volume)
}
