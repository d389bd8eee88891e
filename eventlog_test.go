package marketseed

import (
	"fmt"
	"testing"

	"github.com/permadex/marketseed/schema"
	"github.com/stretchr/testify/assert"
)

func TestEventLogAppendAndOrder(t *testing.T) {
	wdb := newTestWdb(t)
	elog := NewEventLog(wdb)

	for i := 1; i <= 5; i++ {
		err := elog.Append(schema.MarketEvent{
			Kind:   schema.EventKindListed,
			ItemId: uint64(i),
			Price:  fmt.Sprintf("%d00", i),
			Seller: testSeller.Hex(),
		})
		assert.NoError(t, err)
	}

	events, err := wdb.GetEvents(schema.EventFilter{})
	assert.NoError(t, err)
	assert.Len(t, events, 5)
	for i := 1; i < len(events); i++ {
		assert.Greater(t, events[i].ID, events[i-1].ID)
	}
}

func TestEventCursorPagination(t *testing.T) {
	wdb := newTestWdb(t)
	elog := NewEventLog(wdb)

	for i := 1; i <= 5; i++ {
		assert.NoError(t, elog.Append(schema.MarketEvent{
			Kind:   schema.EventKindListed,
			ItemId: uint64(i),
			Price:  "100",
			Seller: testSeller.Hex(),
		}))
	}

	cur := elog.Query(schema.EventFilter{Limit: 2})
	seen := make([]uint64, 0, 5)
	for {
		ev, err := cur.Next()
		assert.NoError(t, err)
		if ev == nil {
			break
		}
		seen = append(seen, ev.ItemId)
	}
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, seen)

	cur.Reset()
	ev, err := cur.Next()
	assert.NoError(t, err)
	assert.Equal(t, uint64(1), ev.ItemId)
}

func TestEventCursorFiltered(t *testing.T) {
	wdb := newTestWdb(t)
	elog := NewEventLog(wdb)

	assert.NoError(t, elog.Append(
		schema.MarketEvent{Kind: schema.EventKindListed, ItemId: 1, Price: "100", Seller: testSeller.Hex()},
		schema.MarketEvent{Kind: schema.EventKindBought, ItemId: 1, Price: "100", Seller: testSeller.Hex(), Buyer: testBuyer.Hex()},
		schema.MarketEvent{Kind: schema.EventKindListed, ItemId: 2, Price: "200", Seller: testBuyer.Hex()},
	))

	cur := elog.Query(schema.EventFilter{Kind: schema.EventKindListed})
	count := 0
	for {
		ev, err := cur.Next()
		assert.NoError(t, err)
		if ev == nil {
			break
		}
		assert.Equal(t, schema.EventKindListed, ev.Kind)
		count++
	}
	assert.Equal(t, 2, count)
}

func TestEventCursorEmpty(t *testing.T) {
	wdb := newTestWdb(t)
	elog := NewEventLog(wdb)

	cur := elog.Query(schema.EventFilter{ItemId: 9})
	ev, err := cur.Next()
	assert.NoError(t, err)
	assert.Nil(t, ev)
}
