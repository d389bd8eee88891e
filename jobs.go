package marketseed

import (
	"encoding/json"
	"math/big"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/permadex/marketseed/schema"
	"github.com/shopspring/decimal"
)

func (s *MarketSeed) runJobs() {
	s.scheduler.Every(1).Minute().SingletonMode().Do(s.snapshotState)
	s.scheduler.Every(2).Minute().SingletonMode().Do(s.warmItemCache)
	s.scheduler.Every(5).Minute().SingletonMode().Do(s.updateStatistics)

	s.scheduler.StartAsync()
}

// snapshotState mirrors the escrow balances and the item id high-water
// mark into the KV store, so a restart with a stale relational backup can
// not hand out an already-used item id.
func (s *MarketSeed) snapshotState() {
	s.settleLocker.Lock()
	balances := s.ledger.Balances()
	lastItemId := s.ledger.LastItemId()
	s.settleLocker.Unlock()

	if err := s.store.SaveBalances(balances); err != nil {
		log.Error("snapshot balances failed", "err", err)
		return
	}
	if err := s.store.SaveLastItemId(lastItemId); err != nil {
		log.Error("snapshot lastItemId failed", "err", err)
	}
}

// updateStatistics recomputes today's sales aggregate from the bought
// events of the current UTC day.
func (s *MarketSeed) updateStatistics() {
	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	events, err := s.wdb.GetBoughtEventsSince(today)
	if err != nil {
		log.Error("load bought events failed", "err", err)
		return
	}

	volume := decimal.Zero
	fees := decimal.Zero
	for _, ev := range events {
		price, ok := new(big.Int).SetString(ev.Price, 10)
		if !ok {
			log.Warn("skip event with bad price", "id", ev.ID, "price", ev.Price)
			continue
		}
		volume = volume.Add(decimal.NewFromBigInt(price, 0))
		fees = fees.Add(decimal.NewFromBigInt(s.fee.FeeOf(price), 0))
	}

	st := schema.DailyStatistic{
		Date:   today,
		Sales:  int64(len(events)),
		Volume: volume.String(),
		Fees:   fees.String(),
	}
	if err := s.wdb.UpdateStatistic(st); err != nil {
		log.Error("update daily statistic failed", "err", err)
		return
	}
	metricTradeVolume(volume.Add(fees))
}

// warmItemCache pre-renders the unsold item payloads so first hits after
// an invalidation do not all fall through to the db.
func (s *MarketSeed) warmItemCache() {
	items, err := s.wdb.GetItems(true)
	if err != nil {
		log.Error("load unsold items failed", "err", err)
		return
	}
	if len(items) == 0 {
		return
	}

	var wg sync.WaitGroup
	p, err := ants.NewPoolWithFunc(10, func(i interface{}) {
		defer wg.Done()
		rec := i.(schema.MarketItem)
		price, ok := new(big.Int).SetString(rec.Price, 10)
		if !ok {
			return
		}
		resp := schema.ItemResp{
			Item:       &rec,
			TotalPrice: s.fee.TotalPrice(price).String(),
		}
		payload, err := json.Marshal(&resp)
		if err != nil {
			return
		}
		s.cache.SetItem(rec.ItemId, payload)
	})
	if err != nil {
		log.Error("create cache warm pool failed", "err", err)
		return
	}
	defer p.Release()

	for _, rec := range items {
		wg.Add(1)
		if err := p.Invoke(rec); err != nil {
			wg.Done()
		}
	}
	wg.Wait()
}
