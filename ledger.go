package marketseed

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/permadex/marketseed/schema"
)

// Ledger is the explicit, injectable state arena of the settlement engine:
// the item table keyed by itemId plus the escrow balance table. It carries
// no locking of its own; the engine serializes every commit, and batch
// staging works on a Clone that is swapped in whole.
type Ledger struct {
	items      map[uint64]*schema.Item
	balances   map[common.Address]*big.Int
	lastItemId uint64
}

func NewLedger() *Ledger {
	return &Ledger{
		items:    make(map[uint64]*schema.Item),
		balances: make(map[common.Address]*big.Int),
	}
}

func (l *Ledger) Clone() *Ledger {
	cp := &Ledger{
		items:      make(map[uint64]*schema.Item, len(l.items)),
		balances:   make(map[common.Address]*big.Int, len(l.balances)),
		lastItemId: l.lastItemId,
	}
	for id, it := range l.items {
		cp.items[id] = it.Copy()
	}
	for addr, bal := range l.balances {
		cp.balances[addr] = new(big.Int).Set(bal)
	}
	return cp
}

func (l *Ledger) Item(itemId uint64) (*schema.Item, bool) {
	it, ok := l.items[itemId]
	return it, ok
}

func (l *Ledger) PutItem(it *schema.Item) {
	l.items[it.ItemId] = it
	if it.ItemId > l.lastItemId {
		l.lastItemId = it.ItemId
	}
}

// NextItemId allocates the next id; ids start at 1 and are never reused.
func (l *Ledger) NextItemId() uint64 {
	l.lastItemId++
	return l.lastItemId
}

func (l *Ledger) LastItemId() uint64 {
	return l.lastItemId
}

func (l *Ledger) Credit(addr common.Address, amount *big.Int) {
	if amount.Sign() == 0 {
		return
	}
	bal, ok := l.balances[addr]
	if !ok {
		bal = new(big.Int)
		l.balances[addr] = bal
	}
	bal.Add(bal, amount)
}

func (l *Ledger) BalanceOf(addr common.Address) *big.Int {
	bal, ok := l.balances[addr]
	if !ok {
		return new(big.Int)
	}
	return new(big.Int).Set(bal)
}

func (l *Ledger) Items() []*schema.Item {
	res := make([]*schema.Item, 0, len(l.items))
	for _, it := range l.items {
		res = append(res, it)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ItemId < res[j].ItemId })
	return res
}

func (l *Ledger) Balances() map[common.Address]*big.Int {
	res := make(map[common.Address]*big.Int, len(l.balances))
	for addr, bal := range l.balances {
		res[addr] = new(big.Int).Set(bal)
	}
	return res
}
