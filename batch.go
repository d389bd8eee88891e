package marketseed

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/permadex/marketseed/schema"
)

// BatchProcessor replays an ordered list of intents against a scratch copy
// of the ledger. The caller swaps the staged state in whole when Run
// succeeds; on failure the scratch copy is discarded and nothing leaks,
// which is what makes a batch equivalent to running its intents one at a
// time inside a single transaction.
type BatchProcessor struct {
	fee      *FeeAccounting
	operator common.Address
}

func NewBatchProcessor(fee *FeeAccounting, operator common.Address) *BatchProcessor {
	return &BatchProcessor{
		fee:      fee,
		operator: operator,
	}
}

// Staging is the working state of one batch: a deep copy of the ledger, a
// port overlay holding deferred ownership moves, and the events buffered
// until commit so no reader observes a half-applied batch.
type Staging struct {
	Ledger   *Ledger
	Port     *stagedPort
	Events   []schema.Event
	Receipts []schema.Receipt
	ItemIds  []uint64
}

// NewStaging builds the scratch state one batch (or one direct operation)
// executes against.
func (b *BatchProcessor) NewStaging(ledger *Ledger, port OwnershipPort) *Staging {
	return &Staging{
		Ledger: ledger.Clone(),
		Port:   newStagedPort(port, b.operator),
	}
}

func (st *Staging) registry(operator common.Address) *ItemRegistry {
	return NewItemRegistry(st.Ledger, st.Port, operator)
}

func (st *Staging) settlement(fee *FeeAccounting, operator common.Address) *PurchaseSettlement {
	reg := st.registry(operator)
	return NewPurchaseSettlement(reg, fee, st.Port, st.Ledger)
}

// Run executes the intents strictly in submission order; a later intent
// observes the staged effects of every earlier one. The first failure
// aborts with BatchIntentError carrying the zero-based index and the
// inner error kind, and the staging is worthless afterwards.
func (b *BatchProcessor) Run(ledger *Ledger, port OwnershipPort, intents []schema.BatchIntent, caller common.Address) (*Staging, error) {
	st := b.NewStaging(ledger, port)
	reg := st.registry(b.operator)
	settle := NewPurchaseSettlement(reg, b.fee, st.Port, st.Ledger)

	for i, intent := range intents {
		switch intent.Kind {
		case schema.IntentKindList:
			item, ev, err := reg.List(intent.Collection, intent.TokenId, intent.Price, caller)
			if err != nil {
				return nil, &schema.BatchIntentError{Index: i, Err: err}
			}
			st.ItemIds = append(st.ItemIds, item.ItemId)
			st.Events = append(st.Events, ev)

		case schema.IntentKindPurchase:
			receipt, ev, err := settle.Purchase(intent.ItemId, caller, intent.Payment)
			if err != nil {
				return nil, &schema.BatchIntentError{Index: i, Err: err}
			}
			st.ItemIds = append(st.ItemIds, intent.ItemId)
			st.Receipts = append(st.Receipts, receipt)
			st.Events = append(st.Events, ev)

		default:
			return nil, &schema.BatchIntentError{Index: i, Err: schema.ErrUnknownIntent}
		}
	}
	return st, nil
}
