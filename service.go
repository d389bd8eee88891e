package marketseed

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/permadex/marketseed/schema"
)

// Single operations run through the same staging machinery as batches: a
// one-intent staging that commits immediately. That keeps exactly one
// code path mutating the ledger.

func (s *MarketSeed) ListItem(collection common.Address, tokenId uint64, price *big.Int, seller common.Address) (*schema.Item, error) {
	s.settleLocker.Lock()
	defer s.settleLocker.Unlock()

	st := s.batch.NewStaging(s.ledger, s.port)
	reg := st.registry(s.operator)
	item, ev, err := reg.List(collection, tokenId, price, seller)
	if err != nil {
		return nil, err
	}
	st.ItemIds = append(st.ItemIds, item.ItemId)
	st.Events = append(st.Events, ev)

	if err := s.commit(st, "", seller); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *MarketSeed) PurchaseItem(itemId uint64, buyer common.Address, payment *big.Int) (schema.Receipt, error) {
	s.settleLocker.Lock()
	defer s.settleLocker.Unlock()

	st := s.batch.NewStaging(s.ledger, s.port)
	settle := st.settlement(s.fee, s.operator)
	receipt, ev, err := settle.Purchase(itemId, buyer, payment)
	if err != nil {
		return schema.Receipt{}, err
	}
	st.ItemIds = append(st.ItemIds, itemId)
	st.Receipts = append(st.Receipts, receipt)
	st.Events = append(st.Events, ev)

	if err := s.commit(st, "", buyer); err != nil {
		return schema.Receipt{}, err
	}
	return receipt, nil
}

// RunBatch settles all intents or none of them. The receipt is persisted
// under a fresh batch id, so callers can re-fetch it later.
func (s *MarketSeed) RunBatch(caller common.Address, intents []schema.BatchIntent) (schema.BatchReceipt, error) {
	s.settleLocker.Lock()
	defer s.settleLocker.Unlock()

	st, err := s.batch.Run(s.ledger, s.port, intents, caller)
	if err != nil {
		batchesAborted.WithLabelValues(abortReason(err)).Inc()
		return schema.BatchReceipt{}, err
	}

	batchId := uuid.NewString()
	if err := s.commit(st, batchId, caller); err != nil {
		batchesAborted.WithLabelValues(abortReason(err)).Inc()
		return schema.BatchReceipt{}, err
	}

	br := schema.BatchReceipt{
		BatchId:  batchId,
		Caller:   caller,
		ItemIds:  st.ItemIds,
		Receipts: st.Receipts,
		Events:   st.Events,
	}
	if err := s.store.SaveBatchReceipt(br); err != nil {
		log.Error("persist batch receipt failed", "err", err, "batchId", batchId)
	}
	s.publishBatch(br)
	return br, nil
}

func (s *MarketSeed) GetItem(itemId uint64) (*schema.Item, error) {
	s.settleLocker.Lock()
	defer s.settleLocker.Unlock()

	it, ok := s.ledger.Item(itemId)
	if !ok {
		return nil, schema.ErrItemNotFound
	}
	return it.Copy(), nil
}

// ItemCount is the highest assigned item id.
func (s *MarketSeed) ItemCount() uint64 {
	s.settleLocker.Lock()
	defer s.settleLocker.Unlock()
	return s.ledger.LastItemId()
}

func (s *MarketSeed) GetTotalPrice(itemId uint64) (*big.Int, error) {
	s.settleLocker.Lock()
	defer s.settleLocker.Unlock()

	it, ok := s.ledger.Item(itemId)
	if !ok {
		return nil, schema.ErrItemNotFound
	}
	return s.fee.TotalPrice(it.Price), nil
}

func (s *MarketSeed) BalanceOf(addr common.Address) *big.Int {
	s.settleLocker.Lock()
	defer s.settleLocker.Unlock()
	return s.ledger.BalanceOf(addr)
}

func (s *MarketSeed) MarketInfo() schema.MarketInfo {
	return s.cache.GetInfo()
}

func abortReason(err error) string {
	var bie *schema.BatchIntentError
	if errors.As(err, &bie) {
		err = bie.Err
	}
	switch {
	case errors.Is(err, schema.ErrInvalidPrice):
		return "invalid_price"
	case errors.Is(err, schema.ErrNotOwnerOrNotApproved):
		return "not_owner_or_not_approved"
	case errors.Is(err, schema.ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, schema.ErrAlreadySold):
		return "already_sold"
	case errors.Is(err, schema.ErrInsufficientPayment):
		return "insufficient_payment"
	case errors.Is(err, schema.ErrTransferRejected):
		return "transfer_rejected"
	case errors.Is(err, schema.ErrUnknownIntent):
		return "unknown_intent"
	default:
		return "internal"
	}
}
