package marketseed

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/permadex/marketseed/schema"
)

// PurchaseSettlement executes one purchase: payment validation, ownership
// transfer, fund disbursement. It is the only component allowed to move
// funds. Every failure path returns before any ledger mutation, so a
// rejected purchase never captures payment partially.
type PurchaseSettlement struct {
	registry *ItemRegistry
	fee      *FeeAccounting
	port     OwnershipPort
	ledger   *Ledger
}

func NewPurchaseSettlement(registry *ItemRegistry, fee *FeeAccounting, port OwnershipPort, ledger *Ledger) *PurchaseSettlement {
	return &PurchaseSettlement{
		registry: registry,
		fee:      fee,
		port:     port,
		ledger:   ledger,
	}
}

func (p *PurchaseSettlement) Purchase(itemId uint64, buyer common.Address, payment *big.Int) (schema.Receipt, schema.Event, error) {
	// 1. load item
	item, err := p.registry.Get(itemId)
	if err != nil {
		return schema.Receipt{}, schema.Event{}, err
	}
	if item.Sold {
		return schema.Receipt{}, schema.Event{}, schema.ErrAlreadySold
	}

	// 2. validate payment
	if payment == nil {
		payment = new(big.Int)
	}
	required := p.fee.TotalPrice(item.Price)
	if payment.Cmp(required) < 0 {
		return schema.Receipt{}, schema.Event{}, schema.ErrInsufficientPayment
	}

	// 3. transfer ownership; a refusal aborts with no state mutation
	if err := p.port.Transfer(item.TokenRef(), item.Seller, buyer); err != nil {
		return schema.Receipt{}, schema.Event{}, schema.ErrTransferRejected
	}

	// 4. mark sold
	if err := p.registry.MarkSold(itemId, buyer); err != nil {
		return schema.Receipt{}, schema.Event{}, err
	}

	// 5. disburse: price to the seller, the cut to the fee recipient, the
	// exact excess back to the buyer
	feeAmount := p.fee.FeeOf(item.Price)
	refund := new(big.Int).Sub(payment, required)
	p.ledger.Credit(item.Seller, item.Price)
	p.ledger.Credit(p.fee.Recipient(), feeAmount)
	p.ledger.Credit(buyer, refund)

	// 6. emit Bought
	ev := schema.Event{
		Kind:       schema.EventKindBought,
		ItemId:     item.ItemId,
		Collection: item.Collection,
		TokenId:    item.TokenId,
		Price:      new(big.Int).Set(item.Price),
		Seller:     item.Seller,
		Buyer:      buyer,
	}

	receipt := schema.Receipt{
		ItemId:     item.ItemId,
		Collection: item.Collection,
		TokenId:    item.TokenId,
		Price:      new(big.Int).Set(item.Price),
		Fee:        feeAmount,
		Refund:     refund,
		Seller:     item.Seller,
		Buyer:      buyer,
	}
	return receipt, ev, nil
}
