package marketseed

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/permadex/marketseed/schema"
)

// ItemRegistry owns the listing lifecycle over one ledger. It never moves
// funds; disbursement belongs to PurchaseSettlement.
type ItemRegistry struct {
	ledger   *Ledger
	port     OwnershipPort
	operator common.Address
}

func NewItemRegistry(ledger *Ledger, port OwnershipPort, operator common.Address) *ItemRegistry {
	return &ItemRegistry{
		ledger:   ledger,
		port:     port,
		operator: operator,
	}
}

// List validates the ask and the seller's hold on the token, then stores
// the item with the next id and returns it with the Listed event the
// caller buffers until commit.
func (r *ItemRegistry) List(collection common.Address, tokenId uint64, price *big.Int, seller common.Address) (*schema.Item, schema.Event, error) {
	if price == nil || price.Sign() <= 0 {
		return nil, schema.Event{}, schema.ErrInvalidPrice
	}

	ref := schema.TokenRef{Collection: collection, TokenId: tokenId}
	owner, err := r.port.OwnerOf(ref)
	if err != nil {
		log.Warn("ownerOf lookup failed", "err", err, "collection", collection, "tokenId", tokenId)
		return nil, schema.Event{}, schema.ErrNotOwnerOrNotApproved
	}
	if owner != seller {
		return nil, schema.Event{}, schema.ErrNotOwnerOrNotApproved
	}
	approved, err := r.port.IsApprovedFor(ref, seller, r.operator)
	if err != nil || !approved {
		return nil, schema.Event{}, schema.ErrNotOwnerOrNotApproved
	}

	item := &schema.Item{
		ItemId:     r.ledger.NextItemId(),
		Collection: collection,
		TokenId:    tokenId,
		Seller:     seller,
		Price:      new(big.Int).Set(price),
	}
	r.ledger.PutItem(item)

	ev := schema.Event{
		Kind:       schema.EventKindListed,
		ItemId:     item.ItemId,
		Collection: collection,
		TokenId:    tokenId,
		Price:      new(big.Int).Set(price),
		Seller:     seller,
	}
	return item, ev, nil
}

func (r *ItemRegistry) Get(itemId uint64) (*schema.Item, error) {
	it, ok := r.ledger.Item(itemId)
	if !ok {
		return nil, schema.ErrItemNotFound
	}
	return it, nil
}

// MarkSold flips sold exactly once; internal, invoked solely by
// PurchaseSettlement inside one settlement.
func (r *ItemRegistry) MarkSold(itemId uint64, buyer common.Address) error {
	it, ok := r.ledger.Item(itemId)
	if !ok {
		return schema.ErrItemNotFound
	}
	if it.Sold {
		return schema.ErrAlreadySold
	}
	it.Sold = true
	it.Buyer = buyer
	return nil
}

// Count is the highest assigned item id; items are never deleted so it
// only grows.
func (r *ItemRegistry) Count() uint64 {
	return r.ledger.LastItemId()
}
