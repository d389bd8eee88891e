package schema

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	// FeeRateDenominator fee rate is expressed in hundredths of a percent,
	// e.g. 25 means 2.5%
	FeeRateDenominator = int64(1000)

	DefaultFeeRate = int64(25)

	// event kinds; stable, consumed by off-chain indexers
	EventKindListed = "listed"
	EventKindBought = "bought"

	// batch intent kinds
	IntentKindList     = "list"
	IntentKindPurchase = "purchase"
)

// TokenRef identifies one token inside an external collection.
type TokenRef struct {
	Collection common.Address `json:"collection"`
	TokenId    uint64         `json:"tokenId"`
}

// Item is one marketplace listing. ItemId is assigned at listing time,
// starts at 1 and is never reused; Sold flips to true exactly once.
type Item struct {
	ItemId     uint64         `json:"itemId"`
	Collection common.Address `json:"collection"`
	TokenId    uint64         `json:"tokenId"`
	Seller     common.Address `json:"seller"`
	Price      *big.Int       `json:"price"`
	Sold       bool           `json:"sold"`
	Buyer      common.Address `json:"buyer"`
}

func (i *Item) TokenRef() TokenRef {
	return TokenRef{Collection: i.Collection, TokenId: i.TokenId}
}

func (i *Item) Copy() *Item {
	cp := *i
	cp.Price = new(big.Int).Set(i.Price)
	return &cp
}

// Event is a canonical domain event. Buyer is the zero address for
// listed events.
type Event struct {
	Kind       string         `json:"kind"`
	ItemId     uint64         `json:"itemId"`
	Collection common.Address `json:"collection"`
	TokenId    uint64         `json:"tokenId"`
	Price      *big.Int       `json:"price"`
	Seller     common.Address `json:"seller"`
	Buyer      common.Address `json:"buyer"`
}

// BatchIntent is one operation inside a batch; transient, discarded after
// the batch commits or aborts. List intents use Collection/TokenId/Price,
// purchase intents use ItemId/Payment.
type BatchIntent struct {
	Kind       string         `json:"kind"`
	Collection common.Address `json:"collection,omitempty"`
	TokenId    uint64         `json:"tokenId,omitempty"`
	Price      *big.Int       `json:"price,omitempty"`
	ItemId     uint64         `json:"itemId,omitempty"`
	Payment    *big.Int       `json:"payment,omitempty"`
}

// Receipt reports one settled purchase.
type Receipt struct {
	ItemId     uint64         `json:"itemId"`
	Collection common.Address `json:"collection"`
	TokenId    uint64         `json:"tokenId"`
	Price      *big.Int       `json:"price"`
	Fee        *big.Int       `json:"fee"`
	Refund     *big.Int       `json:"refund"`
	Seller     common.Address `json:"seller"`
	Buyer      common.Address `json:"buyer"`
}

// BatchReceipt aggregates one committed batch. ItemIds holds, per intent
// in submission order, the listed item id or the purchased item id.
type BatchReceipt struct {
	BatchId  string         `json:"batchId"`
	Caller   common.Address `json:"caller"`
	ItemIds  []uint64       `json:"itemIds"`
	Receipts []Receipt      `json:"receipts"`
	Events   []Event        `json:"events"`
}

// EventFilter is the public query contract of the event log. Account
// matches either seller or buyer. AfterId is an exclusive cursor over the
// commit order; Limit caps one page.
type EventFilter struct {
	Kind    string `json:"kind,omitempty"`
	Account string `json:"account,omitempty"`
	ItemId  uint64 `json:"itemId,omitempty"`
	AfterId uint   `json:"afterId,omitempty"`
	Limit   int    `json:"limit,omitempty"`
}
