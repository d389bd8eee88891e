package schema

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/datatypes"
)

type MarketItem struct {
	ItemId    uint64    `gorm:"primarykey;autoIncrement:false" json:"itemId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Collection string `gorm:"index:idx_token" json:"collection"`
	TokenId    uint64 `gorm:"index:idx_token" json:"tokenId"`
	Seller     string `gorm:"index:idx_seller" json:"seller"`
	Price      string `json:"price"`
	Sold       bool   `json:"sold"`
	Buyer      string `json:"buyer"`
}

type MarketEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"` // commit order
	CreatedAt time.Time `json:"createdAt"`

	Kind       string `gorm:"index:idx_kind" json:"kind"`
	ItemId     uint64 `gorm:"index:idx_item" json:"itemId"`
	Collection string `json:"collection"`
	TokenId    uint64 `json:"tokenId"`
	Price      string `json:"price"`
	Seller     string `gorm:"index:idx_ev_seller" json:"seller"`
	Buyer      string `gorm:"index:idx_ev_buyer" json:"buyer"`
	BatchId    string `json:"batchId,omitempty"`
}

type BatchRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`

	BatchId   string         `gorm:"unique" json:"batchId"`
	Caller    string         `gorm:"index:idx_caller" json:"caller"`
	IntentNum int            `json:"intentNum"`
	EventNum  int            `json:"eventNum"`
	Receipt   datatypes.JSON `json:"receipt"` // full BatchReceipt payload
}

// FeeConfig is a singleton row (ID = 1). FeeRate is immutable per
// deployment and read once at startup.
type FeeConfig struct {
	ID           uint   `gorm:"primarykey" json:"-"`
	FeeRate      int64  `json:"feeRate"` // hundredths of a percent
	FeeRecipient string `json:"feeRecipient"`
	Operator     string `json:"operator"` // market identity used for approval checks
}

// DailyStatistic aggregates committed sales per UTC day.
type DailyStatistic struct {
	Date      time.Time `gorm:"primarykey" json:"date"`
	Sales     int64     `json:"sales"`
	Volume    string    `json:"volume"` // sum of sale prices
	Fees      string    `json:"fees"`   // sum of marketplace cuts
	UpdatedAt time.Time `json:"updatedAt"`
}

func (i *Item) ToRecord() MarketItem {
	return MarketItem{
		ItemId:     i.ItemId,
		Collection: i.Collection.Hex(),
		TokenId:    i.TokenId,
		Seller:     i.Seller.Hex(),
		Price:      i.Price.String(),
		Sold:       i.Sold,
		Buyer:      i.Buyer.Hex(),
	}
}

func (r *MarketItem) ToItem() *Item {
	price, _ := new(big.Int).SetString(r.Price, 10)
	if price == nil {
		price = new(big.Int)
	}
	return &Item{
		ItemId:     r.ItemId,
		Collection: common.HexToAddress(r.Collection),
		TokenId:    r.TokenId,
		Seller:     common.HexToAddress(r.Seller),
		Price:      price,
		Sold:       r.Sold,
		Buyer:      common.HexToAddress(r.Buyer),
	}
}

func (e *Event) ToRecord(batchId string) MarketEvent {
	rec := MarketEvent{
		Kind:       e.Kind,
		ItemId:     e.ItemId,
		Collection: e.Collection.Hex(),
		TokenId:    e.TokenId,
		Price:      e.Price.String(),
		Seller:     e.Seller.Hex(),
		BatchId:    batchId,
	}
	if e.Kind == EventKindBought {
		rec.Buyer = e.Buyer.Hex()
	}
	return rec
}
