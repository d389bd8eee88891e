package schema

// Amounts travel as base-10 strings so javascript callers never lose
// precision on uint256-scale values.

type ListItemReq struct {
	Collection string `json:"collection"`
	TokenId    uint64 `json:"tokenId"`
	Price      string `json:"price"`
	Seller     string `json:"seller"`
}

type PurchaseReq struct {
	ItemId  uint64 `json:"itemId"`
	Buyer   string `json:"buyer"`
	Payment string `json:"payment"`
}

type BatchIntentReq struct {
	Kind       string `json:"kind"`
	Collection string `json:"collection,omitempty"`
	TokenId    uint64 `json:"tokenId,omitempty"`
	Price      string `json:"price,omitempty"`
	ItemId     uint64 `json:"itemId,omitempty"`
	Payment    string `json:"payment,omitempty"`
}

type BatchReq struct {
	Caller  string           `json:"caller"`
	Intents []BatchIntentReq `json:"intents"`
}

type TokenApprovalReq struct {
	Collection string `json:"collection"`
	Owner      string `json:"owner"`
	Operator   string `json:"operator"`
	Approved   bool   `json:"approved"`
}

type MintTokenReq struct {
	Collection string `json:"collection"`
	To         string `json:"to"`
	TokenUri   string `json:"tokenUri"`
}

type MarketInfo struct {
	FeeRate      int64  `json:"feeRate"`
	FeeRecipient string `json:"feeRecipient"`
	Operator     string `json:"operator"`
	ItemCount    uint64 `json:"itemCount"`
}

type ItemResp struct {
	Item       *MarketItem `json:"item"`
	TotalPrice string      `json:"totalPrice"`
}

type ListedItemsResp struct {
	Listed []MarketItem `json:"listed"`
	Sold   []MarketItem `json:"sold"`
}

type EventsResp struct {
	Events []MarketEvent `json:"events"`
	Cursor uint          `json:"cursor"` // pass back as afterId to resume
}

type StatsResp struct {
	Days []DailyStatistic `json:"days"`
}

type RespErr struct {
	Err string `json:"error"`
}

func (r RespErr) Error() string {
	return r.Err
}
