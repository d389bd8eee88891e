package sdk

import (
	"errors"
	"fmt"

	"github.com/permadex/marketseed/schema"
	"github.com/tidwall/gjson"
	"gopkg.in/h2non/gentleman.v2"
	"gopkg.in/h2non/gentleman.v2/plugins/body"
)

// MarketCli talks to a marketseed node over its http api.
type MarketCli struct {
	SCli *gentleman.Client
}

func New(marketUrl string) *MarketCli {
	return &MarketCli{
		SCli: gentleman.New().URL(marketUrl),
	}
}

func (m *MarketCli) GetInfo() (info schema.MarketInfo, err error) {
	req := m.SCli.Get()
	req.Path("/info")
	resp, err := req.Send()
	if err != nil {
		return
	}
	defer resp.Close()
	if !resp.Ok {
		return info, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	err = resp.JSON(&info)
	return
}

func (m *MarketCli) ItemCount() (uint64, error) {
	req := m.SCli.Get()
	req.Path("/market/count")
	resp, err := req.Send()
	if err != nil {
		return 0, err
	}
	defer resp.Close()
	if !resp.Ok {
		return 0, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	return gjson.GetBytes(resp.Bytes(), "count").Uint(), nil
}

func (m *MarketCli) GetItem(itemId uint64) (item schema.ItemResp, err error) {
	req := m.SCli.Get()
	req.Path(fmt.Sprintf("/market/items/%d", itemId))
	resp, err := req.Send()
	if err != nil {
		return
	}
	defer resp.Close()
	if !resp.Ok {
		return item, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	err = resp.JSON(&item)
	return
}

func (m *MarketCli) GetTotalPrice(itemId uint64) (string, error) {
	req := m.SCli.Get()
	req.Path(fmt.Sprintf("/market/items/%d/price", itemId))
	resp, err := req.Send()
	if err != nil {
		return "", err
	}
	defer resp.Close()
	if !resp.Ok {
		return "", errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	return gjson.GetBytes(resp.Bytes(), "totalPrice").String(), nil
}

func (m *MarketCli) ListItem(collection string, tokenId uint64, price, seller string) (item schema.MarketItem, err error) {
	req := m.SCli.Post()
	req.Path("/market/items")
	req.Use(body.JSON(schema.ListItemReq{
		Collection: collection,
		TokenId:    tokenId,
		Price:      price,
		Seller:     seller,
	}))
	resp, err := req.Send()
	if err != nil {
		return
	}
	defer resp.Close()
	if !resp.Ok {
		return item, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	err = resp.JSON(&item)
	return
}

func (m *MarketCli) PurchaseItem(itemId uint64, buyer, payment string) (receipt schema.Receipt, err error) {
	req := m.SCli.Post()
	req.Path("/market/purchases")
	req.Use(body.JSON(schema.PurchaseReq{
		ItemId:  itemId,
		Buyer:   buyer,
		Payment: payment,
	}))
	resp, err := req.Send()
	if err != nil {
		return
	}
	defer resp.Close()
	if !resp.Ok {
		return receipt, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	err = resp.JSON(&receipt)
	return
}

func (m *MarketCli) RunBatch(caller string, intents []schema.BatchIntentReq) (br schema.BatchReceipt, err error) {
	req := m.SCli.Post()
	req.Path("/market/batches")
	req.Use(body.JSON(schema.BatchReq{
		Caller:  caller,
		Intents: intents,
	}))
	resp, err := req.Send()
	if err != nil {
		return
	}
	defer resp.Close()
	if !resp.Ok {
		return br, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	err = resp.JSON(&br)
	return
}

func (m *MarketCli) GetBatchReceipt(batchId string) (br schema.BatchReceipt, err error) {
	req := m.SCli.Get()
	req.Path(fmt.Sprintf("/market/batches/%s", batchId))
	resp, err := req.Send()
	if err != nil {
		return
	}
	defer resp.Close()
	if !resp.Ok {
		return br, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	err = resp.JSON(&br)
	return
}

func (m *MarketCli) GetEvents(filter schema.EventFilter) (events schema.EventsResp, err error) {
	req := m.SCli.Get()
	req.Path("/market/events")
	if filter.Kind != "" {
		req.AddQuery("kind", filter.Kind)
	}
	if filter.Account != "" {
		req.AddQuery("account", filter.Account)
	}
	if filter.ItemId > 0 {
		req.AddQuery("itemId", fmt.Sprintf("%d", filter.ItemId))
	}
	if filter.AfterId > 0 {
		req.AddQuery("afterId", fmt.Sprintf("%d", filter.AfterId))
	}
	if filter.Limit > 0 {
		req.AddQuery("limit", fmt.Sprintf("%d", filter.Limit))
	}
	resp, err := req.Send()
	if err != nil {
		return
	}
	defer resp.Close()
	if !resp.Ok {
		return events, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	err = resp.JSON(&events)
	return
}

func (m *MarketCli) GetBalance(account string) (string, error) {
	req := m.SCli.Get()
	req.Path(fmt.Sprintf("/market/balance/%s", account))
	resp, err := req.Send()
	if err != nil {
		return "", err
	}
	defer resp.Close()
	if !resp.Ok {
		return "", errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	return gjson.GetBytes(resp.Bytes(), "balance").String(), nil
}

func (m *MarketCli) MintToken(collection, to, tokenUri string) (uint64, error) {
	req := m.SCli.Post()
	req.Path("/token/mint")
	req.Use(body.JSON(schema.MintTokenReq{
		Collection: collection,
		To:         to,
		TokenUri:   tokenUri,
	}))
	resp, err := req.Send()
	if err != nil {
		return 0, err
	}
	defer resp.Close()
	if !resp.Ok {
		return 0, errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	return gjson.GetBytes(resp.Bytes(), "tokenId").Uint(), nil
}

func (m *MarketCli) SetTokenApproval(collection, owner, operator string, approved bool) error {
	req := m.SCli.Post()
	req.Path("/token/approvals")
	req.Use(body.JSON(schema.TokenApprovalReq{
		Collection: collection,
		Owner:      owner,
		Operator:   operator,
		Approved:   approved,
	}))
	resp, err := req.Send()
	if err != nil {
		return err
	}
	defer resp.Close()
	if !resp.Ok {
		return errors.New(fmt.Sprintf("resp failed: %s", resp.String()))
	}
	return nil
}
