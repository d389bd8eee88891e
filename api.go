package marketseed

import (
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	seedCommon "github.com/permadex/marketseed/common"
	"github.com/permadex/marketseed/schema"
)

func (s *MarketSeed) runAPI(port string) {
	r := s.engine
	r.Use(seedCommon.CORSMiddleware())
	if limit := s.config.GetApiRateLimit(); limit > 0 {
		r.Use(seedCommon.LimiterMiddleware(limit, "M", s.config.GetIPWhiteList()))
	}
	s.registerRoutes()

	if err := r.Run(port); err != nil {
		panic(err)
	}
}

func (s *MarketSeed) registerRoutes() {
	v1 := s.engine.Group("/")
	{
		v1.GET("/info", s.getInfo)

		v1.GET("/market/count", s.getItemCount)
		v1.GET("/market/items", s.getItems)
		v1.GET("/market/items/:itemId", s.getItem)
		v1.GET("/market/items/:itemId/price", s.getTotalPrice)
		v1.POST("/market/items", s.listItem)
		v1.POST("/market/purchases", s.purchaseItem)
		v1.POST("/market/batches", s.runBatch)
		v1.GET("/market/batches/:batchId", s.getBatchReceipt)
		v1.GET("/market/events", s.getEvents)
		v1.GET("/market/listed/:account", s.getListedByAccount)
		v1.GET("/market/purchases/:account", s.getPurchasesByAccount)
		v1.GET("/market/balance/:account", s.getBalance)
		v1.GET("/market/stats", s.getStats)

		// local token book, unavailable behind an rpc node
		v1.POST("/token/mint", s.mintToken)
		v1.POST("/token/approvals", s.setTokenApproval)
		v1.GET("/token/:collection/:tokenId/uri", s.getTokenUri)
	}
}

func (s *MarketSeed) getInfo(c *gin.Context) {
	c.JSON(http.StatusOK, s.MarketInfo())
}

func (s *MarketSeed) getItemCount(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"count": s.ItemCount()})
}

func (s *MarketSeed) getItems(c *gin.Context) {
	onlyUnsold := c.Query("unsold") == "true"
	items, err := s.wdb.GetItems(onlyUnsold)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *MarketSeed) getItem(c *gin.Context) {
	itemId, err := strconv.ParseUint(c.Param("itemId"), 10, 64)
	if err != nil {
		errorResponse(c, "invalid itemId")
		return
	}
	if payload, ok := s.cache.GetItem(itemId); ok {
		c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
		return
	}

	item, err := s.GetItem(itemId)
	if err != nil {
		notFoundResponse(c, err.Error())
		return
	}
	rec := item.ToRecord()
	resp := schema.ItemResp{
		Item:       &rec,
		TotalPrice: s.fee.TotalPrice(item.Price).String(),
	}
	payload, err := json.Marshal(&resp)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	s.cache.SetItem(itemId, payload)
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}

func (s *MarketSeed) getTotalPrice(c *gin.Context) {
	itemId, err := strconv.ParseUint(c.Param("itemId"), 10, 64)
	if err != nil {
		errorResponse(c, "invalid itemId")
		return
	}
	total, err := s.GetTotalPrice(itemId)
	if err != nil {
		notFoundResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"itemId": itemId, "totalPrice": total.String()})
}

func (s *MarketSeed) listItem(c *gin.Context) {
	req := schema.ListItemReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	price, err := parseAmount(req.Price)
	if err != nil {
		errorResponse(c, schema.ErrInvalidPrice.Error())
		return
	}

	item, err := s.ListItem(common.HexToAddress(req.Collection), req.TokenId, price, common.HexToAddress(req.Seller))
	if err != nil {
		domainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, item.ToRecord())
}

func (s *MarketSeed) purchaseItem(c *gin.Context) {
	req := schema.PurchaseReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	payment, err := parseAmount(req.Payment)
	if err != nil {
		errorResponse(c, schema.ErrInsufficientPayment.Error())
		return
	}

	receipt, err := s.PurchaseItem(req.ItemId, common.HexToAddress(req.Buyer), payment)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

func (s *MarketSeed) runBatch(c *gin.Context) {
	req := schema.BatchReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	intents := make([]schema.BatchIntent, 0, len(req.Intents))
	for i, in := range req.Intents {
		intent := schema.BatchIntent{
			Kind:       in.Kind,
			Collection: common.HexToAddress(in.Collection),
			TokenId:    in.TokenId,
			ItemId:     in.ItemId,
		}
		switch in.Kind {
		case schema.IntentKindList:
			price, err := parseAmount(in.Price)
			if err != nil {
				domainErrorResponse(c, &schema.BatchIntentError{Index: i, Err: schema.ErrInvalidPrice})
				return
			}
			intent.Price = price
		case schema.IntentKindPurchase:
			payment, err := parseAmount(in.Payment)
			if err != nil {
				domainErrorResponse(c, &schema.BatchIntentError{Index: i, Err: schema.ErrInsufficientPayment})
				return
			}
			intent.Payment = payment
		}
		intents = append(intents, intent)
	}

	br, err := s.RunBatch(common.HexToAddress(req.Caller), intents)
	if err != nil {
		domainErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, br)
}

func (s *MarketSeed) getBatchReceipt(c *gin.Context) {
	batchId := c.Param("batchId")
	br, err := s.store.LoadBatchReceipt(batchId)
	if err != nil {
		notFoundResponse(c, schema.ErrNotExist.Error())
		return
	}
	c.JSON(http.StatusOK, br)
}

func (s *MarketSeed) getEvents(c *gin.Context) {
	filter := schema.EventFilter{
		Kind: c.Query("kind"),
	}
	if account := c.Query("account"); account != "" {
		// events persist checksummed addresses; accept any input casing
		filter.Account = common.HexToAddress(account).Hex()
	}
	if v := c.Query("itemId"); v != "" {
		itemId, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errorResponse(c, "invalid itemId")
			return
		}
		filter.ItemId = itemId
	}
	if v := c.Query("afterId"); v != "" {
		afterId, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errorResponse(c, "invalid afterId")
			return
		}
		filter.AfterId = uint(afterId)
	}
	limit := 100
	if v := c.Query("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l <= 0 {
			errorResponse(c, "invalid limit")
			return
		}
		if l < limit {
			limit = l
		}
	}
	filter.Limit = limit

	events, err := s.wdb.GetEvents(filter)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	resp := schema.EventsResp{Events: events}
	if len(events) > 0 {
		resp.Cursor = events[len(events)-1].ID
	}
	c.JSON(http.StatusOK, resp)
}

func (s *MarketSeed) getListedByAccount(c *gin.Context) {
	account := common.HexToAddress(c.Param("account")).Hex()
	items, err := s.wdb.GetItemsBySeller(account)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	resp := schema.ListedItemsResp{
		Listed: make([]schema.MarketItem, 0),
		Sold:   make([]schema.MarketItem, 0),
	}
	for _, it := range items {
		if it.Sold {
			resp.Sold = append(resp.Sold, it)
		} else {
			resp.Listed = append(resp.Listed, it)
		}
	}
	c.JSON(http.StatusOK, resp)
}

func (s *MarketSeed) getPurchasesByAccount(c *gin.Context) {
	account := common.HexToAddress(c.Param("account")).Hex()
	events, err := s.wdb.GetEvents(schema.EventFilter{
		Kind:    schema.EventKindBought,
		Account: account,
	})
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	// the account filter matches seller or buyer; purchases keep buyer hits
	purchases := make([]schema.MarketEvent, 0, len(events))
	for _, ev := range events {
		if ev.Buyer == account {
			purchases = append(purchases, ev)
		}
	}
	c.JSON(http.StatusOK, purchases)
}

func (s *MarketSeed) getBalance(c *gin.Context) {
	addr := common.HexToAddress(c.Param("account"))
	c.JSON(http.StatusOK, gin.H{"account": addr.Hex(), "balance": s.BalanceOf(addr).String()})
}

func (s *MarketSeed) getStats(c *gin.Context) {
	days, err := s.wdb.GetStatistics(30)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, schema.StatsResp{Days: days})
}

func (s *MarketSeed) mintToken(c *gin.Context) {
	if s.book == nil {
		errorResponse(c, "local token book disabled")
		return
	}
	req := schema.MintTokenReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	tokenId, err := s.book.Mint(common.HexToAddress(req.Collection), common.HexToAddress(req.To), req.TokenUri)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"collection": req.Collection, "tokenId": tokenId})
}

func (s *MarketSeed) setTokenApproval(c *gin.Context) {
	if s.book == nil {
		errorResponse(c, "local token book disabled")
		return
	}
	req := schema.TokenApprovalReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, err.Error())
		return
	}
	err := s.book.SetApprovalFor(common.HexToAddress(req.Collection), common.HexToAddress(req.Owner),
		common.HexToAddress(req.Operator), req.Approved)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.Status(http.StatusOK)
}

func (s *MarketSeed) getTokenUri(c *gin.Context) {
	tokenId, err := strconv.ParseUint(c.Param("tokenId"), 10, 64)
	if err != nil {
		errorResponse(c, "invalid tokenId")
		return
	}
	ref := schema.TokenRef{Collection: common.HexToAddress(c.Param("collection")), TokenId: tokenId}

	type uriReader interface {
		TokenURI(ref schema.TokenRef) (string, error)
	}
	reader, ok := s.port.(uriReader)
	if !ok {
		errorResponse(c, schema.ErrNotImplement.Error())
		return
	}
	uri, err := reader.TokenURI(ref)
	if err != nil {
		notFoundResponse(c, schema.ErrTokenNotExist.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"tokenId": tokenId, "uri": uri})
}

func parseAmount(val string) (*big.Int, error) {
	if val == "" {
		return new(big.Int), nil
	}
	amount, ok := new(big.Int).SetString(val, 10)
	if !ok || amount.Sign() < 0 {
		return nil, schema.ErrInvalidPrice
	}
	return amount, nil
}

func domainErrorResponse(c *gin.Context, err error) {
	var bie *schema.BatchIntentError
	if errors.As(err, &bie) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "batch_intent_failed",
			"index": bie.Index,
			"inner": bie.Err.Error(),
		})
		return
	}
	if errors.Is(err, schema.ErrItemNotFound) {
		notFoundResponse(c, err.Error())
		return
	}
	switch {
	case errors.Is(err, schema.ErrInvalidPrice),
		errors.Is(err, schema.ErrNotOwnerOrNotApproved),
		errors.Is(err, schema.ErrAlreadySold),
		errors.Is(err, schema.ErrInsufficientPayment),
		errors.Is(err, schema.ErrTransferRejected),
		errors.Is(err, schema.ErrUnknownIntent):
		errorResponse(c, err.Error())
	default:
		internalErrorResponse(c, err.Error())
	}
}

func errorResponse(c *gin.Context, err string) {
	// client error
	c.JSON(http.StatusBadRequest, schema.RespErr{
		Err: err,
	})
}

func notFoundResponse(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, schema.RespErr{
		Err: err,
	})
}

func internalErrorResponse(c *gin.Context, err string) {
	// internal error
	c.JSON(http.StatusInternalServerError, schema.RespErr{
		Err: err,
	})
}
