package marketseed

import (
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/permadex/marketseed/schema"
	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
)

func newTestAPI(t *testing.T) *MarketSeed {
	s := newTestMarket(t)
	s.registerRoutes()
	return s
}

func apiGet(s *MarketSeed, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.engine.ServeHTTP(w, req)
	return w
}

func TestAPIEventsAccountAnyCasing(t *testing.T) {
	s := newTestAPI(t)
	tokenId := mintAndApprove(t, s)

	_, err := s.ListItem(testColl, tokenId, big.NewInt(100), testSeller)
	assert.NoError(t, err)
	_, err = s.PurchaseItem(1, testBuyer, big.NewInt(102))
	assert.NoError(t, err)

	// events persist checksummed addresses; a lowercase query must still match
	lower := strings.ToLower(testSeller.Hex())
	w := apiGet(s, "/market/events?account="+lower)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, gjson.GetBytes(w.Body.Bytes(), "events").Array(), 2)

	w = apiGet(s, "/market/events?account="+testSeller.Hex())
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, gjson.GetBytes(w.Body.Bytes(), "events").Array(), 2)

	w = apiGet(s, "/market/events?kind="+schema.EventKindBought)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, gjson.GetBytes(w.Body.Bytes(), "events").Array(), 1)
}

func TestAPIGetItem(t *testing.T) {
	s := newTestAPI(t)
	tokenId := mintAndApprove(t, s)

	_, err := s.ListItem(testColl, tokenId, big.NewInt(100), testSeller)
	assert.NoError(t, err)

	w := apiGet(s, "/market/items/1")
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.Bytes()
	assert.Equal(t, "102", gjson.GetBytes(body, "totalPrice").String())
	assert.Equal(t, int64(1), gjson.GetBytes(body, "item.itemId").Int())

	w = apiGet(s, "/market/items/9")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
