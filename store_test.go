package marketseed

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/permadex/marketseed/schema"
	"github.com/stretchr/testify/assert"
)

func newTestStore(t *testing.T) *Store {
	store, err := NewBoltStore(t.TempDir())
	assert.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStoreBalances(t *testing.T) {
	store := newTestStore(t)

	balances := map[common.Address]*big.Int{
		testSeller:  big.NewInt(100),
		testFeeAddr: big.NewInt(2),
	}
	assert.NoError(t, store.SaveBalances(balances))

	got, err := store.LoadBalances()
	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "100", got[testSeller].String())
	assert.Equal(t, "2", got[testFeeAddr].String())
}

func TestStoreLastItemId(t *testing.T) {
	store := newTestStore(t)
	assert.Equal(t, uint64(0), store.LoadLastItemId())
	assert.NoError(t, store.SaveLastItemId(17))
	assert.Equal(t, uint64(17), store.LoadLastItemId())
}

func TestStoreBatchReceipt(t *testing.T) {
	store := newTestStore(t)

	br := schema.BatchReceipt{
		BatchId: "b-7",
		Caller:  testBuyer,
		ItemIds: []uint64{1, 2},
		Events: []schema.Event{
			{Kind: schema.EventKindListed, ItemId: 1, Price: big.NewInt(100), Seller: testSeller},
		},
	}
	assert.NoError(t, store.SaveBatchReceipt(br))

	got, err := store.LoadBatchReceipt("b-7")
	assert.NoError(t, err)
	assert.Equal(t, br.BatchId, got.BatchId)
	assert.Equal(t, br.ItemIds, got.ItemIds)
	assert.Equal(t, "100", got.Events[0].Price.String())

	_, err = store.LoadBatchReceipt("missing")
	assert.ErrorIs(t, err, schema.ErrNotExist)
}

func TestStoreTokenBook(t *testing.T) {
	store := newTestStore(t)
	ref := schema.TokenRef{Collection: testColl, TokenId: 7}

	assert.NoError(t, store.SaveTokenOwner(ref, testSeller))
	owner, err := store.LoadTokenOwner(ref)
	assert.NoError(t, err)
	assert.Equal(t, testSeller, owner)

	owners, err := store.LoadTokenOwners()
	assert.NoError(t, err)
	assert.Len(t, owners, 1)

	assert.False(t, store.ExistTokenApproval(testColl, testSeller, testOperator))
	assert.NoError(t, store.SaveTokenApproval(testColl, testSeller, testOperator, true))
	assert.True(t, store.ExistTokenApproval(testColl, testSeller, testOperator))
	assert.NoError(t, store.SaveTokenApproval(testColl, testSeller, testOperator, false))
	assert.False(t, store.ExistTokenApproval(testColl, testSeller, testOperator))

	assert.NoError(t, store.SaveTokenUri(ref, "ar://abc"))
	uri, err := store.LoadTokenUri(ref)
	assert.NoError(t, err)
	assert.Equal(t, "ar://abc", uri)
}
