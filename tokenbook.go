package marketseed

import (
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/permadex/marketseed/schema"
)

// TokenBook is the in-process token collaborator used when the engine runs
// self-contained, i.e. without an external rpc node. It keeps owners,
// operator approvals and metadata uris in memory, mirrored to the KV
// store, and satisfies OwnershipPort for the settlement core. It shares
// the engine's commit substrate, so a transfer that validated during
// staging can not be refused at commit.
type TokenBook struct {
	store *Store

	mu          sync.RWMutex
	owners      map[schema.TokenRef]common.Address
	approvals   map[bookApproval]bool
	uris        map[schema.TokenRef]string
	lastTokenId map[common.Address]uint64
}

type bookApproval struct {
	collection common.Address
	owner      common.Address
	operator   common.Address
}

func NewTokenBook(store *Store) (*TokenBook, error) {
	b := &TokenBook{
		store:       store,
		owners:      make(map[schema.TokenRef]common.Address),
		approvals:   make(map[bookApproval]bool),
		uris:        make(map[schema.TokenRef]string),
		lastTokenId: make(map[common.Address]uint64),
	}

	owners, err := store.LoadTokenOwners()
	if err != nil {
		return nil, err
	}
	for key, owner := range owners {
		ref, ok := parseTokenKey(key)
		if !ok {
			continue
		}
		b.owners[ref] = owner
		if ref.TokenId > b.lastTokenId[ref.Collection] {
			b.lastTokenId[ref.Collection] = ref.TokenId
		}
	}

	approvalKeys, err := store.LoadTokenApprovals()
	if err != nil {
		return nil, err
	}
	for _, key := range approvalKeys {
		ap, ok := parseApprovalKey(key)
		if !ok {
			continue
		}
		b.approvals[ap] = true
	}
	return b, nil
}

// Mint assigns the next token id of the collection to the receiver and
// stores the metadata uri; the engine never touches the raw asset, only
// the content-addressed uri the pinning proxy produced.
func (b *TokenBook) Mint(collection, to common.Address, uri string) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tokenId := b.lastTokenId[collection] + 1
	b.lastTokenId[collection] = tokenId

	ref := schema.TokenRef{Collection: collection, TokenId: tokenId}
	b.owners[ref] = to
	b.uris[ref] = uri

	if err := b.store.SaveTokenOwner(ref, to); err != nil {
		log.Error("persist minted token failed", "err", err, "collection", collection, "tokenId", tokenId)
	}
	if err := b.store.SaveTokenUri(ref, uri); err != nil {
		log.Error("persist token uri failed", "err", err, "collection", collection, "tokenId", tokenId)
	}
	return tokenId, nil
}

func (b *TokenBook) SetApprovalFor(collection, owner, operator common.Address, approved bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := bookApproval{collection: collection, owner: owner, operator: operator}
	if approved {
		b.approvals[key] = true
	} else {
		delete(b.approvals, key)
	}
	return b.store.SaveTokenApproval(collection, owner, operator, approved)
}

func (b *TokenBook) TokenURI(ref schema.TokenRef) (string, error) {
	b.mu.RLock()
	uri, ok := b.uris[ref]
	b.mu.RUnlock()
	if ok {
		return uri, nil
	}
	uri, err := b.store.LoadTokenUri(ref)
	if err != nil {
		return "", schema.ErrTokenNotExist
	}
	return uri, nil
}

func (b *TokenBook) OwnerOf(ref schema.TokenRef) (common.Address, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	owner, ok := b.owners[ref]
	if !ok {
		return common.Address{}, schema.ErrTokenNotExist
	}
	return owner, nil
}

func (b *TokenBook) IsApprovedFor(ref schema.TokenRef, owner, operator common.Address) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.approvals[bookApproval{collection: ref.Collection, owner: owner, operator: operator}], nil
}

// Transfer moves the token when from is the current owner and has an
// operator approval in place; anything else is refused opaquely.
func (b *TokenBook) Transfer(ref schema.TokenRef, from, to common.Address) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	owner, ok := b.owners[ref]
	if !ok || owner != from {
		return schema.ErrTransferRejected
	}
	approved := false
	for key := range b.approvals {
		if key.collection == ref.Collection && key.owner == from {
			approved = true
			break
		}
	}
	if !approved {
		return schema.ErrTransferRejected
	}

	b.owners[ref] = to
	if err := b.store.SaveTokenOwner(ref, to); err != nil {
		log.Error("persist token transfer failed", "err", err, "collection", ref.Collection, "tokenId", ref.TokenId)
	}
	return nil
}

func parseTokenKey(key string) (schema.TokenRef, bool) {
	idx := strings.LastIndex(key, "-")
	if idx <= 0 {
		return schema.TokenRef{}, false
	}
	tokenId, err := strconv.ParseUint(key[idx+1:], 10, 64)
	if err != nil {
		return schema.TokenRef{}, false
	}
	return schema.TokenRef{
		Collection: common.HexToAddress(key[:idx]),
		TokenId:    tokenId,
	}, true
}

func parseApprovalKey(key string) (bookApproval, bool) {
	parts := strings.Split(key, "-")
	if len(parts) != 3 {
		return bookApproval{}, false
	}
	return bookApproval{
		collection: common.HexToAddress(parts[0]),
		owner:      common.HexToAddress(parts[1]),
		operator:   common.HexToAddress(parts[2]),
	}, true
}
