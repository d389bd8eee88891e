package marketseed

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/permadex/marketseed/rawdb"
	"github.com/permadex/marketseed/schema"
)

// Store persists the engine state that lives outside the relational
// mirror: escrow balances, the item id high-water mark, committed batch
// receipts and the local token book.
type Store struct {
	KVDb rawdb.KeyValueDB
}

func NewBoltStore(boltDirPath string) (*Store, error) {
	boltDb, err := rawdb.NewBoltDB(boltDirPath)
	if err != nil {
		return nil, err
	}
	return &Store{KVDb: boltDb}, nil
}

func NewS3Store(accKey, secretKey, region, bktPrefix, endpoint string) (*Store, error) {
	s3Db, err := rawdb.NewS3DB(accKey, secretKey, region, bktPrefix, endpoint)
	if err != nil {
		return nil, err
	}
	return &Store{KVDb: s3Db}, nil
}

func NewAliyunStore(endpoint, accKey, secretKey, bktPrefix string) (*Store, error) {
	aliyunDb, err := rawdb.NewAliyunDB(endpoint, accKey, secretKey, bktPrefix)
	if err != nil {
		return nil, err
	}
	return &Store{KVDb: aliyunDb}, nil
}

func NewMongoDBStore(ctx context.Context, uri string) (*Store, error) {
	mongoDb, err := rawdb.NewMongoDB(ctx, uri)
	if err != nil {
		return nil, err
	}
	return &Store{KVDb: mongoDb}, nil
}

func (s *Store) Close() error {
	return s.KVDb.Close()
}

func (s *Store) SaveBalance(addr common.Address, bal *big.Int) error {
	return s.KVDb.Put(schema.BalanceBucket, addr.Hex(), bal.Bytes())
}

func (s *Store) SaveBalances(balances map[common.Address]*big.Int) error {
	for addr, bal := range balances {
		if err := s.SaveBalance(addr, bal); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) LoadBalances() (map[common.Address]*big.Int, error) {
	keys, err := s.KVDb.GetAllKey(schema.BalanceBucket)
	if err != nil {
		return nil, err
	}
	balances := make(map[common.Address]*big.Int, len(keys))
	for _, key := range keys {
		data, err := s.KVDb.Get(schema.BalanceBucket, key)
		if err != nil {
			return nil, err
		}
		balances[common.HexToAddress(key)] = new(big.Int).SetBytes(data)
	}
	return balances, nil
}

func (s *Store) SaveLastItemId(id uint64) error {
	val := make([]byte, 8)
	binary.BigEndian.PutUint64(val, id)
	return s.KVDb.Put(schema.ConstantsBucket, schema.LastItemIdKey, val)
}

func (s *Store) LoadLastItemId() uint64 {
	data, err := s.KVDb.Get(schema.ConstantsBucket, schema.LastItemIdKey)
	if err != nil {
		return 0
	}
	return binary.BigEndian.Uint64(data)
}

func (s *Store) SaveBatchReceipt(br schema.BatchReceipt) error {
	val, err := json.Marshal(&br)
	if err != nil {
		return err
	}
	return s.KVDb.Put(schema.BatchReceiptBucket, br.BatchId, val)
}

func (s *Store) LoadBatchReceipt(batchId string) (br schema.BatchReceipt, err error) {
	data, err := s.KVDb.Get(schema.BatchReceiptBucket, batchId)
	if err != nil {
		return
	}
	err = json.Unmarshal(data, &br)
	return
}

func tokenKey(ref schema.TokenRef) string {
	return fmt.Sprintf("%s-%d", ref.Collection.Hex(), ref.TokenId)
}

func approvalKey(collection, owner, operator common.Address) string {
	return fmt.Sprintf("%s-%s-%s", collection.Hex(), owner.Hex(), operator.Hex())
}

func (s *Store) SaveTokenOwner(ref schema.TokenRef, owner common.Address) error {
	return s.KVDb.Put(schema.TokenOwnerBucket, tokenKey(ref), owner.Bytes())
}

func (s *Store) LoadTokenOwner(ref schema.TokenRef) (common.Address, error) {
	data, err := s.KVDb.Get(schema.TokenOwnerBucket, tokenKey(ref))
	if err != nil {
		return common.Address{}, err
	}
	return common.BytesToAddress(data), nil
}

func (s *Store) LoadTokenOwners() (map[string]common.Address, error) {
	keys, err := s.KVDb.GetAllKey(schema.TokenOwnerBucket)
	if err != nil {
		return nil, err
	}
	owners := make(map[string]common.Address, len(keys))
	for _, key := range keys {
		data, err := s.KVDb.Get(schema.TokenOwnerBucket, key)
		if err != nil {
			return nil, err
		}
		owners[key] = common.BytesToAddress(data)
	}
	return owners, nil
}

func (s *Store) SaveTokenApproval(collection, owner, operator common.Address, approved bool) error {
	key := approvalKey(collection, owner, operator)
	if !approved {
		return s.KVDb.Delete(schema.TokenApprovalBucket, key)
	}
	return s.KVDb.Put(schema.TokenApprovalBucket, key, []byte{0x01})
}

func (s *Store) ExistTokenApproval(collection, owner, operator common.Address) bool {
	return s.KVDb.Exist(schema.TokenApprovalBucket, approvalKey(collection, owner, operator))
}

func (s *Store) LoadTokenApprovals() ([]string, error) {
	return s.KVDb.GetAllKey(schema.TokenApprovalBucket)
}

func (s *Store) SaveTokenUri(ref schema.TokenRef, uri string) error {
	return s.KVDb.Put(schema.TokenUriBucket, tokenKey(ref), []byte(uri))
}

func (s *Store) LoadTokenUri(ref schema.TokenRef) (string, error) {
	data, err := s.KVDb.Get(schema.TokenUriBucket, tokenKey(ref))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
