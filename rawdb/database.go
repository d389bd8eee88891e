package rawdb

import (
	"github.com/permadex/marketseed/common"
	"github.com/permadex/marketseed/schema"
)

var log = common.NewLog("rawdb")

// KeyValueDB is the pluggable store behind the engine's balance table,
// token book and batch receipts. Values are raw bytes; each backend maps
// the logical buckets in schema/store.go onto its own namespace.
type KeyValueDB interface {
	Put(bucket, key string, value []byte) (err error)

	Get(bucket, key string) (data []byte, err error)

	GetAllKey(bucket string) (keys []string, err error)

	Delete(bucket, key string) (err error)

	Exist(bucket, key string) bool

	Close() (err error)

	Type() string
}

func marketBuckets() []string {
	return []string{
		schema.BalanceBucket,
		schema.ConstantsBucket,
		schema.BatchReceiptBucket,
		schema.TokenOwnerBucket,
		schema.TokenApprovalBucket,
		schema.TokenUriBucket,
	}
}
