package schema

var (
	// bucket
	BalanceBucket      = "balance-bucket"       // key: account hex, val: big.Int bytes
	ConstantsBucket    = "constants-bucket"     // key: lastItemId, val: uint64 big endian
	BatchReceiptBucket = "batch-receipt-bucket" // key: batchId, val: json.marshal(BatchReceipt)

	// local token book
	TokenOwnerBucket    = "token-owner-bucket"    // key: collection+tokenId, val: owner addr
	TokenApprovalBucket = "token-approval-bucket" // key: collection+owner+operator, val: "0x01"
	TokenUriBucket      = "token-uri-bucket"      // key: collection+tokenId, val: metadata uri
)

var (
	LastItemIdKey = "last-item-id"
)
