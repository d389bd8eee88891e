package marketseed

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"github.com/permadex/marketseed/config"
	"github.com/permadex/marketseed/rawdb"
	"github.com/permadex/marketseed/schema"
)

type MarketSeed struct {
	store        *Store
	wdb          *Wdb
	engine       *gin.Engine
	settleLocker sync.Mutex

	ledger   *Ledger
	fee      *FeeAccounting
	port     OwnershipPort
	operator common.Address

	batch  *BatchProcessor
	events *EventLog
	book   *TokenBook // local token collaborator; nil when an rpc node is configured

	cache     *Cache
	config    *config.Config
	scheduler *gocron.Scheduler

	kwriters    map[string]*KWriter
	enableKafka bool
}

func New(
	boltDirPath, mySqlDsn string, sqliteDir string, useSqlite bool,
	configDSN string, rpcUrl, operatorPrvKey string,
	useS3 bool, s3AccKey, s3SecretKey, s3BucketPrefix, s3Region, s3Endpoint string,
	use4EVER bool, useAliyun bool, aliyunEndpoint, aliyunAccKey, aliyunSecretKey, aliyunPrefix string,
	useMongoDb bool, mongoUri string,
	kafkaUri string, enableKafka bool,
) *MarketSeed {
	var err error
	KVDb := &Store{}
	switch {
	case useS3:
		if use4EVER {
			s3Endpoint = rawdb.ForeverLandEndpoint // inject 4everland endpoint
		}
		KVDb, err = NewS3Store(s3AccKey, s3SecretKey, s3Region, s3BucketPrefix, s3Endpoint)
	case useAliyun:
		KVDb, err = NewAliyunStore(aliyunEndpoint, aliyunAccKey, aliyunSecretKey, aliyunPrefix)
	case useMongoDb:
		KVDb, err = NewMongoDBStore(context.Background(), mongoUri)
	default:
		KVDb, err = NewBoltStore(boltDirPath)
	}
	if err != nil {
		panic(err)
	}

	wdb := &Wdb{}
	if useSqlite {
		wdb = NewSqliteDb(sqliteDir)
	} else {
		wdb = NewMysqlDb(mySqlDsn)
	}
	if err = wdb.Migrate(); err != nil {
		panic(err)
	}

	cfg := config.New(configDSN, sqliteDir, schema.DefaultFeeRate)
	feeCfg := seedFeeConfig(wdb, cfg)
	operator := common.HexToAddress(feeCfg.Operator)
	fee := NewFeeAccounting(feeCfg.FeeRate, common.HexToAddress(feeCfg.FeeRecipient))

	s := &MarketSeed{
		store:        KVDb,
		wdb:          wdb,
		engine:       gin.Default(),
		settleLocker: sync.Mutex{},
		fee:          fee,
		operator:     operator,
		batch:        NewBatchProcessor(fee, operator),
		events:       NewEventLog(wdb),
		cache:        NewCache(),
		config:       cfg,
		scheduler:    gocron.NewScheduler(time.UTC),
		enableKafka:  enableKafka,
	}

	if rpcUrl != "" {
		port, err := NewKeyedEthPort(rpcUrl, operatorPrvKey)
		if err != nil {
			panic(err)
		}
		s.port = port
	} else {
		book, err := NewTokenBook(KVDb)
		if err != nil {
			panic(err)
		}
		s.book = book
		s.port = book
	}

	s.ledger = hydrateLedger(wdb, KVDb)
	if enableKafka {
		kwriters, err := NewKWriters(kafkaUri)
		if err != nil {
			panic(err)
		}
		s.kwriters = kwriters
	}

	s.refreshInfoCache()
	return s
}

// seedFeeConfig pins the deployment fee terms in the market db on first
// boot; afterwards the stored rate wins and must not drift.
func seedFeeConfig(wdb *Wdb, cfg *config.Config) schema.FeeConfig {
	feeCfg, err := wdb.GetFeeConfig()
	if err != nil {
		panic(err)
	}
	if feeCfg.FeeRecipient == "" && feeCfg.Operator == "" {
		feeCfg.FeeRate = cfg.GetFeeRate()
		feeCfg.FeeRecipient = cfg.GetFeeRecipient()
		feeCfg.Operator = cfg.GetOperator()
		if err := wdb.StoreFeeConfig(feeCfg); err != nil {
			panic(err)
		}
		return feeCfg
	}
	if cfg.GetFeeRate() != feeCfg.FeeRate {
		panic("fee rate differs from the stored deployment rate")
	}
	return feeCfg
}

// hydrateLedger rebuilds the in-memory state from the relational mirror
// and the KV snapshots. The item table is authoritative for listings; the
// KV high-water mark only guards against a mirror restored from an older
// backup.
func hydrateLedger(wdb *Wdb, store *Store) *Ledger {
	ledger := NewLedger()
	records, err := wdb.LoadItems()
	if err != nil {
		panic(err)
	}
	for i := range records {
		ledger.PutItem(records[i].ToItem())
	}

	balances, err := store.LoadBalances()
	if err != nil {
		panic(err)
	}
	for addr, bal := range balances {
		ledger.Credit(addr, bal)
	}

	if lastId := store.LoadLastItemId(); lastId > ledger.LastItemId() {
		for ledger.LastItemId() < lastId {
			ledger.NextItemId()
		}
	}
	log.Info("ledger hydrated", "items", len(records), "accounts", len(balances), "lastItemId", ledger.LastItemId())
	return ledger
}

func (s *MarketSeed) Run(port string) {
	s.config.Run()
	go s.runAPI(port)
	go s.runJobs()
}

func (s *MarketSeed) Close() {
	s.scheduler.Stop()
	s.snapshotState()
	s.wdb.Close()
	s.config.Close()
	if err := s.store.Close(); err != nil {
		log.Error("close kv store failed", "err", err)
	}
	for _, kw := range s.kwriters {
		kw.Close()
	}
}

// commit makes one staged unit durable and visible: the deferred
// ownership moves first, then the relational mirror, then the in-memory
// swap. A refused move aborts before anything durable is written, so a
// rejected unit leaves no trace for readers or across a restart.
func (s *MarketSeed) commit(st *Staging, batchId string, caller common.Address) error {
	items := make([]schema.MarketItem, 0, len(st.ItemIds))
	seen := make(map[uint64]bool, len(st.ItemIds))
	for _, id := range st.ItemIds {
		if seen[id] {
			continue
		}
		seen[id] = true
		it, ok := st.Ledger.Item(id)
		if !ok {
			return schema.ErrItemNotFound
		}
		items = append(items, it.ToRecord())
	}

	events := make([]schema.MarketEvent, 0, len(st.Events))
	for i := range st.Events {
		events = append(events, st.Events[i].ToRecord(batchId))
	}

	var batchRec *schema.BatchRecord
	if batchId != "" {
		br := schema.BatchReceipt{
			BatchId:  batchId,
			Caller:   caller,
			ItemIds:  st.ItemIds,
			Receipts: st.Receipts,
			Events:   st.Events,
		}
		payload, err := json.Marshal(&br)
		if err != nil {
			return err
		}
		batchRec = &schema.BatchRecord{
			BatchId:   batchId,
			Caller:    caller.Hex(),
			IntentNum: len(st.ItemIds),
			EventNum:  len(events),
			Receipt:   payload,
		}
	}

	if err := st.Port.flush(); err != nil {
		return err
	}

	if err := s.wdb.CommitUnit(items, events, batchRec); err != nil {
		// ownership already moved; the mirror is now behind and the
		// in-memory ledger stays on the pre-unit state
		log.Error("commit unit failed after ownership flush", "err", err, "batchId", batchId)
		return err
	}

	s.ledger = st.Ledger
	s.afterCommit(st, batchId)
	return nil
}

func (s *MarketSeed) afterCommit(st *Staging, batchId string) {
	for _, ev := range st.Events {
		switch ev.Kind {
		case schema.EventKindListed:
			itemsListed.Inc()
		case schema.EventKindBought:
			itemsBought.Inc()
		}
		s.publishEvent(ev)
	}
	if batchId != "" {
		batchesCommitted.Inc()
	}
	s.cache.InvalidateItems(st.ItemIds...)
	s.refreshInfoCache()
}

func (s *MarketSeed) publishEvent(ev schema.Event) {
	if !s.enableKafka {
		return
	}
	topic := ListedTopic
	if ev.Kind == schema.EventKindBought {
		topic = BoughtTopic
	}
	kw, ok := s.kwriters[topic]
	if !ok {
		return
	}
	body, err := json.Marshal(&ev)
	if err != nil {
		return
	}
	if err := kw.Write(body); err != nil {
		log.Error("publish event failed", "err", err, "kind", ev.Kind, "itemId", ev.ItemId)
	}
}

func (s *MarketSeed) publishBatch(br schema.BatchReceipt) {
	if !s.enableKafka {
		return
	}
	kw, ok := s.kwriters[BatchTopic]
	if !ok {
		return
	}
	body, err := json.Marshal(&br)
	if err != nil {
		return
	}
	if err := kw.Write(body); err != nil {
		log.Error("publish batch failed", "err", err, "batchId", br.BatchId)
	}
}

func (s *MarketSeed) refreshInfoCache() {
	s.cache.UpdateInfo(schema.MarketInfo{
		FeeRate:      s.fee.Rate(),
		FeeRecipient: s.fee.Recipient().Hex(),
		Operator:     s.operator.Hex(),
		ItemCount:    s.ledger.LastItemId(),
	})
}
