package marketseed

import (
	"path"
	"time"

	"github.com/permadex/marketseed/schema"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const sqliteName = "marketseed.sqlite"

type Wdb struct {
	Db *gorm.DB
}

func NewMysqlDb(dsn string) *Wdb {
	logLevel := logger.Error
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:          logger.Default.LogMode(logLevel),
		CreateBatchSize: 200,
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect mysql db success")
	return &Wdb{Db: db}
}

func NewSqliteDb(dbDir string) *Wdb {
	db, err := gorm.Open(sqlite.Open(path.Join(dbDir, sqliteName)), &gorm.Config{
		Logger:          logger.Default.LogMode(logger.Error),
		CreateBatchSize: 200,
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect sqlite db success")
	return &Wdb{Db: db}
}

func (w *Wdb) Migrate() error {
	return w.Db.AutoMigrate(&schema.MarketItem{}, &schema.MarketEvent{}, &schema.BatchRecord{}, &schema.FeeConfig{}, &schema.DailyStatistic{})
}

// GetFeeConfig returns the singleton fee row, inserting the default on
// first startup. The fee rate is read once and never mutated afterwards.
func (w *Wdb) GetFeeConfig() (schema.FeeConfig, error) {
	fc := schema.FeeConfig{}
	err := w.Db.First(&fc).Error
	if err == gorm.ErrRecordNotFound {
		fc = schema.FeeConfig{
			ID:      1,
			FeeRate: schema.DefaultFeeRate,
		}
		err = w.Db.Create(&fc).Error
	}
	return fc, err
}

func (w *Wdb) StoreFeeConfig(fc schema.FeeConfig) error {
	fc.ID = 1
	return w.Db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&fc).Error
}

// CommitUnit persists the durable effects of one committed operation or
// batch in a single transaction: item upserts, event appends in order and
// the optional batch row. If this fails the caller must discard its
// staging, so a half-written unit is never observable.
func (w *Wdb) CommitUnit(items []schema.MarketItem, events []schema.MarketEvent, batch *schema.BatchRecord) error {
	return w.Db.Transaction(func(tx *gorm.DB) error {
		if len(items) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "item_id"}},
				UpdateAll: true,
			}).Create(&items).Error; err != nil {
				return err
			}
		}
		for i := range events {
			if err := tx.Create(&events[i]).Error; err != nil {
				return err
			}
		}
		if batch != nil {
			if err := tx.Create(batch).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (w *Wdb) LoadItems() ([]schema.MarketItem, error) {
	res := make([]schema.MarketItem, 0)
	err := w.Db.Order("item_id asc").Find(&res).Error
	return res, err
}

func (w *Wdb) GetItem(itemId uint64) (schema.MarketItem, error) {
	it := schema.MarketItem{}
	err := w.Db.Where("item_id = ?", itemId).First(&it).Error
	if err == gorm.ErrRecordNotFound {
		return it, schema.ErrItemNotFound
	}
	return it, err
}

func (w *Wdb) GetItems(onlyUnsold bool) ([]schema.MarketItem, error) {
	res := make([]schema.MarketItem, 0)
	query := w.Db.Order("item_id asc")
	if onlyUnsold {
		query = query.Where("sold = ?", false)
	}
	err := query.Find(&res).Error
	return res, err
}

func (w *Wdb) GetItemsBySeller(seller string) ([]schema.MarketItem, error) {
	res := make([]schema.MarketItem, 0)
	err := w.Db.Where("seller = ?", seller).Order("item_id asc").Find(&res).Error
	return res, err
}

// GetEvents applies the public event log filter contract: kind, account
// (seller or buyer), itemId, exclusive afterId cursor, limit. Results come
// back in commit order.
func (w *Wdb) GetEvents(filter schema.EventFilter) ([]schema.MarketEvent, error) {
	res := make([]schema.MarketEvent, 0)
	query := w.Db.Model(&schema.MarketEvent{}).Order("id asc")
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Account != "" {
		query = query.Where("seller = ? OR buyer = ?", filter.Account, filter.Account)
	}
	if filter.ItemId > 0 {
		query = query.Where("item_id = ?", filter.ItemId)
	}
	if filter.AfterId > 0 {
		query = query.Where("id > ?", filter.AfterId)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	err := query.Find(&res).Error
	return res, err
}

func (w *Wdb) GetBatch(batchId string) (schema.BatchRecord, error) {
	br := schema.BatchRecord{}
	err := w.Db.Where("batch_id = ?", batchId).First(&br).Error
	if err == gorm.ErrRecordNotFound {
		return br, schema.ErrNotExist
	}
	return br, err
}

func (w *Wdb) GetBoughtEventsSince(from time.Time) ([]schema.MarketEvent, error) {
	res := make([]schema.MarketEvent, 0)
	err := w.Db.Where("kind = ? AND created_at >= ?", schema.EventKindBought, from).
		Order("id asc").Find(&res).Error
	return res, err
}

func (w *Wdb) UpdateStatistic(st schema.DailyStatistic) error {
	return w.Db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "date"}},
		UpdateAll: true,
	}).Create(&st).Error
}

func (w *Wdb) GetStatistics(limit int) ([]schema.DailyStatistic, error) {
	res := make([]schema.DailyStatistic, 0, limit)
	err := w.Db.Order("date desc").Limit(limit).Find(&res).Error
	return res, err
}

func (w *Wdb) Close() {
	sql, err := w.Db.DB()
	if err == nil {
		sql.Close()
	}
}
