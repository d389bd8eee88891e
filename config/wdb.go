package config

import (
	"path"

	"github.com/permadex/marketseed/common"
	"github.com/permadex/marketseed/config/schema"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var log = common.NewLog("config")

const sqliteName = "config.sqlite"

type Wdb struct {
	Db *gorm.DB
}

func NewWdb(dsn string) *Wdb {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:          logger.Default.LogMode(logger.Error),
		CreateBatchSize: 10,
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect config db success")
	return &Wdb{Db: db}
}

func NewSqliteWdb(dbDir string) *Wdb {
	db, err := gorm.Open(sqlite.Open(path.Join(dbDir, sqliteName)), &gorm.Config{
		Logger:          logger.Default.LogMode(logger.Error),
		CreateBatchSize: 10,
	})
	if err != nil {
		panic(err)
	}
	log.Info("connect sqlite config db success")
	return &Wdb{Db: db}
}

func (w *Wdb) Migrate() error {
	return w.Db.AutoMigrate(&schema.MarketConfig{}, &schema.IpRateWhitelist{})
}

func (w *Wdb) GetMarketConfig(defaultFeeRate int64) (cfg schema.MarketConfig, err error) {
	err = w.Db.First(&cfg).Error
	if err == gorm.ErrRecordNotFound {
		cfg = schema.MarketConfig{
			FeeRate:      defaultFeeRate,
			ApiRateLimit: 600,
		}
		return cfg, nil
	}
	return
}

func (w *Wdb) GetAllAvailableIpRateWhitelist() (res []schema.IpRateWhitelist, err error) {
	err = w.Db.Model(&schema.IpRateWhitelist{}).Where("available = ?", true).Find(&res).Error
	return
}

func (w *Wdb) Close() {
	sql, err := w.Db.DB()
	if err == nil {
		sql.Close()
	}
}
