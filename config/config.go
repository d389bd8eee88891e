package config

import (
	"time"

	"github.com/go-co-op/gocron"
	"github.com/permadex/marketseed/config/schema"
)

// Config carries the operator-tunable knobs. Fee rate, fee recipient and
// operator address are read once at boot and never refreshed: the fee
// terms of an already-listed item must not drift between listing and
// purchase. Rate limits and the ip whitelist stay mutable.
type Config struct {
	wdb          *Wdb
	feeRate      int64
	feeRecipient string
	operator     string
	apiRateLimit int
	ipWhiteList  map[string]struct{}
	scheduler    *gocron.Scheduler
}

func New(configDSN string, sqliteDir string, defaultFeeRate int64) *Config {
	var wdb *Wdb
	if configDSN != "" {
		wdb = NewWdb(configDSN)
	} else {
		wdb = NewSqliteWdb(sqliteDir)
	}
	err := wdb.Migrate()
	if err != nil {
		panic(err)
	}
	cfg, err := wdb.GetMarketConfig(defaultFeeRate)
	if err != nil {
		panic(err)
	}
	return &Config{
		wdb:          wdb,
		feeRate:      cfg.FeeRate,
		feeRecipient: cfg.FeeRecipient,
		operator:     cfg.Operator,
		apiRateLimit: cfg.ApiRateLimit,
		ipWhiteList:  make(map[string]struct{}),
		scheduler:    gocron.NewScheduler(time.UTC),
	}
}

func (c *Config) GetFeeRate() int64 {
	return c.feeRate
}

func (c *Config) GetFeeRecipient() string {
	return c.feeRecipient
}

func (c *Config) GetOperator() string {
	return c.operator
}

func (c *Config) GetApiRateLimit() int {
	return c.apiRateLimit
}

func (c *Config) GetIPWhiteList() *map[string]struct{} {
	return &c.ipWhiteList
}

func (c *Config) Run() {
	go c.runJobs()
}

func (c *Config) Close() {
	c.wdb.Close()
}

func (c *Config) Snapshot() schema.MarketConfig {
	return schema.MarketConfig{
		FeeRate:      c.feeRate,
		FeeRecipient: c.feeRecipient,
		Operator:     c.operator,
		ApiRateLimit: c.apiRateLimit,
	}
}
