package schema

type MarketConfig struct {
	FeeRate      int64  `json:"feeRate"` // thousandths, 25 means 2.5%
	FeeRecipient string `json:"feeRecipient"`
	Operator     string `json:"operator"`
	ApiRateLimit int    `json:"apiRateLimit"` // requests per minute per ip
}

type IpRateWhitelist struct {
	OriginOrIP  string // e.g "188.0.2.2"
	Available   bool   `gorm:"index:idx3"` // true means effective
	Description string
}
