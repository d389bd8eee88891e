package config

func (c *Config) runJobs() {
	c.scheduler.Every(1).Minute().SingletonMode().Do(c.updateRateLimit)
	c.scheduler.Every(1).Minute().SingletonMode().Do(c.updateIPWhiteList)

	c.scheduler.StartAsync()
}

// updateRateLimit refreshes only the throttle knob; fee terms are fixed
// at boot.
func (c *Config) updateRateLimit() {
	cfg, err := c.wdb.GetMarketConfig(c.feeRate)
	if err != nil {
		return
	}
	c.apiRateLimit = cfg.ApiRateLimit
}

func (c *Config) updateIPWhiteList() {
	ips, err := c.wdb.GetAllAvailableIpRateWhitelist()
	if err != nil {
		return
	}
	ipWhiteList := make(map[string]struct{}, 0)
	for _, ip := range ips {
		if ip.Available {
			ipWhiteList[ip.OriginOrIP] = struct{}{}
		}
	}
	c.ipWhiteList = ipWhiteList
}
