// internal/workers/compatibility/rank-listings/config.go
package ranklistings

import (
	"time"

	"marketplace-compat/internal/common/config"
)

type Config struct {
	Enabled  bool
	MaxItems int
	Timeout  time.Duration
}

func LoadConfig(appCfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(appCfg, TaskType)
	cfg := &Config{
		Enabled:  wcfg.Enabled,
		MaxItems: appCfg.Compatibility.RankingMaxItems,
		Timeout:  30 * time.Second,
	}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	return cfg
}
