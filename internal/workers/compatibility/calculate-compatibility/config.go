// internal/workers/compatibility/calculate-compatibility/config.go
package calculatecompatibility

import (
	"time"

	"marketplace-compat/internal/common/config"
)

type Config struct {
	Enabled    bool
	Timeout    time.Duration
	MaxRetries int
}

func LoadConfig(appCfg *config.Config) *Config {
	wcfg := config.GetWorkerConfig(appCfg, TaskType)
	cfg := &Config{
		Enabled:    wcfg.Enabled,
		Timeout:    10 * time.Second,
		MaxRetries: wcfg.MaxRetries,
	}
	if wcfg.Timeout > 0 {
		cfg.Timeout = config.GetDuration(wcfg.Timeout)
	}
	return cfg
}
