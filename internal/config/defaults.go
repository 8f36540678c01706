package config

import (
	"time"

	"github.com/spf13/viper"
)

// DefaultDatabasePath is where the SQLite database lives unless configured.
const DefaultDatabasePath = "$HOME/.local/share/spice/spice.db"

// SetDefaults registers default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.max_retries", 1)
	v.SetDefault("llm.retry_delay", time.Second)
	v.SetDefault("llm.cache_ttl", 24*time.Hour)
	v.SetDefault("llm.rate_limit", 60)
	v.SetDefault("llm.timeout", 2*time.Minute)
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.max_tokens", 4096)

	v.SetDefault("engine.batch_size", 50)
	v.SetDefault("engine.learn_confidence_threshold", 80.0)
	v.SetDefault("engine.max_concurrent_batches", 4)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.body_limit", "20M")
	v.SetDefault("server.rate_limit_per_minute", 30)
	v.SetDefault("server.rate_limit_burst", 5)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.tls", false)
	v.SetDefault("server.cert_dir", "$HOME/.config/spice/certs")
}
