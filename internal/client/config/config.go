package config

import "time"

// MemoryStore selects the in-process graph instead of a relay.
const MemoryStore = "memory"

// Config holds runtime settings for the Victory CLI.
type Config struct {
	StoreEndpointAddr string
	BackendURL        string
	DatabasePath      string

	RecallTimeout time.Duration
	NodeTimeout   time.Duration
	SettleDelay   time.Duration
	CountSettle   time.Duration
	HTTPRetries   int

	LogFile    string
	LogLevel   string
	LogBackend string

	// Optional bucket holding default avatar and banner images.
	S3Bucket    string
	S3Prefix    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.StoreEndpointAddr = "127.0.0.1:50051"
	c.BackendURL = "https://victoryapp.net/api/v1"
	c.DatabasePath = "victory.db"
	c.RecallTimeout = 100 * time.Millisecond
	c.NodeTimeout = 5 * time.Second
	c.SettleDelay = time.Second
	c.CountSettle = 2 * time.Second
	c.HTTPRetries = 0
	c.LogFile = "victory.log"
	c.LogLevel = "info"
	c.LogBackend = "slog"
	c.S3Region = "us-east-1"
}

// LoadConfig applies defaults, then .env and the environment, then JSON
// (if present) and command-line flags. Later sources take precedence.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg, ".env")
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
