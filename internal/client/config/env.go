package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv loads envFile into the process environment (existing variables
// win) and copies the VICTORY_* variables into config. Malformed numbers or
// durations panic.
func parseEnv(config *Config, envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	texts := map[string]*string{
		"VICTORY_STORE_ADDR":    &config.StoreEndpointAddr,
		"VICTORY_BACKEND_URL":   &config.BackendURL,
		"VICTORY_DB_PATH":       &config.DatabasePath,
		"VICTORY_LOG_FILE":      &config.LogFile,
		"VICTORY_LOG_LEVEL":     &config.LogLevel,
		"VICTORY_LOG_BACKEND":   &config.LogBackend,
		"VICTORY_S3_BUCKET":     &config.S3Bucket,
		"VICTORY_S3_PREFIX":     &config.S3Prefix,
		"VICTORY_S3_REGION":     &config.S3Region,
		"VICTORY_S3_ENDPOINT":   &config.S3Endpoint,
		"VICTORY_S3_ACCESS_KEY": &config.S3AccessKey,
		"VICTORY_S3_SECRET_KEY": &config.S3SecretKey,
	}
	for key, dst := range texts {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"VICTORY_RECALL_TIMEOUT": &config.RecallTimeout,
		"VICTORY_NODE_TIMEOUT":   &config.NodeTimeout,
		"VICTORY_SETTLE_DELAY":   &config.SettleDelay,
		"VICTORY_COUNT_SETTLE":   &config.CountSettle,
	}
	for key, dst := range durations {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				panic(err)
			}
			*dst = d
		}
	}

	if v := os.Getenv("VICTORY_HTTP_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			panic(err)
		}
		config.HTTPRetries = n
	}
}
