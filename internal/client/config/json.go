package config

import (
	"encoding/json"
	"os"

	"github.com/victoryapp/victory/internal/flagx"
	"github.com/victoryapp/victory/internal/timex"
)

// JsonConfig is the on-disk form of Config.
type JsonConfig struct {
	StoreEndpointAddr string         `json:"store_endpoint_addr"`
	BackendURL        string         `json:"backend_url"`
	DatabasePath      string         `json:"database_path"`
	RecallTimeout     timex.Duration `json:"recall_timeout"`
	NodeTimeout       timex.Duration `json:"node_timeout"`
	SettleDelay       timex.Duration `json:"settle_delay"`
	CountSettle       timex.Duration `json:"count_settle"`
	HTTPRetries       *int           `json:"http_retries"`
	LogFile           string         `json:"log_file"`
	LogLevel          string         `json:"log_level"`
	LogBackend        string         `json:"log_backend"`
	S3Bucket          string         `json:"s3_bucket"`
	S3Prefix          string         `json:"s3_prefix"`
	S3Region          string         `json:"s3_region"`
	S3Endpoint        string         `json:"s3_endpoint"`
	S3AccessKey       string         `json:"s3_access_key"`
	S3SecretKey       string         `json:"s3_secret_key"`
}

// parseJson overlays the fields present in the JSON config file, if one is
// named. An unreadable file or invalid JSON panics.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFilePath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.StoreEndpointAddr, c.StoreEndpointAddr)
	setString(&config.BackendURL, c.BackendURL)
	setString(&config.DatabasePath, c.DatabasePath)
	setString(&config.LogFile, c.LogFile)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogBackend, c.LogBackend)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Prefix, c.S3Prefix)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3Endpoint, c.S3Endpoint)
	setString(&config.S3AccessKey, c.S3AccessKey)
	setString(&config.S3SecretKey, c.S3SecretKey)

	if c.RecallTimeout.Duration != 0 {
		config.RecallTimeout = c.RecallTimeout.Duration
	}
	if c.NodeTimeout.Duration != 0 {
		config.NodeTimeout = c.NodeTimeout.Duration
	}
	if c.SettleDelay.Duration != 0 {
		config.SettleDelay = c.SettleDelay.Duration
	}
	if c.CountSettle.Duration != 0 {
		config.CountSettle = c.CountSettle.Duration
	}
	if c.HTTPRetries != nil {
		config.HTTPRetries = *c.HTTPRetries
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
