package config

import (
	"encoding/json"
	"os"

	"github.com/victoryapp/victory/internal/flagx"
	"github.com/victoryapp/victory/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept "1h" style
// strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC string         `json:"endpoint_addr_grpc"`
	DatabaseDSN      string         `json:"database_dsn"`
	SecretKey        string         `json:"secret_key"`
	SessionValidity  timex.Duration `json:"session_validity"`
	LogLevel         string         `json:"log_level"`
	LogBackend       string         `json:"log_backend"`
}

// parseJson overlays values from the file named by -c/-config or
// $VICTORY_CONFIG. Only fields present in the file are applied. An unreadable
// file or invalid JSON panics.
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

	if c.EndpointAddrGRPC != "" {
		config.EndpointAddrGRPC = c.EndpointAddrGRPC
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.SessionValidity.Duration != 0 {
		config.SessionValidity = c.SessionValidity.Duration
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
	if c.LogBackend != "" {
		config.LogBackend = c.LogBackend
	}
}
