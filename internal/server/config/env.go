package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const (
	envAddr            = "VICTORY_RELAY_ADDR"
	envDatabaseDSN     = "VICTORY_DATABASE_DSN"
	envSecretKey       = "VICTORY_SECRET_KEY"
	envSessionValidity = "VICTORY_SESSION_VALIDITY"
	envLogLevel        = "VICTORY_LOG_LEVEL"
	envLogBackend      = "VICTORY_LOG_BACKEND"
)

// parseEnv loads envFile (if it exists) into the process environment without
// overriding variables that are already set, then copies every VICTORY_*
// variable it knows into config. A malformed file or duration panics.
func parseEnv(config *Config, envFile string) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			panic(err)
		}
	}

	setString(&config.EndpointAddrGRPC, envAddr)
	setString(&config.DatabaseDSN, envDatabaseDSN)
	setString(&config.SecretKey, envSecretKey)
	setString(&config.LogLevel, envLogLevel)
	setString(&config.LogBackend, envLogBackend)

	if v, ok := os.LookupEnv(envSessionValidity); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			panic(err)
		}
		config.SessionValidity = d
	}
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}
