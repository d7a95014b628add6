// Package config loads runtime configuration for the Victory CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. A .env file in the working directory and VICTORY_* environment variables.
//  3. Optional JSON file selected via -c/-config or $VICTORY_CONFIG.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string     relay address (host:port); "memory" runs against an in-process graph
//	-b string     REST backend base URL
//	-f string     local cache database path
//	-r duration   session recall timeout
//	-n duration   node read timeout
//	-s duration   registration settle delay
//	-k duration   collection count settle time
//	-t int        HTTP retry budget
//	-l string     log file
//	-v string     log level
//	-g string     logger backend (slog|zap)
//
// # JSON schema
//
// Durations accept strings like "100ms" or integer nanoseconds:
//
//	{
//	  "store_endpoint_addr": "127.0.0.1:50051",
//	  "backend_url": "https://victoryapp.net/api/v1",
//	  "recall_timeout": "100ms",
//	  "s3_bucket": "victory-assets"
//	}
package config
