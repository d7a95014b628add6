package config

import (
	"flag"
	"os"

	"github.com/victoryapp/victory/internal/flagx"
)

// parseFlags overlays command-line flags; see the package doc for the list.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-b", "-f", "-r", "-n", "-s", "-k", "-t", "-l", "-v", "-g"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.StoreEndpointAddr, "a", config.StoreEndpointAddr, "relay address, or \"memory\"")
	fs.StringVar(&config.BackendURL, "b", config.BackendURL, "REST backend base URL")
	fs.StringVar(&config.DatabasePath, "f", config.DatabasePath, "local cache database path")
	fs.DurationVar(&config.RecallTimeout, "r", config.RecallTimeout, "session recall timeout")
	fs.DurationVar(&config.NodeTimeout, "n", config.NodeTimeout, "node read timeout")
	fs.DurationVar(&config.SettleDelay, "s", config.SettleDelay, "registration settle delay")
	fs.DurationVar(&config.CountSettle, "k", config.CountSettle, "collection count settle time")
	fs.IntVar(&config.HTTPRetries, "t", config.HTTPRetries, "HTTP retry budget")
	fs.StringVar(&config.LogFile, "l", config.LogFile, "log file")
	fs.StringVar(&config.LogLevel, "v", config.LogLevel, "log level")
	fs.StringVar(&config.LogBackend, "g", config.LogBackend, "logger backend (slog|zap)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
