package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"store_endpoint_addr": "relay:50051",
		"node_timeout": "3s",
		"count_settle": 1000000,
		"http_retries": 0,
		"s3_bucket": "assets",
		"s3_endpoint": "http://127.0.0.1:9000"
	}`), 0o600))

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{HTTPRetries: 5, LogLevel: "warn"}
		parseJson(cfg)

		assert.Equal(t, "relay:50051", cfg.StoreEndpointAddr)
		assert.Equal(t, 3*time.Second, cfg.NodeTimeout)
		assert.Equal(t, time.Millisecond, cfg.CountSettle)
		assert.Equal(t, 0, cfg.HTTPRetries, "explicit zero overrides")
		assert.Equal(t, "assets", cfg.S3Bucket)
		assert.Equal(t, "http://127.0.0.1:9000", cfg.S3Endpoint)
		assert.Equal(t, "warn", cfg.LogLevel, "absent fields keep their value")
	})

	t.Run("no file → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}
		t.Setenv("VICTORY_CONFIG", "")

		cfg := &Config{StoreEndpointAddr: "defaults:1234"}
		parseJson(cfg)
		assert.Equal(t, "defaults:1234", cfg.StoreEndpointAddr)
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-c", filepath.Join(t.TempDir(), "absent.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}
