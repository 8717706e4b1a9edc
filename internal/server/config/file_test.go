package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func Test_parseFile_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("loads from json", func(t *testing.T) {
		path := writeTemp(t, "blobd.json", `{
			"endpoint_addr_grpc": "www.example:9000",
			"secret_key": "my_secret_key",
			"token_validity_duration": "1h",
			"log_level": "debug",
			"storage_backend": "s3",
			"s3_bucket": "bucket",
			"s3_region": "region",
			"s3_base_endpoint": "http://minio:9000",
			"s3_use_path_style": true
		}`)
		os.Args = []string{"blobd", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFile(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrGRPC)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, time.Hour, cfg.TokenValidityDuration)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "json", cfg.LogFormat)
		assert.Equal(t, "s3", cfg.Storage.Kind)
		assert.Equal(t, "bucket", cfg.Storage.S3Bucket)
		assert.Equal(t, "region", cfg.Storage.S3Region)
		assert.True(t, cfg.Storage.S3UsePathStyle)
	})

	t.Run("loads from yaml", func(t *testing.T) {
		path := writeTemp(t, "blobd.yaml", "secret_key: from-yaml\ntoken_validity_duration: 2h\nstorage_backend: badger\nbadger_dir: /var/lib/blobd\n")
		os.Args = []string{"blobd", "-c", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFile(cfg)

		assert.Equal(t, "from-yaml", cfg.SecretKey)
		assert.Equal(t, 2*time.Hour, cfg.TokenValidityDuration)
		assert.Equal(t, "badger", cfg.Storage.Kind)
		assert.Equal(t, "/var/lib/blobd", cfg.Storage.BadgerDir)
	})

	t.Run("no config flag, no changes", func(t *testing.T) {
		os.Args = []string{"blobd"}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFile(cfg)
		assert.Equal(t, ":50051", cfg.EndpointAddrGRPC)
	})

	t.Run("invalid file panics", func(t *testing.T) {
		path := writeTemp(t, "bad.json", `{ this is not valid json`)
		os.Args = []string{"blobd", "-config", path}

		require.Panics(t, func() { parseFile(&Config{}) })
	})

	t.Run("missing file panics", func(t *testing.T) {
		os.Args = []string{"blobd", "-config", filepath.Join(t.TempDir(), "nope.json")}
		require.Panics(t, func() { parseFile(&Config{}) })
	})
}
