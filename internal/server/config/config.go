// Package config handles configuration for blobd, including defaults, a
// JSON or YAML file overlay, and command-line flags.
package config

import (
	"time"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/blobstore/backends"
)

// Config holds runtime settings for the blob store server.
//
// Fields:
//   - EndpointAddrGRPC: bind address for the gRPC endpoint.
//   - SecretKey: HMAC secret for signing access tokens (HS256). Do not use the default in prod.
//   - TokenValidityDuration: lifetime of tokens issued with -issue; 0 means no expiry.
//   - LogLevel / LogFormat: slog level (debug, info, warn, error) and handler (text, json).
//   - Storage: the backend blobs are kept in. The remote backend is not allowed here.
type Config struct {
	EndpointAddrGRPC      string
	SecretKey             string
	TokenValidityDuration time.Duration
	LogLevel              string
	LogFormat             string
	Storage               backends.Settings
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.SecretKey = "secretKey"
	c.TokenValidityDuration = 30 * 24 * time.Hour
	c.LogLevel = "info"
	c.LogFormat = "json"
	c.Storage = backends.Settings{
		Kind:        string(blobstore.KindFilesystem),
		StorageRoot: "./blobd-data",
		S3Region:    "us-east-1",
	}
}

// Backend returns the configured storage backend.
func (c *Config) Backend() (blobstore.Backend, error) {
	b, err := c.Storage.Backend()
	if err != nil {
		return nil, err
	}
	if b.Kind() == blobstore.KindRemote {
		return nil, errRemoteBackend
	}
	return b, nil
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional config file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseFile(cfg)
	parseFlags(cfg)
	return cfg
}
