package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/blobstore/backends"
	"github.com/dmitrijs2005/chankeys/internal/flagx"
	"github.com/dmitrijs2005/chankeys/internal/timex"
	"gopkg.in/yaml.v2"
)

var errRemoteBackend = fmt.Errorf("%w: blobd cannot use the remote backend", blobstore.ErrInvalidBackend)

// FileConfig is the on-disk shape of the configuration. Durations accept
// both "720h" and integer nanoseconds.
type FileConfig struct {
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	SecretKey             string         `json:"secret_key" yaml:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration" yaml:"token_validity_duration"`
	LogLevel              string         `json:"log_level" yaml:"log_level"`
	LogFormat             string         `json:"log_format" yaml:"log_format"`

	backends.Settings `yaml:",inline"`
}

// decodeFile reads path as YAML when its extension is .yaml or .yml and as
// JSON otherwise.
func decodeFile(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, c)
	default:
		err = json.Unmarshal(b, c)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// parseFile overlays the non-empty values of the file named by -c/-config.
// An unreadable or malformed file panics, like a bad flag does.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	c, err := decodeFile(path)
	if err != nil {
		panic(err)
	}
	applyFile(config, c)
}

func applyFile(config *Config, c *FileConfig) {
	if c.EndpointAddrGRPC != "" {
		config.EndpointAddrGRPC = c.EndpointAddrGRPC
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenValidityDuration.Duration != 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
	if c.LogFormat != "" {
		config.LogFormat = c.LogFormat
	}
	config.Storage.Overlay(c.Settings)
}

// ErrNoSecret is returned by Validate for an empty signing secret.
var ErrNoSecret = errors.New("secret key must not be empty")

// Validate checks the settings blobd cannot start without.
func (c *Config) Validate() error {
	if c.SecretKey == "" {
		return ErrNoSecret
	}
	_, err := c.Backend()
	return err
}
