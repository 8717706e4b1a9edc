package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/blobstore/backends"
)

// Config holds runtime settings for the chankeys CLI.
//
// Fields:
//   - UserID: the identity whose keys and key records are used.
//   - KeysDir: parent directory of per-user identity key directories.
//   - LogLevel / LogFormat: slog level and handler (text, json). Logs go to stderr.
//   - CommandTimeout: upper bound for one command, store calls included.
//   - Storage: where key records live.
type Config struct {
	UserID         string
	KeysDir        string
	LogLevel       string
	LogFormat      string
	CommandTimeout time.Duration
	Storage        backends.Settings
}

// LoadDefaults populates c with defaults suitable for a single workstation.
func (c *Config) LoadDefaults() {
	c.UserID = ""
	c.KeysDir = defaultKeysDir()
	c.LogLevel = "warn"
	c.LogFormat = "text"
	c.CommandTimeout = 30 * time.Second
	c.Storage = backends.Settings{
		Kind:        string(blobstore.KindFilesystem),
		StorageRoot: "./chankeys-data",
		S3Region:    "us-east-1",
	}
}

func defaultKeysDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return filepath.Join(".chankeys", "keys")
	}
	return filepath.Join(home, ".chankeys", "keys")
}

func (c *Config) Backend() (blobstore.Backend, error) {
	return c.Storage.Backend()
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("user id is not set, use --user or user_id in the config file")
	}
	if err := blobstore.ValidateSegment(c.UserID); err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	if c.KeysDir == "" {
		return fmt.Errorf("keys dir is not set")
	}
	if c.CommandTimeout < 0 {
		return fmt.Errorf("command timeout must not be negative")
	}
	_, err := c.Backend()
	return err
}
