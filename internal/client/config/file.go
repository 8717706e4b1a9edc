package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/chankeys/internal/blobstore/backends"
	"github.com/dmitrijs2005/chankeys/internal/timex"
	"gopkg.in/yaml.v2"
)

// FileConfig is the on-disk shape of the configuration.
type FileConfig struct {
	UserID         string         `json:"user_id" yaml:"user_id"`
	KeysDir        string         `json:"keys_dir" yaml:"keys_dir"`
	LogLevel       string         `json:"log_level" yaml:"log_level"`
	LogFormat      string         `json:"log_format" yaml:"log_format"`
	CommandTimeout timex.Duration `json:"command_timeout" yaml:"command_timeout"`

	backends.Settings `yaml:",inline"`
}

// ReadFile decodes path as YAML for .yaml/.yml and as JSON otherwise.
func ReadFile(path string) (*FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, fc)
	default:
		err = json.Unmarshal(b, fc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return fc, nil
}

// Apply overlays the non-empty values of fc onto c.
func (fc *FileConfig) Apply(c *Config) {
	if fc.UserID != "" {
		c.UserID = fc.UserID
	}
	if fc.KeysDir != "" {
		c.KeysDir = fc.KeysDir
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.LogFormat != "" {
		c.LogFormat = fc.LogFormat
	}
	if fc.CommandTimeout.Duration != 0 {
		c.CommandTimeout = fc.CommandTimeout.Duration
	}
	c.Storage.Overlay(fc.Settings)
}
