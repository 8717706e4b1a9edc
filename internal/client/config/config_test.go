package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/chankeys/internal/blobstore"
	"github.com/dmitrijs2005/chankeys/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Empty(t, c.UserID)
	assert.True(t, strings.HasSuffix(c.KeysDir, filepath.Join(".chankeys", "keys")), c.KeysDir)
	assert.Equal(t, "warn", c.LogLevel)
	assert.Equal(t, "text", c.LogFormat)
	assert.Equal(t, 30*time.Second, c.CommandTimeout)
	assert.Equal(t, "filesystem", c.Storage.Kind)
	assert.Equal(t, "./chankeys-data", c.Storage.StorageRoot)

	b, err := c.Backend()
	require.NoError(t, err)
	assert.Equal(t, blobstore.FilesystemBackend{Root: "./chankeys-data"}, b)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		c.UserID = "alice"
		return c
	}

	require.NoError(t, valid().Validate())

	c := valid()
	c.UserID = ""
	assert.Error(t, c.Validate())

	c = valid()
	c.UserID = "../alice"
	assert.ErrorIs(t, c.Validate(), common.ErrInvalidIdentifier)

	c = valid()
	c.KeysDir = ""
	assert.Error(t, c.Validate())

	c = valid()
	c.CommandTimeout = -time.Second
	assert.Error(t, c.Validate())

	c = valid()
	c.Storage.Kind = "s3"
	c.Storage.S3Bucket = ""
	assert.ErrorIs(t, c.Validate(), blobstore.ErrInvalidBackend)

	c = valid()
	c.Storage.Kind = "tape"
	assert.ErrorIs(t, c.Validate(), blobstore.ErrInvalidBackend)
}
