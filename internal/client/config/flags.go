package config

import "github.com/spf13/pflag"

// Flags holds the values of the CLI's persistent flags. Only flags the user
// set explicitly override the defaults and the config file.
type Flags struct {
	fs         *pflag.FlagSet
	configPath string
	values     Config
}

// BindFlags registers the configuration flags on fs.
func BindFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	v := &f.values
	v.LoadDefaults()

	fs.StringVarP(&f.configPath, "config", "c", "", "path to a JSON or YAML config file")
	fs.StringVarP(&v.UserID, "user", "u", v.UserID, "user id of the current identity")
	fs.StringVar(&v.KeysDir, "keys-dir", v.KeysDir, "directory holding identity keys")
	fs.StringVar(&v.LogLevel, "log-level", v.LogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&v.LogFormat, "log-format", v.LogFormat, "log format (text, json)")
	fs.DurationVar(&v.CommandTimeout, "timeout", v.CommandTimeout, "timeout for a single command")

	s := &v.Storage
	fs.StringVarP(&s.Kind, "storage-backend", "b", s.Kind, "storage backend (memory, filesystem, s3, postgres, sqlite, badger, remote)")
	fs.StringVar(&s.StorageRoot, "storage-root", s.StorageRoot, "root directory of the filesystem backend")
	fs.StringVar(&s.S3Bucket, "s3-bucket", s.S3Bucket, "S3 bucket")
	fs.StringVar(&s.S3Region, "s3-region", s.S3Region, "S3 region")
	fs.StringVar(&s.S3BaseEndpoint, "s3-endpoint", s.S3BaseEndpoint, "S3-compatible endpoint URL")
	fs.StringVar(&s.S3AccessKeyID, "s3-access-key-id", s.S3AccessKeyID, "S3 access key id")
	fs.StringVar(&s.S3SecretAccessKey, "s3-secret-access-key", s.S3SecretAccessKey, "S3 secret access key")
	fs.BoolVar(&s.S3UsePathStyle, "s3-path-style", s.S3UsePathStyle, "use path-style S3 addressing")
	fs.StringVar(&s.DatabaseDSN, "database-dsn", s.DatabaseDSN, "PostgreSQL DSN")
	fs.StringVar(&s.SQLitePath, "sqlite-path", s.SQLitePath, "SQLite database file")
	fs.StringVar(&s.BadgerDir, "badger-dir", s.BadgerDir, "badger data directory")
	fs.BoolVar(&s.BadgerInMemory, "badger-in-memory", s.BadgerInMemory, "run badger in memory")
	fs.StringVar(&s.RemoteAddress, "remote-address", s.RemoteAddress, "blobd address")
	fs.StringVar(&s.RemoteAccessToken, "remote-token", s.RemoteAccessToken, "blobd access token")

	return f
}

// Load builds the Config: defaults, then the config file, then the flags
// that were set on the command line.
func (f *Flags) Load() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if f.configPath != "" {
		fc, err := ReadFile(f.configPath)
		if err != nil {
			return nil, err
		}
		fc.Apply(cfg)
	}

	f.overlay(cfg)
	return cfg, nil
}

func (f *Flags) overlay(cfg *Config) {
	v := &f.values
	s := &v.Storage

	strs := map[string][2]*string{
		"user":                 {&cfg.UserID, &v.UserID},
		"keys-dir":             {&cfg.KeysDir, &v.KeysDir},
		"log-level":            {&cfg.LogLevel, &v.LogLevel},
		"log-format":           {&cfg.LogFormat, &v.LogFormat},
		"storage-backend":      {&cfg.Storage.Kind, &s.Kind},
		"storage-root":         {&cfg.Storage.StorageRoot, &s.StorageRoot},
		"s3-bucket":            {&cfg.Storage.S3Bucket, &s.S3Bucket},
		"s3-region":            {&cfg.Storage.S3Region, &s.S3Region},
		"s3-endpoint":          {&cfg.Storage.S3BaseEndpoint, &s.S3BaseEndpoint},
		"s3-access-key-id":     {&cfg.Storage.S3AccessKeyID, &s.S3AccessKeyID},
		"s3-secret-access-key": {&cfg.Storage.S3SecretAccessKey, &s.S3SecretAccessKey},
		"database-dsn":         {&cfg.Storage.DatabaseDSN, &s.DatabaseDSN},
		"sqlite-path":          {&cfg.Storage.SQLitePath, &s.SQLitePath},
		"badger-dir":           {&cfg.Storage.BadgerDir, &s.BadgerDir},
		"remote-address":       {&cfg.Storage.RemoteAddress, &s.RemoteAddress},
		"remote-token":         {&cfg.Storage.RemoteAccessToken, &s.RemoteAccessToken},
	}
	for name, p := range strs {
		if f.fs.Changed(name) {
			*p[0] = *p[1]
		}
	}

	bools := map[string][2]*bool{
		"s3-path-style":    {&cfg.Storage.S3UsePathStyle, &s.S3UsePathStyle},
		"badger-in-memory": {&cfg.Storage.BadgerInMemory, &s.BadgerInMemory},
	}
	for name, p := range bools {
		if f.fs.Changed(name) {
			*p[0] = *p[1]
		}
	}

	if f.fs.Changed("timeout") {
		cfg.CommandTimeout = v.CommandTimeout
	}
}
