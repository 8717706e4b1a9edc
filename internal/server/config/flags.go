package config

import (
	"flag"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/chankeys/internal/flagx"
)

var serverFlags = []string{"-a", "-s", "-t", "-l", "-f", "-k", "-root", "-d", "-sqlite", "-badger", "-b", "-g", "-e", "-u", "-p", "-path-style"}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string        gRPC bind address (e.g., ":50051")
//	-s string        token signing secret
//	-t int           issued token validity, hours (0 = no expiry)
//	-l string        log level
//	-f string        log format (text|json)
//	-k string        storage backend (memory|filesystem|s3|postgres|sqlite|badger)
//	-root string     filesystem backend root
//	-d string        PostgreSQL DSN
//	-sqlite string   SQLite database path
//	-badger string   badger directory
//	-b, -g, -e       S3 bucket, region, base endpoint
//	-u, -p           S3 access key id and secret
//	-path-style      S3 path-style addressing
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, so -c/-config and -issue do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	validity := fs.Int("t", int(config.TokenValidityDuration.Hours()), "token validity (in hours)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.LogFormat, "f", config.LogFormat, "log format")

	st := &config.Storage
	fs.StringVar(&st.Kind, "k", st.Kind, "storage backend")
	fs.StringVar(&st.StorageRoot, "root", st.StorageRoot, "filesystem root")
	fs.StringVar(&st.DatabaseDSN, "d", st.DatabaseDSN, "database DSN")
	fs.StringVar(&st.SQLitePath, "sqlite", st.SQLitePath, "sqlite path")
	fs.StringVar(&st.BadgerDir, "badger", st.BadgerDir, "badger directory")
	fs.StringVar(&st.S3Bucket, "b", st.S3Bucket, "S3 bucket")
	fs.StringVar(&st.S3Region, "g", st.S3Region, "S3 region")
	fs.StringVar(&st.S3BaseEndpoint, "e", st.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&st.S3AccessKeyID, "u", st.S3AccessKeyID, "S3 access key id")
	fs.StringVar(&st.S3SecretAccessKey, "p", st.S3SecretAccessKey, "S3 secret access key")
	fs.BoolVar(&st.S3UsePathStyle, "path-style", st.S3UsePathStyle, "S3 path-style addressing")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*validity) * time.Hour
}
