// Package config loads runtime configuration for the chankeys CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON or YAML file named by --config (YAML when the extension is
//     .yaml or .yml).
//  3. Command-line flags that were set explicitly.
//
// # File schema
//
//	{
//	  "user_id": "alice",
//	  "keys_dir": "/home/alice/.chankeys/keys",
//	  "command_timeout": "30s",
//	  "storage_backend": "s3",
//	  "s3_bucket": "chankeys",
//	  "s3_base_endpoint": "http://127.0.0.1:9000"
//	}
//
// command_timeout accepts a duration string or integer nanoseconds.
package config
