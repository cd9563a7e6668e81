// Package config loads application configuration.
//
// # Configuration Sources
//
// Values are resolved in this order, later sources winning:
//
//	1. Built-in defaults (Default)
//	2. A YAML file: config.yaml or configs/config.yaml
//	3. A .env file in the working directory, loaded into the process environment
//	4. Environment variables prefixed with ASSESS_
//
// # Environment Variables
//
// Nested sections map to underscores:
//
//	ASSESS_SERVER_PORT=8080
//	ASSESS_LOGGING_LEVEL=debug
//	ASSESS_DATA_SOURCE=sheets
//	ASSESS_DATA_SHEET_ID=1AbC...
//	ASSESS_DATA_CREDENTIALS_FILE=/secrets/service-account.json
//	ASSESS_DATA_RELOAD_INTERVAL=5m
//
// # Paths
//
// Relative directories are resolved against Paths.BaseDir, which defaults to
// the directory holding the executable so the binary behaves the same wherever
// it is launched from.
package config
