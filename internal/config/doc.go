// Package config handles configuration loading, parsing, and validation
// from environment variables (HUDDLE_ prefix), an optional config.yaml and an
// optional .env file. It provides type-safe access to server, database,
// Redis, auth and matching settings.
package config
