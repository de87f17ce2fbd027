// Package config loads, normalizes, and validates ministory configuration.
//
// Configuration comes from a TOML file (default ~/.config/ministory/config.toml,
// or ministory.toml in the working directory). API keys may also be supplied
// through the environment, including a .env file, so the TOML file never needs
// to hold secrets.
package config
