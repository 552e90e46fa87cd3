// Package config loads, normalizes, and validates the reelsmith
// configuration file. Configuration is TOML with a section per subsystem;
// secrets are taken from the environment when the file leaves them blank.
package config
