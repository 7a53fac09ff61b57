// Package config loads and merges critic configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (CRITIC_PROVIDER, CRITIC_MODEL, CRITIC_RETRY_ATTEMPTS, etc.),
//     optionally seeded from a .env file via [LoadEnvFile]
//  3. Config file ($XDG_CONFIG_HOME/critic/config.json)
//  4. Built-in defaults
//
// Use [Load] to obtain a merged [Config], [Save] to write a config file, and
// [SetField] to update a single key.
package config
