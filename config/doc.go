// Package config loads application configuration from YAML files, .env
// files and prefixed environment variables using Viper.
//
// # Usage
//
//	var cfg AppConfig
//	err := config.LoadConfig("abcompare", &cfg, config.WithConfigFile(path))
//
// Environment variables carrying the service prefix override file values,
// with underscores mapped to nesting (ABCOMPARE_THRESHOLDS_MIN_OVERALL
// sets thresholds.min_overall).
package config
