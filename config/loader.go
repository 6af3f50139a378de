package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// loaderOptions holds explicit file overrides for LoadConfig.
type loaderOptions struct {
	configFile string
	envFile    string
}

// LoaderOption customizes LoadConfig.
type LoaderOption func(*loaderOptions)

// WithConfigFile reads path instead of searching for a config file. A
// missing file is not an error.
func WithConfigFile(path string) LoaderOption {
	return func(o *loaderOptions) { o.configFile = path }
}

// WithEnvFile loads path instead of searching for a .env file.
func WithEnvFile(path string) LoaderOption {
	return func(o *loaderOptions) { o.envFile = path }
}

// LoadConfig unmarshals configuration for serviceName into cfg. Sources, in
// increasing precedence: the YAML file, the .env file, and environment
// variables prefixed with the upper-cased service name.
func LoadConfig(serviceName string, cfg any, opts ...LoaderOption) error {
	var o loaderOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.configFile == "" {
		o.configFile = firstExisting(configCandidates(serviceName))
	}
	if o.envFile == "" {
		o.envFile = firstExisting(envCandidates(serviceName))
	}

	v := viper.New()
	if exists(o.configFile) {
		v.SetConfigFile(o.configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", o.configFile, err)
		}
	}

	// godotenv never overrides variables already set in the environment.
	if exists(o.envFile) {
		if err := godotenv.Load(o.envFile); err != nil {
			return fmt.Errorf("loading env file %s: %w", o.envFile, err)
		}
	}

	prefix := strings.ToUpper(strings.ReplaceAll(serviceName, "-", "_"))
	bindPrefixedEnv(v, prefix, os.Environ())

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("decoding %s config: %w", serviceName, err)
	}
	return nil
}

// configCandidates lists the config file locations searched, in order,
// relative to the working directory.
func configCandidates(serviceName string) []string {
	var paths []string
	for _, ext := range []string{"yaml", "yml"} {
		paths = append(paths,
			serviceName+"."+ext,
			filepath.Join("config", serviceName+"."+ext),
			filepath.Join("config", "config."+ext),
		)
	}
	return paths
}

func envCandidates(serviceName string) []string {
	return []string{".env." + serviceName, filepath.Join("config", ".env"), ".env"}
}

func firstExisting(paths []string) string {
	for _, p := range paths {
		if exists(p) {
			return p
		}
	}
	return ""
}

func exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// bindPrefixedEnv sets every PREFIX_* variable on v under each nested key
// spelling it could stand for.
func bindPrefixedEnv(v *viper.Viper, prefix string, environ []string) {
	marker := prefix + "_"
	for _, env := range environ {
		name, value, ok := strings.Cut(env, "=")
		if !ok || !strings.HasPrefix(name, marker) {
			continue
		}
		for _, key := range envKeyVariants(strings.TrimPrefix(name, marker)) {
			v.Set(key, value)
		}
	}
}

// envKeyVariants maps an env suffix onto candidate config keys, since an
// underscore may separate either nesting levels or words in a key:
//
//	THRESHOLDS_MIN_OVERALL -> thresholds_min_overall, thresholds.min.overall,
//	                          thresholds.min_overall
func envKeyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) == 1 {
		return parts
	}

	seen := map[string]bool{}
	var out []string
	add := func(k string) {
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	add(lower)
	add(strings.Join(parts, "."))
	for i := 1; i < len(parts); i++ {
		add(strings.Join(parts[:i], ".") + "." + strings.Join(parts[i:], "_"))
	}
	return out
}
