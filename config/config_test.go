package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Thresholds    struct {
		MinOverall float64 `mapstructure:"min_overall"`
		WarnMargin float64 `mapstructure:"warn_margin"`
	} `mapstructure:"thresholds"`
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if cfg.Logging.ServiceName != "svc" {
			t.Errorf("expected logging service name to follow config name, got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("debug raises log level", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Debug: true}
		cfg.ApplyDefaults()
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug level, got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid development", ServiceConfig{Name: "svc", Environment: "development"}, false, ""},
		{"valid production", ServiceConfig{Name: "svc", Environment: "production"}, false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name: is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "invalid"}, true, "config.environment: must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "abcompare.yml")

	yamlContent := `
name: abcompare
environment: staging
thresholds:
  min_overall: 75
  warn_margin: 5
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	var cfg testConfig
	if err := LoadConfig("abcompare", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "abcompare" || cfg.Environment != "staging" {
		t.Errorf("unexpected service config: %+v", cfg.ServiceConfig)
	}
	if cfg.Thresholds.MinOverall != 75 {
		t.Errorf("expected min_overall 75, got %v", cfg.Thresholds.MinOverall)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "abcompare.yml")
	if err := os.WriteFile(configPath, []byte("name: abcompare\nthresholds:\n  min_overall: 75\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("ABCOMPARE_THRESHOLDS_MIN_OVERALL", "90")

	var cfg testConfig
	if err := LoadConfig("abcompare", &cfg, WithConfigFile(configPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Thresholds.MinOverall != 90 {
		t.Errorf("expected env override 90, got %v", cfg.Thresholds.MinOverall)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("ABCOMPARE_THRESHOLDS_WARN_MARGIN=7\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("ABCOMPARE_THRESHOLDS_WARN_MARGIN") })

	var cfg testConfig
	err := LoadConfig("abcompare", &cfg, WithConfigFile(filepath.Join(dir, "missing.yml")), WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Thresholds.WarnMargin != 7 {
		t.Errorf("expected warn_margin 7 from .env, got %v", cfg.Thresholds.WarnMargin)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("nonexistent-service", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
}

func TestLoadConfigSearchPaths(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", "abcompare.yml"), []byte("environment: production\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ABCOMPARE_THRESHOLDS_WARN_MARGIN=4\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("ABCOMPARE_THRESHOLDS_WARN_MARGIN") })
	t.Chdir(dir)

	var cfg testConfig
	if err := LoadConfig("abcompare", &cfg); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Environment != "production" {
		t.Errorf("expected config/abcompare.yml to be found, environment = %q", cfg.Environment)
	}
	if cfg.Thresholds.WarnMargin != 4 {
		t.Errorf("expected .env to be found, warn_margin = %v", cfg.Thresholds.WarnMargin)
	}
}

func TestLoadConfigPrefersServiceFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "abcompare.yaml"), []byte("environment: staging\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config", "config.yaml"), []byte("environment: production\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	var cfg testConfig
	if err := LoadConfig("abcompare", &cfg); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected abcompare.yaml to win, environment = %q", cfg.Environment)
	}
}

func TestEnvKeyVariants(t *testing.T) {
	variants := envKeyVariants("THRESHOLDS_MIN_OVERALL")
	want := map[string]bool{
		"thresholds_min_overall": false,
		"thresholds.min.overall": false,
		"thresholds.min_overall": false,
	}
	for _, v := range variants {
		if _, ok := want[v]; ok {
			want[v] = true
		}
	}
	for k, seen := range want {
		if !seen {
			t.Errorf("missing variant %q in %v", k, variants)
		}
	}
}
