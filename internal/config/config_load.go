package config

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/titanous/json5"
)

// EnvPrefix is the environment-variable namespace for TEC config overrides,
// following the teacher's GOCLAW_* convention.
const EnvPrefix = "VTCODE_"

// Load reads a JSON5 config document from path. A missing file is not an
// error: Load falls back to Default() with environment overrides applied,
// matching the teacher's config_load.go behavior. Unknown top-level keys
// are rejected rather than silently ignored (spec.md §6).
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			applyEnvOverrides(cfg)
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := rejectUnknownKeys(data); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// rejectUnknownKeys decodes the document into a generic map and checks its
// top-level keys against Config's json tags. titanous/json5 has no native
// DisallowUnknownFields equivalent, so this performs that check manually.
func rejectUnknownKeys(data []byte) error {
	var generic map[string]interface{}
	if err := json5.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("config: parse: %w", err)
	}
	known := knownJSONKeys(reflect.TypeOf(Config{}))
	for key := range generic {
		if !known[key] {
			return fmt.Errorf("config: unknown option %q", key)
		}
	}
	return nil
}

func knownJSONKeys(t reflect.Type) map[string]bool {
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		tag := t.Field(i).Tag.Get("json")
		if tag == "" || tag == "-" {
			continue
		}
		name := strings.Split(tag, ",")[0]
		if name != "" {
			keys[name] = true
		}
	}
	return keys
}

// applyEnvOverrides overlays VTCODE_* environment variables onto secrets
// and a handful of operational knobs, never onto the document itself.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "WORKSPACE"); v != "" {
		cfg.Workspace = v
	}
	if v := os.Getenv(EnvPrefix + "POLICY_STORE"); v != "" {
		cfg.PolicyStorePath = v
	}
	if v := os.Getenv(EnvPrefix + "PROVIDER_API_KEY_ENV"); v != "" {
		cfg.ProviderAPIKeyEnv = v
	}
}

// ResolveConfigPath mirrors the teacher's resolveConfigPath: explicit flag,
// then environment variable, then a sensible default filename.
func ResolveConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if v := os.Getenv(EnvPrefix + "CONFIG"); v != "" {
		return v
	}
	return "vtcode.json5"
}
