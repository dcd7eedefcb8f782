package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/plus3/ecsrt/ecs/addon"
)

// EnvPrefix prefixes every variable FromEnv reads.
const EnvPrefix = "ECSRT_"

// FromEnv overlays ECSRT_* process environment variables onto cfg.
func FromEnv(cfg *Config) error {
	return overlay(cfg, os.LookupEnv)
}

// LoadEnv overlays a .env file and then the process environment onto cfg.
// Variables set in the process win over the file. A missing file is not an
// error.
func LoadEnv(cfg *Config, path string) error {
	file := map[string]string{}
	if path != "" {
		m, err := godotenv.Read(path)
		switch {
		case err == nil:
			file = m
		case os.IsNotExist(err):
		default:
			return fmt.Errorf("config: read %s: %w", path, err)
		}
	}
	return overlay(cfg, func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := file[key]
		return v, ok
	})
}

// FromMap overlays variables from env onto cfg. It is FromEnv without the
// process environment.
func FromMap(cfg *Config, env map[string]string) error {
	return overlay(cfg, func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
}

func overlay(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return "", false
		}
		return v, true
	}
	addons, err := canonicalAddons(cfg.Addons)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	cfg.Addons = addons

	if v, ok := get("PRESET"); ok {
		cfg.Preset = v
	}
	if v, ok := get("ADDONS"); ok {
		list := make(map[string]bool)
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			name, val, found := strings.Cut(part, "=")
			on := true
			if found {
				b, err := strconv.ParseBool(strings.TrimSpace(val))
				if err != nil {
					return fmt.Errorf("config: %sADDONS: %q: %w", EnvPrefix, part, err)
				}
				on = b
			}
			list[strings.TrimSpace(name)] = on
		}
		values, err := addon.Resolve(list)
		if err != nil {
			return fmt.Errorf("config: %sADDONS: %w", EnvPrefix, err)
		}
		for id, on := range values {
			cfg.Addons[string(id)] = on
		}
	}
	for _, id := range addon.Known() {
		key := "ADDON_" + strings.ToUpper(string(id))
		if v, ok := get(key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("config: %s%s: %w", EnvPrefix, key, err)
			}
			cfg.Addons[string(id)] = b
		}
	}

	if v, ok := get("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}
	if v, ok := get("LOG_FILE"); ok {
		cfg.Log.File = v
	}
	if v, ok := get("HTTP_ADDR"); ok {
		cfg.HTTP.Addr = v
	}
	if v, ok := get("METRICS_NAMESPACE"); ok {
		cfg.Metrics.Namespace = v
	}
	if v, ok := get("APP_TARGET_FPS"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("config: %sAPP_TARGET_FPS: %w", EnvPrefix, err)
		}
		cfg.App.TargetFPS = f
	}
	if v, ok := get("APP_FRAMES"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %sAPP_FRAMES: %w", EnvPrefix, err)
		}
		cfg.App.Frames = n
	}
	return nil
}
