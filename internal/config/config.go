package config

import (
	"fmt"
	"os"

	"github.com/plus3/ecsrt/ecs/addon"
	"github.com/plus3/ecsrt/ecs/world"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file and env.
type Config struct {
	Preset  string          `yaml:"preset"`
	Addons  map[string]bool `yaml:"addons"`
	Log     LogConfig       `yaml:"log"`
	App     AppConfig       `yaml:"app"`
	HTTP    HTTPConfig      `yaml:"http"`
	Metrics MetricsConfig   `yaml:"metrics"`
	Alerts  []AlertConfig   `yaml:"alerts"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	TargetFPS float64 `yaml:"target_fps"`
	Frames    int     `yaml:"frames"`
}

type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

type MetricsConfig struct {
	Namespace string `yaml:"namespace"`
}

type AlertConfig struct {
	Name      string  `yaml:"name"`
	Metric    string  `yaml:"metric"`
	Op        string  `yaml:"op"`
	Threshold float64 `yaml:"threshold"`
	Severity  string  `yaml:"severity"`
}

// Default returns built-in defaults: the custom preset, text logs at info
// level and 60 frames per second.
func Default() Config {
	return Config{
		Preset: string(addon.PresetCustom),
		Addons: map[string]bool{},
		Log:    LogConfig{Level: "info", Format: "text"},
		App:    AppConfig{TargetFPS: 60},
		HTTP:   HTTPConfig{Addr: world.DefaultHTTPAddr},
		Metrics: MetricsConfig{
			Namespace: "ecsrt",
		},
	}
}

// Load reads a YAML file over the defaults. JSON files parse too. An empty
// path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Addons, err = canonicalAddons(cfg.Addons); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// canonicalAddons rekeys m by canonical addon name so that later layers
// overwrite earlier ones whichever alias each used.
func canonicalAddons(m map[string]bool) (map[string]bool, error) {
	values, err := addon.Resolve(m)
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(values))
	for id, on := range values {
		out[string(id)] = on
	}
	return out, nil
}

// Flags applies the preset, then the per-addon overrides, and freezes the
// result. The dependency table is not checked here; Build does.
func (c Config) Flags() (*addon.Flags, error) {
	ac := addon.NewConfig()
	if err := ac.Apply(addon.Preset(c.Preset)); err != nil {
		return nil, err
	}
	values, err := addon.Resolve(c.Addons)
	if err != nil {
		return nil, err
	}
	for id, on := range values {
		if err := ac.Set(id, on); err != nil {
			return nil, err
		}
	}
	return ac.Freeze(), nil
}

// Level parses the configured log level.
func (c Config) Level() (logrus.Level, error) {
	if c.Log.Level == "" {
		return logrus.InfoLevel, nil
	}
	return logrus.ParseLevel(c.Log.Level)
}

// WorldOptions converts the configuration into Build options.
func (c Config) WorldOptions() ([]world.Option, error) {
	level, err := c.Level()
	if err != nil {
		return nil, err
	}
	opts := []world.Option{world.WithLogLevel(level)}

	switch c.Log.Format {
	case "", "text":
	case "json":
		opts = append(opts, world.WithJSONLogs(true))
	default:
		return nil, fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	if c.Log.File != "" {
		opts = append(opts, world.WithLogFile(c.Log.File))
	}
	if c.HTTP.Addr != "" {
		opts = append(opts, world.WithHTTPAddr(c.HTTP.Addr))
	}
	if c.Metrics.Namespace != "" {
		opts = append(opts, world.WithMetricsNamespace(c.Metrics.Namespace))
	}

	rules := make([]world.AlertRule, 0, len(c.Alerts))
	for _, a := range c.Alerts {
		op, err := world.ParseOp(a.Op)
		if err != nil {
			return nil, fmt.Errorf("config: alert %q: %w", a.Name, err)
		}
		rules = append(rules, world.AlertRule{
			Name:      a.Name,
			Metric:    a.Metric,
			Op:        op,
			Threshold: a.Threshold,
			Severity:  a.Severity,
		})
	}
	if len(rules) > 0 {
		opts = append(opts, world.WithAlertRules(rules...))
	}
	return opts, nil
}

// AppDesc returns the app loop settings.
func (c Config) AppDesc() world.AppDesc {
	return world.AppDesc{TargetFPS: c.App.TargetFPS, Frames: c.App.Frames}
}
