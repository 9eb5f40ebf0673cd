package core

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const keyDelim = "."

// Config is a read view over layered service settings.
// Precedence, lowest first: defaults, YAML file, environment.
type Config struct {
	k *koanf.Koanf
}

// NewConfig returns an empty config. Lookups fall back to their defaults.
func NewConfig() *Config {
	return &Config{k: koanf.New(keyDelim)}
}

// NewConfigFromMap builds a config from flat dotted keys, mostly for tests.
func NewConfigFromMap(values map[string]interface{}) *Config {
	cfg := NewConfig()
	_ = cfg.k.Load(confmap.Provider(values, keyDelim), nil)
	return cfg
}

// LoadConfig reads the service configuration. The namespace is used as the
// environment prefix: with namespace LEDGER, LEDGER_DB_MONGO_URL maps to
// db.mongo.url. A double underscore keeps a literal one, so
// LEDGER_NATS_STREAM_MAX__AGE maps to nats.stream.max_age. A YAML file is
// read when -config is passed or <NAMESPACE>_CONFIG_FILE is set.
func LoadConfig(namespace string, args []string) (*Config, error) {
	fs := flag.NewFlagSet(strings.ToLower(namespace), flag.ContinueOnError)
	path := fs.String("config", "", "path to a YAML config file")
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("cannot parse flags: %w", err)
	}

	prefix := strings.ToUpper(namespace) + "_"
	if *path == "" {
		*path = os.Getenv(prefix + "CONFIG_FILE")
	}

	cfg := NewConfig()

	if err := cfg.k.Load(confmap.Provider(defaults, keyDelim), nil); err != nil {
		return nil, fmt.Errorf("cannot load defaults: %w", err)
	}

	if *path != "" {
		if err := cfg.k.Load(file.Provider(*path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("cannot load config file %s: %w", *path, err)
		}
	}

	envProvider := env.Provider(prefix, keyDelim, func(s string) string {
		return EnvKey(prefix, s)
	})
	if err := cfg.k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("cannot load environment: %w", err)
	}

	return cfg, nil
}

var envKeyReplacer = strings.NewReplacer("__", "_", "_", keyDelim)

// EnvKey maps an environment variable name onto its config key.
func EnvKey(prefix, name string) string {
	key := strings.ToLower(strings.TrimPrefix(name, prefix))
	return envKeyReplacer.Replace(key)
}

var defaults = map[string]interface{}{
	"web.port":  ":8080",
	"log.level": "info",
}

func (c *Config) GetString(key string) (string, bool) {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		return "", false
	}
	return c.k.String(key), true
}

func (c *Config) GetStringOrDef(key, def string) string {
	if v, ok := c.GetString(key); ok && v != "" {
		return v
	}
	return def
}

func (c *Config) GetIntOrDef(key string, def int) int {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		return def
	}
	return c.k.Int(key)
}

func (c *Config) GetBoolOrDef(key string, def bool) bool {
	if c == nil || c.k == nil || !c.k.Exists(key) {
		return def
	}
	return c.k.Bool(key)
}

// GetDurationOrDef accepts Go duration strings ("15m", "90s").
func (c *Config) GetDurationOrDef(key string, def time.Duration) time.Duration {
	raw, ok := c.GetString(key)
	if !ok || raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
