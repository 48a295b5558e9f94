package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"sensuapi/internal/jsoncodec"
)

// Config is the root configuration.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Redis    RedisConfig    `yaml:"redis"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Checks   Checks         `yaml:"checks"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// APIConfig controls the HTTP listener.
type APIConfig struct {
	Bind     string `yaml:"bind"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	// MetricsAddr enables a Prometheus listener when set, e.g. ":9102".
	MetricsAddr       string        `yaml:"metrics_addr"`
	ClientDeleteDelay time.Duration `yaml:"client_delete_delay"`
}

// RedisConfig controls the state store connection.
type RedisConfig struct {
	Addr          string        `yaml:"addr"`
	Password      string        `yaml:"password"`
	DB            int           `yaml:"db"`
	WatchInterval time.Duration `yaml:"watch_interval"`
	FatalAfter    time.Duration `yaml:"fatal_after"`
}

// RabbitMQConfig controls the transport connection.
type RabbitMQConfig struct {
	URL           string        `yaml:"url"`
	WatchInterval time.Duration `yaml:"watch_interval"`
	FatalAfter    time.Duration `yaml:"fatal_after"`
}

// LoggingConfig controls logging output.
type LoggingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Level   string `yaml:"level"`
	File    string `yaml:"file"`
	Console bool   `yaml:"console"`
}

// Check is a static check definition. Keys without a dedicated field are kept
// in Extra and returned verbatim by the API.
type Check struct {
	Command     string         `yaml:"command"`
	Subscribers []string       `yaml:"subscribers"`
	Handlers    []string       `yaml:"handlers"`
	Interval    int            `yaml:"interval"`
	Standalone  bool           `yaml:"standalone"`
	Extra       map[string]any `yaml:",inline"`
}

// Definition returns the check as a generic map, the shape the API serves.
func (c Check) Definition() map[string]any {
	out := make(map[string]any, len(c.Extra)+5)
	for k, v := range c.Extra {
		out[k] = v
	}
	if c.Command != "" {
		out["command"] = c.Command
	}
	if c.Subscribers != nil {
		out["subscribers"] = c.Subscribers
	}
	if c.Handlers != nil {
		out["handlers"] = c.Handlers
	}
	if c.Interval != 0 {
		out["interval"] = c.Interval
	}
	if c.Standalone {
		out["standalone"] = true
	}
	return out
}

// MarshalJSON flattens Extra into the definition.
func (c Check) MarshalJSON() ([]byte, error) {
	return jsoncodec.Marshal(c.Definition())
}

// Checks is the check definition table keyed by check name.
type Checks map[string]Check

// Lookup returns the named check definition.
func (c Checks) Lookup(name string) (Check, bool) {
	check, ok := c[name]
	return check, ok
}

// Exists reports whether name is a defined check.
func (c Checks) Exists(name string) bool {
	_, ok := c[name]
	return ok
}

var nameRe = regexp.MustCompile(`^[\w.-]+$`)

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("api.port %d out of range", c.API.Port)
	}
	if (c.API.User == "") != (c.API.Password == "") {
		return fmt.Errorf("api.user and api.password must be set together")
	}
	if _, err := url.Parse(c.RabbitMQ.URL); err != nil {
		return fmt.Errorf("rabbitmq.url: %w", err)
	}
	names := make([]string, 0, len(c.Checks))
	for name := range c.Checks {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !nameRe.MatchString(name) {
			return fmt.Errorf("check name %q contains invalid characters", name)
		}
		if c.Checks[name].Command == "" {
			return fmt.Errorf("check %q has no command", name)
		}
	}
	return nil
}

// String renders the config with credentials masked.
func (c Config) String() string {
	masked := c
	if masked.API.Password != "" {
		masked.API.Password = "REDACTED"
	}
	if masked.Redis.Password != "" {
		masked.Redis.Password = "REDACTED"
	}
	masked.RabbitMQ.URL = redactURLCredentials(masked.RabbitMQ.URL)
	masked.Checks = nil
	type configAlias Config
	return fmt.Sprintf("%+v checks=%d", configAlias(masked), len(c.Checks))
}

func redactURLCredentials(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "REDACTED")
	}
	return u.String()
}

// LoadConfig reads and parses a YAML config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
