// Package config loads and validates process configuration.
//
// Configuration is read once at startup from, in order of precedence:
// environment variables (NODEUP_ prefix), an optional nodeup.yaml file, and
// built-in defaults. There is no runtime mutation.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration structure.
type Config struct {
	Bot     BotConfig     `mapstructure:"bot"`
	Marzban MarzbanConfig `mapstructure:"marzban"`
	Node    NodeConfig    `mapstructure:"node"`
	SSH     SSHConfig     `mapstructure:"ssh"`
	Limits  LimitsConfig  `mapstructure:"limits"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// BotConfig holds chat transport credentials and the admin allow-list.
type BotConfig struct {
	Token    string  `mapstructure:"token"`
	AdminIDs []int64 `mapstructure:"-"`

	// RawAdminIDs is the comma-separated allow-list as read from the
	// environment; parsed into AdminIDs during Load.
	RawAdminIDs string `mapstructure:"admin_ids"`
}

// MarzbanConfig holds management API credentials and client policy.
type MarzbanConfig struct {
	BaseURL        string        `mapstructure:"url"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
}

// NodeConfig holds node material shared by every provisioning run.
type NodeConfig struct {
	// Certificate is the base64-encoded client certificate placed on each
	// provisioned host. Passed through unmodified.
	Certificate        string `mapstructure:"certificate"`
	DefaultServicePort int    `mapstructure:"default_service_port"`
	DefaultAPIPort     int    `mapstructure:"default_api_port"`
}

// SSHConfig holds Remote Executor timeouts.
type SSHConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	StageTimeout   time.Duration `mapstructure:"stage_timeout"`
	TotalTimeout   time.Duration `mapstructure:"total_timeout"`
}

// LimitsConfig holds the input rate-limit policy and session lifecycle knobs.
type LimitsConfig struct {
	// InputPerSecond and InputBurst bound how fast a session may submit
	// invalid input before re-prompts are throttled.
	InputPerSecond float64       `mapstructure:"input_per_second"`
	InputBurst     int           `mapstructure:"input_burst"`
	SessionIdle    time.Duration `mapstructure:"session_idle"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig holds the Prometheus exposition settings.
type MetricsConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
}

// Load reads configuration from the environment and the optional file at
// path (empty means search ./nodeup.yaml).
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NODEUP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Secrets have no defaults, so viper needs explicit bindings for them
	// to surface through Unmarshal when only the environment is set.
	for _, key := range []string{
		"bot.token", "bot.admin_ids",
		"marzban.url", "marzban.username", "marzban.password",
		"node.certificate",
	} {
		_ = v.BindEnv(key)
	}

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("nodeup")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	ids, err := parseAdminIDs(cfg.Bot.RawAdminIDs)
	if err != nil {
		return nil, err
	}
	cfg.Bot.AdminIDs = ids

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("marzban.request_timeout", 10*time.Second)
	v.SetDefault("marzban.max_retries", 2)
	v.SetDefault("marzban.retry_base_delay", 1*time.Second)
	v.SetDefault("node.default_service_port", 8443)
	v.SetDefault("node.default_api_port", 8880)
	v.SetDefault("ssh.connect_timeout", 10*time.Second)
	v.SetDefault("ssh.stage_timeout", 5*time.Minute)
	v.SetDefault("ssh.total_timeout", 20*time.Minute)
	v.SetDefault("limits.input_per_second", 1.0)
	v.SetDefault("limits.input_burst", 5)
	v.SetDefault("limits.session_idle", 15*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("metrics.listen_addr", "")
}

// Validate enforces required fields and sane ranges.
func (c *Config) Validate() error {
	var problems []string

	if c.Bot.Token == "" {
		problems = append(problems, "bot.token (NODEUP_BOT_TOKEN) is required")
	}
	if len(c.Bot.AdminIDs) == 0 {
		problems = append(problems, "bot.admin_ids (NODEUP_BOT_ADMIN_IDS) must list at least one admin")
	}
	if c.Marzban.BaseURL == "" {
		problems = append(problems, "marzban.url (NODEUP_MARZBAN_URL) is required")
	}
	if c.Marzban.Username == "" || c.Marzban.Password == "" {
		problems = append(problems, "marzban credentials are required")
	}
	if c.Node.Certificate == "" {
		problems = append(problems, "node.certificate (NODEUP_NODE_CERTIFICATE) is required")
	}
	if c.Node.DefaultServicePort == c.Node.DefaultAPIPort {
		problems = append(problems, "default service and API ports must differ")
	}
	if c.SSH.StageTimeout > c.SSH.TotalTimeout {
		problems = append(problems, "ssh.stage_timeout must not exceed ssh.total_timeout")
	}
	if c.Limits.InputPerSecond <= 0 || c.Limits.InputBurst < 1 {
		problems = append(problems, "limits.input_per_second and limits.input_burst must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s", strings.Join(problems, "; "))
	}
	return nil
}

func parseAdminIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// IsAdmin reports whether id is on the allow-list.
func (c *Config) IsAdmin(id int64) bool {
	for _, admin := range c.Bot.AdminIDs {
		if admin == id {
			return true
		}
	}
	return false
}
