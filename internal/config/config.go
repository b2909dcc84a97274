package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Blackboard REST app credentials
	Host   string
	Key    string
	Secret string

	Debug bool

	// Serve mode
	Port   string
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// State retention
	JobTTL     time.Duration
	SessionTTL time.Duration
}

// SetDefaults registers the defaults on v so that flag, env, and file
// lookups all fall through to the same values.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "8090")
	v.SetDefault("worker_count", 4)
	v.SetDefault("max_queue_size", 100)
	v.SetDefault("job_ttl", time.Hour)
	v.SetDefault("session_ttl", 30*time.Minute)
}

// Load reads the merged settings out of v. Precedence (flags over
// BB_* environment over config file) is v's, set up by the CLI.
func Load(v *viper.Viper) Config {
	cfg := Config{
		Host:   strings.TrimRight(v.GetString("host"), "/"),
		Key:    v.GetString("key"),
		Secret: v.GetString("secret"),
		Debug:  v.GetBool("debug"),

		Port:   v.GetString("port"),
		APIKey: v.GetString("api_key"),

		WorkerCount:  v.GetInt("worker_count"),
		MaxQueueSize: v.GetInt("max_queue_size"),

		JobTTL:     v.GetDuration("job_ttl"),
		SessionTTL: v.GetDuration("session_ttl"),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 4
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = time.Hour
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}

	return cfg
}

// ConfigError reports a missing or malformed setting.
type ConfigError struct {
	Setting string
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s %s", e.Setting, e.Reason)
}

func (c Config) Validate() error {
	if c.Host == "" {
		return &ConfigError{"host", "is required (--host or BB_HOST)"}
	}
	if !strings.HasPrefix(c.Host, "http://") && !strings.HasPrefix(c.Host, "https://") {
		return &ConfigError{"host", fmt.Sprintf("must include a scheme, got %q", c.Host)}
	}
	if c.Key == "" {
		return &ConfigError{"key", "is required (--key or BB_KEY)"}
	}
	if c.Secret == "" {
		return &ConfigError{"secret", "is required (--secret or BB_SECRET)"}
	}
	return nil
}
