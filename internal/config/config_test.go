package config

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load(newViper())

	if cfg.Port != "8090" {
		t.Errorf("port = %q", cfg.Port)
	}
	if cfg.WorkerCount != 4 || cfg.MaxQueueSize != 100 {
		t.Errorf("pool = %d/%d", cfg.WorkerCount, cfg.MaxQueueSize)
	}
	if cfg.JobTTL != time.Hour || cfg.SessionTTL != 30*time.Minute {
		t.Errorf("ttls = %v/%v", cfg.JobTTL, cfg.SessionTTL)
	}
}

func TestLoad_TrimsHostSlash(t *testing.T) {
	v := newViper()
	v.Set("host", "https://bb.example.edu/")
	if got := Load(v).Host; got != "https://bb.example.edu" {
		t.Errorf("host = %q", got)
	}
}

func TestLoad_ClampsBadValues(t *testing.T) {
	v := newViper()
	v.Set("worker_count", -1)
	v.Set("job_ttl", "0s")
	cfg := Load(v)
	if cfg.WorkerCount != 4 {
		t.Errorf("worker count = %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("job ttl = %v", cfg.JobTTL)
	}
}

func TestValidate(t *testing.T) {
	base := Config{Host: "https://bb.example.edu", Key: "k", Secret: "s"}
	if err := base.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name string
		mut  func(*Config)
		want string
	}{
		{"missing host", func(c *Config) { c.Host = "" }, "host"},
		{"schemeless host", func(c *Config) { c.Host = "bb.example.edu" }, "scheme"},
		{"missing key", func(c *Config) { c.Key = "" }, "key"},
		{"missing secret", func(c *Config) { c.Secret = "" }, "secret"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mut(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("want error")
			}
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("error type %T", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q, want mention of %q", err, tc.want)
			}
		})
	}
}
