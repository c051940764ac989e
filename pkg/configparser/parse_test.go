package configparser

import (
	"slices"
	"testing"
	"time"
)

type testConfig struct {
	Name    string        `env:"TEST_PARSE_NAME" default:"fallback"`
	Port    int           `env:"TEST_PARSE_PORT" default:"8000"`
	Rate    float64       `env:"TEST_PARSE_RATE" default:"10.00"`
	Debug   bool          `env:"TEST_PARSE_DEBUG" default:"false"`
	Timeout time.Duration `env:"TEST_PARSE_TIMEOUT" default:"5s"`
	Pool    []int64       `env:"TEST_PARSE_POOL" default:"101,102,103"`

	Nested struct {
		Host string `env:"TEST_PARSE_NESTED_HOST" default:"localhost"`
	}
}

func TestParseEnv_Defaults(t *testing.T) {
	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Name != "fallback" {
		t.Errorf("Name = %q", cfg.Name)
	}
	if cfg.Port != 8000 {
		t.Errorf("Port = %d", cfg.Port)
	}
	if cfg.Rate != 10.00 {
		t.Errorf("Rate = %v", cfg.Rate)
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("Timeout = %s", cfg.Timeout)
	}
	if !slices.Equal(cfg.Pool, []int64{101, 102, 103}) {
		t.Errorf("Pool = %v", cfg.Pool)
	}
	if cfg.Nested.Host != "localhost" {
		t.Errorf("Nested.Host = %q", cfg.Nested.Host)
	}
}

func TestParseEnv_EnvironmentWins(t *testing.T) {
	t.Setenv("TEST_PARSE_NAME", "from-env")
	t.Setenv("TEST_PARSE_PORT", "9090")
	t.Setenv("TEST_PARSE_DEBUG", "true")
	t.Setenv("TEST_PARSE_TIMEOUT", "250ms")
	t.Setenv("TEST_PARSE_POOL", " 1, 2 ,3 ")
	t.Setenv("TEST_PARSE_NESTED_HOST", "db.internal")

	var cfg testConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Name != "from-env" || cfg.Port != 9090 || !cfg.Debug {
		t.Errorf("env values not applied: %+v", cfg)
	}
	if cfg.Timeout != 250*time.Millisecond {
		t.Errorf("Timeout = %s", cfg.Timeout)
	}
	if !slices.Equal(cfg.Pool, []int64{1, 2, 3}) {
		t.Errorf("Pool should tolerate spaces, got %v", cfg.Pool)
	}
	if cfg.Nested.Host != "db.internal" {
		t.Errorf("Nested.Host = %q", cfg.Nested.Host)
	}
}

func TestParseEnv_BadValue(t *testing.T) {
	t.Setenv("TEST_PARSE_PORT", "not-a-number")

	var cfg testConfig
	if err := ParseEnv(&cfg); err == nil {
		t.Fatal("expected an error for a non-numeric port")
	}
}

func TestParseEnv_NotAPointer(t *testing.T) {
	if err := ParseEnv(testConfig{}); err == nil {
		t.Fatal("expected an error for a non-pointer config")
	}
}
