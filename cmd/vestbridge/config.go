package main

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML configuration for the vestbridge daemon.
//
// Precedence, lowest to highest: built-in defaults, config file,
// VESTBRIDGE_* environment variables, command-line flags. Keep defaults and
// validation centralized so the rest of the code can assume a well-formed
// config.
type Config struct {
	// Vest daemon connection
	Daemon DaemonConfig `yaml:"daemon"`

	// Per-category-class debounce windows
	Debounce DebounceConfig `yaml:"debounce"`

	// IPC ingest (hook call-sites connect here)
	IPC IPCConfig `yaml:"ipc"`

	// Status websocket (observability for overlays/debug UIs)
	Status StatusConfig `yaml:"status"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

type DaemonConfig struct {
	Host                string `yaml:"host" env:"VESTBRIDGE_DAEMON_HOST"`
	Port                int    `yaml:"port" env:"VESTBRIDGE_DAEMON_PORT"`
	DialTimeoutMS       int    `yaml:"dial_timeout_ms" env:"VESTBRIDGE_DIAL_TIMEOUT_MS"`
	WriteTimeoutMS      int    `yaml:"write_timeout_ms" env:"VESTBRIDGE_WRITE_TIMEOUT_MS"`
	ReconnectCooldownMS int    `yaml:"reconnect_cooldown_ms" env:"VESTBRIDGE_RECONNECT_COOLDOWN_MS"`
	SubmitQueueSize     int    `yaml:"submit_queue_size" env:"VESTBRIDGE_SUBMIT_QUEUE_SIZE"`
}

// Addr returns the daemon endpoint in host:port form.
func (c DaemonConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

type DebounceConfig struct {
	ContinuousMS int `yaml:"continuous_ms" env:"VESTBRIDGE_DEBOUNCE_CONTINUOUS_MS"`
	ImpactMS     int `yaml:"impact_ms" env:"VESTBRIDGE_DEBOUNCE_IMPACT_MS"`
}

type IPCConfig struct {
	SocketPath string `yaml:"socket_path" env:"VESTBRIDGE_IPC_SOCKET"`
}

type StatusConfig struct {
	Enabled bool `yaml:"enabled" env:"VESTBRIDGE_STATUS_ENABLED"`
	Port    int  `yaml:"port" env:"VESTBRIDGE_STATUS_PORT"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"VESTBRIDGE_LOG_LEVEL"`
}

// DefaultConfig returns a fully-populated Config with defaults.
// Keep this aligned with constants.go and the CLI flag defaults.
func DefaultConfig() Config {
	return Config{
		Daemon: DaemonConfig{
			Host:                defaultDaemonHost,
			Port:                defaultDaemonPort,
			DialTimeoutMS:       defaultDialTimeoutMS,
			WriteTimeoutMS:      defaultWriteTimeoutMS,
			ReconnectCooldownMS: defaultReconnectCooldownMS,
			SubmitQueueSize:     defaultSubmitQueueSize,
		},
		Debounce: DebounceConfig{
			ContinuousMS: defaultContinuousIntervalMS,
			ImpactMS:     defaultImpactIntervalMS,
		},
		IPC: IPCConfig{
			SocketPath: "/tmp/vestbridge.sock",
		},
		Status: StatusConfig{
			Enabled: false,
			Port:    3002,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfigFile reads and parses a YAML config file on top of defaults.
//
// Unknown fields are rejected (helps catch typos) via KnownFields(true), and
// trailing YAML documents are treated as an error.
func LoadConfigFile(path string) (Config, error) {
	if path == "" {
		return Config{}, errors.New("config path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	cfg := DefaultConfig()

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config yaml: %w", err)
	}

	if err := dec.Decode(&struct{}{}); err == nil {
		return Config{}, fmt.Errorf("decode config yaml: unexpected trailing document")
	}

	return cfg, nil
}

// ApplyEnv applies VESTBRIDGE_* environment overrides on top of the current
// values. Unset variables leave the corresponding fields untouched.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env overrides: %w", err)
	}
	return nil
}

// FlagOverrides carries the ad-hoc command-line overrides applied on top of
// file + environment configuration. Nil pointers mean "flag not set".
type FlagOverrides struct {
	DaemonHost          *string
	DaemonPort          *int
	ReconnectCooldownMS *int

	IPCSocketPath *string

	StatusEnabled *bool
	StatusPort    *int

	LogLevel *string
}

// Apply merges the overrides into cfg. Nil pointers are ignored.
func (o FlagOverrides) Apply(cfg *Config) {
	if cfg == nil {
		return
	}
	if o.DaemonHost != nil {
		cfg.Daemon.Host = *o.DaemonHost
	}
	if o.DaemonPort != nil {
		cfg.Daemon.Port = *o.DaemonPort
	}
	if o.ReconnectCooldownMS != nil {
		cfg.Daemon.ReconnectCooldownMS = *o.ReconnectCooldownMS
	}
	if o.IPCSocketPath != nil {
		cfg.IPC.SocketPath = *o.IPCSocketPath
	}
	if o.StatusEnabled != nil {
		cfg.Status.Enabled = *o.StatusEnabled
	}
	if o.StatusPort != nil {
		cfg.Status.Port = *o.StatusPort
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
}

// Validate checks config invariants and returns a user-friendly error.
// Call after defaults + file + env + flag overrides are applied.
func (c *Config) Validate() error {
	if c.Daemon.Host == "" {
		return errors.New("daemon.host must not be empty")
	}
	if c.Daemon.Port <= 0 || c.Daemon.Port > 65535 {
		return errors.New("daemon.port must be between 1 and 65535")
	}
	if c.Daemon.DialTimeoutMS <= 0 {
		return errors.New("daemon.dial_timeout_ms must be > 0")
	}
	if c.Daemon.WriteTimeoutMS <= 0 {
		return errors.New("daemon.write_timeout_ms must be > 0")
	}
	if c.Daemon.ReconnectCooldownMS <= 0 {
		return errors.New("daemon.reconnect_cooldown_ms must be > 0")
	}
	if c.Daemon.SubmitQueueSize <= 0 {
		return errors.New("daemon.submit_queue_size must be > 0")
	}

	if c.Debounce.ContinuousMS < 0 {
		return errors.New("debounce.continuous_ms must be >= 0")
	}
	if c.Debounce.ImpactMS < 0 {
		return errors.New("debounce.impact_ms must be >= 0")
	}

	if c.IPC.SocketPath == "" {
		return errors.New("ipc.socket_path must not be empty")
	}

	if c.Status.Enabled {
		if c.Status.Port <= 0 || c.Status.Port > 65535 {
			return errors.New("status.port must be between 1 and 65535")
		}
	}

	if c.Logging.Level == "" {
		return errors.New("logging.level must not be empty")
	}

	return nil
}

// ExpandPath expands a leading "~" in a path using $HOME.
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if p[0] != '~' {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	if len(p) >= 2 && (p[1] == '/' || p[1] == '\\') {
		return filepath.Join(home, p[2:])
	}
	return p
}
