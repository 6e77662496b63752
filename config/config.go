// Package config loads and validates the impersonation client configuration.
// Files are JSON or YAML, chosen by extension.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/firasghr/GoImpersonate/impersonate"
	"github.com/firasghr/GoImpersonate/logger"
)

// Config holds every tunable of a logical impersonating client. It is loaded
// once at startup and then only read.
type Config struct {
	// Profile names the impersonated client build, e.g. "chrome_124".
	Profile string `json:"profile" yaml:"profile"`

	// EnableECHGrease sends a GREASE encrypted_client_hello extension.
	// Only Chrome and Edge profiles honour it.
	EnableECHGrease bool `json:"enable_ech_grease" yaml:"enable_ech_grease"`

	// PermuteExtensions randomises the ClientHello extension order the way
	// Chrome 110+ does. Only Chrome and Edge profiles honour it.
	PermuteExtensions bool `json:"permute_extensions" yaml:"permute_extensions"`

	// CertsVerification checks server certificates against the system roots.
	CertsVerification bool `json:"certs_verification" yaml:"certs_verification"`

	// PreSharedKey forces session resumption on for profiles that do not
	// enable it themselves.
	PreSharedKey bool `json:"pre_shared_key" yaml:"pre_shared_key"`

	// HTTP2 offers h2 in ALPN.
	HTTP2 bool `json:"http2" yaml:"http2"`

	// RequestTimeout is the end-to-end timeout for a single request. In JSON
	// it is an integer number of nanoseconds; YAML also accepts "30s".
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`

	// ProxyFile is a newline-delimited list of socks5:// proxies. Empty runs
	// direct.
	ProxyFile string `json:"proxy_file" yaml:"proxy_file"`

	// LogLevel is one of debug, info, error.
	LogLevel string `json:"log_level" yaml:"log_level"`

	// Concurrency is the number of worker goroutines issuing requests.
	Concurrency int `json:"concurrency" yaml:"concurrency"`
}

// DefaultConfig returns a *Config pre-filled with sensible defaults: the
// Chrome 124 profile with verification and h2 on. Each call returns a fresh
// independent copy.
func DefaultConfig() *Config {
	return &Config{
		Profile:           impersonate.Chrome124.String(),
		CertsVerification: true,
		HTTP2:             true,
		RequestTimeout:    30 * time.Second,
		LogLevel:          "info",
		Concurrency:       8,
	}
}

// LoadConfig reads filename over DefaultConfig. Files ending in .yaml or
// .yml are YAML, anything else is JSON. Unknown fields are rejected in both
// formats to catch typos early.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename) // #nosec G304 – filename is caller-provided config path
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", filename, err)
	}

	cfg := DefaultConfig()
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.DisallowUnknownField()); err != nil {
			return nil, fmt.Errorf("config: decode %q: %w", filename, err)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("config: decode %q: %w", filename, err)
		}
	}
	return cfg, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := impersonate.ParseImpersonate(c.Profile); err != nil {
		errs = append(errs, fmt.Errorf("profile: %w", err))
	}
	if c.RequestTimeout < 0 {
		errs = append(errs, fmt.Errorf("request_timeout: must not be negative, got %v", c.RequestTimeout))
	}
	if c.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("concurrency: must be > 0, got %d", c.Concurrency))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// Context returns the impersonation context the configuration describes.
func (c *Config) Context() (impersonate.Context, error) {
	imp, err := impersonate.ParseImpersonate(c.Profile)
	if err != nil {
		return impersonate.Context{}, fmt.Errorf("config: %w", err)
	}
	return impersonate.NewContext(imp).
		WithECHGrease(c.EnableECHGrease).
		WithPermuteExtensions(c.PermuteExtensions).
		WithCertsVerification(c.CertsVerification).
		WithPreSharedKey(c.PreSharedKey).
		WithH2(c.HTTP2), nil
}
