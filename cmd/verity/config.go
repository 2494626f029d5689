package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mmcdole/verity/pkg/fingerprint"
	"github.com/mmcdole/verity/pkg/logging"
	"github.com/mmcdole/verity/pkg/permit"
	"github.com/mmcdole/verity/pkg/workflow"
)

var defaultEvaluationDelayMs = int(workflow.DefaultDelay / time.Millisecond)

// Config holds the verity configuration
type Config struct {
	// Authorization directory (YAML or TOML). Empty selects the built-in demo table.
	DirectoryPath string `json:"directory_path,omitempty"`

	// Permit settings
	PermitPrefix  string `json:"permit_prefix,omitempty"`  // Leading segment of permit ids
	IDStrategy    string `json:"id_strategy,omitempty"`    // random, uuid or counter
	HashAlgorithm string `json:"hash_algorithm,omitempty"` // sha256 or blake3

	// Simulated evaluation latency in milliseconds
	EvaluationDelayMs *int `json:"evaluation_delay_ms,omitempty"`

	// Logging settings
	AppLogPath    string `json:"app_log_path,omitempty"`
	AccessLogPath string `json:"access_log_path,omitempty"`
	LogLevel      string `json:"log_level,omitempty"`
	Debug         bool   `json:"debug,omitempty"` // Shorthand for log_level debug

	// Optional SQLite audit trail
	AuditDBPath string `json:"audit_db_path,omitempty"`
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(path string, config *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	// Relative paths are taken from the config file location
	configDir := filepath.Dir(path)
	for _, p := range []*string{&config.DirectoryPath, &config.AppLogPath, &config.AccessLogPath, &config.AuditDBPath} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(configDir, *p)
		}
	}

	return config.applyDefaults()
}

// applyDefaults fills optional settings and rejects values no component accepts
func (c *Config) applyDefaults() error {
	if c.PermitPrefix == "" {
		c.PermitPrefix = permit.DefaultPrefix
	}
	if c.IDStrategy == "" {
		c.IDStrategy = "random"
	}
	if c.HashAlgorithm == "" {
		c.HashAlgorithm = string(fingerprint.AlgorithmSHA256)
	}
	if c.EvaluationDelayMs == nil {
		d := defaultEvaluationDelayMs
		c.EvaluationDelayMs = &d
	}
	if *c.EvaluationDelayMs < 0 {
		return fmt.Errorf("evaluation_delay_ms must not be negative")
	}
	if c.Debug {
		c.LogLevel = string(logging.LogLevelDebug)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogLevel == "" {
		c.LogLevel = string(logging.LogLevelInfo)
	}
	return nil
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	c := &Config{}
	// Defaults are always valid
	_ = c.applyDefaults()
	return c
}
