package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the formreq configuration
type Config struct {
	PreDelay         int               `json:"preDelay,omitempty" yaml:"preDelay,omitempty"` // milliseconds
	Timeout          int               `json:"timeout,omitempty" yaml:"timeout,omitempty"`   // milliseconds
	SuccessStatus    int               `json:"successStatus,omitempty" yaml:"successStatus,omitempty"`
	FollowRedirects  *bool             `json:"followRedirects,omitempty" yaml:"followRedirects,omitempty"`
	MaxRedirects     int               `json:"maxRedirects,omitempty" yaml:"maxRedirects,omitempty"`
	ValidateSSL      *bool             `json:"validateSSL,omitempty" yaml:"validateSSL,omitempty"`
	Proxy            string            `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Headers          map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"` // Default headers for all requests
	ProgressInterval *int              `json:"progressInterval,omitempty" yaml:"progressInterval,omitempty"`
	LogLevel         string            `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	Output           string            `json:"output,omitempty" yaml:"output,omitempty"` // console or json
	NoColor          *bool             `json:"noColor,omitempty" yaml:"noColor,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// IntPtr returns a pointer to i
func IntPtr(i int) *int {
	return &i
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

func (c *Config) PreDelayDuration() time.Duration {
	return time.Duration(c.PreDelay) * time.Millisecond
}

func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}

// ProgressIntervalDuration returns the upload progress throttle; 0 means every chunk
func (c *Config) ProgressIntervalDuration() time.Duration {
	if c.ProgressInterval == nil {
		return time.Duration(DefaultProgressInterval) * time.Millisecond
	}
	return time.Duration(*c.ProgressInterval) * time.Millisecond
}

// Validate reports the first invalid setting
func (c *Config) Validate() error {
	if c.PreDelay < 0 {
		return fmt.Errorf("preDelay must not be negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.SuccessStatus < 100 || c.SuccessStatus > 599 {
		return fmt.Errorf("successStatus %d is not an HTTP status code", c.SuccessStatus)
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("maxRedirects must not be negative")
	}
	if c.ProgressInterval != nil && *c.ProgressInterval < 0 {
		return fmt.Errorf("progressInterval must not be negative")
	}
	switch c.Output {
	case "", "console", "json":
	default:
		return fmt.Errorf("unknown output %q (expected console or json)", c.Output)
	}
	return nil
}

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".formreq.json",
	"formreq.json",
	".formreq.yaml",
	".formreq.yml",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return config, nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.PreDelay > 0 {
		result.PreDelay = other.PreDelay
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.SuccessStatus > 0 {
		result.SuccessStatus = other.SuccessStatus
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}
	if other.Output != "" {
		result.Output = other.Output
	}

	// Pointer fields - only override if explicitly set in other config
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}
	if other.ProgressInterval != nil {
		result.ProgressInterval = other.ProgressInterval
	}

	if len(other.Headers) > 0 {
		headers := make(map[string]string, len(result.Headers)+len(other.Headers))
		for k, v := range result.Headers {
			headers[k] = v
		}
		for k, v := range other.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	return &result
}

// SaveConfig saves the configuration to a file, as YAML when the extension asks for it
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
