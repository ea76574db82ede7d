package config

const (
	// DefaultPreDelay is the pause before a started request is issued, in milliseconds
	DefaultPreDelay = 1000
	// DefaultTimeout is the transport timeout, in milliseconds
	DefaultTimeout = 30000
	// DefaultSuccessStatus is the only status treated as success
	DefaultSuccessStatus = 200
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 10
	// DefaultProgressInterval throttles upload progress, in milliseconds
	DefaultProgressInterval = 50
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		PreDelay:         DefaultPreDelay,
		Timeout:          DefaultTimeout,
		SuccessStatus:    DefaultSuccessStatus,
		FollowRedirects:  BoolPtr(true),
		MaxRedirects:     DefaultMaxRedirects,
		ValidateSSL:      BoolPtr(true),
		Proxy:            "",
		Headers:          nil,
		ProgressInterval: IntPtr(DefaultProgressInterval),
		LogLevel:         "warn",
		Output:           "console",
		NoColor:          BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.PreDelay == defaults.PreDelay &&
		c.Timeout == defaults.Timeout &&
		c.SuccessStatus == defaults.SuccessStatus &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.Proxy == defaults.Proxy &&
		len(c.Headers) == 0 &&
		c.ProgressIntervalDuration() == defaults.ProgressIntervalDuration() &&
		c.LogLevel == defaults.LogLevel &&
		c.Output == defaults.Output &&
		c.GetNoColor() == defaults.GetNoColor()
}
