package config

import "time"

var (
	// Version of dcos-streamtail code.
	Version = "0.1.0"
)

// Config structure is a main config object
type Config struct {
	FlagVerbose bool `mapstructure:"verbose"`

	// serve flags
	FlagPort              int           `mapstructure:"port"`
	FlagDisableUnixSocket bool          `mapstructure:"no-unix-socket"`
	FlagDebug             bool          `mapstructure:"debug"`
	FlagInterval          time.Duration `mapstructure:"interval"`

	// tail flags
	FlagTimeout    time.Duration `mapstructure:"timeout"`
	FlagEncoding   string        `mapstructure:"encoding"` // empty: response charset, then utf-8
	FlagRaw        bool          `mapstructure:"raw"`
	FlagCACertFile string        `mapstructure:"ca-cert"`
	FlagIAMConfig  string        `mapstructure:"iam-config"`
	FlagForceTLS   bool          `mapstructure:"force-tls"`
}

// Default returns the configuration used when neither flags nor a config file override it.
func Default() *Config {
	return &Config{
		FlagPort:     8000,
		FlagInterval: time.Second,
	}
}
