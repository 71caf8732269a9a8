package config

import (
	"fmt"
	"regexp"
	"time"

	"grimm.is/instcfg/internal/brand"
	"grimm.is/instcfg/internal/chrony"
	"grimm.is/instcfg/internal/ntp"
)

// CurrentSchemaVersion is the latest config schema version.
const CurrentSchemaVersion = "1.0"

// Config is the top-level installer configuration.
type Config struct {
	SchemaVersion string `hcl:"schema_version,optional" json:"schema_version,omitempty" yaml:"schema_version,omitempty"`

	NTP      *NTPConfig      `hcl:"ntp,block" json:"ntp,omitempty" yaml:"ntp,omitempty"`
	Security *SecurityConfig `hcl:"security,block" json:"security,omitempty" yaml:"security,omitempty"`
	Logging  *LoggingConfig  `hcl:"logging,block" json:"logging,omitempty" yaml:"logging,omitempty"`
	Metrics  *MetricsConfig  `hcl:"metrics,block" json:"metrics,omitempty" yaml:"metrics,omitempty"`
}

// NTPConfig configures the time servers written to the installed system.
type NTPConfig struct {
	ConfigFile string   `hcl:"config_file,optional" json:"config_file,omitempty" yaml:"config_file,omitempty"`
	Servers    []string `hcl:"servers,optional" json:"servers,omitempty" yaml:"servers,omitempty"`

	// ServerPattern overrides the regular expression recognizing managed
	// server lines. Its first capture group must be the hostname.
	ServerPattern string `hcl:"server_pattern,optional" json:"server_pattern,omitempty" yaml:"server_pattern,omitempty"`

	Check            bool   `hcl:"check,optional" json:"check,omitempty" yaml:"check,omitempty"`
	RequireReachable bool   `hcl:"require_reachable,optional" json:"require_reachable,omitempty" yaml:"require_reachable,omitempty"`
	CheckTimeout     string `hcl:"check_timeout,optional" json:"check_timeout,omitempty" yaml:"check_timeout,omitempty"` // e.g. "5s"
	Checker          string `hcl:"checker,optional" json:"checker,omitempty" yaml:"checker,omitempty"`                   // rdate or sntp

	// SetClock steps the installer's clock from the first reachable server.
	SetClock bool `hcl:"set_clock,optional" json:"set_clock,omitempty" yaml:"set_clock,omitempty"`
}

// SecurityConfig configures the installed system's security policy.
type SecurityConfig struct {
	SELinux  string `hcl:"selinux,optional" json:"selinux,omitempty" yaml:"selinux,omitempty"`
	RootPath string `hcl:"root_path,optional" json:"root_path,omitempty" yaml:"root_path,omitempty"`
	Command  string `hcl:"command,optional" json:"command,omitempty" yaml:"command,omitempty"`
	Skip     bool   `hcl:"skip,optional" json:"skip,omitempty" yaml:"skip,omitempty"`
}

// LoggingConfig configures the installer's own logs.
type LoggingConfig struct {
	Level          string `hcl:"level,optional" json:"level,omitempty" yaml:"level,omitempty"`
	JSON           bool   `hcl:"json,optional" json:"json,omitempty" yaml:"json,omitempty"`
	SyslogHost     string `hcl:"syslog_host,optional" json:"syslog_host,omitempty" yaml:"syslog_host,omitempty"`
	SyslogPort     int    `hcl:"syslog_port,optional" json:"syslog_port,omitempty" yaml:"syslog_port,omitempty"`
	SyslogProtocol string `hcl:"syslog_protocol,optional" json:"syslog_protocol,omitempty" yaml:"syslog_protocol,omitempty"`
}

// MetricsConfig configures the metrics textfile.
type MetricsConfig struct {
	Textfile string `hcl:"textfile,optional" json:"textfile,omitempty" yaml:"textfile,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		SchemaVersion: CurrentSchemaVersion,
		NTP: &NTPConfig{
			ConfigFile:   chrony.DefaultConfigPath,
			CheckTimeout: "5s",
			Checker:      ntp.CheckerCommand,
		},
		Security: &SecurityConfig{
			SELinux:  "enforcing",
			RootPath: brand.GetSysroot(),
		},
		Logging: &LoggingConfig{
			Level: "info",
		},
		Metrics: &MetricsConfig{},
	}
}

// ApplyDefaults fills missing blocks and empty fields from Default.
func (c *Config) ApplyDefaults() {
	def := Default()

	if c.SchemaVersion == "" {
		c.SchemaVersion = def.SchemaVersion
	}
	if c.NTP == nil {
		c.NTP = def.NTP
	} else {
		if c.NTP.ConfigFile == "" {
			c.NTP.ConfigFile = def.NTP.ConfigFile
		}
		if c.NTP.CheckTimeout == "" {
			c.NTP.CheckTimeout = def.NTP.CheckTimeout
		}
		if c.NTP.Checker == "" {
			c.NTP.Checker = def.NTP.Checker
		}
	}
	if c.Security == nil {
		c.Security = def.Security
	} else {
		if c.Security.SELinux == "" {
			c.Security.SELinux = def.Security.SELinux
		}
		if c.Security.RootPath == "" {
			c.Security.RootPath = def.Security.RootPath
		}
	}
	if c.Logging == nil {
		c.Logging = def.Logging
	} else if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Metrics == nil {
		c.Metrics = def.Metrics
	}
}

// Timeout returns the parsed check timeout.
func (n *NTPConfig) Timeout() (time.Duration, error) {
	if n.CheckTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(n.CheckTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid check_timeout %q: %w", n.CheckTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("check_timeout must be positive, got %s", n.CheckTimeout)
	}
	return d, nil
}

// Pattern compiles ServerPattern, returning nil when it is empty.
func (n *NTPConfig) Pattern() (*regexp.Regexp, error) {
	if n.ServerPattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(n.ServerPattern)
	if err != nil {
		return nil, fmt.Errorf("invalid server_pattern: %w", err)
	}
	if re.NumSubexp() < 1 {
		return nil, fmt.Errorf("server_pattern must capture the hostname")
	}
	return re, nil
}

// ChronyOptions returns the rewrite options for this block.
func (n *NTPConfig) ChronyOptions() (chrony.Options, error) {
	re, err := n.Pattern()
	if err != nil {
		return chrony.Options{}, err
	}
	return chrony.Options{Path: n.ConfigFile, Pattern: re}, nil
}
