package config

import (
	"fmt"
	"net"
	"path/filepath"
	"strings"

	"grimm.is/instcfg/internal/chrony"
	"grimm.is/instcfg/internal/logging"
	"grimm.is/instcfg/internal/ntp"
	"grimm.is/instcfg/internal/security"
)

// ValidationError is a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every invalid field found by Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Validate checks cfg after defaults have been applied. It returns
// ValidationErrors, or nil.
func (c *Config) Validate() error {
	var errs ValidationErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if n := c.NTP; n != nil {
		if n.ConfigFile != "" && !filepath.IsAbs(n.ConfigFile) {
			add("ntp.config_file", "must be an absolute path, got %q", n.ConfigFile)
		}
		re, err := n.Pattern()
		if err != nil {
			add("ntp.server_pattern", "%v", err)
		}
		if re == nil {
			re = chrony.ServerLinePattern()
		}
		for i, s := range n.Servers {
			// Servers must survive a write/read round trip.
			if got := chrony.Classify(chrony.FormatServer(s), re); got.Kind != chrony.KindServer || got.Host != s {
				add(fmt.Sprintf("ntp.servers[%d]", i), "%q is not a valid server name", s)
			}
		}
		if _, err := n.Timeout(); err != nil {
			add("ntp.check_timeout", "%v", err)
		}
		switch n.Checker {
		case "", ntp.CheckerCommand, ntp.CheckerQuery:
		default:
			add("ntp.checker", "unknown checker %q (want %s or %s)", n.Checker, ntp.CheckerCommand, ntp.CheckerQuery)
		}
		if n.RequireReachable && !n.Check {
			add("ntp.require_reachable", "requires check = true")
		}
	}

	if s := c.Security; s != nil {
		if _, err := security.ParseMode(s.SELinux); err != nil {
			add("security.selinux", "%v", err)
		}
		if s.RootPath != "" && !filepath.IsAbs(s.RootPath) {
			add("security.root_path", "must be an absolute path, got %q", s.RootPath)
		}
	}

	if l := c.Logging; l != nil {
		if _, err := logging.ParseLevel(l.Level); err != nil {
			add("logging.level", "%v", err)
		}
		if l.SyslogPort < 0 || l.SyslogPort > 65535 {
			add("logging.syslog_port", "out of range: %d", l.SyslogPort)
		}
		switch l.SyslogProtocol {
		case "", "udp", "tcp":
		default:
			add("logging.syslog_protocol", "must be udp or tcp, got %q", l.SyslogProtocol)
		}
		if l.SyslogHost != "" && strings.ContainsAny(l.SyslogHost, " /") {
			add("logging.syslog_host", "invalid host %q", l.SyslogHost)
		} else if h, _, err := net.SplitHostPort(l.SyslogHost); err == nil && h != "" {
			add("logging.syslog_host", "must not include a port, use syslog_port")
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
