package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v2"
)

// SaveFile writes cfg to path in the format matching its extension.
// Unknown extensions are written as HCL.
func SaveFile(cfg *Config, path string) error {
	if cfg.SchemaVersion == "" {
		cfg.SchemaVersion = CurrentSchemaVersion
	}

	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data = GenerateHCL(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateHCL renders cfg as formatted HCL. Empty fields are omitted.
func GenerateHCL(cfg *Config) []byte {
	f := hclwrite.NewEmptyFile()
	root := f.Body()

	version := cfg.SchemaVersion
	if version == "" {
		version = CurrentSchemaVersion
	}
	root.SetAttributeValue("schema_version", cty.StringVal(version))

	if n := cfg.NTP; n != nil {
		root.AppendNewline()
		b := root.AppendNewBlock("ntp", nil).Body()
		setString(b, "config_file", n.ConfigFile)
		if len(n.Servers) > 0 {
			vals := make([]cty.Value, len(n.Servers))
			for i, s := range n.Servers {
				vals[i] = cty.StringVal(s)
			}
			b.SetAttributeValue("servers", cty.ListVal(vals))
		}
		setString(b, "server_pattern", n.ServerPattern)
		setBool(b, "check", n.Check)
		setBool(b, "require_reachable", n.RequireReachable)
		setString(b, "check_timeout", n.CheckTimeout)
		setString(b, "checker", n.Checker)
		setBool(b, "set_clock", n.SetClock)
	}

	if s := cfg.Security; s != nil {
		root.AppendNewline()
		b := root.AppendNewBlock("security", nil).Body()
		setString(b, "selinux", s.SELinux)
		setString(b, "root_path", s.RootPath)
		setString(b, "command", s.Command)
		setBool(b, "skip", s.Skip)
	}

	if l := cfg.Logging; l != nil {
		root.AppendNewline()
		b := root.AppendNewBlock("logging", nil).Body()
		setString(b, "level", l.Level)
		setBool(b, "json", l.JSON)
		setString(b, "syslog_host", l.SyslogHost)
		if l.SyslogPort != 0 {
			b.SetAttributeValue("syslog_port", cty.NumberIntVal(int64(l.SyslogPort)))
		}
		setString(b, "syslog_protocol", l.SyslogProtocol)
	}

	if m := cfg.Metrics; m != nil && m.Textfile != "" {
		root.AppendNewline()
		b := root.AppendNewBlock("metrics", nil).Body()
		setString(b, "textfile", m.Textfile)
	}

	return hclwrite.Format(f.Bytes())
}

func setString(b *hclwrite.Body, name, v string) {
	if v != "" {
		b.SetAttributeValue(name, cty.StringVal(v))
	}
}

func setBool(b *hclwrite.Body, name string, v bool) {
	if v {
		b.SetAttributeValue(name, cty.True)
	}
}
