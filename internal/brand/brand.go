// Package brand holds the product name and default locations.
//
// The values are loaded from brand.json at compile time via go:embed so
// packaging scripts can read the same file.
package brand

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
)

//go:embed brand.json
var brandJSON []byte

// Brand holds all branding information
type Brand struct {
	Name             string `json:"name"`
	LowerName        string `json:"lowerName"`
	Vendor           string `json:"vendor"`
	Description      string `json:"description"`
	ConfigEnvPrefix  string `json:"configEnvPrefix"`
	DefaultConfigDir string `json:"defaultConfigDir"`
	DefaultSysroot   string `json:"defaultSysroot"`
	BinaryName       string `json:"binaryName"`
	ConfigFileName   string `json:"configFileName"`
	MetricsFileName  string `json:"metricsFileName"`
}

var b Brand

func init() {
	if err := json.Unmarshal(brandJSON, &b); err != nil {
		panic("failed to parse brand.json: " + err.Error())
	}

	Name = b.Name
	LowerName = b.LowerName
	Vendor = b.Vendor
	Description = b.Description
	ConfigEnvPrefix = b.ConfigEnvPrefix
	DefaultConfigDir = b.DefaultConfigDir
	DefaultSysroot = b.DefaultSysroot
	BinaryName = b.BinaryName
	ConfigFileName = b.ConfigFileName
	MetricsFileName = b.MetricsFileName
}

var (
	Name             string
	LowerName        string
	Vendor           string
	Description      string
	ConfigEnvPrefix  string
	DefaultConfigDir string
	DefaultSysroot   string
	BinaryName       string
	ConfigFileName   string
	MetricsFileName  string

	// Version is set at build time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
)

// Get returns the full Brand struct
func Get() Brand {
	return b
}

// GetConfigDir returns the config directory, checking env vars first.
// Priority: INSTCFG_CONFIG_DIR > INSTCFG_PREFIX/config > DefaultConfigDir
func GetConfigDir() string {
	if dir := os.Getenv(ConfigEnvPrefix + "_CONFIG_DIR"); dir != "" {
		return dir
	}
	if prefix := os.Getenv(ConfigEnvPrefix + "_PREFIX"); prefix != "" {
		return filepath.Join(prefix, "config")
	}
	return DefaultConfigDir
}

// GetSysroot returns the root of the system being installed.
// Priority: INSTCFG_SYSROOT > DefaultSysroot
func GetSysroot() string {
	if dir := os.Getenv(ConfigEnvPrefix + "_SYSROOT"); dir != "" {
		return dir
	}
	return DefaultSysroot
}

// DefaultConfigPath returns the full path of the installer config file.
func DefaultConfigPath() string {
	return filepath.Join(GetConfigDir(), ConfigFileName)
}
