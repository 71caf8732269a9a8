// Package setup runs the interactive first-run wizard that writes the
// installer configuration.
package setup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"

	"grimm.is/instcfg/internal/brand"
	"grimm.is/instcfg/internal/chrony"
	"grimm.is/instcfg/internal/config"
	"grimm.is/instcfg/internal/logging"
	"grimm.is/instcfg/internal/security"
)

// ErrAborted is returned when the user cancels the wizard.
var ErrAborted = errors.New("setup aborted")

// Answers holds the wizard's form values.
type Answers struct {
	Servers  string // comma or whitespace separated
	Check    bool
	SELinux  string
	RootPath string
}

// Wizard handles the setup process.
type Wizard struct {
	configFile string
	accessible bool
	logger     *logging.Logger
}

// NewWizard creates a wizard writing to configFile. An empty path selects the
// default config file.
func NewWizard(configFile string) *Wizard {
	if configFile == "" {
		configFile = brand.DefaultConfigPath()
	}
	return &Wizard{
		configFile: configFile,
		accessible: os.Getenv("ACCESSIBLE") != "",
		logger:     logging.WithComponent("setup"),
	}
}

// ConfigFile returns the path the wizard writes.
func (w *Wizard) ConfigFile() string {
	return w.configFile
}

// NeedsSetup returns true if no config exists.
func (w *Wizard) NeedsSetup() bool {
	_, err := os.Stat(w.configFile)
	return errors.Is(err, os.ErrNotExist)
}

// AnswersFrom prefills the form from cfg. When cfg lists no servers, the
// servers already in the chrony configuration are offered instead.
func AnswersFrom(cfg *config.Config) Answers {
	a := Answers{
		SELinux:  cfg.Security.SELinux,
		RootPath: cfg.Security.RootPath,
		Check:    cfg.NTP.Check,
	}
	servers := cfg.NTP.Servers
	if len(servers) == 0 {
		if opts, err := cfg.NTP.ChronyOptions(); err == nil {
			servers, _ = chrony.GetServers(opts)
		}
	}
	a.Servers = strings.Join(servers, ", ")
	return a
}

// Apply copies the answers into cfg.
func (a Answers) Apply(cfg *config.Config) error {
	servers := SplitServers(a.Servers)
	if err := ValidateServers(servers); err != nil {
		return err
	}
	if _, err := security.ParseMode(a.SELinux); err != nil {
		return err
	}
	cfg.NTP.Servers = servers
	cfg.NTP.Check = a.Check
	if !a.Check {
		// The form cannot set require_reachable, which needs checks on.
		cfg.NTP.RequireReachable = false
	}
	cfg.Security.SELinux = a.SELinux
	if a.RootPath != "" {
		cfg.Security.RootPath = a.RootPath
	}
	return nil
}

// SplitServers splits a comma or whitespace separated list, dropping empty
// entries and duplicates while keeping the first occurrence's position.
func SplitServers(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

// ValidateServers rejects names the chrony server line pattern would not
// read back.
func ValidateServers(servers []string) error {
	re := chrony.ServerLinePattern()
	for _, s := range servers {
		if l := chrony.Classify(chrony.FormatServer(s), re); l.Kind != chrony.KindServer || l.Host != s {
			return fmt.Errorf("invalid server name %q", s)
		}
	}
	return nil
}

// Form builds the wizard form bound to a.
func (w *Wizard) Form(a *Answers) *huh.Form {
	modes := make([]huh.Option[string], 0, len(security.Modes()))
	for _, m := range security.Modes() {
		modes = append(modes, huh.NewOption(m.String(), m.String()))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Time servers").
				Description("Comma separated NTP server names").
				Value(&a.Servers).
				Validate(func(s string) error {
					return ValidateServers(SplitServers(s))
				}),
			huh.NewConfirm().
				Title("Check servers before writing?").
				Value(&a.Check),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("SELinux mode").
				Options(modes...).
				Value(&a.SELinux),
			huh.NewInput().
				Title("Installed system root").
				Value(&a.RootPath).
				Validate(func(s string) error {
					if s != "" && !filepath.IsAbs(s) {
						return errors.New("must be an absolute path")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeBase16()).WithAccessible(w.accessible)
}

// Run prompts for the answers starting from base, writes the result to the
// config file and returns it.
func (w *Wizard) Run(ctx context.Context, base *config.Config) (*config.Config, error) {
	a := AnswersFrom(base)
	if err := w.Form(&a).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return nil, ErrAborted
		}
		return nil, fmt.Errorf("setup form: %w", err)
	}
	return w.Save(base, a)
}

// Save applies a to base and writes it to the config file.
func (w *Wizard) Save(base *config.Config, a Answers) (*config.Config, error) {
	if err := a.Apply(base); err != nil {
		return nil, err
	}
	if err := base.Validate(); err != nil {
		return nil, err
	}
	if err := config.SaveFile(base, w.configFile); err != nil {
		return nil, err
	}
	w.logger.Info("wrote installer config", "path", w.configFile, "servers", len(base.NTP.Servers))
	return base, nil
}
