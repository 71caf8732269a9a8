// Package security stores the SELinux mode chosen during installation and
// applies it to the installed system.
package security

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"grimm.is/instcfg/internal/logging"
	"grimm.is/instcfg/internal/system"
)

// Mode is an SELinux mode. The values match the kickstart constants.
type Mode int

const (
	ModeDisabled Mode = iota
	ModeEnforcing
	ModePermissive
)

// DefaultCommand configures the installed system's security settings.
const DefaultCommand = "/usr/sbin/lokkit"

// ErrInvalidMode is returned by ParseMode for unknown names.
var ErrInvalidMode = errors.New("invalid SELinux mode")

var modeNames = map[Mode]string{
	ModeDisabled:   "disabled",
	ModeEnforcing:  "enforcing",
	ModePermissive: "permissive",
}

// Modes lists the valid modes in display order.
func Modes() []Mode {
	return []Mode{ModeEnforcing, ModePermissive, ModeDisabled}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	_, ok := modeNames[m]
	return ok
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode maps a mode name, case-insensitively, to a Mode.
func ParseMode(s string) (Mode, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return ModeDisabled, fmt.Errorf("%w: %q", ErrInvalidMode, s)
}

// selinuxFS is the selinuxfs mount point; its enforce file exists only while
// SELinux is enabled in the running kernel.
var selinuxFS = "/sys/fs/selinux"

// KernelEnabled reports whether SELinux is enabled in the running system.
func KernelEnabled() bool {
	_, err := os.Stat(filepath.Join(selinuxFS, "enforce"))
	return err == nil
}

// Policy is the security configuration of the system being installed.
type Policy struct {
	selinux Mode

	// Root is the installed system's root; the apply command runs chrooted there.
	Root string

	// Command and Args apply the policy. Defaults to DefaultCommand without arguments.
	Command string
	Args    []string

	executor system.CommandExecutor
	logger   *logging.Logger
}

// New creates a Policy. SELinux starts out enforcing when the installer was
// booted with SELinux enabled and disabled otherwise.
func New(selinuxEnabled bool, root string) *Policy {
	p := &Policy{
		selinux:  ModeDisabled,
		Root:     root,
		Command:  DefaultCommand,
		executor: system.DefaultCommandExecutor,
		logger:   logging.WithComponent("security"),
	}
	if selinuxEnabled {
		p.selinux = ModeEnforcing
	}
	return p
}

// SetExecutor replaces the command executor used by Write.
func (p *Policy) SetExecutor(ex system.CommandExecutor) {
	p.executor = ex
}

// SetLogger replaces the policy's logger.
func (p *Policy) SetLogger(l *logging.Logger) {
	p.logger = l.WithComponent("security")
}

// SetSELinux sets the SELinux mode. An unknown mode is logged and replaced
// by ModeDisabled.
func (p *Policy) SetSELinux(m Mode) {
	if !m.Valid() {
		p.logger.Error("Tried to set invalid SELinux state", "state", int(m))
		m = ModeDisabled
	}
	p.selinux = m
}

// SELinux returns the SELinux mode.
func (p *Policy) SELinux() Mode {
	return p.selinux
}

// Write runs the configuration command inside Root with its output
// discarded. Failures are logged and returned.
func (p *Policy) Write(ctx context.Context) error {
	if !p.selinux.Valid() {
		p.logger.Error("Unknown SELinux state", "state", int(p.selinux))
		return fmt.Errorf("%w: %d", ErrInvalidMode, int(p.selinux))
	}

	name := p.Command
	if name == "" {
		name = DefaultCommand
	}
	cmd := system.Command{
		Name: name,
		Args: p.Args,
		Root: p.Root,
	}

	p.logger.Info("Applying security policy", "selinux", p.selinux.String(), "command", cmd.String())
	if err := p.executor.Run(ctx, cmd); err != nil {
		p.logger.Error("Security policy command failed", "command", name, "error", err)
		return fmt.Errorf("apply security policy: %w", err)
	}
	return nil
}
