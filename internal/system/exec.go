// Package system runs external programs on behalf of the installer.
package system

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"time"
)

// waitDelay bounds how long Run waits for output copying after the process
// exits or is killed, for callers that supply their own writers.
const waitDelay = 2 * time.Second

// Command describes a single program invocation.
type Command struct {
	Name string
	Args []string

	// Root, when set, is the directory the program is chrooted into.
	Root string

	// Stdout and Stderr receive the program's output. Nil attaches the
	// null device.
	Stdout io.Writer
	Stderr io.Writer
}

func (c Command) String() string {
	s := strings.Join(append([]string{c.Name}, c.Args...), " ")
	if c.Root != "" {
		s += " (root " + c.Root + ")"
	}
	return s
}

// CommandExecutor runs commands. Tests substitute MockCommandExecutor.
type CommandExecutor interface {
	Run(ctx context.Context, cmd Command) error
}

// DefaultCommandExecutor is the default RealCommandExecutor instance.
var DefaultCommandExecutor CommandExecutor = &RealCommandExecutor{}

// RealCommandExecutor is a CommandExecutor backed by os/exec.
type RealCommandExecutor struct{}

// Run starts the command and waits for it. A non-zero exit status is an error.
func (r *RealCommandExecutor) Run(ctx context.Context, c Command) error {
	cmd, err := newCmd(ctx, c)
	if err != nil {
		return err
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("command %s: %w", c, ctx.Err())
		}
		return fmt.Errorf("command %s failed: %w", c, err)
	}
	return nil
}

func newCmd(ctx context.Context, c Command) (*exec.Cmd, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	// Leaving a stream nil makes os/exec open /dev/null instead of a pipe
	// that a surviving grandchild could hold open.
	if c.Stdout != nil {
		cmd.Stdout = c.Stdout
	}
	if c.Stderr != nil {
		cmd.Stderr = c.Stderr
	}
	cmd.WaitDelay = waitDelay

	if c.Root != "" {
		if err := setRoot(cmd, c.Root); err != nil {
			return nil, err
		}
	}
	return cmd, nil
}
