package security

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"grimm.is/instcfg/internal/logging"
	"grimm.is/instcfg/internal/system"
)

func newTestPolicy(t *testing.T, enabled bool) (*Policy, *system.MockCommandExecutor, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	p := New(enabled, "/mnt/sysimage")
	p.SetLogger(logging.New(logging.Config{Level: logging.LevelDebug, Output: &buf}))
	ex := new(system.MockCommandExecutor)
	p.SetExecutor(ex)
	return p, ex, &buf
}

func TestNew(t *testing.T) {
	p, _, _ := newTestPolicy(t, true)
	assert.Equal(t, ModeEnforcing, p.SELinux())

	p, _, _ = newTestPolicy(t, false)
	assert.Equal(t, ModeDisabled, p.SELinux())
}

func TestSetSELinux(t *testing.T) {
	p, _, buf := newTestPolicy(t, false)

	p.SetSELinux(ModePermissive)
	assert.Equal(t, ModePermissive, p.SELinux())
	assert.Empty(t, buf.String())

	p.SetSELinux(Mode(42))
	assert.Equal(t, ModeDisabled, p.SELinux())
	assert.Contains(t, buf.String(), "invalid SELinux state")
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"disabled", ModeDisabled, false},
		{"Enforcing", ModeEnforcing, false},
		{" permissive ", ModePermissive, false},
		{"strict", ModeDisabled, true},
		{"", ModeDisabled, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) Mode {
	t.Helper()
	m, err := ParseMode(s)
	require.NoError(t, err)
	return m
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "enforcing", ModeEnforcing.String())
	assert.Equal(t, "Mode(7)", Mode(7).String())
	assert.Len(t, Modes(), 3)
}

func TestWrite(t *testing.T) {
	p, ex, _ := newTestPolicy(t, true)

	want := system.Command{Name: DefaultCommand, Root: "/mnt/sysimage"}
	ex.On("Run", mock.Anything, want).Return(nil).Once()

	require.NoError(t, p.Write(context.Background()))
	ex.AssertExpectations(t)
}

func TestWrite_CommandFails(t *testing.T) {
	p, ex, buf := newTestPolicy(t, true)
	p.Command = "/bin/false"

	ex.On("Run", mock.Anything, mock.MatchedBy(func(c system.Command) bool {
		return c.Name == "/bin/false" && c.Root == "/mnt/sysimage"
	})).Return(errors.New("exit status 1")).Once()

	err := p.Write(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 1")
	assert.Contains(t, buf.String(), "Security policy command failed")
	ex.AssertExpectations(t)
}

func TestWrite_InvalidState(t *testing.T) {
	p, ex, buf := newTestPolicy(t, true)
	p.selinux = Mode(9)

	err := p.Write(context.Background())
	assert.ErrorIs(t, err, ErrInvalidMode)
	assert.Contains(t, buf.String(), "Unknown SELinux state")
	ex.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)
}

func TestKernelEnabled(t *testing.T) {
	orig := selinuxFS
	t.Cleanup(func() { selinuxFS = orig })

	selinuxFS = t.TempDir()
	assert.False(t, KernelEnabled())

	require.NoError(t, os.WriteFile(filepath.Join(selinuxFS, "enforce"), []byte("1"), 0644))
	assert.True(t, KernelEnabled())
}
