package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// render writes r to a textfile and returns its contents.
func render(t *testing.T, r *Registry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "textfile", "instcfg.prom")
	require.NoError(t, r.WriteTextfile(path, time.Unix(1700000000, 0)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestObserveRewrite(t *testing.T) {
	r := New()
	r.ObserveRewrite(3, nil)
	r.ObserveRewrite(5, errors.New("permission denied"))

	out := render(t, r)
	assert.Contains(t, out, `instcfg_ntp_rewrites_total{result="success"} 1`)
	assert.Contains(t, out, `instcfg_ntp_rewrites_total{result="error"} 1`)
	assert.Contains(t, out, "instcfg_ntp_servers_configured 3\n")
}

func TestObserveCheck(t *testing.T) {
	r := New()
	r.ObserveCheck(true)
	r.ObserveCheck(true)
	r.ObserveCheck(false)

	out := render(t, r)
	assert.Contains(t, out, `instcfg_ntp_server_checks_total{result="reachable"} 2`)
	assert.Contains(t, out, `instcfg_ntp_server_checks_total{result="unreachable"} 1`)
}

func TestSetSELinuxMode(t *testing.T) {
	r := New()
	r.SetSELinuxMode("permissive", []string{"enforcing", "permissive", "disabled"})

	out := render(t, r)
	assert.Contains(t, out, `instcfg_selinux_mode{mode="enforcing"} 0`)
	assert.Contains(t, out, `instcfg_selinux_mode{mode="permissive"} 1`)
	assert.Contains(t, out, `instcfg_selinux_mode{mode="disabled"} 0`)
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.ObservePolicyApply(nil)
	r.ObservePolicyApply(errors.New("exit status 1"))

	out := render(t, r)
	assert.Contains(t, out, `instcfg_security_policy_applies_total{result="success"} 1`)
	assert.Contains(t, out, `instcfg_security_policy_applies_total{result="error"} 1`)
	assert.Contains(t, out, "instcfg_last_run_timestamp_seconds 1.7e+09")
	assert.Contains(t, out, "# HELP instcfg_ntp_servers_configured")
}

func TestWriteTextfile_NoPath(t *testing.T) {
	assert.NoError(t, New().WriteTextfile("", time.Now()))
}
