package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"grimm.is/instcfg/internal/chrony"
	"grimm.is/instcfg/internal/config"
	"grimm.is/instcfg/internal/i18n"
	"grimm.is/instcfg/internal/system"
)

const chronySample = "# comment\nserver 0.fedora.pool.ntp.org iburst\nserver old.example.com iburst\nother line\n"

// testEnv isolates a test from the host: default config dir, stdout and
// the command executor are all replaced.
type testEnv struct {
	dir    string
	chrony string
	out    *bytes.Buffer
	exec   *system.MockCommandExecutor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("INSTCFG_CONFIG_DIR", filepath.Join(dir, "etc"))

	env := &testEnv{
		dir:    dir,
		chrony: filepath.Join(dir, "chrony.conf"),
		out:    &bytes.Buffer{},
		exec:   new(system.MockCommandExecutor),
	}
	require.NoError(t, os.WriteFile(env.chrony, []byte(chronySample), 0644))

	origOut, origExec, origPrinter := Stdout, executor, Printer
	Stdout, executor, Printer = env.out, env.exec, i18n.NewPrinter(language.English)
	t.Cleanup(func() {
		Stdout, executor, Printer = origOut, origExec, origPrinter
	})
	return env
}

// writeConfig writes an installer config pointing at the env's chrony file.
func (e *testEnv) writeConfig(t *testing.T, extra string) string {
	t.Helper()
	path := filepath.Join(e.dir, "instcfg.hcl")
	content := fmt.Sprintf("ntp {\n  config_file = %q\n%s}\n", e.chrony, extra)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func rdateFor(server string) any {
	return mock.MatchedBy(func(c system.Command) bool {
		return c.Name == "rdate" && len(c.Args) == 2 && c.Args[0] == "-p" && c.Args[1] == server
	})
}

func lokkitIn(root string) any {
	return mock.MatchedBy(func(c system.Command) bool {
		return c.Name == "/usr/sbin/lokkit" && len(c.Args) == 0 && c.Root == root
	})
}

func TestRunServers(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, RunServers(ServerOptions{ChronyFile: env.chrony}))
	assert.Equal(t, "0.fedora.pool.ntp.org\nold.example.com\n", env.out.String())
}

func TestRunServers_Empty(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, os.WriteFile(env.chrony, []byte("# nothing\n"), 0644))

	require.NoError(t, RunServers(ServerOptions{ChronyFile: env.chrony}))
	assert.Contains(t, env.out.String(), "No servers configured in "+env.chrony)
}

func TestRunServers_MissingFile(t *testing.T) {
	env := newTestEnv(t)

	err := RunServers(ServerOptions{ChronyFile: filepath.Join(env.dir, "missing.conf")})
	assert.True(t, chrony.IsConfigAccess(err))
}

func TestRunSetServers(t *testing.T) {
	env := newTestEnv(t)

	err := RunSetServers(context.Background(), ServerOptions{
		ChronyFile: env.chrony,
		Servers:    []string{"a.example.com", "b.example.com"},
	})
	require.NoError(t, err)
	assert.Contains(t, env.out.String(), "Wrote 2 server(s) to "+env.chrony)

	got, err := chrony.GetServers(chrony.Options{Path: env.chrony})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example.com", "b.example.com"}, got)
}

func TestRunSetServers_FromConfig(t *testing.T) {
	env := newTestEnv(t)
	cfgPath := env.writeConfig(t, "  servers = [\"cfg.example.com\"]\n")
	out := filepath.Join(env.dir, "out.conf")

	err := RunSetServers(context.Background(), ServerOptions{ConfigFile: cfgPath, Output: out})
	require.NoError(t, err)

	got, err := chrony.GetServers(chrony.Options{Path: out})
	require.NoError(t, err)
	assert.Equal(t, []string{"cfg.example.com"}, got)

	data, err := os.ReadFile(env.chrony)
	require.NoError(t, err)
	assert.Equal(t, chronySample, string(data))
}

func TestRunSetServers_NoServers(t *testing.T) {
	env := newTestEnv(t)
	assert.Error(t, RunSetServers(context.Background(), ServerOptions{ChronyFile: env.chrony}))
}

func TestRunSetServers_InvalidServer(t *testing.T) {
	env := newTestEnv(t)
	err := RunSetServers(context.Background(), ServerOptions{ChronyFile: env.chrony, Servers: []string{"bad_host"}})
	var verrs config.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestRunSetServers_RequireReachable(t *testing.T) {
	env := newTestEnv(t)
	cfgPath := env.writeConfig(t, "  check = true\n  require_reachable = true\n")
	env.exec.On("Run", mock.Anything, rdateFor("good.example.com")).Return(nil)
	env.exec.On("Run", mock.Anything, rdateFor("bad.example.com")).Return(errors.New("exit status 1"))

	err := RunSetServers(context.Background(), ServerOptions{
		ConfigFile: cfgPath,
		Servers:    []string{"good.example.com", "bad.example.com"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 servers unreachable")
	assert.Contains(t, env.out.String(), "good.example.com")
	assert.Contains(t, env.out.String(), "NOT reachable")

	data, err := os.ReadFile(env.chrony)
	require.NoError(t, err)
	assert.Equal(t, chronySample, string(data))
	env.exec.AssertExpectations(t)
}

func TestRunSetServers_CheckWarnsOnly(t *testing.T) {
	env := newTestEnv(t)
	env.exec.On("Run", mock.Anything, rdateFor("bad.example.com")).Return(errors.New("timeout"))

	err := RunSetServers(context.Background(), ServerOptions{
		ChronyFile: env.chrony,
		Check:      true,
		Servers:    []string{"bad.example.com"},
	})
	require.NoError(t, err)

	got, err := chrony.GetServers(chrony.Options{Path: env.chrony})
	require.NoError(t, err)
	assert.Equal(t, []string{"bad.example.com"}, got)
}

func TestRunDiff(t *testing.T) {
	env := newTestEnv(t)

	require.NoError(t, RunDiff(ServerOptions{ChronyFile: env.chrony, Servers: []string{"a.example.com"}}))
	out := env.out.String()
	assert.Contains(t, out, "+server a.example.com iburst")
	assert.Contains(t, out, "-server old.example.com iburst")

	data, err := os.ReadFile(env.chrony)
	require.NoError(t, err)
	assert.Equal(t, chronySample, string(data))
}

func TestRunDiff_NoChanges(t *testing.T) {
	env := newTestEnv(t)
	servers := []string{"a.example.com"}
	require.NoError(t, chrony.SaveServers(servers, chrony.Options{Path: env.chrony}))

	require.NoError(t, RunDiff(ServerOptions{ChronyFile: env.chrony, Servers: servers}))
	assert.Contains(t, env.out.String(), "No changes to "+env.chrony)
}

func TestRunCheck(t *testing.T) {
	env := newTestEnv(t)
	env.exec.On("Run", mock.Anything, rdateFor("0.fedora.pool.ntp.org")).Return(nil)
	env.exec.On("Run", mock.Anything, rdateFor("old.example.com")).Return(nil)

	require.NoError(t, RunCheck(context.Background(), ServerOptions{ChronyFile: env.chrony}))
	assert.Contains(t, env.out.String(), "old.example.com")
	assert.NotContains(t, env.out.String(), "NOT reachable")
	env.exec.AssertExpectations(t)
}

func TestRunCheck_Unreachable(t *testing.T) {
	env := newTestEnv(t)
	env.exec.On("Run", mock.Anything, rdateFor("down.example.com")).Return(errors.New("exit status 1"))

	err := RunCheck(context.Background(), ServerOptions{Servers: []string{"down.example.com"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 servers unreachable")
}

func TestRunCheck_UnknownChecker(t *testing.T) {
	newTestEnv(t)
	err := RunCheck(context.Background(), ServerOptions{Checker: "ping", Servers: []string{"a.example.com"}})
	assert.Error(t, err)
}

func TestRunSELinux_SetAndGet(t *testing.T) {
	env := newTestEnv(t)
	path := filepath.Join(env.dir, "etc", "instcfg.hcl")

	require.NoError(t, RunSELinux(context.Background(), []string{"set", "permissive"}))
	assert.Contains(t, env.out.String(), "Configuration saved to "+path)

	cfg, err := config.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "permissive", cfg.Security.SELinux)

	env.out.Reset()
	require.NoError(t, RunSELinux(context.Background(), []string{"get"}))
	assert.Equal(t, "SELinux mode: permissive\n", env.out.String())
}

func TestRunSELinux_Errors(t *testing.T) {
	newTestEnv(t)
	ctx := context.Background()

	assert.Error(t, RunSELinux(ctx, nil))
	assert.Error(t, RunSELinux(ctx, []string{"set"}))
	assert.Error(t, RunSELinux(ctx, []string{"set", "sometimes"}))
	assert.Error(t, RunSELinux(ctx, []string{"frobnicate"}))
}

func TestRunSELinux_Apply(t *testing.T) {
	env := newTestEnv(t)
	env.exec.On("Run", mock.Anything, lokkitIn("/target")).Return(nil)

	require.NoError(t, RunSELinux(context.Background(), []string{"apply", "-root", "/target"}))
	assert.Contains(t, env.out.String(), "Applied SELinux mode enforcing in /target")
	env.exec.AssertExpectations(t)
}

func TestRunApply(t *testing.T) {
	env := newTestEnv(t)
	textfile := filepath.Join(env.dir, "metrics", "instcfg.prom")
	cfgPath := env.writeConfig(t, "  servers = [\"a.example.com\"]\n")
	f, err := os.OpenFile(cfgPath, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = fmt.Fprintf(f, "security {\n  selinux = \"permissive\"\n  root_path = \"/target\"\n}\nmetrics {\n  textfile = %q\n}\n", textfile)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	env.exec.On("Run", mock.Anything, lokkitIn("/target")).Return(nil)

	require.NoError(t, RunApply(context.Background(), cfgPath))

	got, err := chrony.GetServers(chrony.Options{Path: env.chrony})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.example.com"}, got)
	env.exec.AssertExpectations(t)

	data, err := os.ReadFile(textfile)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, `instcfg_ntp_rewrites_total{result="success"} 1`)
	assert.Contains(t, text, `instcfg_selinux_mode{mode="permissive"} 1`)
	assert.Contains(t, text, `instcfg_security_policy_applies_total{result="success"} 1`)
}

func TestRunApply_JoinsErrors(t *testing.T) {
	env := newTestEnv(t)
	cfgPath := env.writeConfig(t, "  servers = [\"a.example.com\"]\n")
	require.NoError(t, os.Remove(env.chrony))
	env.exec.On("Run", mock.Anything, mock.Anything).Return(errors.New("lokkit missing"))

	err := RunApply(context.Background(), cfgPath)
	require.Error(t, err)
	assert.True(t, chrony.IsConfigAccess(err))
	assert.Contains(t, err.Error(), "lokkit missing")
}

func TestRunApply_SkipsSecurity(t *testing.T) {
	env := newTestEnv(t)
	cfgPath := env.writeConfig(t, "")
	f, err := os.OpenFile(cfgPath, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.WriteString("security {\n  skip = true\n}\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	require.NoError(t, RunApply(context.Background(), cfgPath))
	env.exec.AssertNotCalled(t, "Run", mock.Anything, mock.Anything)

	data, err := os.ReadFile(env.chrony)
	require.NoError(t, err)
	assert.Equal(t, chronySample, string(data))
}

func TestLoadConfig(t *testing.T) {
	env := newTestEnv(t)

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.Default().NTP.ConfigFile, cfg.NTP.ConfigFile)

	_, err = loadConfig(filepath.Join(env.dir, "missing.hcl"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	bad := filepath.Join(env.dir, "bad.hcl")
	require.NoError(t, os.WriteFile(bad, []byte("security {\n  selinux = \"on\"\n}\n"), 0644))
	_, err = loadConfig(bad)
	assert.Error(t, err)
}

func TestRunVersion(t *testing.T) {
	env := newTestEnv(t)
	RunVersion()
	assert.Contains(t, env.out.String(), "Instcfg dev")
}
