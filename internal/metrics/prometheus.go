// Package metrics records what an installer run changed, for export through
// node_exporter's textfile collector.
package metrics

import (
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the installer metrics. Each run gets its own registry so
// the textfile only reflects that run.
type Registry struct {
	reg *prometheus.Registry

	// NTP configuration
	Rewrites          *prometheus.CounterVec
	ServersConfigured prometheus.Gauge
	ServerChecks      *prometheus.CounterVec

	// Security policy
	SELinuxMode   *prometheus.GaugeVec
	PolicyApplies *prometheus.CounterVec

	LastRun prometheus.Gauge
}

// New creates a Registry with all metrics registered.
func New() *Registry {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	r := &Registry{reg: reg}

	r.Rewrites = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "instcfg_ntp_rewrites_total",
		Help: "Rewrites of the chronyd configuration by result",
	}, []string{"result"})

	r.ServersConfigured = factory.NewGauge(prometheus.GaugeOpts{
		Name: "instcfg_ntp_servers_configured",
		Help: "Number of server lines written by the last rewrite",
	})

	r.ServerChecks = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "instcfg_ntp_server_checks_total",
		Help: "Time server reachability checks by result",
	}, []string{"result"})

	r.SELinuxMode = factory.NewGaugeVec(prometheus.GaugeOpts{
		Name: "instcfg_selinux_mode",
		Help: "Configured SELinux mode (1 for the active mode)",
	}, []string{"mode"})

	r.PolicyApplies = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "instcfg_security_policy_applies_total",
		Help: "Security policy apply attempts by result",
	}, []string{"result"})

	r.LastRun = factory.NewGauge(prometheus.GaugeOpts{
		Name: "instcfg_last_run_timestamp_seconds",
		Help: "Unix time the last installer run finished",
	})

	return r
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// ObserveRewrite records the outcome of a configuration rewrite.
func (r *Registry) ObserveRewrite(servers int, err error) {
	r.Rewrites.WithLabelValues(resultLabel(err)).Inc()
	if err == nil {
		r.ServersConfigured.Set(float64(servers))
	}
}

// ObserveCheck records one reachability check.
func (r *Registry) ObserveCheck(reachable bool) {
	if reachable {
		r.ServerChecks.WithLabelValues("reachable").Inc()
	} else {
		r.ServerChecks.WithLabelValues("unreachable").Inc()
	}
}

// SetSELinuxMode marks mode as the active one among modes.
func (r *Registry) SetSELinuxMode(mode string, modes []string) {
	for _, m := range modes {
		v := 0.0
		if m == mode {
			v = 1
		}
		r.SELinuxMode.WithLabelValues(m).Set(v)
	}
}

// ObservePolicyApply records a security policy apply attempt.
func (r *Registry) ObservePolicyApply(err error) {
	r.PolicyApplies.WithLabelValues(resultLabel(err)).Inc()
}

// WriteTextfile stamps the run time and writes all metrics to path in the
// text exposition format. An empty path does nothing.
func (r *Registry) WriteTextfile(path string, now time.Time) error {
	if path == "" {
		return nil
	}
	r.LastRun.Set(float64(now.Unix()))

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return prometheus.WriteToTextfile(path, r.reg)
}
