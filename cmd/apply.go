package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"grimm.is/instcfg/internal/config"
	"grimm.is/instcfg/internal/logging"
	"grimm.is/instcfg/internal/metrics"
	"grimm.is/instcfg/internal/ntp"
)

// RunApply applies the whole installer config to the target system: time
// servers first, then the security policy. Both steps run even if the first
// fails; the errors are joined.
func RunApply(ctx context.Context, configFile string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}

	closeLog, err := setupLogging(cfg.Logging)
	if err != nil {
		return err
	}
	defer closeLog()

	runID := uuid.NewString()
	logger := logging.WithComponent("apply").WithFields(map[string]any{"run_id": runID})
	path, _ := resolveConfigPath(configFile)
	logger.Audit("apply.start", path, map[string]any{
		"servers": len(cfg.NTP.Servers),
		"selinux": cfg.Security.SELinux,
	})

	reg := metrics.New()
	defer writeMetrics(reg, cfg)

	var errs []error

	if len(cfg.NTP.Servers) > 0 {
		if cfg.NTP.SetClock {
			syncClock(ctx, cfg.NTP, logger)
		}
		if err := saveServers(ctx, cfg, 0, "", reg, logger); err != nil {
			errs = append(errs, err)
		} else {
			logger.Audit("ntp.servers", cfg.NTP.ConfigFile, map[string]any{"servers": cfg.NTP.Servers})
		}
	} else {
		logger.Info("no servers configured, chrony config left untouched")
	}

	if cfg.Security.Skip {
		logger.Info("security policy skipped")
	} else if err := applySecurity(ctx, cfg.Security, reg); err != nil {
		errs = append(errs, err)
	} else {
		logger.Audit("security.apply", cfg.Security.RootPath, map[string]any{"selinux": cfg.Security.SELinux})
	}

	err = errors.Join(errs...)
	if err != nil {
		logger.Error("apply finished with errors", "error", err)
	} else {
		logger.Info("apply finished")
	}
	return err
}

// syncClock steps the installer clock from the first server that answers.
// Failures are logged only.
func syncClock(ctx context.Context, n *config.NTPConfig, logger *logging.Logger) {
	timeout, err := n.Timeout()
	if err != nil || timeout <= 0 {
		timeout = ntp.DefaultTimeout
	}
	q := ntp.NewQueryChecker(timeout)

	for _, server := range n.Servers {
		offset, err := q.SetClock(ctx, server)
		if err != nil {
			logger.Debug("clock sync failed", "server", server, "error", err)
			continue
		}
		logger.Audit("clock.set", server, map[string]any{"offset": offset.Round(time.Millisecond).String()})
		return
	}
	logger.Warn("could not sync clock from any server")
}
