package cmd

import (
	"context"
	"fmt"

	"grimm.is/instcfg/internal/config"
	"grimm.is/instcfg/internal/i18n"
	"grimm.is/instcfg/internal/setup"
)

// RunSetup runs the interactive wizard and writes the installer config.
func RunSetup(ctx context.Context, configFile string) error {
	path, _ := resolveConfigPath(configFile)
	w := setup.NewWizard(path)

	base := config.Default()
	if !w.NeedsSetup() {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		base = cfg
	}

	cfg, err := w.Run(ctx, base)
	if err != nil {
		return err
	}

	fmt.Fprintln(Stdout, setup.Summary(cfg, path))
	Printer.Fprintf(Stdout, i18n.MsgConfigSaved, path)
	return nil
}
