package cmd

import "grimm.is/instcfg/internal/brand"

// RunVersion prints the build version.
func RunVersion() {
	Printer.Fprintf(Stdout, "%s %s (%s)\n", brand.Name, brand.Version, brand.GitCommit)
}
