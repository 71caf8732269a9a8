package setup

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"grimm.is/instcfg/internal/config"
)

var (
	colorAccent = lipgloss.Color("#A8D8EA")
	colorMuted  = lipgloss.Color("#596E79")

	styleHeader = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(colorMuted).
			Padding(0, 1)

	styleLabel = lipgloss.NewStyle().Foreground(colorMuted).Width(16)

	styleCard = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)
)

// Summary renders the settings the wizard wrote.
func Summary(cfg *config.Config, path string) string {
	servers := "(none)"
	if len(cfg.NTP.Servers) > 0 {
		servers = strings.Join(cfg.NTP.Servers, "\n")
	}
	check := "no"
	if cfg.NTP.Check {
		check = "yes (" + cfg.NTP.Checker + ")"
	}

	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, styleLabel.Render(label), value)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		styleHeader.Render("Installer configuration"),
		styleCard.Render(lipgloss.JoinVertical(lipgloss.Left,
			row("Config file", path),
			row("Chrony config", cfg.NTP.ConfigFile),
			row("Servers", servers),
			row("Check servers", check),
			row("SELinux", cfg.Security.SELinux),
			row("System root", cfg.Security.RootPath),
		)),
	)
}
