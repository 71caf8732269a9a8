package chrony

import "regexp"

const (
	// DefaultConfigPath is chronyd's configuration file on the installed system.
	DefaultConfigPath = "/etc/chrony.conf"

	// Heading marks the start of installer-managed server lines.
	Heading = "# These servers were defined in the installation:\n"
)

var serverLineRE = regexp.MustCompile(`^\s*server\s+([-a-zA-Z.0-9]+)\s+[a-zA-Z]+\s*$`)

// ServerLinePattern returns the default pattern for managed server lines.
// The first capture group is the hostname.
func ServerLinePattern() *regexp.Regexp {
	return serverLineRE
}

// Kind is the classification of a configuration line.
type Kind int

const (
	KindOther Kind = iota
	KindServer
	KindHeading
)

func (k Kind) String() string {
	switch k {
	case KindServer:
		return "server"
	case KindHeading:
		return "heading"
	default:
		return "other"
	}
}

// Line is a single classified configuration line.
type Line struct {
	Kind Kind
	Host string // set for KindServer
	Raw  string // including the line terminator, if any
}

// Classify sorts a raw line into a server declaration, the heading marker,
// or anything else. The heading must match byte for byte, terminator included.
func Classify(raw string, pattern *regexp.Regexp) Line {
	if raw == Heading {
		return Line{Kind: KindHeading, Raw: raw}
	}
	if m := pattern.FindStringSubmatch(raw); m != nil {
		l := Line{Kind: KindServer, Raw: raw}
		if len(m) > 1 {
			l.Host = m[1]
		}
		return l
	}
	return Line{Kind: KindOther, Raw: raw}
}

// FormatServer renders a managed server declaration.
func FormatServer(host string) string {
	return "server " + host + " iburst\n"
}
