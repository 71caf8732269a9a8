package chrony

import "regexp"

// Options selects the file and pattern a read or rewrite works on.
// Zero values fall back to DefaultConfigPath and ServerLinePattern.
type Options struct {
	Path    string
	Pattern *regexp.Regexp

	// OutputPath, when set, receives the rewritten file and Path is left
	// untouched. Otherwise Path is replaced atomically.
	OutputPath string
}

func (o Options) withDefaults() Options {
	if o.Path == "" {
		o.Path = DefaultConfigPath
	}
	if o.Pattern == nil {
		o.Pattern = ServerLinePattern()
	}
	return o
}
