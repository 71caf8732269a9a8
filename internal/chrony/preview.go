package chrony

import (
	"bytes"
	"os"

	"github.com/pmezard/go-difflib/difflib"
)

// Preview returns a unified diff between the configuration file and what
// SaveServers would make of it. Nothing is written. An empty diff means the
// rewrite would not change the file.
func Preview(servers []string, opts Options) (string, error) {
	opts = opts.withDefaults()

	data, err := os.ReadFile(opts.Path)
	if err != nil {
		return "", &ConfigAccessError{Op: OpRead, Path: opts.Path, Err: err}
	}

	var buf bytes.Buffer
	if err := Rewrite(bytes.NewReader(data), &buf, servers, opts.Pattern); err != nil {
		return "", accessError(err, opts.Path, opts.Path)
	}
	if bytes.Equal(data, buf.Bytes()) {
		return "", nil
	}

	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(data)),
		B:        difflib.SplitLines(buf.String()),
		FromFile: opts.Path,
		ToFile:   opts.Path + " (new)",
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}
