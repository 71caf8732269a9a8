package chrony

import (
	"errors"
	"os"
)

// GetServers returns the hostnames of all server declarations in the
// configuration file, in file order. The result is never nil.
func GetServers(opts Options) ([]string, error) {
	opts = opts.withDefaults()

	f, err := os.Open(opts.Path)
	if err != nil {
		return nil, &ConfigAccessError{Op: OpRead, Path: opts.Path, Err: err}
	}
	defer f.Close()

	servers := make([]string, 0)
	err = eachLine(f, func(raw string) error {
		if l := Classify(raw, opts.Pattern); l.Kind == KindServer {
			servers = append(servers, l.Host)
		}
		return nil
	})
	if err != nil {
		var se *streamError
		if errors.As(err, &se) {
			err = se.err
		}
		return nil, &ConfigAccessError{Op: OpRead, Path: opts.Path, Err: err}
	}

	return servers, nil
}
