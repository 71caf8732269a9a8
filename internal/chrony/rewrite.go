package chrony

import (
	"bufio"
	"io"
	"regexp"
)

// eachLine calls fn for every line of r, terminator included. A final line
// without a terminator is passed as is.
func eachLine(r io.Reader, fn func(raw string) error) error {
	br := bufio.NewReader(r)
	for {
		raw, err := br.ReadString('\n')
		if len(raw) > 0 {
			if ferr := fn(raw); ferr != nil {
				return ferr
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return &streamError{op: OpRead, err: err}
		}
	}
}

// Rewrite streams src into dst: the heading, one declaration per server in
// order, then every line of src that is neither a server declaration nor
// the heading.
func Rewrite(src io.Reader, dst io.Writer, servers []string, pattern *regexp.Regexp) error {
	if pattern == nil {
		pattern = ServerLinePattern()
	}

	bw := bufio.NewWriter(dst)
	write := func(s string) error {
		if _, err := bw.WriteString(s); err != nil {
			return &streamError{op: OpWrite, err: err}
		}
		return nil
	}

	if err := write(Heading); err != nil {
		return err
	}
	for _, server := range servers {
		if err := write(FormatServer(server)); err != nil {
			return err
		}
	}

	err := eachLine(src, func(raw string) error {
		if Classify(raw, pattern).Kind != KindOther {
			return nil
		}
		return write(raw)
	})
	if err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return &streamError{op: OpWrite, err: err}
	}
	return nil
}
