// Package ntp checks whether time servers are usable before they are
// written to the installed system's configuration.
package ntp

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/beevik/ntp"

	"grimm.is/instcfg/internal/logging"
	"grimm.is/instcfg/internal/system"
)

const (
	// DefaultTimeout bounds a single server check.
	DefaultTimeout = 5 * time.Second

	// DefaultCommand is the time query program used by CommandChecker.
	DefaultCommand = "rdate"

	CheckerCommand = "rdate"
	CheckerQuery   = "sntp"
)

// Checker reports whether a time server answers.
type Checker interface {
	Check(ctx context.Context, server string) bool
}

// NewChecker returns the checker registered under name. An empty name
// selects the command checker.
func NewChecker(name string, timeout time.Duration) (Checker, error) {
	switch name {
	case "", CheckerCommand:
		return NewCommandChecker(timeout), nil
	case CheckerQuery:
		return NewQueryChecker(timeout), nil
	default:
		return nil, fmt.Errorf("unknown server checker %q (want %s or %s)", name, CheckerCommand, CheckerQuery)
	}
}

// CommandChecker runs an external time query program against the server
// and treats a zero exit status as success.
type CommandChecker struct {
	Command string
	Args    []string // placed before the server name
	Timeout time.Duration

	executor system.CommandExecutor
	logger   *logging.Logger
}

// NewCommandChecker creates a checker running "rdate -p <server>".
func NewCommandChecker(timeout time.Duration) *CommandChecker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &CommandChecker{
		Command:  DefaultCommand,
		Args:     []string{"-p"},
		Timeout:  timeout,
		executor: system.DefaultCommandExecutor,
		logger:   logging.WithComponent("ntp"),
	}
}

// SetExecutor replaces the command executor.
func (c *CommandChecker) SetExecutor(ex system.CommandExecutor) {
	c.executor = ex
}

// Check implements Checker.
func (c *CommandChecker) Check(ctx context.Context, server string) bool {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	args := make([]string, 0, len(c.Args)+1)
	args = append(args, c.Args...)
	args = append(args, server)

	if err := c.executor.Run(ctx, system.Command{Name: c.Command, Args: args}); err != nil {
		c.logger.Debug("Server check failed", "server", server, "error", err)
		return false
	}
	return true
}

// QueryFunc performs an SNTP query. It matches ntp.QueryWithOptions.
type QueryFunc func(host string, opt ntp.QueryOptions) (*ntp.Response, error)

// QueryChecker queries the server in-process and validates the answer.
type QueryChecker struct {
	Timeout time.Duration

	query  QueryFunc
	logger *logging.Logger
}

// NewQueryChecker creates a checker backed by github.com/beevik/ntp.
func NewQueryChecker(timeout time.Duration) *QueryChecker {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &QueryChecker{
		Timeout: timeout,
		query:   ntp.QueryWithOptions,
		logger:  logging.WithComponent("ntp"),
	}
}

// Check implements Checker.
func (q *QueryChecker) Check(ctx context.Context, server string) bool {
	resp, err := q.Query(ctx, server)
	if err != nil {
		q.logger.Debug("Server check failed", "server", server, "error", err)
		return false
	}
	q.logger.Debug("Server answered", "server", server, "stratum", resp.Stratum, "offset", resp.ClockOffset.String())
	return true
}

// Query asks the server for the time and validates the response.
// The server may be "host" or "host:port".
func (q *QueryChecker) Query(ctx context.Context, server string) (*ntp.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := q.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}

	resp, err := q.query(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", server, err)
	}
	if err := resp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid response from %s: %w", server, err)
	}
	return resp, nil
}

// Result is the outcome of checking one server.
type Result struct {
	Server    string
	Reachable bool
}

// CheckAll checks every server concurrently. Results keep the input order.
func CheckAll(ctx context.Context, c Checker, servers []string) []Result {
	results := make([]Result, len(servers))

	var wg sync.WaitGroup
	for i, server := range servers {
		wg.Add(1)
		go func(i int, server string) {
			defer wg.Done()
			results[i] = Result{Server: server, Reachable: c.Check(ctx, server)}
		}(i, server)
	}
	wg.Wait()

	return results
}

// Unreachable returns the servers that failed the check.
func Unreachable(results []Result) []string {
	var down []string
	for _, r := range results {
		if !r.Reachable {
			down = append(down, r.Server)
		}
	}
	return down
}
