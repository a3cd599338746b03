package brain

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/foyerlabs/foyer-core/internal/infrastructure/config"
)

// Result is the summary a brain run reports on stdout as JSON.
// A run that prints no JSON yields the zero Result.
type Result struct {
	Total     int `json:"total"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Logger is the narrow logging interface the executor uses.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger discards all log output. Used when no logger is provided.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Executor runs a remote automation engine over SSH.
//
// The hub calls the brain rarely (one call per delegated mode
// activation), so each call dials a fresh connection with a bounded
// timeout rather than keeping a session open. Auth is public-key only;
// nothing here can answer an interactive prompt.
type Executor struct {
	cfg    config.BrainConfig
	logger Logger
}

// New creates a brain executor from configuration.
func New(cfg config.BrainConfig, logger Logger) *Executor {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Executor{cfg: cfg, logger: logger}
}

// Execute runs the remote execute script with the mode name as its
// argument and parses the optional JSON summary from stdout.
//
// A non-zero exit status or context expiry is an error; the caller
// falls back to the direct per-action path.
func (e *Executor) Execute(ctx context.Context, modeName string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.GetTimeout())
	defer cancel()

	output, err := e.run(ctx, e.cfg.ExecuteScript+" "+shellQuote(modeName))
	if err != nil {
		return nil, fmt.Errorf("brain execute: %w", err)
	}

	result := parseResult(output)
	e.logger.Debug("brain execution finished",
		"mode", modeName, "total", result.Total, "failed", result.Failed)
	return result, nil
}

// Available probes the brain with a cheap echo over a fresh connection.
func (e *Executor) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.GetTimeout())
	defer cancel()

	output, err := e.run(ctx, "echo ok")
	if err != nil {
		e.logger.Debug("brain unavailable", "error", err)
		return false
	}
	return strings.TrimSpace(string(output)) == "ok"
}

// run dials, executes one command, and returns its stdout.
// The connection is closed when the command finishes or ctx expires,
// whichever comes first.
func (e *Executor) run(ctx context.Context, command string) ([]byte, error) {
	clientConfig, err := e.clientConfig()
	if err != nil {
		return nil, err
	}

	addr := net.JoinHostPort(e.cfg.Host, strconv.Itoa(e.cfg.Port))
	client, err := ssh.Dial("tcp", addr, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("dialing %s: %w", addr, err)
	}
	defer client.Close()

	// ssh sessions don't take a context; closing the client unblocks
	// the command when the deadline fires.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			client.Close()
		case <-done:
		}
	}()
	defer close(done)

	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}
	defer session.Close()

	output, err := session.Output(command)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("command interrupted: %w", ctx.Err())
		}
		return nil, fmt.Errorf("running command: %w", err)
	}
	return output, nil
}

// clientConfig builds the SSH client configuration: public-key auth
// only, bounded dial timeout.
func (e *Executor) clientConfig() (*ssh.ClientConfig, error) {
	key, err := os.ReadFile(e.cfg.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	return &ssh.ClientConfig{
		User: e.cfg.User,
		Auth: []ssh.AuthMethod{ssh.PublicKeys(signer)},
		// Hub and brain share a trusted LAN segment.
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec
		Timeout:         e.cfg.GetTimeout(),
	}, nil
}

// parseResult extracts the JSON summary from script output.
// The script may print log lines before the summary; the last line
// that parses as a summary object wins. No summary yields the zero
// Result.
func parseResult(output []byte) *Result {
	var result Result
	for _, line := range bytes.Split(output, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 || line[0] != '{' {
			continue
		}
		var candidate Result
		if err := json.Unmarshal(line, &candidate); err == nil {
			result = candidate
		}
	}
	return &result
}

// shellQuote wraps an argument in single quotes for the remote shell.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
