package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultWorkerTimeout  = 30 * time.Second
	DefaultMaxOutputBytes = 10 * 1024 * 1024
)

// Invocation is a worker-ready call: a preamble (imports, user script, data
// loading) followed by a single expression whose value is the result.
type Invocation struct {
	// Tag is a caller-unique component (call or job id) used in temp file names
	Tag        string `json:"tag"`
	Language   string `json:"language"`
	Preamble   string `json:"preamble"`
	Expression string `json:"expression"`
}

// Script returns the invocation as plain script text
func (inv Invocation) Script() string {
	if inv.Preamble == "" {
		return inv.Expression
	}
	return inv.Preamble + "\n" + inv.Expression
}

// Limits bound a single worker execution
type Limits struct {
	Timeout     time.Duration
	MemoryBytes int64
}

// WorkerOutput is the raw result of a worker run: the JSON payload found
// between the result markers plus everything else the process printed.
type WorkerOutput struct {
	Payload []byte   `json:"payload"`
	Logs    []string `json:"logs"`
	Stderr  string   `json:"stderr"`
}

// Worker executes one invocation and returns its raw output. Implementations
// keep no state across calls.
type Worker interface {
	Execute(ctx context.Context, inv Invocation, limits Limits) (*WorkerOutput, error)
}

// ScriptMode selects how the script reaches the interpreter
type ScriptMode string

const (
	ScriptFile   ScriptMode = "file"
	ScriptInline ScriptMode = "inline"
)

// Runtime describes how to start one language interpreter
type Runtime struct {
	Name               string
	Binary             string
	Args               []string
	ScriptMode         ScriptMode
	InlineFlag         string
	Extension          string
	EnforceMemoryLimit bool
	Env                []string
}

// ProcessWorkerOptions configures a ProcessWorker
type ProcessWorkerOptions struct {
	TempDir        string
	DefaultTimeout time.Duration
	MaxOutputBytes int
	Logger         *logrus.Entry
}

// ProcessWorker runs each invocation in a fresh interpreter process
type ProcessWorker struct {
	runtime        Runtime
	dialect        Dialect
	tempDir        string
	defaultTimeout time.Duration
	maxOutput      int
	logger         *logrus.Entry
}

func NewProcessWorker(rt Runtime, dialect Dialect, opts ProcessWorkerOptions) *ProcessWorker {
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.DefaultTimeout <= 0 {
		opts.DefaultTimeout = DefaultWorkerTimeout
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if opts.Logger == nil {
		opts.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	if rt.ScriptMode == "" {
		rt.ScriptMode = ScriptFile
	}
	return &ProcessWorker{
		runtime:        rt,
		dialect:        dialect,
		tempDir:        opts.TempDir,
		defaultTimeout: opts.DefaultTimeout,
		maxOutput:      opts.MaxOutputBytes,
		logger:         opts.Logger.WithField("runtime", rt.Name),
	}
}

// Execute writes the wrapped script, runs the interpreter and extracts the
// marker-delimited payload. The temp script is removed on every path.
func (w *ProcessWorker) Execute(ctx context.Context, inv Invocation, limits Limits) (*WorkerOutput, error) {
	timeout := limits.Timeout
	if timeout <= 0 {
		timeout = w.defaultTimeout
	}

	script := w.dialect.Wrap(inv.Preamble, inv.Expression, markerStart, markerEnd)

	args := append([]string{}, w.runtime.Args...)
	if w.runtime.ScriptMode == ScriptInline {
		args = append(args, w.runtime.InlineFlag, script)
	} else {
		path, err := w.writeScript(inv.Tag, script)
		if err != nil {
			return nil, &Error{Kind: KindInternal, Message: "failed to write worker script", Err: err}
		}
		defer func() {
			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				w.logger.WithError(err).Warn("failed to remove worker script")
			}
		}()
		args = append(args, path)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, w.runtime.Binary, args...)
	cmd.Dir = w.tempDir
	cmd.Env = append(os.Environ(), w.runtime.Env...)

	stdout := newCappedBuffer(w.maxOutput)
	stderr := newCappedBuffer(w.maxOutput)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	configureProcess(cmd)

	started := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &Error{Kind: KindWorkerCrashed, Message: fmt.Sprintf("failed to start %s", w.runtime.Binary), Err: err}
	}
	if limits.MemoryBytes > 0 && w.runtime.EnforceMemoryLimit {
		if err := limitMemory(cmd.Process.Pid, limits.MemoryBytes); err != nil {
			w.logger.WithError(err).Debug("memory limit not applied")
		}
	}

	waitErr := cmd.Wait()
	elapsed := time.Since(started)

	// A timed-out worker fails before any of its output is consulted
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		w.logger.WithFields(logrus.Fields{"tag": inv.Tag, "timeout": timeout}).Warn("worker timed out")
		return nil, &Error{Kind: KindWorkerTimeout, Message: fmt.Sprintf("worker timed out after %v", timeout)}
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, &Error{Kind: KindInternal, Message: "worker execution cancelled", Err: ctxErr}
	}

	if waitErr != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		msg := strings.TrimSpace(tail(stderr.String(), maxDiagnosticOutput))
		if msg == "" {
			msg = waitErr.Error()
		}
		w.logger.WithFields(logrus.Fields{"tag": inv.Tag, "exit_code": exitCode}).Warn("worker crashed")
		return nil, &Error{
			Kind:    KindWorkerCrashed,
			Message: fmt.Sprintf("worker exited with code %d: %s", exitCode, msg),
			Output:  tail(stdout.String(), maxDiagnosticOutput),
		}
	}

	if stdout.Truncated() {
		w.logger.WithFields(logrus.Fields{"tag": inv.Tag, "limit": w.maxOutput}).Warn("worker stdout truncated")
	}

	payload, logs, err := extractPayload(stdout.String())
	if err != nil {
		return nil, err
	}

	w.logger.WithFields(logrus.Fields{"tag": inv.Tag, "duration_ms": elapsed.Milliseconds()}).Debug("worker finished")
	return &WorkerOutput{
		Payload: payload,
		Logs:    logs,
		Stderr:  stderr.String(),
	}, nil
}

func (w *ProcessWorker) writeScript(tag, script string) (string, error) {
	pattern := fmt.Sprintf("bert-%s-%s-%d-*%s", safeName(w.runtime.Name), safeName(tag), time.Now().UnixNano(), w.runtime.Extension)
	f, err := os.CreateTemp(w.tempDir, pattern)
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(script); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func safeName(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// cappedBuffer accumulates process output up to a limit and drops the rest
type cappedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func newCappedBuffer(limit int) *cappedBuffer {
	return &cappedBuffer{limit: limit}
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	remaining := b.limit - b.buf.Len()
	if remaining <= 0 {
		b.truncated = true
		return len(p), nil
	}
	if len(p) > remaining {
		b.buf.Write(p[:remaining])
		b.truncated = true
		return len(p), nil
	}
	b.buf.Write(p)
	return len(p), nil
}

func (b *cappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *cappedBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.truncated
}
