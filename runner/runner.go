// Package runner launches the agent CLI as a subprocess and streams its
// stream-json output into loom events.
package runner

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/avisram/loom"
	"github.com/avisram/loom/claude"
)

const (
	// maxLineBytes caps a single stream-json line. Tool results embedding
	// large file contents can get big.
	maxLineBytes = 4 * 1024 * 1024

	stderrTailLines = 40
	stderrTailBytes = 8 * 1024
)

// Runner executes agent turns by spawning the agent CLI in print mode and
// decoding its stream-json stdout. The CLI session id is captured from the
// stream so follow-up prompts resume the same conversation.
type Runner struct {
	bin       string
	dir       string
	extraArgs []string

	mu      sync.Mutex
	running bool
	session string
}

// Option configures a Runner.
type Option func(*Runner)

// WithDir sets the working directory for the agent process.
func WithDir(dir string) Option {
	return func(r *Runner) {
		r.dir = dir
	}
}

// WithArgs appends extra arguments to every agent invocation.
func WithArgs(args ...string) Option {
	return func(r *Runner) {
		r.extraArgs = args
	}
}

// New creates a Runner for the given agent binary.
func New(bin string, opts ...Option) *Runner {
	r := &Runner{bin: bin}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Running reports whether a turn is currently in flight.
func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}

// SessionID returns the CLI session id captured from the stream, if any.
func (r *Runner) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.session
}

// Run executes one agent turn: it spawns the CLI with the prompt, decodes
// each stdout line, and calls onEvent for every decoded event in order.
// Malformed lines are skipped; unknown event kinds decode to nothing. Run
// blocks until the process exits or ctx is cancelled. Only one turn may be
// in flight per Runner.
func (r *Runner) Run(ctx context.Context, prompt string, onEvent func(loom.Event)) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return loom.ErrAlreadyRunning
	}
	r.running = true
	session := r.session
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		r.running = false
		r.mu.Unlock()
	}()

	args := []string{"-p", prompt, "--output-format", "stream-json", "--verbose"}
	if session != "" {
		args = append(args, "--resume", session)
	}
	args = append(args, r.extraArgs...)

	cmd := exec.CommandContext(ctx, r.bin, args...)
	cmd.Dir = r.dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start agent: %w", err)
	}

	var stderrTail string
	var g errgroup.Group
	g.Go(func() error {
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
		for scanner.Scan() {
			data := scanner.Bytes()
			if id := claude.SessionID(data); id != "" {
				r.setSession(id)
			}
			events, err := claude.Decode(data)
			if err != nil {
				continue
			}
			for _, ev := range events {
				onEvent(ev)
			}
		}
		return scanner.Err()
	})
	g.Go(func() error {
		data, err := io.ReadAll(stderr)
		stderrTail = tailTruncate(string(data), stderrTailLines, stderrTailBytes)
		return err
	})

	readErr := g.Wait()
	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if stderrTail != "" {
			return fmt.Errorf("agent: %w: %s", err, stderrTail)
		}
		return fmt.Errorf("agent: %w", err)
	}
	if readErr != nil && !errors.Is(readErr, io.ErrClosedPipe) {
		return fmt.Errorf("read agent output: %w", readErr)
	}
	return nil
}

func (r *Runner) setSession(id string) {
	r.mu.Lock()
	r.session = id
	r.mu.Unlock()
}
