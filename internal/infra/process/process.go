// Package process launches the player process and exposes its stdin.
package process

import (
	"io"
	"os/exec"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"
)

// ErrExited is returned when writing to a process that has already exited.
var ErrExited = errors.New("process exited")

// Handle is a single spawned player process.
type Handle interface {
	// ID uniquely identifies this spawn.
	ID() string
	// Write sends raw bytes to the process stdin.
	Write(p []byte) error
	// Done is closed once when the process exits, whatever the reason.
	Done() <-chan struct{}
	// Err returns the wait error after Done is closed.
	Err() error
	// StartedAt returns when the process was spawned.
	StartedAt() time.Time
}

// Launcher spawns player processes.
type Launcher interface {
	Launch(command string, args []string) (Handle, error)
}

// ExecLauncher starts real OS processes.
type ExecLauncher struct{}

// NewExecLauncher creates a launcher backed by os/exec.
func NewExecLauncher() *ExecLauncher {
	return &ExecLauncher{}
}

// Launch starts command with args. Stdin is a pipe, stdout and stderr are discarded.
func (l *ExecLauncher) Launch(command string, args []string) (Handle, error) {
	cmd := exec.Command(command, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, errors.Wrap(err, "failed to open stdin pipe")
	}

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "failed to start %s", command)
	}

	h := &execHandle{
		id:        uuid.New().String(),
		cmd:       cmd,
		stdin:     stdin,
		startedAt: time.Now(),
		done:      make(chan struct{}),
	}
	zlog.Debug().Msgf("process: started: id=%s pid=%d command=%s args=%q", h.id, cmd.Process.Pid, command, args)

	go h.wait()

	return h, nil
}

type execHandle struct {
	id        string
	cmd       *exec.Cmd
	startedAt time.Time

	mu     sync.Mutex
	stdin  io.WriteCloser
	exited bool

	done    chan struct{}
	waitErr error
}

func (h *execHandle) ID() string            { return h.id }
func (h *execHandle) Done() <-chan struct{} { return h.done }
func (h *execHandle) StartedAt() time.Time  { return h.startedAt }

func (h *execHandle) Err() error {
	select {
	case <-h.done:
		return h.waitErr
	default:
		return nil
	}
}

func (h *execHandle) Write(p []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.exited {
		return ErrExited
	}
	if _, err := h.stdin.Write(p); err != nil {
		return errors.Wrapf(err, "failed to write to process %s", h.id)
	}
	return nil
}

func (h *execHandle) wait() {
	err := h.cmd.Wait()

	h.mu.Lock()
	h.exited = true
	h.mu.Unlock()

	// Non-zero exit is how the player reports a quit or a crash; both are just an exit here.
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		zlog.Debug().Msgf("process: exited: id=%s code=%d", h.id, exitErr.ExitCode())
	} else if err != nil {
		zlog.Warn().Err(err).Msgf("process: wait failed: id=%s", h.id)
	} else {
		zlog.Debug().Msgf("process: exited: id=%s code=0", h.id)
	}

	h.waitErr = err
	close(h.done)
}
