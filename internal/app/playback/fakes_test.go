package playback

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/omxbox/internal/infra/process"
)

type fakeHandle struct {
	id        string
	startedAt time.Time

	mu        sync.Mutex
	writes    []string
	failWrite bool
	done      chan struct{}
	once      sync.Once
	exitErr   error
}

func (h *fakeHandle) ID() string            { return h.id }
func (h *fakeHandle) Done() <-chan struct{} { return h.done }
func (h *fakeHandle) StartedAt() time.Time  { return h.startedAt }

func (h *fakeHandle) Write(p []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failWrite {
		return errors.New("broken pipe")
	}
	h.writes = append(h.writes, string(p))
	return nil
}

func (h *fakeHandle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.exitErr
}

// Exit simulates the process terminating cleanly.
func (h *fakeHandle) Exit() {
	h.ExitWith(nil)
}

// ExitWith simulates the process terminating with err.
func (h *fakeHandle) ExitWith(err error) {
	h.once.Do(func() {
		h.mu.Lock()
		h.exitErr = err
		h.mu.Unlock()
		close(h.done)
	})
}

func (h *fakeHandle) Writes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.writes...)
}

type launch struct {
	command string
	args    []string
	handle  *fakeHandle
}

type fakeLauncher struct {
	mu        sync.Mutex
	launches  []launch
	failAfter int  // fail every launch once this many succeeded (0 = never)
	failAll   bool // fail every launch
	startedAt time.Time
	failWrite bool
}

func (l *fakeLauncher) Launch(command string, args []string) (process.Handle, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.failAll || (l.failAfter > 0 && len(l.launches) >= l.failAfter) {
		return nil, errors.New("exec: not found")
	}

	startedAt := l.startedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	h := &fakeHandle{
		id:        handleID(len(l.launches)),
		startedAt: startedAt,
		failWrite: l.failWrite,
		done:      make(chan struct{}),
	}
	l.launches = append(l.launches, launch{
		command: command,
		args:    append([]string(nil), args...),
		handle:  h,
	})
	return h, nil
}

func (l *fakeLauncher) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.launches)
}

func (l *fakeLauncher) At(i int) launch {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches[i]
}

func (l *fakeLauncher) Last() launch {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.launches[len(l.launches)-1]
}

type fakeResolver struct {
	missing map[string]bool
	err     error
	calls   int
}

func (r *fakeResolver) Resolve(_ context.Context, videos []string) ([]string, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	out := make([]string, 0, len(videos))
	for _, v := range videos {
		if r.missing[v] {
			continue
		}
		out = append(out, "/videos/"+v)
	}
	return out, nil
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.events))
	for i, e := range r.events {
		types[i] = e.Type.String()
	}
	return types
}

func (r *recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func handleID(n int) string {
	return "handle-" + strconv.Itoa(n)
}
