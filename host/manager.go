// Package host runs several guest processes side by side, one goroutine
// each, and lets the caller list, abort and wait for them.
package host

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/alirzasahb/PumpkinOS/log"
	"github.com/google/uuid"
)

// Runnable is a process the manager can drive.
type Runnable[R any] interface {
	Run(ctx context.Context) (R, error)
	Abort()
	Close() error
}

// Outcome is what a finished process left behind.
type Outcome[R any] struct {
	ID      string
	Label   string
	Result  R
	Err     error
	Elapsed time.Duration
}

// Info describes a running process.
type Info struct {
	ID        string
	Label     string
	StartTime time.Time
}

type worker[R any] struct {
	Info
	proc   Runnable[R]
	cancel context.CancelFunc
	done   chan struct{}
	out    Outcome[R]
}

// Manager tracks running processes by id.
type Manager[R any] struct {
	mu       sync.Mutex
	workers  map[string]*worker[R] // key: ID
	finished map[string]*worker[R]
}

func NewManager[R any]() *Manager[R] {
	return &Manager[R]{
		workers:  make(map[string]*worker[R]),
		finished: make(map[string]*worker[R]),
	}
}

// Start runs proc on its own goroutine and returns its id. The process is
// closed when Run returns; a panic in Run is reported as its error.
func (m *Manager[R]) Start(ctx context.Context, label string, proc Runnable[R]) string {
	id := uuid.New().String()
	ctx, cancel := context.WithCancel(ctx)
	w := &worker[R]{
		Info:   Info{ID: id, Label: label, StartTime: time.Now()},
		proc:   proc,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	m.mu.Lock()
	m.workers[id] = w
	m.mu.Unlock()
	log.Info(log.HostMonitoring, "process started", "id", id, "label", label)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				w.out.Err = fmt.Errorf("process %s panicked: %v", label, r)
				log.Error(log.HostMonitoring, "process panicked", "id", id, "label", label, "panic", r)
			}
			if err := proc.Close(); err != nil && w.out.Err == nil {
				w.out.Err = err
			}
			cancel()
			w.out.Elapsed = time.Since(w.StartTime)
			m.mu.Lock()
			delete(m.workers, id)
			m.finished[id] = w
			m.mu.Unlock()
			close(w.done)
			log.Info(log.HostMonitoring, "process finished", "id", id, "label", label,
				"elapsed", w.out.Elapsed.Round(time.Millisecond), "err", w.out.Err)
		}()
		w.out = Outcome[R]{ID: id, Label: label}
		w.out.Result, w.out.Err = proc.Run(ctx)
	}()

	return id
}

// List returns the running processes, oldest first.
func (m *Manager[R]) List() []Info {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Info, 0, len(m.workers))
	for _, w := range m.workers {
		out = append(out, w.Info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out
}

func (m *Manager[R]) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.workers)
}

// Abort asks a running process to stop at its next slice boundary. It
// reports whether id was running.
func (m *Manager[R]) Abort(id string) bool {
	m.mu.Lock()
	w, ok := m.workers[id]
	m.mu.Unlock()
	if !ok {
		return false
	}
	log.Info(log.HostMonitoring, "aborting process", "id", id, "label", w.Label)
	w.proc.Abort()
	w.cancel()
	return true
}

// AbortAll aborts every running process.
func (m *Manager[R]) AbortAll() {
	for _, info := range m.List() {
		m.Abort(info.ID)
	}
}

// Wait blocks until id finishes and returns its outcome. The second result
// is false for an unknown id.
func (m *Manager[R]) Wait(id string) (Outcome[R], bool) {
	m.mu.Lock()
	w, ok := m.workers[id]
	if !ok {
		w, ok = m.finished[id]
	}
	m.mu.Unlock()
	if !ok {
		return Outcome[R]{}, false
	}
	<-w.done
	return w.out, true
}

// WaitAll waits for every process started so far and returns their
// outcomes in start order.
func (m *Manager[R]) WaitAll() []Outcome[R] {
	m.mu.Lock()
	all := make([]*worker[R], 0, len(m.workers)+len(m.finished))
	for _, w := range m.workers {
		all = append(all, w)
	}
	for _, w := range m.finished {
		all = append(all, w)
	}
	m.mu.Unlock()
	sort.Slice(all, func(i, j int) bool { return all[i].StartTime.Before(all[j].StartTime) })

	out := make([]Outcome[R], 0, len(all))
	for _, w := range all {
		<-w.done
		out = append(out, w.out)
	}
	return out
}
