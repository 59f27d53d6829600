package pipeline

import (
	"slices"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
)

// Listener is notified when tasks start and finish.
type Listener interface {
	TaskStarted(id domain.TaskIdentity)
	TaskFinished(res domain.Result)
}

// ListenerFuncs adapts functions to a Listener. Nil functions are ignored.
type ListenerFuncs struct {
	OnStart  func(id domain.TaskIdentity)
	OnFinish func(res domain.Result)
}

// TaskStarted implements Listener.
func (f ListenerFuncs) TaskStarted(id domain.TaskIdentity) {
	if f.OnStart != nil {
		f.OnStart(id)
	}
}

// TaskFinished implements Listener.
func (f ListenerFuncs) TaskFinished(res domain.Result) {
	if f.OnFinish != nil {
		f.OnFinish(res)
	}
}

type registration struct {
	id       uint64
	listener Listener
}

// Listeners is a registry of task listeners.
// Notifications iterate over a snapshot taken before the first listener is called, so
// listeners may register or unregister listeners while being notified.
type Listeners struct {
	mu      sync.Mutex
	nextID  uint64
	version uint64
	entries []registration
}

// NewListeners creates an empty registry.
func NewListeners() *Listeners {
	return &Listeners{}
}

// Register adds a listener and returns a function removing it again.
func (l *Listeners) Register(listener Listener) (unregister func()) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, registration{id: id, listener: listener})
	l.version++

	var once sync.Once
	return func() {
		once.Do(func() { l.remove(id) })
	}
}

func (l *Listeners) remove(id uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = slices.DeleteFunc(l.entries, func(r registration) bool { return r.id == id })
	l.version++
}

// Version increases with every registration change.
func (l *Listeners) Version() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.version
}

func (l *Listeners) snapshot() []Listener {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Listener, len(l.entries))
	for i, r := range l.entries {
		out[i] = r.listener
	}
	return out
}

// TaskStarted notifies every registered listener.
func (l *Listeners) TaskStarted(id domain.TaskIdentity) {
	for _, listener := range l.snapshot() {
		listener.TaskStarted(id)
	}
}

// TaskFinished notifies every registered listener.
func (l *Listeners) TaskFinished(res domain.Result) {
	for _, listener := range l.snapshot() {
		listener.TaskFinished(res)
	}
}
