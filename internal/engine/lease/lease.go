// Package lease bounds concurrent task execution and serializes access to shared resources.
package lease

import (
	"context"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

// Service hands out worker leases from a bounded pool.
// Nested builds share the pool of their parent build.
type Service struct {
	max     int
	pool    *semaphore.Weighted
	active  atomic.Int64
	peak    atomic.Int64
	metrics ports.Metrics

	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

// NewService creates a Service allowing maxWorkers concurrent leases.
// A non-positive maxWorkers uses GOMAXPROCS. metrics may be nil.
func NewService(maxWorkers int, metrics ports.Metrics) *Service {
	if maxWorkers <= 0 {
		maxWorkers = runtime.GOMAXPROCS(0)
	}
	return &Service{
		max:     maxWorkers,
		pool:    semaphore.NewWeighted(int64(maxWorkers)),
		metrics: metrics,
		locks:   make(map[string]*semaphore.Weighted),
	}
}

// Lease is a permit to execute one task. It is not reentrant.
type Lease struct {
	svc *Service

	mu       sync.Mutex
	held     bool
	finished bool
}

// StartWorker blocks until a lease is available or ctx is done.
func (s *Service) StartWorker(ctx context.Context) (*Lease, error) {
	if err := s.pool.Acquire(ctx, 1); err != nil {
		return nil, zerr.Wrap(err, domain.ErrLeaseUnavailable.Error())
	}
	s.acquired()
	return &Lease{svc: s, held: true}, nil
}

// Finish releases the lease. Calls after the first are no-ops.
func (l *Lease) Finish() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.finished {
		return
	}
	l.finished = true
	if l.held {
		l.held = false
		l.svc.released()
	}
}

// suspend gives the permit back without finishing the lease.
func (l *Lease) suspend() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.finished || !l.held {
		return false
	}
	l.held = false
	l.svc.released()
	return true
}

// resume takes a permit again for a suspended lease.
func (l *Lease) resume(ctx context.Context) error {
	if err := l.svc.pool.Acquire(ctx, 1); err != nil {
		return zerr.Wrap(err, domain.ErrLeaseUnavailable.Error())
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.finished {
		l.svc.pool.Release(1)
		return nil
	}
	l.held = true
	l.svc.acquired()
	return nil
}

func (s *Service) acquired() {
	n := s.active.Add(1)
	for {
		peak := s.peak.Load()
		if n <= peak || s.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	if s.metrics != nil {
		s.metrics.LeasesActive(int(n))
	}
}

func (s *Service) released() {
	n := s.active.Add(-1)
	s.pool.Release(1)
	if s.metrics != nil {
		s.metrics.LeasesActive(int(n))
	}
}

// Blocking runs fn without holding the lease carried by ctx, so that work fn waits on
// can take the permit. The lease is reacquired before Blocking returns, even when ctx
// is cancelled, because the caller still owns it.
func (s *Service) Blocking(ctx context.Context, fn func(context.Context) error) error {
	l := FromContext(ctx)
	if l == nil || l.svc != s || !l.suspend() {
		return fn(ctx)
	}
	err := fn(ctx)
	if rerr := l.resume(context.WithoutCancel(ctx)); rerr != nil {
		return rerr
	}
	return err
}

// LockResources acquires the named resource locks in sorted order and returns a function
// releasing them. Sorted acquisition keeps two tasks sharing resources from deadlocking.
func (s *Service) LockResources(ctx context.Context, names []string) (func(), error) {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	held := make([]*semaphore.Weighted, 0, len(sorted))
	release := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Release(1)
		}
	}

	for _, name := range sorted {
		lock := s.lockFor(name)
		if err := lock.Acquire(ctx, 1); err != nil {
			release()
			return nil, zerr.With(zerr.Wrap(err, domain.ErrResourceLockFailed.Error()), "resource", name)
		}
		held = append(held, lock)
	}

	var once sync.Once
	return func() { once.Do(release) }, nil
}

func (s *Service) lockFor(name string) *semaphore.Weighted {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[name]
	if !ok {
		lock = semaphore.NewWeighted(1)
		s.locks[name] = lock
	}
	return lock
}

// Active returns the number of leases currently held.
func (s *Service) Active() int {
	return int(s.active.Load())
}

// Peak returns the highest number of leases held at once.
func (s *Service) Peak() int {
	return int(s.peak.Load())
}

// Max returns the lease bound.
func (s *Service) Max() int {
	return s.max
}

type leaseKey struct{}

// WithLease returns a context carrying the lease.
func WithLease(ctx context.Context, l *Lease) context.Context {
	return context.WithValue(ctx, leaseKey{}, l)
}

// FromContext returns the lease carried by ctx, or nil.
func FromContext(ctx context.Context) *Lease {
	l, _ := ctx.Value(leaseKey{}).(*Lease)
	return l
}
