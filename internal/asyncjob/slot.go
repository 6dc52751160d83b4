// Package asyncjob runs background jobs with at most one outstanding job per
// slot.
//
// A Slot owns the generation currently of interest and at most one
// unconsumed outcome. Spawning always supersedes: the previous job keeps
// running to completion (there is no cancellation), but its outcome carries
// an older generation and the consumer discards it. Workers never touch
// consumer state; they hand an owned Outcome to the slot and send a
// payload-free signal.
package asyncjob

import (
	"context"
	"fmt"
	"sync"

	"github.com/marcus/gitpane/internal/notify"
)

// Progress is the last reported stage of a running job.
type Progress struct {
	Stage   string
	Percent int
}

func (p Progress) String() string {
	if p.Stage == "" {
		return fmt.Sprintf("%d%%", p.Percent)
	}
	return fmt.Sprintf("%s %d%%", p.Stage, p.Percent)
}

// ProgressFunc reports progress from inside a job body.
type ProgressFunc func(Progress)

// Func is a job body. It receives its input by value and returns a new
// value; it must not retain references into consumer-owned state.
type Func[In, Out any] func(ctx context.Context, in In, report ProgressFunc) (Out, error)

// Outcome is the immutable result of one job generation.
type Outcome[In, Out any] struct {
	Generation uint64
	Input      In
	Value      Out
	Err        error
}

// Notifier is called on the worker goroutine after the slot changed.
// unchanged is true when the outcome was dropped because its fingerprint
// matched the previous one.
type Notifier func(phase notify.Phase, unchanged bool)

// Option configures a Slot.
type Option[In, Out any] func(*Slot[In, Out])

// WithFingerprint drops successful outcomes whose fingerprint equals the
// last stored one and signals them as unchanged instead.
func WithFingerprint[In, Out any](fp func(Out) uint64) Option[In, Out] {
	return func(s *Slot[In, Out]) {
		s.fingerprint = fp
	}
}

// Slot holds at most one in-flight generation and one unconsumed outcome.
type Slot[In, Out any] struct {
	pool   *Pool
	run    Func[In, Out]
	notify Notifier

	fingerprint func(Out) uint64

	mu          sync.Mutex
	gen         uint64
	pending     bool
	progress    Progress
	hasProgress bool
	result      *Outcome[In, Out]
	lastPrint   uint64
	hasPrint    bool
	lease       *Lease
}

// NewSlot creates a slot that runs fn on pool and calls n on every change.
func NewSlot[In, Out any](pool *Pool, fn Func[In, Out], n Notifier, opts ...Option[In, Out]) *Slot[In, Out] {
	s := &Slot[In, Out]{
		pool:   pool,
		run:    fn,
		notify: n,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Spawn starts a new generation with input in. Any unconsumed outcome is
// discarded. Spawn does not block.
//
// The superseded generation keeps running but no longer holds a pool
// worker.
func (s *Slot[In, Out]) Spawn(in In) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.pending = true
	if s.result != nil {
		// The discarded outcome was never seen, so the consumer still shows
		// whatever came before it.
		s.result = nil
		s.hasPrint = false
	}
	s.hasProgress = false
	prev := s.lease
	s.lease = nil
	s.mu.Unlock()

	if prev != nil {
		prev.Release()
	}

	lease := s.pool.Go(func(ctx context.Context) {
		out, err := s.run(ctx, in, s.reporter(gen))
		s.complete(gen, in, out, err)
	})

	s.mu.Lock()
	if gen == s.gen {
		s.lease = lease
	}
	s.mu.Unlock()
}

func (s *Slot[In, Out]) reporter(gen uint64) ProgressFunc {
	return func(p Progress) {
		s.mu.Lock()
		if gen != s.gen || !s.pending {
			s.mu.Unlock()
			return
		}
		changed := !s.hasProgress || s.progress != p
		s.progress = p
		s.hasProgress = true
		s.mu.Unlock()

		if changed && s.notify != nil {
			s.notify(notify.PhaseProgress, false)
		}
	}
}

func (s *Slot[In, Out]) complete(gen uint64, in In, out Out, err error) {
	s.mu.Lock()
	current := gen == s.gen
	if current {
		s.pending = false
		s.hasProgress = false
	}

	unchanged := false
	if current && err == nil && s.fingerprint != nil {
		fp := s.fingerprint(out)
		if s.hasPrint && fp == s.lastPrint {
			unchanged = true
		} else {
			s.lastPrint = fp
			s.hasPrint = true
		}
	}

	// A superseded generation may still fill the cell, but never over an
	// outcome from a newer generation.
	if !unchanged && (s.result == nil || s.result.Generation <= gen) {
		s.result = &Outcome[In, Out]{
			Generation: gen,
			Input:      in,
			Value:      out,
			Err:        err,
		}
	}
	s.mu.Unlock()

	if s.notify != nil {
		s.notify(notify.PhaseDone, unchanged)
	}
}

// TakeResult removes and returns the unconsumed outcome. A second call
// without an intervening completion returns false.
func (s *Slot[In, Out]) TakeResult() (Outcome[In, Out], bool) {
	s.mu.Lock()
	r := s.result
	s.result = nil
	s.mu.Unlock()

	if r == nil {
		var zero Outcome[In, Out]
		return zero, false
	}
	return *r, true
}

// Progress returns the last progress of the current generation.
func (s *Slot[In, Out]) Progress() (Progress, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.pending || !s.hasProgress {
		return Progress{}, false
	}
	return s.progress, true
}

// IsPending reports whether the current generation is still running.
func (s *Slot[In, Out]) IsPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// Generation returns the generation of the most recent Spawn.
func (s *Slot[In, Out]) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// IsCurrent reports whether o belongs to the most recent Spawn. It is the
// generation half of a freshness check; callers also compare the subject o
// describes against what is currently of interest.
func (s *Slot[In, Out]) IsCurrent(o Outcome[In, Out]) bool {
	return o.Generation == s.Generation()
}

// InvalidateFingerprint forgets the last fingerprint so the next successful
// outcome is always stored, e.g. after the consumer cleared its view.
func (s *Slot[In, Out]) InvalidateFingerprint() {
	s.mu.Lock()
	s.hasPrint = false
	s.mu.Unlock()
}
