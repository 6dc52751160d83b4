package asyncjob

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/marcus/gitpane/internal/notify"
)

type signal struct {
	phase     notify.Phase
	unchanged bool
}

// gatedJob blocks each input until its gate is released.
type gatedJob struct {
	mu    sync.Mutex
	gates map[string]chan struct{}
}

func newGatedJob() *gatedJob {
	return &gatedJob{gates: make(map[string]chan struct{})}
}

func (g *gatedJob) gate(in string) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[in]
	if !ok {
		ch = make(chan struct{})
		g.gates[in] = ch
	}
	return ch
}

func (g *gatedJob) release(in string) { close(g.gate(in)) }

func (g *gatedJob) run(_ context.Context, in string, _ ProgressFunc) (string, error) {
	<-g.gate(in)
	return "out-" + in, nil
}

func newTestSlot(t *testing.T, fn Func[string, string], opts ...Option[string, string]) (*Slot[string, string], chan signal) {
	t.Helper()
	pool := NewPool(4, nil)
	t.Cleanup(func() {
		pool.Close()
	})
	signals := make(chan signal, 16)
	s := NewSlot(pool, fn, func(p notify.Phase, unchanged bool) {
		signals <- signal{phase: p, unchanged: unchanged}
	}, opts...)
	return s, signals
}

func waitDone(t *testing.T, signals <-chan signal) signal {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case s := <-signals:
			if s.phase == notify.PhaseDone {
				return s
			}
		case <-deadline:
			t.Fatal("timed out waiting for completion signal")
		}
	}
}

func TestSlot_SupersededOutcomeNeverOverwritesNewer(t *testing.T) {
	job := newGatedJob()
	s, signals := newTestSlot(t, job.run)

	s.Spawn("a")
	s.Spawn("b")

	job.release("b")
	waitDone(t, signals)
	job.release("a")
	waitDone(t, signals)

	out, ok := s.TakeResult()
	if !ok {
		t.Fatal("expected an outcome")
	}
	if out.Input != "b" || out.Value != "out-b" {
		t.Errorf("got outcome for %q (%q), want b", out.Input, out.Value)
	}
	if !s.IsCurrent(out) {
		t.Error("outcome for b should be current")
	}
}

func TestSlot_LateStaleOutcomeFailsFreshness(t *testing.T) {
	job := newGatedJob()
	s, signals := newTestSlot(t, job.run)

	s.Spawn("a")
	s.Spawn("b")

	job.release("b")
	waitDone(t, signals)
	if out, ok := s.TakeResult(); !ok || out.Input != "b" {
		t.Fatalf("first take = %+v, %v; want b", out, ok)
	}

	// a finishes after b was consumed: it may be written but is stale.
	job.release("a")
	waitDone(t, signals)

	out, ok := s.TakeResult()
	if !ok {
		t.Fatal("stale outcome should still be written")
	}
	if out.Input != "a" {
		t.Fatalf("got %q, want a", out.Input)
	}
	if s.IsCurrent(out) {
		t.Error("outcome for a must not be current after b was spawned")
	}
}

func TestSlot_TakeResultIsOneShot(t *testing.T) {
	job := newGatedJob()
	s, signals := newTestSlot(t, job.run)

	s.Spawn("x")
	job.release("x")
	waitDone(t, signals)

	if _, ok := s.TakeResult(); !ok {
		t.Fatal("first take should return the outcome")
	}
	if _, ok := s.TakeResult(); ok {
		t.Error("second take should return nothing")
	}
}

func TestSlot_SpawnDiscardsUnconsumedOutcome(t *testing.T) {
	job := newGatedJob()
	s, signals := newTestSlot(t, job.run)

	s.Spawn("a")
	job.release("a")
	waitDone(t, signals)

	s.Spawn("b")
	if _, ok := s.TakeResult(); ok {
		t.Error("spawn should discard the unconsumed outcome")
	}
	job.release("b")
	waitDone(t, signals)
}

func TestSlot_IsPendingTracksCurrentGeneration(t *testing.T) {
	job := newGatedJob()
	s, signals := newTestSlot(t, job.run)

	if s.IsPending() {
		t.Fatal("idle slot should not be pending")
	}

	s.Spawn("a")
	s.Spawn("b")
	if !s.IsPending() {
		t.Fatal("slot should be pending after spawn")
	}

	job.release("a")
	waitDone(t, signals)
	if !s.IsPending() {
		t.Error("stale completion must not clear pending")
	}

	job.release("b")
	waitDone(t, signals)
	if s.IsPending() {
		t.Error("current completion should clear pending")
	}
}

func TestSlot_Progress(t *testing.T) {
	release := make(chan struct{})
	reported := make(chan struct{})
	fn := func(_ context.Context, in string, report ProgressFunc) (string, error) {
		report(Progress{Stage: "Receiving objects", Percent: 40})
		close(reported)
		<-release
		return in, nil
	}
	s, signals := newTestSlot(t, fn)

	if _, ok := s.Progress(); ok {
		t.Fatal("idle slot should have no progress")
	}

	s.Spawn("fetch")
	<-reported

	p, ok := s.Progress()
	if !ok {
		t.Fatal("expected progress")
	}
	if p.Percent != 40 || p.Stage != "Receiving objects" {
		t.Errorf("progress = %+v", p)
	}
	if got := p.String(); got != "Receiving objects 40%" {
		t.Errorf("String() = %q", got)
	}

	close(release)
	waitDone(t, signals)
	if _, ok := s.Progress(); ok {
		t.Error("progress should clear after completion")
	}
}

func TestSlot_ErrorBecomesOutcome(t *testing.T) {
	boom := errors.New("unreadable file")
	fn := func(_ context.Context, _ string, _ ProgressFunc) (string, error) {
		return "", boom
	}
	s, signals := newTestSlot(t, fn)

	s.Spawn("x")
	waitDone(t, signals)

	out, ok := s.TakeResult()
	if !ok {
		t.Fatal("expected outcome")
	}
	if !errors.Is(out.Err, boom) {
		t.Errorf("Err = %v, want %v", out.Err, boom)
	}
	if s.IsPending() {
		t.Error("failed job should not stay pending")
	}
}

func TestSlot_FingerprintUnchanged(t *testing.T) {
	fn := func(_ context.Context, in string, _ ProgressFunc) (string, error) {
		return "same", nil
	}
	fp := func(v string) uint64 { return uint64(len(v)) }
	s, signals := newTestSlot(t, fn, WithFingerprint[string, string](fp))

	s.Spawn("1")
	if sig := waitDone(t, signals); sig.unchanged {
		t.Fatal("first outcome should not be unchanged")
	}
	if _, ok := s.TakeResult(); !ok {
		t.Fatal("first outcome should be stored")
	}

	s.Spawn("2")
	if sig := waitDone(t, signals); !sig.unchanged {
		t.Error("identical outcome should be signalled unchanged")
	}
	if _, ok := s.TakeResult(); ok {
		t.Error("unchanged outcome should not be stored")
	}
	if s.IsPending() {
		t.Error("unchanged completion should clear pending")
	}

	s.InvalidateFingerprint()
	s.Spawn("3")
	if sig := waitDone(t, signals); sig.unchanged {
		t.Error("outcome after invalidation should be stored")
	}
}

func TestSlot_FingerprintForgetsDiscardedOutcome(t *testing.T) {
	var mu sync.Mutex
	value := "A"
	fn := func(_ context.Context, _ string, _ ProgressFunc) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		return value, nil
	}
	fp := func(v string) uint64 { return uint64(v[0]) }
	s, signals := newTestSlot(t, fn, WithFingerprint[string, string](fp))

	s.Spawn("1")
	waitDone(t, signals)
	if out, ok := s.TakeResult(); !ok || out.Value != "A" {
		t.Fatalf("first outcome = %+v, %v", out, ok)
	}

	mu.Lock()
	value = "B"
	mu.Unlock()

	// B is stored but replaced by a new spawn before anyone takes it.
	s.Spawn("2")
	waitDone(t, signals)
	s.Spawn("3")

	if sig := waitDone(t, signals); sig.unchanged {
		t.Fatal("B was never delivered, so it must not be signalled unchanged")
	}
	out, ok := s.TakeResult()
	if !ok || out.Value != "B" || !s.IsCurrent(out) {
		t.Errorf("outcome = %+v, %v; want current B", out, ok)
	}
}

func TestSlot_SupersededJobReleasesWorker(t *testing.T) {
	pool := NewPool(2, nil)
	t.Cleanup(pool.Close)

	hung := make(chan struct{})
	t.Cleanup(func() { close(hung) })
	started := make(chan string, 8)
	stuck := NewSlot(pool, func(_ context.Context, in string, _ ProgressFunc) (string, error) {
		started <- in
		<-hung
		return in, nil
	}, nil)

	// Each spawn supersedes a job that never finishes.
	for _, in := range []string{"1", "2", "3"} {
		stuck.Spawn(in)
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatalf("job %s never got a worker", in)
		}
	}
	if !stuck.IsPending() {
		t.Fatal("hung slot should stay pending")
	}

	done := make(chan struct{})
	other := NewSlot(pool, func(_ context.Context, in string, _ ProgressFunc) (string, error) {
		return in, nil
	}, func(p notify.Phase, _ bool) {
		if p == notify.PhaseDone {
			close(done)
		}
	})
	other.Spawn("x")

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("unrelated slot starved by superseded jobs")
	}
}

func TestPool_ReleasedLeaseFreesWorker(t *testing.T) {
	pool := NewPool(1, nil)
	defer pool.Close()

	block := make(chan struct{})
	running := make(chan struct{})
	lease := pool.Go(func(context.Context) {
		close(running)
		<-block
	})
	<-running

	ran := make(chan struct{})
	pool.Go(func(context.Context) { close(ran) })
	select {
	case <-ran:
		t.Fatal("second job ran while the only worker was leased")
	case <-time.After(50 * time.Millisecond):
	}

	lease.Release()
	lease.Release()
	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("released worker was not reused")
	}

	close(block)
	pool.Wait()
}

func TestPool_PanicGoesToHandler(t *testing.T) {
	recovered := make(chan any, 1)
	pool := NewPool(1, func(r any) { recovered <- r })
	defer pool.Close()

	s := NewSlot(pool, func(_ context.Context, _ string, _ ProgressFunc) (string, error) {
		panic("worker died")
	}, nil)
	s.Spawn("x")

	select {
	case r := <-recovered:
		if r != "worker died" {
			t.Errorf("recovered %v", r)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("panic was not reported")
	}
	pool.Wait()
}

func TestPool_BoundsConcurrency(t *testing.T) {
	pool := NewPool(2, nil)
	defer pool.Close()

	var mu sync.Mutex
	running, peak := 0, 0
	release := make(chan struct{})

	for i := 0; i < 6; i++ {
		pool.Go(func(context.Context) {
			mu.Lock()
			running++
			if running > peak {
				peak = running
			}
			mu.Unlock()
			<-release
			mu.Lock()
			running--
			mu.Unlock()
		})
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	pool.Wait()

	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}
