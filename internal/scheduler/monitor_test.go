package scheduler

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hamed0406/sitewatch/internal/domain"
	"github.com/hamed0406/sitewatch/internal/notify"
	"github.com/hamed0406/sitewatch/internal/state"
)

// ---- fakes ----

// fakeChecker answers from a verdict map and records every batch it was given.
type fakeChecker struct {
	mu      sync.Mutex
	up      map[domain.Target]bool
	batches [][]domain.Target
}

func newFakeChecker(up map[domain.Target]bool) *fakeChecker {
	return &fakeChecker{up: up}
}

func (f *fakeChecker) set(t domain.Target, up bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.up[t] = up
}

func (f *fakeChecker) CheckAll(_ context.Context, targets []domain.Target) []domain.CheckResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, append([]domain.Target(nil), targets...))
	out := make([]domain.CheckResult, 0, len(targets))
	for _, t := range targets {
		out = append(out, domain.CheckResult{Target: t, Up: f.up[t]})
	}
	return out
}

func (f *fakeChecker) lastBatch() []domain.Target {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.batches) == 0 {
		return nil
	}
	return f.batches[len(f.batches)-1]
}

type recordingSender struct {
	mu   sync.Mutex
	sent []string
}

func (r *recordingSender) Send(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, text)
	return nil
}

func (r *recordingSender) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.sent...)
}

var testTemplates = Templates{
	Down:      "🔴 {site} is down!",
	Up:        "🟢 {site} is up again!",
	AliveSelf: "🔵 I'm alive and well!",
}

func newTestMonitor(targets []domain.Target, chk BatchChecker) (*Monitor, *state.DownSet, *recordingSender) {
	down := state.New()
	sender := &recordingSender{}
	m := NewMonitor(zap.NewNop(), targets, chk, down, notify.New(sender, zap.NewNop()), Config{
		Interval:        time.Hour,
		NervousInterval: time.Hour,
		Templates:       testTemplates,
	})
	return m, down, sender
}

func sortedTargets(ts []domain.Target) []domain.Target {
	out := append([]domain.Target(nil), ts...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ---- tests ----

func TestSweep_NewFailureIsMarkedAndNotified(t *testing.T) {
	chk := newFakeChecker(map[domain.Target]bool{"a.com": false, "b.com": true})
	m, down, sender := newTestMonitor([]domain.Target{"a.com", "b.com"}, chk)

	m.Sweep(context.Background())

	assert.Equal(t, []domain.Target{"a.com"}, down.Snapshot())
	assert.Equal(t, []string{"🔴 a.com is down!"}, sender.messages())
}

func TestSweep_TwoFailuresShareOneMessage(t *testing.T) {
	chk := newFakeChecker(map[domain.Target]bool{"a.com": false, "b.com": false})
	m, down, sender := newTestMonitor([]domain.Target{"a.com", "b.com"}, chk)

	m.Sweep(context.Background())

	assert.Equal(t, []domain.Target{"a.com", "b.com"}, sortedTargets(down.Snapshot()))
	assert.Equal(t, []string{"🔴 a.com is down!\n🔴 b.com is down!"}, sender.messages())
}

func TestSweep_AllUpSendsNothing(t *testing.T) {
	chk := newFakeChecker(map[domain.Target]bool{"a.com": true})
	m, down, sender := newTestMonitor([]domain.Target{"a.com"}, chk)

	m.Sweep(context.Background())

	assert.Empty(t, down.Snapshot())
	assert.Empty(t, sender.messages())
}

func TestSweep_SkipsTargetsAlreadyDown(t *testing.T) {
	chk := newFakeChecker(map[domain.Target]bool{"a.com": false, "b.com": true})
	m, down, sender := newTestMonitor([]domain.Target{"a.com", "b.com"}, chk)
	down.MarkDown("a.com")

	m.Sweep(context.Background())

	assert.Equal(t, []domain.Target{"b.com"}, chk.lastBatch())
	assert.Empty(t, sender.messages(), "a.com was already down, no new transition")
}

func TestSweep_DuplicateTargetsCollapse(t *testing.T) {
	chk := newFakeChecker(map[domain.Target]bool{"a.com": false})
	m, down, sender := newTestMonitor([]domain.Target{"a.com", "a.com"}, chk)

	m.Sweep(context.Background())

	assert.Len(t, chk.lastBatch(), 2, "duplicates are still probed")
	assert.Equal(t, []domain.Target{"a.com"}, down.Snapshot())
	assert.Equal(t, []string{"🔴 a.com is down!"}, sender.messages())
}

func TestSweep_CancelledRunChangesNothing(t *testing.T) {
	chk := newFakeChecker(map[domain.Target]bool{"a.com": false})
	m, down, sender := newTestMonitor([]domain.Target{"a.com"}, chk)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.Sweep(ctx)

	assert.Empty(t, down.Snapshot())
	assert.Empty(t, sender.messages())
}

func TestRecoveryWatch_RecoveredTargetIsRemovedAndNotified(t *testing.T) {
	chk := newFakeChecker(map[domain.Target]bool{"a.com": true, "b.com": true})
	m, down, sender := newTestMonitor([]domain.Target{"a.com", "b.com"}, chk)
	down.MarkDown("a.com")

	m.RecoveryWatch(context.Background())

	assert.Equal(t, []domain.Target{"a.com"}, chk.lastBatch(), "only down targets are watched")
	assert.Empty(t, down.Snapshot())
	assert.Equal(t, []string{"🟢 a.com is up again!"}, sender.messages())
}

func TestRecoveryWatch_StillDownStaysSilent(t *testing.T) {
	chk := newFakeChecker(map[domain.Target]bool{"a.com": false})
	m, down, sender := newTestMonitor([]domain.Target{"a.com"}, chk)
	down.MarkDown("a.com")

	m.RecoveryWatch(context.Background())

	assert.Equal(t, []domain.Target{"a.com"}, down.Snapshot())
	assert.Empty(t, sender.messages())
}

func TestRecoveryWatch_EmptyDownSetProbesNothing(t *testing.T) {
	chk := newFakeChecker(map[domain.Target]bool{"a.com": false})
	m, _, sender := newTestMonitor([]domain.Target{"a.com"}, chk)

	m.RecoveryWatch(context.Background())

	assert.Empty(t, chk.batches)
	assert.Empty(t, sender.messages())
}

func TestFullCycle_DownThenUp(t *testing.T) {
	chk := newFakeChecker(map[domain.Target]bool{"a.com": false, "b.com": true})
	m, down, sender := newTestMonitor([]domain.Target{"a.com", "b.com"}, chk)
	ctx := context.Background()

	m.Sweep(ctx)
	m.Sweep(ctx) // a.com stays down, no repeat
	chk.set("a.com", true)
	m.RecoveryWatch(ctx)
	m.RecoveryWatch(ctx) // nothing left to watch

	assert.Empty(t, down.Snapshot())
	assert.Equal(t, []string{"🔴 a.com is down!", "🟢 a.com is up again!"}, sender.messages())
}

// gatedChecker blocks every batch until release is closed.
type gatedChecker struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedChecker) CheckAll(_ context.Context, targets []domain.Target) []domain.CheckResult {
	g.entered <- struct{}{}
	<-g.release
	out := make([]domain.CheckResult, 0, len(targets))
	for _, t := range targets {
		out = append(out, domain.CheckResult{Target: t, Up: false})
	}
	return out
}

func TestSweep_OverlappingRunsNotifyOnce(t *testing.T) {
	g := &gatedChecker{entered: make(chan struct{}), release: make(chan struct{})}
	m, down, sender := newTestMonitor([]domain.Target{"a.com"}, g)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Sweep(context.Background())
		}()
	}
	// both sweeps picked a.com as a candidate before either finished
	<-g.entered
	<-g.entered
	close(g.release)
	wg.Wait()

	assert.Equal(t, []domain.Target{"a.com"}, down.Snapshot())
	assert.Equal(t, []string{"🔴 a.com is down!"}, sender.messages())
}

func TestLiveness_SendsFixedMessage(t *testing.T) {
	chk := newFakeChecker(map[domain.Target]bool{})
	m, _, sender := newTestMonitor([]domain.Target{"a.com"}, chk)

	m.Liveness(context.Background())

	assert.Equal(t, []string{"🔵 I'm alive and well!"}, sender.messages())
	assert.Empty(t, chk.batches)
}

func TestRun_KicksJobsAtStartAndStopsOnCancel(t *testing.T) {
	chk := newFakeChecker(map[domain.Target]bool{"a.com": false})
	m, down, sender := newTestMonitor([]domain.Target{"a.com"}, chk)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool {
		return len(sender.messages()) == 1
	}, 2*time.Second, 10*time.Millisecond, "initial sweep did not run")
	assert.Equal(t, []domain.Target{"a.com"}, down.Snapshot())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_NervousCadenceDetectsRecovery(t *testing.T) {
	chk := newFakeChecker(map[domain.Target]bool{"a.com": false})
	down := state.New()
	sender := &recordingSender{}
	m := NewMonitor(zap.NewNop(), []domain.Target{"a.com"}, chk, down, notify.New(sender, zap.NewNop()), Config{
		Interval:        time.Hour,
		NervousInterval: time.Second,
		Templates:       testTemplates,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	require.Eventually(t, func() bool { return len(down.Snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	chk.set("a.com", true)

	require.Eventually(t, func() bool {
		return len(sender.messages()) == 2
	}, 5*time.Second, 20*time.Millisecond, "recovery watch did not fire on its own cadence")
	assert.Equal(t, "🟢 a.com is up again!", sender.messages()[1])
	assert.Empty(t, down.Snapshot())
}
