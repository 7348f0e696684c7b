package panel

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	pkgerrors "github.com/matzehuels/pkgcompare/pkg/errors"
	"github.com/matzehuels/pkgcompare/pkg/notify"
	"github.com/matzehuels/pkgcompare/pkg/observability"
	"github.com/matzehuels/pkgcompare/pkg/record"
	"github.com/matzehuels/pkgcompare/pkg/selection"
)

const (
	// DefaultConcurrency bounds the fetches a batch runs at once.
	DefaultConcurrency = 8

	// DefaultMemoSize bounds the number of memoized results per panel.
	DefaultMemoSize = 512
)

// ErrNotSelected is returned by [Panel.RefetchOne] for a package the panel
// does not hold.
var ErrNotSelected = errors.New("package not in comparison")

// Options configures a Panel.
type Options struct {
	Concurrency int             // fetches in flight per batch; <1 uses DefaultConcurrency
	Reuse       bool            // memoize results across batches
	MemoSize    int             // <1 uses DefaultMemoSize
	Notifier    notify.Notifier // nil discards notifications
	Logger      *log.Logger     // nil uses log.Default()
}

// DefaultOptions returns options with result reuse enabled.
func DefaultOptions() Options {
	return Options{Concurrency: DefaultConcurrency, Reuse: true, MemoSize: DefaultMemoSize}
}

// Kind describes how a panel fetches and applies one dimension.
type Kind[T any] struct {
	Dimension record.Dimension

	// Fetch retrieves the dimension for one package.
	Fetch func(ctx context.Context, rec record.PackageRecord) (T, error)

	// Apply copies a fetched value onto the panel's record.
	Apply func(rec *record.PackageRecord, v T)

	// Key identifies a memoized result. Nil keys by package name.
	Key func(rec record.PackageRecord) string
}

// State is a point-in-time copy of a panel.
type State struct {
	Dimension  record.Dimension       `json:"dimension"`
	Loading    bool                   `json:"loading"`
	Records    []record.PackageRecord `json:"records"`
	Sequence   uint64                 `json:"sequence"`
	Failed     map[string]string      `json:"failed,omitempty"`
	Refetching []string               `json:"refetching,omitempty"`
}

type memoEntry[T any] struct {
	name  string
	value T
}

// Panel holds one dimension's view of the selection. It is safe for
// concurrent use.
type Panel[T any] struct {
	kind     Kind[T]
	opts     Options
	memo     *lru.Cache[string, memoEntry[T]]
	logger   *log.Logger
	notifier notify.Notifier

	mu         sync.Mutex
	seq        uint64 // last batch started
	committed  uint64 // last batch committed
	revision   uint64 // last selection revision seen
	inflight   int
	records    []record.PackageRecord
	failed     map[string]string
	refetching map[string]bool
	refetched  map[string]uint64 // batch seq current when a re-fetch stored its result
	listeners  []func(State)
	pending    int // batches launched by Bind and not yet settled
	settled    *sync.Cond
}

// New creates a panel for kind.
func New[T any](kind Kind[T], opts Options) *Panel[T] {
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.MemoSize < 1 {
		opts.MemoSize = DefaultMemoSize
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.Discard
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if kind.Key == nil {
		kind.Key = func(rec record.PackageRecord) string { return rec.Name }
	}

	memo, _ := lru.New[string, memoEntry[T]](opts.MemoSize)
	p := &Panel[T]{
		kind:       kind,
		opts:       opts,
		memo:       memo,
		logger:     opts.Logger.With("dimension", kind.Dimension),
		notifier:   opts.Notifier,
		failed:     map[string]string{},
		refetching: map[string]bool{},
		refetched:  map[string]uint64{},
	}
	p.settled = sync.NewCond(&p.mu)
	return p
}

// Dimension returns the panel's dimension.
func (p *Panel[T]) Dimension() record.Dimension {
	return p.kind.Dimension
}

// OnChange registers fn to receive the panel state after every commit.
// fn runs on the committing goroutine and must not block.
func (p *Panel[T]) OnChange(fn func(State)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, fn)
}

// Refresh runs a batch over every record in snap and returns once all
// fetches have settled. It reports whether the batch committed. Snapshots
// older than one already seen are ignored.
func (p *Panel[T]) Refresh(ctx context.Context, snap selection.Snapshot) bool {
	p.mu.Lock()
	if snap.Revision < p.revision {
		p.mu.Unlock()
		p.logger.Debug("skipping outdated selection", "revision", snap.Revision)
		return false
	}
	p.revision = max(p.revision, snap.Revision)
	p.seq++
	seq := p.seq
	p.inflight++
	p.mu.Unlock()

	p.pruneMemo(snap.Records)

	hooks := observability.Batch()
	hooks.OnBatchStart(ctx, string(p.kind.Dimension), seq, len(snap.Records))
	p.logger.Debug("batch started", "seq", seq, "packages", len(snap.Records))
	start := time.Now()

	results := record.CloneAll(snap.Records)
	failures := make([]string, len(results))

	g := new(errgroup.Group)
	g.SetLimit(p.opts.Concurrency)
	for i := range results {
		g.Go(func() error {
			if err := p.enrich(ctx, &results[i], true); err != nil {
				failures[i] = pkgerrors.UserMessage(err)
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := map[string]string{}
	for i, msg := range failures {
		if msg != "" {
			failed[results[i].Name] = msg
		}
	}

	p.mu.Lock()
	p.inflight--
	committed := seq == p.seq
	if committed {
		p.keepRefetchedLocked(seq, results, failed)
		p.committed = seq
		p.records = results
		p.failed = failed
	}
	p.mu.Unlock()

	elapsed := time.Since(start)
	hooks.OnBatchComplete(ctx, string(p.kind.Dimension), seq, len(results)-len(failed), len(failed), committed, elapsed)
	if !committed {
		p.logger.Debug("discarded stale batch", "seq", seq, "duration", elapsed)
		return false
	}
	p.logger.Debug("batch committed", "seq", seq, "ok", len(results)-len(failed), "failed", len(failed), "duration", elapsed)
	p.fire()
	return true
}

// keepRefetchedLocked replaces batch results with records re-fetched while
// batch seq was running. Those results are newer than anything the batch
// fetched.
func (p *Panel[T]) keepRefetchedLocked(seq uint64, results []record.PackageRecord, failed map[string]string) {
	for name, at := range p.refetched {
		if at < seq {
			continue
		}
		i, j := record.Index(results, name), record.Index(p.records, name)
		if i < 0 || j < 0 {
			continue
		}
		results[i] = p.records[j].Clone()
		delete(failed, name)
	}
	clear(p.refetched)
}

// enrich fetches and applies the dimension for rec. With useMemo the memo
// is consulted first; the memo is always updated on success.
func (p *Panel[T]) enrich(ctx context.Context, rec *record.PackageRecord, useMemo bool) error {
	key := p.kind.Key(*rec)
	if useMemo && p.opts.Reuse {
		if e, ok := p.memo.Get(key); ok {
			observability.Memo().OnMemoHit(ctx, string(p.kind.Dimension), key)
			p.kind.Apply(rec, e.value)
			return nil
		}
		observability.Memo().OnMemoMiss(ctx, string(p.kind.Dimension), key)
	}

	v, err := p.kind.Fetch(ctx, *rec)
	if err != nil {
		ferr := &pkgerrors.PackageFetchError{Package: rec.Name, Dimension: string(p.kind.Dimension), Err: err}
		p.notifier.Notify(notify.FromError(ferr))
		return ferr
	}
	p.kind.Apply(rec, v)
	if p.opts.Reuse {
		p.memo.Add(key, memoEntry[T]{name: rec.Name, value: v})
	}
	return nil
}

// pruneMemo drops memoized results for packages not in records.
func (p *Panel[T]) pruneMemo(records []record.PackageRecord) {
	keep := make(map[string]bool, len(records))
	for _, r := range records {
		keep[r.Name] = true
	}
	for _, key := range p.memo.Keys() {
		if e, ok := p.memo.Peek(key); ok && !keep[e.name] {
			p.memo.Remove(key)
		}
	}
}

// RefetchOne re-fetches a single package, bypassing the memo. It returns
// false without fetching when a re-fetch for name is already in flight.
func (p *Panel[T]) RefetchOne(ctx context.Context, name string) (bool, error) {
	p.mu.Lock()
	if p.refetching[name] {
		p.mu.Unlock()
		return false, nil
	}
	i := record.Index(p.records, name)
	if i < 0 {
		p.mu.Unlock()
		return false, pkgerrors.Wrap(pkgerrors.ErrCodeNotFound, ErrNotSelected, "%s is not being compared", name)
	}
	rec := p.records[i].Clone()
	p.refetching[name] = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		delete(p.refetching, name)
		p.mu.Unlock()
	}()

	p.logger.Debug("refetching", "package", name)
	err := p.enrich(ctx, &rec, false)

	p.mu.Lock()
	if i := record.Index(p.records, name); i >= 0 {
		if err == nil {
			p.records[i] = rec
			delete(p.failed, name)
			p.refetched[name] = p.seq
		} else {
			p.failed[name] = pkgerrors.UserMessage(err)
		}
	}
	p.mu.Unlock()

	p.fire()
	return true, err
}

// State returns a copy of the panel's current state.
func (p *Panel[T]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stateLocked()
}

func (p *Panel[T]) stateLocked() State {
	s := State{
		Dimension: p.kind.Dimension,
		Loading:   p.inflight > 0,
		Records:   record.CloneAll(p.records),
		Sequence:  p.committed,
	}
	if len(p.failed) > 0 {
		s.Failed = make(map[string]string, len(p.failed))
		for k, v := range p.failed {
			s.Failed[k] = v
		}
	}
	for name := range p.refetching {
		s.Refetching = append(s.Refetching, name)
	}
	sort.Strings(s.Refetching)
	return s
}

func (p *Panel[T]) fire() {
	p.mu.Lock()
	state := p.stateLocked()
	listeners := append([]func(State){}, p.listeners...)
	p.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
}

// Bind subscribes the panel to m: the current selection is refreshed at
// once and every later change starts a new batch in the background. The
// returned function unsubscribes. Use [Panel.Wait] to block until
// outstanding batches settle.
func (p *Panel[T]) Bind(ctx context.Context, m *selection.Manager) (unbind func()) {
	launch := func(s selection.Snapshot) {
		p.mu.Lock()
		p.pending++
		p.mu.Unlock()
		go func() {
			defer func() {
				p.mu.Lock()
				p.pending--
				p.settled.Broadcast()
				p.mu.Unlock()
			}()
			p.Refresh(ctx, s)
		}()
	}
	unbind = m.Subscribe(launch)
	launch(m.Snapshot())
	return unbind
}

// Wait blocks until every batch started through Bind has settled.
func (p *Panel[T]) Wait() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for p.pending > 0 {
		p.settled.Wait()
	}
}

// MemoLen returns the number of memoized results.
func (p *Panel[T]) MemoLen() int {
	return p.memo.Len()
}
