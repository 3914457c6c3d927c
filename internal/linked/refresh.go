package linked

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/tliron/commonlog"

	"github.com/dshills/linkedit/internal/text"
)

var log = commonlog.GetLogger("linkedit.refresh")

// Refresher recomputes the link group index from a Provider whenever
// asked. Only one cycle is authoritative at a time: starting a new
// cycle supersedes the previous one, and a superseded cycle's results
// are never installed even if its provider calls complete.
//
// All failures degrade to "no linked ranges for this cycle or
// selection"; nothing surfaces to the caller as an error.
type Refresher struct {
	provider   Provider
	buffers    BufferSource
	selections SelectionSource

	index *Index

	// generation numbers cycles; a cycle only installs its results
	// while it is still the latest claimed generation.
	generation atomic.Uint64

	// renamePending suppresses the pipeline while a rename operation
	// owns the affected spans.
	renamePending atomic.Bool

	// installMu serializes the merge-and-install step across
	// concurrently finishing cycles.
	installMu sync.Mutex

	// maxSelections caps the fan-out of a single cycle.
	maxSelections int

	mu       sync.RWMutex
	onChange func()
}

// defaultMaxSelections bounds the provider fan-out of one cycle when
// no explicit cap is configured.
const defaultMaxSelections = 64

// RefresherOption configures a Refresher.
type RefresherOption func(*Refresher)

// WithMaxSelections caps how many selections one refresh cycle issues
// provider requests for. Selections beyond the cap are dropped for
// that cycle.
func WithMaxSelections(n int) RefresherOption {
	return func(r *Refresher) {
		r.maxSelections = n
	}
}

// NewRefresher creates a refresher over the given collaborators.
func NewRefresher(provider Provider, buffers BufferSource, selections SelectionSource, opts ...RefresherOption) *Refresher {
	r := &Refresher{
		provider:      provider,
		buffers:       buffers,
		selections:    selections,
		index:         NewIndex(),
		maxSelections: defaultMaxSelections,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Index returns the live index. Lookups against it never block on a
// running refresh cycle.
func (r *Refresher) Index() *Index {
	return r.index
}

// OnChange registers a callback fired after every successful install,
// typically to trigger a redraw.
func (r *Refresher) OnChange(fn func()) {
	r.mu.Lock()
	r.onChange = fn
	r.mu.Unlock()
}

// SetRenamePending flags or clears a pending rename. Setting it clears
// the index immediately (links are meaningless once a rename supersedes
// them) and invalidates any cycle already in flight.
func (r *Refresher) SetRenamePending(pending bool) {
	r.renamePending.Store(pending)
	if pending {
		r.generation.Add(1)
		r.index.Clear()
	}
}

// RenamePending reports whether a rename is pending.
func (r *Refresher) RenamePending() bool {
	return r.renamePending.Load()
}

// applicableSelection is one selection that survived collection: a
// single-buffer selection with its fetch-time snapshot.
type applicableSelection struct {
	buffer     *text.Buffer
	id         text.BufferID
	start, end text.ByteOffset
	snapshot   *text.Snapshot
}

// batch is one provider response turned into locally sorted groups.
type batch struct {
	buffer text.BufferID
	groups []Group
}

// Refresh runs one refresh cycle: collect applicable selections, fan
// out one provider request per selection, build sibling cliques from
// the responses, and install the merged result. Callers invoke it on
// every selection change; concurrent calls are safe and the latest
// caller wins.
func (r *Refresher) Refresh(ctx context.Context) {
	if r.renamePending.Load() {
		return
	}

	gen := r.generation.Add(1)

	applicable := r.collect()
	if len(applicable) == 0 {
		// Idle no-op: nothing to compute, prior index stays intact.
		return
	}

	batches := r.fetch(ctx, applicable)

	r.install(gen, batches)
}

// collect resolves the current selections to (buffer, start, end)
// triples, discarding cross-buffer selections and selections whose
// buffer is gone. The result is capped at maxSelections.
func (r *Refresher) collect() []applicableSelection {
	var applicable []applicableSelection
	for _, sel := range r.selections.Selections() {
		if r.maxSelections > 0 && len(applicable) == r.maxSelections {
			log.Infof("selection cap %d reached, remaining selections dropped this cycle", r.maxSelections)
			break
		}
		if !sel.SingleBuffer() {
			// Selections spanning multiple buffers cannot be linked
			// coherently.
			continue
		}
		buf, ok := r.buffers.Buffer(sel.Head.Buffer)
		if !ok {
			continue
		}
		applicable = append(applicable, applicableSelection{
			buffer:   buf,
			id:       buf.ID(),
			start:    sel.Start(),
			end:      sel.End(),
			snapshot: buf.Snapshot(),
		})
	}
	return applicable
}

// fetch issues one provider request per applicable selection,
// concurrently, and waits for all of them. A failed request degrades
// to a missing batch; the other selections' results are still used.
func (r *Refresher) fetch(ctx context.Context, applicable []applicableSelection) []*batch {
	batches := make([]*batch, len(applicable))

	var wg sync.WaitGroup
	for i, sel := range applicable {
		wg.Add(1)
		go func(i int, sel applicableSelection) {
			defer wg.Done()

			ranges, err := r.provider.LinkedRanges(ctx, sel.id, sel.start)
			if err != nil {
				log.Errorf("linked ranges request failed for buffer %s: %s", sel.id, err.Error())
				return
			}
			batches[i] = buildBatch(sel, ranges)
		}(i, sel)
	}
	wg.Wait()

	return batches
}

// buildBatch turns one provider response into a locally sorted batch of
// groups, or nil if the response does not apply to the selection.
func buildBatch(sel applicableSelection, ranges []text.AnchorRange) *batch {
	snap := sel.snapshot

	// The response must contain a range covering the original
	// selection. It might not: the selection may span both ends of a
	// linked construct (select `<html>foo` and the opening tag no
	// longer covers it), or the provider may have returned nothing.
	contains := false
	for _, rng := range ranges {
		s, okS := snap.Resolve(rng.Start)
		e, okE := snap.Resolve(rng.End)
		if okS && okE && s <= sel.start && e >= sel.end {
			contains = true
			break
		}
	}
	if !contains {
		return nil
	}

	// Link every range as every other's sibling. Groups are small
	// (a handful of occurrences of one name), so the pairwise O(n²)
	// construction is fine.
	groups := make([]Group, 0, len(ranges))
	for i, primary := range ranges {
		siblings := make([]text.AnchorRange, 0, len(ranges)-1)
		for j, sib := range ranges {
			if j != i {
				siblings = append(siblings, sib)
			}
		}
		if len(siblings) == 0 {
			continue
		}
		groups = append(groups, Group{Primary: primary, Siblings: siblings})
	}
	if len(groups) == 0 {
		return nil
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return snap.CompareRanges(groups[i].Primary, groups[j].Primary) < 0
	})

	return &batch{buffer: sel.id, groups: groups}
}

// install merges the cycle's batches and replaces the index, unless
// the cycle has been superseded or a rename started mid-flight.
func (r *Refresher) install(gen uint64, batches []*batch) {
	r.installMu.Lock()
	defer r.installMu.Unlock()

	// Re-check both suppressors after the suspension window: a rename
	// must not see linked-range state reappear, and a superseded
	// cycle's output is dropped wholesale.
	if r.renamePending.Load() || gen != r.generation.Load() {
		return
	}

	merged := make(map[text.BufferID][]Group)
	for _, b := range batches {
		if b == nil {
			continue
		}
		merged[b.buffer] = append(merged[b.buffer], b.groups...)
	}

	// A single cycle can produce several batches for one buffer, and
	// the buffer may have been edited between fetch and merge, so each
	// touched buffer is re-sorted under a fresh snapshot. Buffers that
	// can no longer be snapshotted are dropped rather than mis-sorted.
	for id, groups := range merged {
		buf, ok := r.buffers.Buffer(id)
		if !ok {
			delete(merged, id)
			continue
		}
		snap := buf.Snapshot()
		sort.SliceStable(groups, func(i, j int) bool {
			return snap.CompareRanges(groups[i].Primary, groups[j].Primary) < 0
		})
		merged[id] = groups
	}

	r.index.replaceAll(merged)

	r.mu.RLock()
	fn := r.onChange
	r.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
