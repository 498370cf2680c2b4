package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/roach88/recordings/internal/journal"
	"github.com/roach88/recordings/internal/notify"
	"github.com/roach88/recordings/internal/tree"
)

// Harness is the scenario execution engine: a Store with sequential
// identities, journaled to an in-memory database.
type Harness struct {
	store     *tree.Store
	journal   *journal.Journal
	rec       *journal.Recorder
	ids       tree.IDGenerator
	items     map[string]tree.Item
	labels    map[uuid.UUID]string
	events    *notify.Broadcaster
	delivered []notify.Event
	result    *Result
	tracing   bool
	logger    *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory journal for isolation.
// Execution flow:
//  1. Create the store and journal
//  2. Execute setup steps (journaled, not traced)
//  3. Execute flow steps with expect validation
//  4. Collect the final state and the changes a subscriber received,
//     then evaluate assertions
//  5. Cross-check the journal against the clock and the trace
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // Suppress logs in tests

	collation := tree.DefaultCollation()
	if scenario.Locale != "" {
		tag, err := language.Parse(scenario.Locale)
		if err != nil {
			return nil, fmt.Errorf("invalid locale %q: %w", scenario.Locale, err)
		}
		collation = tree.NewCollation(tag)
	}

	j, err := journal.Open(":memory:", logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer j.Close()

	h := &Harness{
		journal: j,
		rec:     j.Recorder(ctx),
		ids:     tree.SequentialGenerator(1 + countCreated(scenario)),
		items:   make(map[string]tree.Item),
		labels:  make(map[uuid.UUID]string),
		result:  NewResult(),
		events:  notify.NewBroadcaster(logger),
		logger:  logger,
	}
	defer h.events.Close()
	root := tree.NewFolder(scenario.Root, h.ids.Generate())
	h.label(RootLabel, root)
	h.store = tree.New(
		tree.WithRoot(root),
		tree.WithIDGenerator(h.ids),
		tree.WithCollation(collation),
		tree.WithLogger(logger),
		tree.WithNotifier(notify.Fanout{h.rec, h.events, tree.NotifierFunc(h.trace)}),
	)

	if err := h.execute("setup", scenario.Setup); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	flowStart := h.store.Clock().Current()
	stop := h.watch(maxChanges(scenario.Flow))
	h.tracing = true
	err = h.execute("flow", scenario.Flow)
	h.tracing = false
	stop()
	if err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	h.collectState()
	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}
	if err := h.checkJournal(ctx, flowStart); err != nil {
		return nil, err
	}
	return h.result, nil
}

// countCreated returns how many identities a scenario consumes.
func countCreated(s *Scenario) int {
	n := 0
	for _, steps := range [][]Step{s.Setup, s.Flow} {
		for _, step := range steps {
			if step.Op == OpAdd || step.Op == OpReload {
				n++
			}
		}
	}
	return n
}

// maxChanges bounds the changes steps can record: a move records two, every
// other op at most one.
func maxChanges(steps []Step) int {
	n := 0
	for _, step := range steps {
		if step.Op == OpMove {
			n += 2
		} else {
			n++
		}
	}
	return n
}

func (h *Harness) label(name string, it tree.Item) {
	h.items[name] = it
	if _, ok := h.labels[it.ID()]; !ok || name != RootLabel {
		h.labels[it.ID()] = name
	}
}

// name returns the label of id, or the id itself when unlabelled.
func (h *Harness) name(id uuid.UUID) string {
	if l, ok := h.labels[id]; ok {
		return l
	}
	return id.String()
}

func (h *Harness) item(label string) (tree.Item, error) {
	it, ok := h.items[label]
	if !ok {
		return nil, fmt.Errorf("unknown label %q", label)
	}
	return it, nil
}

func (h *Harness) folder(label string) (*tree.Folder, error) {
	it, err := h.item(label)
	if err != nil {
		return nil, err
	}
	f, ok := it.(*tree.Folder)
	if !ok {
		return nil, fmt.Errorf("%q: %w", label, tree.ErrNotFolder)
	}
	return f, nil
}

// trace is the Store notifier collecting flow changes.
func (h *Harness) trace(_ tree.Item, c tree.Change) {
	if !h.tracing {
		return
	}
	path := make([]string, len(c.Path))
	for i, id := range c.Path {
		path[i] = h.name(id)
	}
	h.result.Trace = append(h.result.Trace, TraceEvent{
		Seq:      c.Seq,
		Reason:   string(c.Reason),
		Subject:  h.name(c.Subject),
		Path:     path,
		OldIndex: c.OldIndex,
		NewIndex: c.NewIndex,
	})
}

// watch subscribes to every change and collects what is delivered until
// the returned func is called. The subscription buffers size events, so
// none is dropped however the collector is scheduled.
func (h *Harness) watch(size int) func() {
	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := h.events.SubscribeBuffered(ctx, uuid.Nil, size)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range ch {
			h.delivered = append(h.delivered, ev)
		}
	}()
	return func() {
		cancel()
		<-done
	}
}

// execute applies steps in order and checks their expect clauses.
func (h *Harness) execute(phase string, steps []Step) error {
	for i, step := range steps {
		where := fmt.Sprintf("%s[%d]", phase, i)
		c, recorded, err := h.apply(step)
		if err != nil {
			return fmt.Errorf("%s: %w", where, err)
		}
		if step.Expect != nil {
			if msg := checkExpect(where, step.Expect, c, recorded); msg != "" {
				h.result.AddError(msg)
			}
		}
		h.logger.Info("step applied", "step", where, "op", step.Op, "recorded", recorded, "seq", c.Seq)
	}
	return nil
}

func (h *Harness) apply(step Step) (tree.Change, bool, error) {
	switch step.Op {
	case OpAdd:
		parent, err := h.folder(step.Parent)
		if err != nil {
			return tree.Change{}, false, err
		}
		var it tree.Item
		if step.Folder {
			it = h.store.NewFolder(step.Name)
		} else {
			it = h.store.NewRecording(step.Name)
		}
		if step.As != "" {
			h.label(step.As, it)
		}
		c, ok := parent.Add(it)
		return c, ok, nil

	case OpRename:
		it, err := h.item(step.Target)
		if err != nil {
			return tree.Change{}, false, err
		}
		c, ok := it.SetName(step.Name)
		return c, ok, nil

	case OpRemove:
		it, err := h.item(step.Target)
		if err != nil {
			return tree.Change{}, false, err
		}
		c, ok := it.Remove()
		return c, ok, nil

	case OpMove:
		it, err := h.item(step.Target)
		if err != nil {
			return tree.Change{}, false, err
		}
		parent, err := h.folder(step.Parent)
		if err != nil {
			return tree.Change{}, false, err
		}
		c, ok := parent.Add(it)
		return c, ok, nil

	case OpReload:
		root := tree.NewFolder(step.Name, h.ids.Generate())
		if step.As != "" {
			h.label(step.As, root)
		}
		h.label(RootLabel, root)
		return h.store.Reload(root), true, nil
	}
	return tree.Change{}, false, fmt.Errorf("unknown op %q", step.Op)
}

// checkExpect returns a failure message, or "" if c matches.
func checkExpect(where string, exp *ExpectClause, c tree.Change, recorded bool) string {
	if exp.Reason == ExpectNone {
		if recorded {
			return fmt.Sprintf("%s: expected no change, got %s", where, c)
		}
		return ""
	}
	if !recorded {
		return fmt.Sprintf("%s: expected %s, nothing recorded", where, exp.Reason)
	}
	if string(c.Reason) != exp.Reason {
		return fmt.Sprintf("%s: expected reason %s, got %s", where, exp.Reason, c.Reason)
	}
	if exp.OldIndex != nil && *exp.OldIndex != c.OldIndex {
		return fmt.Sprintf("%s: expected old index %d, got %d", where, *exp.OldIndex, c.OldIndex)
	}
	if exp.NewIndex != nil && *exp.NewIndex != c.NewIndex {
		return fmt.Sprintf("%s: expected new index %d, got %d", where, *exp.NewIndex, c.NewIndex)
	}
	return ""
}

// collectState records the child names of every labelled folder that is
// still attached, and how many delivered changes affected each folder.
func (h *Harness) collectState() {
	for _, ev := range h.delivered {
		if ev.Change.Container == uuid.Nil {
			continue
		}
		h.result.Delivered[h.name(ev.Change.Container)]++
	}
	for label, it := range h.items {
		f, ok := it.(*tree.Folder)
		if !ok || f.Store() == nil {
			continue
		}
		h.result.State[label] = f.Names()
	}
}

// checkJournal verifies every change reached the journal and that the
// journaled flow matches the trace.
func (h *Harness) checkJournal(ctx context.Context, flowStart int64) error {
	if err := h.rec.Err(); err != nil {
		h.result.AddError(fmt.Sprintf("journal write failed: %v", err))
		return nil
	}
	last, err := h.journal.LastSeq(ctx)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	if last != h.store.Clock().Current() {
		h.result.AddError(fmt.Sprintf("journal ends at seq %d, clock at %d", last, h.store.Clock().Current()))
	}

	entries, err := h.journal.ReadSince(ctx, flowStart)
	if err != nil {
		return fmt.Errorf("failed to read journal: %w", err)
	}
	if len(entries) != len(h.result.Trace) {
		h.result.AddError(fmt.Sprintf("journal has %d flow change(s), trace has %d", len(entries), len(h.result.Trace)))
		return nil
	}
	for i, e := range entries {
		ev := h.result.Trace[i]
		if e.Seq != ev.Seq || string(e.Reason) != ev.Reason {
			h.result.AddError(fmt.Sprintf("journal entry #%d %s does not match trace #%d %s", e.Seq, e.Reason, ev.Seq, ev.Reason))
		}
	}
	return nil
}
