package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/penline/penline/internal/errs"
	"github.com/penline/penline/internal/remote"
	"github.com/penline/penline/internal/store"
)

// FakePersistence is an in-memory Persistence for testing engine behavior.
// Individual operations can be forced to fail or gated so a test can observe
// the engine while a call is outstanding.
//
// Update deliberately succeeds even when the note is gone from the fake's
// collection: that models the race where the service applied an update
// before a concurrent delete, and lets tests prove the reducer's no-op
// semantics rather than relying on a server-side 404.
type FakePersistence struct {
	mu    sync.Mutex
	notes []store.Note

	failures map[string]error
	gates    map[string]chan struct{}
	calls    map[string]int

	analysis remote.AnalysisResult
}

// NewFakePersistence creates a fake seeded with the given notes.
func NewFakePersistence(seed ...store.Note) *FakePersistence {
	return &FakePersistence{
		notes:    store.Clone(seed),
		failures: make(map[string]error),
		gates:    make(map[string]chan struct{}),
		calls:    make(map[string]int),
	}
}

// SetError makes the named operation ("list", "create", "update", "delete",
// "analyze") return err. A nil err restores success.
func (f *FakePersistence) SetError(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, op)
		return
	}
	f.failures[op] = err
}

// Gate makes the named operation block until the returned channel is closed.
// The operation counts as called (CallCount) before it blocks.
func (f *FakePersistence) Gate(op string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[op] = ch
	return ch
}

// CallCount returns how many times the named operation was invoked.
func (f *FakePersistence) CallCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// SetAnalysis sets the result Analyze returns.
func (f *FakePersistence) SetAnalysis(r remote.AnalysisResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analysis = r
}

// Notes returns a snapshot of the fake's collection.
func (f *FakePersistence) Notes() []store.Note {
	f.mu.Lock()
	defer f.mu.Unlock()
	return store.Clone(f.notes)
}

// enter records the call, blocks on any gate, and returns the forced error.
func (f *FakePersistence) enter(ctx context.Context, op string) error {
	f.mu.Lock()
	f.calls[op]++
	gate := f.gates[op]
	err := f.failures[op]
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return errs.Wrap(errs.Unavailable, "request interrupted", ctx.Err())
		}
	}
	return err
}

// List implements Persistence.
func (f *FakePersistence) List(ctx context.Context) ([]store.Note, error) {
	if err := f.enter(ctx, "list"); err != nil {
		return nil, err
	}
	return f.Notes(), nil
}

// Create implements Persistence, assigning a server-side id and timestamps.
func (f *FakePersistence) Create(ctx context.Context, title, content string) (store.Note, error) {
	if err := f.enter(ctx, "create"); err != nil {
		return store.Note{}, err
	}

	now := time.Now().UTC()
	note := store.Note{
		ID:        uuid.New().String(),
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	f.mu.Lock()
	f.notes = append(f.notes, note)
	f.mu.Unlock()
	return note, nil
}

// Update implements Persistence. See the type comment for why a missing id
// still succeeds.
func (f *FakePersistence) Update(ctx context.Context, id, title, content string) (store.Note, error) {
	if err := f.enter(ctx, "update"); err != nil {
		return store.Note{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	updated := store.Note{
		ID:        id,
		Title:     title,
		Content:   content,
		UpdatedAt: time.Now().UTC(),
	}
	for i, n := range f.notes {
		if n.ID == id {
			updated.CreatedAt = n.CreatedAt
			f.notes[i] = updated
			break
		}
	}
	return updated, nil
}

// Delete implements Persistence.
func (f *FakePersistence) Delete(ctx context.Context, id string) error {
	if err := f.enter(ctx, "delete"); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for i, n := range f.notes {
		if n.ID == id {
			f.notes = append(f.notes[:i], f.notes[i+1:]...)
			return nil
		}
	}
	return errs.New(errs.NotFound, "Note not found")
}

// Analyze implements Persistence.
func (f *FakePersistence) Analyze(ctx context.Context, content string) (remote.AnalysisResult, error) {
	if err := f.enter(ctx, "analyze"); err != nil {
		return remote.AnalysisResult{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.analysis, nil
}
