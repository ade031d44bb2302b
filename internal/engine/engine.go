// Package engine reconciles local note edits with the remote persistence
// service. It owns the collection snapshot, the active selection, the
// delete-confirmation flow, and the analyze flow; every state change goes
// through the store reducer, which is the single serialization point.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/penline/penline/internal/debounce"
	"github.com/penline/penline/internal/obs"
	"github.com/penline/penline/internal/remote"
	"github.com/penline/penline/internal/store"
	"github.com/penline/penline/internal/toast"
)

// Error sentinels for operations the engine refuses rather than fails.
var (
	// ErrNoActiveNote is returned when an operation needs an open note.
	ErrNoActiveNote = errors.New("no note is active")

	// ErrAnalysisInFlight is returned when analyze is invoked while a
	// previous analysis is still outstanding.
	ErrAnalysisInFlight = errors.New("analysis already in progress")

	// ErrNoDeletePending is returned when confirm is called outside the
	// delete confirmation flow.
	ErrNoDeletePending = errors.New("no delete confirmation pending")
)

// Persistence is the remote collaborator contract the engine consumes.
// *remote.Client implements it; tests substitute an in-memory fake.
type Persistence interface {
	List(ctx context.Context) ([]store.Note, error)
	Create(ctx context.Context, title, content string) (store.Note, error)
	Update(ctx context.Context, id, title, content string) (store.Note, error)
	Delete(ctx context.Context, id string) error
	Analyze(ctx context.Context, content string) (remote.AnalysisResult, error)
}

// Options configures an Engine.
type Options struct {
	DebounceWindow time.Duration // quiescence window before a save is issued
	NewNoteTitle   string        // placeholder title for created notes
}

// Engine is the synchronization engine. All exported methods are safe for
// concurrent use; accessors return snapshots, never internal state.
type Engine struct {
	remote Persistence
	toasts *toast.Queue
	opts   Options
	log    *slog.Logger

	mu            sync.Mutex
	notes         []store.Note
	active        *store.Note // editor buffer: local copy, optimistic
	pendingDelete *store.Note
	analysis      *remote.AnalysisResult
	saving        int
	analyzing     bool

	debouncer *debounce.Debouncer[store.Note]
}

// New creates an engine backed by the given persistence collaborator and
// notification queue. Call Close when the editing session ends.
func New(p Persistence, toasts *toast.Queue, opts Options) *Engine {
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = 500 * time.Millisecond
	}
	if opts.NewNoteTitle == "" {
		opts.NewNoteTitle = "New Note"
	}
	e := &Engine{
		remote: p,
		toasts: toasts,
		opts:   opts,
		log:    obs.Pkg("engine"),
	}
	e.debouncer = debounce.New(opts.DebounceWindow, e.saveNote)
	return e
}

// Start performs the one-time initial fetch. On failure the store stays
// empty and the user sees an error notification; there is no retry.
func (e *Engine) Start(ctx context.Context) error {
	notes, err := e.remote.List(ctx)
	if err != nil {
		e.log.Warn("initial fetch failed", "error", err)
		e.toasts.Post("Failed to fetch notes. Please try again.", toast.SeverityError)
		return err
	}

	e.mu.Lock()
	e.notes = store.Reduce(e.notes, store.ReplaceAll{Notes: notes})
	e.mu.Unlock()

	e.log.Info("notes loaded", "count", len(notes))
	return nil
}

// Close tears the engine down. After Close no debounced save fires.
func (e *Engine) Close() {
	e.debouncer.Stop()
}

// SetActive opens the note with the given id for editing, discarding any
// pending edit buffer and the previous note's analysis result. Returns false
// when the id is not in the collection.
func (e *Engine) SetActive(id string) bool {
	e.mu.Lock()
	n, ok := store.FindByID(e.notes, id)
	if !ok {
		e.mu.Unlock()
		return false
	}
	selected := n
	e.active = &selected
	e.analysis = nil
	e.mu.Unlock()

	e.debouncer.Cancel()
	return true
}

// ClearActive closes the editor. The pending edit buffer is discarded.
func (e *Engine) ClearActive() {
	e.mu.Lock()
	e.active = nil
	e.analysis = nil
	e.mu.Unlock()

	e.debouncer.Cancel()
}

// EditActive applies a keystroke-level edit to the editor buffer and
// restarts the quiescence window. The confirmed collection is untouched
// until the debounced save round-trips through the service.
func (e *Engine) EditActive(title, content string) error {
	e.mu.Lock()
	if e.active == nil {
		e.mu.Unlock()
		return ErrNoActiveNote
	}
	e.active.Title = title
	e.active.Content = content
	buffered := *e.active
	e.mu.Unlock()

	e.debouncer.Set(buffered)
	return nil
}

// saveNote pushes one settled edit to the service. It closes over the exact
// note value that was debounced, not state re-read after the call, so a
// selection switch can never cross-wire an in-flight save.
func (e *Engine) saveNote(note store.Note) {
	ctx := context.Background()

	e.mu.Lock()
	e.saving++
	e.mu.Unlock()

	updated, err := e.remote.Update(ctx, note.ID, note.Title, note.Content)

	e.mu.Lock()
	e.saving--
	if err == nil {
		e.notes = store.Reduce(e.notes, store.Update{Note: updated})
	}
	e.mu.Unlock()

	if err != nil {
		e.log.Warn("save failed", "note_id", note.ID, "error", err)
		e.toasts.Post("Failed to update note. Please try again.", toast.SeverityError)
		return
	}
	e.toasts.Post("Note updated successfully.", toast.SeveritySuccess)
}

// NewNote asks the service to create a note with the placeholder title and
// empty content, then inserts the server-acknowledged note and opens it.
// Nothing is inserted optimistically: a failed create leaves the collection
// unchanged, so the store never holds a note the server has not assigned an
// id to.
func (e *Engine) NewNote(ctx context.Context) (store.Note, error) {
	created, err := e.remote.Create(ctx, e.opts.NewNoteTitle, "")
	if err != nil {
		e.log.Warn("create failed", "error", err)
		e.toasts.Post("Failed to create note. Please try again.", toast.SeverityError)
		return store.Note{}, err
	}

	e.mu.Lock()
	e.notes = store.Reduce(e.notes, store.Add{Note: created})
	selected := created
	e.active = &selected
	e.analysis = nil
	e.mu.Unlock()

	e.debouncer.Cancel()
	e.toasts.Post("New note created successfully.", toast.SeveritySuccess)
	return created, nil
}

// RequestDelete enters the delete confirmation flow for the given note.
// Returns false when the id is not in the collection. The confirmation
// persists until ConfirmDelete or CancelDelete; there is no timeout.
func (e *Engine) RequestDelete(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	n, ok := store.FindByID(e.notes, id)
	if !ok {
		return false
	}
	target := n
	e.pendingDelete = &target
	return true
}

// CancelDelete leaves the confirmation flow without mutating anything.
func (e *Engine) CancelDelete() {
	e.mu.Lock()
	e.pendingDelete = nil
	e.mu.Unlock()
}

// ConfirmDelete performs the pending delete. On success the note is removed
// and, when it was the active note, the selection moves to the first
// remaining note (or none). On failure the collection is unchanged and the
// note stays in the list.
func (e *Engine) ConfirmDelete(ctx context.Context) error {
	e.mu.Lock()
	if e.pendingDelete == nil {
		e.mu.Unlock()
		return ErrNoDeletePending
	}
	target := *e.pendingDelete
	e.pendingDelete = nil
	e.mu.Unlock()

	if err := e.remote.Delete(ctx, target.ID); err != nil {
		e.log.Warn("delete failed", "note_id", target.ID, "error", err)
		e.toasts.Post("Failed to delete note. Please try again.", toast.SeverityError)
		return err
	}

	e.mu.Lock()
	e.notes = store.Reduce(e.notes, store.Delete{ID: target.ID})
	wasActive := e.active != nil && e.active.ID == target.ID
	if wasActive {
		if len(e.notes) > 0 {
			selected := e.notes[0]
			e.active = &selected
		} else {
			e.active = nil
		}
		e.analysis = nil
	}
	e.mu.Unlock()

	if wasActive {
		e.debouncer.Cancel()
	}
	e.toasts.Post("Note deleted successfully.", toast.SeveritySuccess)
	return nil
}

// Analyze submits the active note's content to the analyze collaborator.
// It refuses to overlap analysis calls and is a no-op sentinel without an
// active note. The result is held in memory until the selection changes or
// DismissAnalysis is called.
func (e *Engine) Analyze(ctx context.Context) error {
	e.mu.Lock()
	if e.active == nil {
		e.mu.Unlock()
		return ErrNoActiveNote
	}
	if e.analyzing {
		e.mu.Unlock()
		return ErrAnalysisInFlight
	}
	e.analyzing = true
	noteID := e.active.ID
	content := e.active.Content
	e.mu.Unlock()

	result, err := e.remote.Analyze(ctx, content)

	e.mu.Lock()
	e.analyzing = false
	if err == nil && e.active != nil && e.active.ID == noteID {
		e.analysis = &result
	}
	e.mu.Unlock()

	if err != nil {
		e.log.Warn("analyze failed", "note_id", noteID, "error", err)
		e.toasts.Post("An error occurred while analyzing the note. Please try again.", toast.SeverityError)
		return err
	}
	e.toasts.Post("Your note has been analyzed successfully.", toast.SeveritySuccess)
	return nil
}

// DismissAnalysis discards the current analysis result.
func (e *Engine) DismissAnalysis() {
	e.mu.Lock()
	e.analysis = nil
	e.mu.Unlock()
}

// Notes returns a snapshot of the confirmed collection in recency order.
func (e *Engine) Notes() []store.Note {
	e.mu.Lock()
	defer e.mu.Unlock()
	return store.Clone(e.notes)
}

// Filtered returns the notes matching term, order preserved.
func (e *Engine) Filtered(term string) []store.Note {
	e.mu.Lock()
	defer e.mu.Unlock()
	return store.Filter(e.notes, term)
}

// Active returns the editor buffer and whether a note is open.
func (e *Engine) Active() (store.Note, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return store.Note{}, false
	}
	return *e.active, true
}

// Saving reports whether an update call is outstanding.
func (e *Engine) Saving() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.saving > 0
}

// Analyzing reports whether an analyze call is outstanding.
func (e *Engine) Analyzing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.analyzing
}

// Analysis returns the current analysis result and whether one is held.
func (e *Engine) Analysis() (remote.AnalysisResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.analysis == nil {
		return remote.AnalysisResult{}, false
	}
	return *e.analysis, true
}

// PendingDelete returns the note awaiting delete confirmation, if any.
func (e *Engine) PendingDelete() (store.Note, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pendingDelete == nil {
		return store.Note{}, false
	}
	return *e.pendingDelete, true
}
