package store

import "time"

// Note is a persisted note as the remote service returns it. The id is
// assigned server-side on creation, never by this engine.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Action is a mutation event applied to the note collection through Reduce.
// The concrete types are the only mutation vocabulary the engine has.
type Action interface {
	isAction()
}

// Add inserts a server-acknowledged note. Dispatching an Add whose id is
// already present is a caller error; Reduce overwrites the existing note so
// the collection stays unique per id.
type Add struct {
	Note Note
}

// Update replaces the note matching Note.ID. If no such note exists the
// collection is unchanged; that makes an update racing a concurrent delete
// safe to apply in either order.
type Update struct {
	Note Note
}

// Delete removes the note with the given id; no-op if absent.
type Delete struct {
	ID string
}

// ReplaceAll seeds the collection from the initial fetch.
type ReplaceAll struct {
	Notes []Note
}

func (Add) isAction()        {}
func (Update) isAction()     {}
func (Delete) isAction()     {}
func (ReplaceAll) isAction() {}
