// Package store holds the in-memory note collection and the reducer that is
// the single serialization point for every mutation of it. Reduce is pure:
// no I/O, no timers, no shared state — that discipline keeps the collection
// safe under out-of-order completion of remote calls.
package store

// Reduce applies a single action to the collection and returns the resulting
// collection as a fresh slice. The input slice and its notes are never
// mutated; same action + same prior state always yields the same result.
func Reduce(notes []Note, action Action) []Note {
	switch a := action.(type) {
	case Add:
		out := make([]Note, 0, len(notes)+1)
		replaced := false
		for _, n := range notes {
			if n.ID == a.Note.ID {
				out = append(out, a.Note)
				replaced = true
				continue
			}
			out = append(out, n)
		}
		if !replaced {
			out = append(out, a.Note)
		}
		return out

	case Update:
		out := make([]Note, len(notes))
		for i, n := range notes {
			if n.ID == a.Note.ID {
				out[i] = a.Note
			} else {
				out[i] = n
			}
		}
		return out

	case Delete:
		out := make([]Note, 0, len(notes))
		for _, n := range notes {
			if n.ID != a.ID {
				out = append(out, n)
			}
		}
		return out

	case ReplaceAll:
		return Clone(a.Notes)

	default:
		return Clone(notes)
	}
}

// FindByID returns the note with the given id and whether it exists.
func FindByID(notes []Note, id string) (Note, bool) {
	for _, n := range notes {
		if n.ID == id {
			return n, true
		}
	}
	return Note{}, false
}

// Clone returns a copy of the collection. Readers outside the engine receive
// clones, never the backing slice.
func Clone(notes []Note) []Note {
	out := make([]Note, len(notes))
	copy(out, notes)
	return out
}
