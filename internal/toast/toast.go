// Package toast provides the session-scoped queue of ephemeral notifications
// that report save/delete/fetch outcomes. Messages expire automatically after
// a visibility window unless dismissed first.
package toast

import (
	"sync"
	"time"
)

// Severity classifies a notification for the presentation layer.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
	SeverityInfo    Severity = "info"
)

// ID identifies a toast within the process lifetime. IDs are strictly
// increasing, so concurrent posts can never collide and drop a message.
type ID int64

// Toast is a read-only snapshot of a queued notification.
type Toast struct {
	ID          ID
	Message     string
	Severity    Severity
	Title       string
	Description string
	CreatedAt   time.Time
}

// Queue is the process-wide notification queue. The zero value is not usable;
// construct with NewQueue and Close when the editing session ends.
type Queue struct {
	mu     sync.Mutex
	ttl    time.Duration
	seq    ID
	active []Toast
	timers map[ID]*time.Timer
	closed bool
}

// NewQueue creates a queue whose messages expire after ttl unless dismissed.
func NewQueue(ttl time.Duration) *Queue {
	return &Queue{
		ttl:    ttl,
		seq:    ID(time.Now().UnixNano()),
		timers: make(map[ID]*time.Timer),
	}
}

// Post appends a notification and schedules its expiry. It returns the
// toast's id for explicit dismissal.
func (q *Queue) Post(message string, severity Severity) ID {
	return q.PostDetailed(Toast{Message: message, Severity: severity})
}

// PostDetailed appends a notification carrying the optional title and
// description fields. The ID and CreatedAt fields of the argument are
// ignored and assigned by the queue.
func (q *Queue) PostDetailed(t Toast) ID {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return 0
	}

	q.seq++
	t.ID = q.seq
	t.CreatedAt = time.Now()
	q.active = append(q.active, t)

	id := t.ID
	q.timers[id] = time.AfterFunc(q.ttl, func() {
		q.Dismiss(id)
	})
	return id
}

// Dismiss removes the toast with the given id. Dismissing an id that has
// already expired or been dismissed is a no-op.
func (q *Queue) Dismiss(id ID) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if timer, ok := q.timers[id]; ok {
		timer.Stop()
		delete(q.timers, id)
	}
	for i, t := range q.active {
		if t.ID == id {
			q.active = append(q.active[:i], q.active[i+1:]...)
			return
		}
	}
}

// Active returns the current notifications in insertion order, oldest first.
// The result is a snapshot; mutating it has no effect on the queue.
func (q *Queue) Active() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Toast, len(q.active))
	copy(out, q.active)
	return out
}

// Close stops all expiry timers and rejects further posts. Pending timers
// that already fired resolve as no-op dismissals.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	for id, timer := range q.timers {
		timer.Stop()
		delete(q.timers, id)
	}
	q.active = nil
}
