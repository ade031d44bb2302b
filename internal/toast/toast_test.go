package toast

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ttl = 60 * time.Millisecond

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(10 * ttl)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(ttl / 10)
	}
	t.Fatal(msg)
}

func TestQueue_PostedToastIsImmediatelyVisible(t *testing.T) {
	t.Parallel()

	q := NewQueue(ttl)
	defer q.Close()

	id := q.Post("Note updated successfully.", SeveritySuccess)

	active := q.Active()
	require.Len(t, active, 1)
	assert.Equal(t, id, active[0].ID)
	assert.Equal(t, "Note updated successfully.", active[0].Message)
	assert.Equal(t, SeveritySuccess, active[0].Severity)
	assert.False(t, active[0].CreatedAt.IsZero())
}

func TestQueue_ToastExpiresAfterVisibilityWindow(t *testing.T) {
	t.Parallel()

	q := NewQueue(ttl)
	defer q.Close()

	q.Post("ephemeral", SeverityInfo)
	require.Len(t, q.Active(), 1)

	waitFor(t, func() bool { return len(q.Active()) == 0 }, "toast did not auto-expire")
}

func TestQueue_DismissRemovesAndIsIdempotent(t *testing.T) {
	t.Parallel()

	q := NewQueue(time.Hour)
	defer q.Close()

	id := q.Post("dismiss me", SeverityError)
	q.Dismiss(id)
	assert.Empty(t, q.Active())

	// Dismissing again, or dismissing an unknown id, is a no-op.
	q.Dismiss(id)
	q.Dismiss(ID(424242))
	assert.Empty(t, q.Active())
}

func TestQueue_ActiveKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	q := NewQueue(time.Hour)
	defer q.Close()

	q.Post("first", SeverityInfo)
	q.Post("second", SeverityInfo)
	q.Post("third", SeverityInfo)

	active := q.Active()
	require.Len(t, active, 3)
	assert.Equal(t, "first", active[0].Message)
	assert.Equal(t, "second", active[1].Message)
	assert.Equal(t, "third", active[2].Message)
	assert.Less(t, active[0].ID, active[1].ID)
	assert.Less(t, active[1].ID, active[2].ID)
}

func TestQueue_ConcurrentPostsLoseNothing(t *testing.T) {
	t.Parallel()

	q := NewQueue(time.Hour)
	defer q.Close()

	const posters = 20
	const perPoster = 25

	var wg sync.WaitGroup
	ids := make(chan ID, posters*perPoster)
	for p := 0; p < posters; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPoster; i++ {
				ids <- q.Post(fmt.Sprintf("p%d-%d", p, i), SeverityInfo)
			}
		}(p)
	}
	wg.Wait()
	close(ids)

	seen := make(map[ID]bool)
	for id := range ids {
		require.False(t, seen[id], "id %d issued twice", id)
		seen[id] = true
	}
	assert.Len(t, q.Active(), posters*perPoster, "concurrent posts must append, never overwrite")
}

func TestQueue_PostDetailedCarriesStructuredFields(t *testing.T) {
	t.Parallel()

	q := NewQueue(time.Hour)
	defer q.Close()

	q.PostDetailed(Toast{
		Message:     "analysis ready",
		Severity:    SeveritySuccess,
		Title:       "Analysis",
		Description: "Summary, knowledge and actions are available.",
	})

	active := q.Active()
	require.Len(t, active, 1)
	assert.Equal(t, "Analysis", active[0].Title)
	assert.Equal(t, "Summary, knowledge and actions are available.", active[0].Description)
}

func TestQueue_CloseStopsExpiryAndRejectsPosts(t *testing.T) {
	t.Parallel()

	q := NewQueue(ttl)
	q.Post("about to vanish", SeverityInfo)
	q.Close()

	assert.Empty(t, q.Active())
	assert.Equal(t, ID(0), q.Post("after close", SeverityInfo))
	assert.Empty(t, q.Active())

	// Give any stray timer a chance to fire into the closed queue.
	time.Sleep(3 * ttl)
	assert.Empty(t, q.Active())
}

func TestQueue_ActiveReturnsSnapshot(t *testing.T) {
	t.Parallel()

	q := NewQueue(time.Hour)
	defer q.Close()

	q.Post("original", SeverityInfo)
	snapshot := q.Active()
	snapshot[0].Message = "tampered"

	assert.Equal(t, "original", q.Active()[0].Message)
}
