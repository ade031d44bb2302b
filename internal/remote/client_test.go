package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penline/penline/internal/errs"
	"github.com/penline/penline/internal/store"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL, Timeout: 5 * time.Second, RPS: 1000, Burst: 1000})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestList_DecodesNotesInServerOrder(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	served := []store.Note{
		{ID: "b", Title: "Newer", CreatedAt: now, UpdatedAt: now.Add(time.Hour)},
		{ID: "a", Title: "Older", CreatedAt: now, UpdatedAt: now},
	}
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/api/notes", r.URL.Path)
		writeJSON(w, http.StatusOK, served)
	}))

	notes, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, notes, 2)
	assert.Equal(t, "b", notes[0].ID, "server recency order must be preserved")
	assert.Equal(t, "a", notes[1].ID)
}

func TestCreate_SendsPayloadAndReturnsServerNote(t *testing.T) {
	t.Parallel()

	serverID := uuid.New().String()
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/notes", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "New Note", body["title"])
		assert.Equal(t, "", body["content"])

		writeJSON(w, http.StatusCreated, store.Note{
			ID:    serverID,
			Title: body["title"],
		})
	}))

	note, err := c.Create(context.Background(), "New Note", "")
	require.NoError(t, err)
	assert.Equal(t, serverID, note.ID)
}

func TestUpdate_TargetsNoteByID(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/api/notes/note-7", r.URL.Path)
		writeJSON(w, http.StatusOK, store.Note{ID: "note-7", Title: "Edited"})
	}))

	note, err := c.Update(context.Background(), "note-7", "Edited", "body")
	require.NoError(t, err)
	assert.Equal(t, "Edited", note.Title)
}

func TestDelete_AcknowledgementOnly(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/api/notes/note-9", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
	}))

	require.NoError(t, c.Delete(context.Background(), "note-9"))
}

func TestAnalyze_DecodesStructuredResult(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/analyze", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "note body", body["content"])

		writeJSON(w, http.StatusOK, AnalysisResult{
			Summary: "a short note",
			Knowledge: []KnowledgeItem{{
				Concept:     "debouncing",
				Explanation: "waiting for quiescence",
				Resources:   []Resource{{Title: "Timers", URL: "https://example.com/timers"}},
			}},
			Actions: []string{"review tomorrow"},
		})
	}))

	result, err := c.Analyze(context.Background(), "note body")
	require.NoError(t, err)
	assert.Equal(t, "a short note", result.Summary)
	require.Len(t, result.Knowledge, 1)
	assert.Equal(t, "debouncing", result.Knowledge[0].Concept)
	require.Len(t, result.Knowledge[0].Resources, 1)
	assert.Equal(t, []string{"review tomorrow"}, result.Actions)
}

func TestDo_SetsUniqueRequestIDHeader(t *testing.T) {
	t.Parallel()

	seen := make(chan string, 2)
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Header.Get("X-Request-ID")
		writeJSON(w, http.StatusOK, []store.Note{})
	}))

	_, err := c.List(context.Background())
	require.NoError(t, err)
	_, err = c.List(context.Background())
	require.NoError(t, err)

	first, second := <-seen, <-seen
	assert.True(t, strings.HasPrefix(first, "req-"))
	assert.NotEqual(t, first, second)
}

func TestErrorMapping_ServerErrorBecomesUnavailable(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Error fetching notes"})
	}))

	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, errs.Unavailable, errs.CodeOf(err))
	assert.Equal(t, "Error fetching notes", errs.MessageOf(err))
}

func TestErrorMapping_NotFoundOnUpdate(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Note not found"})
	}))

	_, err := c.Update(context.Background(), "gone", "t", "c")
	require.Error(t, err)
	assert.Equal(t, errs.NotFound, errs.CodeOf(err))
}

func TestErrorMapping_NonJSONErrorBodyFallsBackToStatus(t *testing.T) {
	t.Parallel()

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))

	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, errs.Unavailable, errs.CodeOf(err))
	assert.Contains(t, errs.MessageOf(err), "502")
}

func TestDo_UnreachableServiceIsUnavailable(t *testing.T) {
	t.Parallel()

	// A closed server: the address is valid but nothing listens anymore.
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(Options{BaseURL: url, Timeout: time.Second, RPS: 1000, Burst: 1000})
	_, err := c.List(context.Background())
	require.Error(t, err)
	assert.Equal(t, errs.Unavailable, errs.CodeOf(err))
}

func TestDo_ContextCancellationSurfaces(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer close(block)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.List(ctx)
	require.Error(t, err)
	assert.Equal(t, errs.Unavailable, errs.CodeOf(err))
}
