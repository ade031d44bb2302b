// Package remote is the HTTP+JSON client for the note persistence service
// and the analyze collaborator. It is the only component that talks to the
// network; every failure it returns is a coded error the engine converts
// into a notification.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/penline/penline/internal/errs"
	"github.com/penline/penline/internal/obs"
	"github.com/penline/penline/internal/store"
)

// maxErrorBodyBytes caps how much of a failure response body is read.
const maxErrorBodyBytes = 4 * 1024

// Client calls the persistence service. All methods are safe for concurrent
// use; an outgoing limiter keeps a burst of resolutions from hammering the
// service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
	Burst   int
}

// NewClient creates a client for the service at opts.BaseURL.
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	rps := opts.RPS
	if rps <= 0 {
		rps = 10
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 20
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// List fetches all notes, most recently updated first.
func (c *Client) List(ctx context.Context) ([]store.Note, error) {
	var notes []store.Note
	if err := c.do(ctx, http.MethodGet, "/api/notes", nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

// Create asks the service to create a note. The returned note carries the
// server-assigned id and timestamps.
func (c *Client) Create(ctx context.Context, title, content string) (store.Note, error) {
	var note store.Note
	err := c.do(ctx, http.MethodPost, "/api/notes", notePayload{Title: title, Content: content}, &note)
	return note, err
}

// Update replaces the title and content of the note with the given id and
// returns the note with its refreshed updatedAt.
func (c *Client) Update(ctx context.Context, id, title, content string) (store.Note, error) {
	var note store.Note
	err := c.do(ctx, http.MethodPut, "/api/notes/"+id, notePayload{Title: title, Content: content}, &note)
	return note, err
}

// Delete removes the note with the given id.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/notes/"+id, nil, nil)
}

// Analyze submits note content to the analyze collaborator and returns its
// structured result. The inference behind it is opaque to this client.
func (c *Client) Analyze(ctx context.Context, content string) (AnalysisResult, error) {
	var result AnalysisResult
	err := c.do(ctx, http.MethodPost, "/api/analyze", analyzePayload{Content: content}, &result)
	return result, err
}

// do issues one request and decodes the response into out (unless out is
// nil). Non-2xx responses become coded errors carrying the service's error
// message when it sent one.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errs.Wrap(errs.Unavailable, "request limiter interrupted", err)
	}

	requestID := obs.NewRequestID()
	ctx = obs.WithRequestID(ctx, requestID)
	log := obs.From(ctx).With("method", method, "path", path)

	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return errs.Wrap(errs.Internal, "failed to encode request", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return errs.Wrap(errs.Internal, "failed to build request", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warn("request failed", "error", err)
		return errs.Wrap(errs.Unavailable, "notes service unreachable", err)
	}
	defer resp.Body.Close()

	log.Debug("request completed", "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.errorFromResponse(resp)
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodyBytes))
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errs.Wrap(errs.Internal, "failed to decode response", err)
	}
	return nil
}

// errorFromResponse builds a coded error from a non-2xx response.
func (c *Client) errorFromResponse(resp *http.Response) error {
	code := errs.FromHTTPStatus(resp.StatusCode)

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
	var payload errorPayload
	if err := json.Unmarshal(raw, &payload); err == nil && payload.Error != "" {
		return errs.New(code, payload.Error)
	}
	return errs.New(code, fmt.Sprintf("notes service returned %s", resp.Status))
}
