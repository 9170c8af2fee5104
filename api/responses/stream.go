package responses

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	pkgerrors "github.com/angelmondragon/foodorder-backend/pkg/errors"
)

// Stream writes server-sent events. Send is safe for concurrent use; the
// subscriptions that feed a stream fire from their own goroutines.
type Stream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
}

// OpenStream sends the event-stream headers. It fails when the writer
// cannot flush.
func OpenStream(w http.ResponseWriter) (*Stream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported")
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &Stream{w: w, flusher: flusher}, nil
}

// Send emits one named event carrying data as a JSON line.
func (s *Stream) Send(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", event, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// Ping writes a comment line to keep intermediaries from closing the stream.
func (s *Stream) Ping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}
