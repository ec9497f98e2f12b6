package ratechan

import (
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/exp/slog"
)

// SSEHandler serves a throttled output channel as a Server-Sent Events
// stream, one JSON-encoded value per event. The response ends when the
// channel closes or the client disconnects. A channel has a single consumer:
// give each client its own Throttler rather than sharing one handler across
// clients.
func SSEHandler[T any](output <-chan T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		ctx := r.Context()
		for {
			select {
			case v, open := <-output:
				if !open {
					return
				}
				data, err := json.Marshal(v)
				if err != nil {
					slog.Error("ratechan: failed to encode event", slog.Any("error", err.Error()))
					continue
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
					return
				}
				flusher.Flush()
			case <-ctx.Done():
				return
			}
		}
	})
}
