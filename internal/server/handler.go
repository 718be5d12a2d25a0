package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
)

// maxBodyBytes bounds ingestion request bodies.
const maxBodyBytes = 1 << 20

// handle decodes a JSON body of type T, passes it to record and writes ack
// on success.
func handle[T any](record func(T) error, ack string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req T
		dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
		if err := dec.Decode(&req); err != nil && err != io.EOF {
			slog.Debug("invalid request body", "path", r.URL.Path, "error", err)
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := record(req); err != nil {
			writeError(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, ack)
	})
}
