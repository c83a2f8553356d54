package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/planreport/internal/events"
	"github.com/dgallion1/planreport/internal/plan"
	"github.com/dgallion1/planreport/internal/planstore"
	"github.com/dgallion1/planreport/internal/tabledb"
)

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a size-limited JSON body into v.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			jsonError(w, fmt.Sprintf("request body exceeds %d bytes", tooBig.Limit), http.StatusRequestEntityTooLarge)
			return false
		}
		jsonError(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// userID returns the required user_id query parameter.
func userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.URL.Query().Get("user_id")
	if id == "" {
		jsonError(w, "user_id query parameter is required", http.StatusBadRequest)
		return "", false
	}
	return id, true
}

// storeError maps persistence and validation failures to HTTP statuses.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	var planErr *plan.ValidationError
	var eventErr *events.ValidationError
	switch {
	case errors.As(err, &planErr), errors.As(err, &eventErr):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, planstore.ErrNotFound), errors.Is(err, events.ErrNotFound):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, planstore.ErrNoSchema), tabledb.IsRetryable(err):
		s.log.Warn(op+" unavailable", "error", err)
		jsonError(w, op+" temporarily unavailable", http.StatusServiceUnavailable)
	default:
		s.log.Error(op+" failed", "error", err, "path", r.URL.Path)
		jsonError(w, op+" failed", http.StatusInternalServerError)
	}
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	name = strings.ReplaceAll(name, `"`, "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}

// attachment sets download headers for a generated file.
func attachment(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, sanitizeFilename(filename)))
}
