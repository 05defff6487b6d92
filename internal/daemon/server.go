package daemon

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"git.home.luguber.info/inful/docpipe/internal/logfields"
	"git.home.luguber.info/inful/docpipe/internal/pipeline"
)

// pushPayload is the subset of a forge push event the daemon cares about.
type pushPayload struct {
	Ref   string `json:"ref"`
	After string `json:"after"`
}

type pushResponse struct {
	Status string `json:"status"`
	Branch string `json:"branch,omitempty"`
}

func (d *Daemon) handlePush(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var payload pushPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		slog.Warn("Rejected malformed push payload", logfields.Error(err))
		writeJSON(w, http.StatusBadRequest, pushResponse{Status: "malformed payload"})
		return
	}

	branch := strings.TrimPrefix(payload.Ref, "refs/heads/")
	if branch == payload.Ref || branch == "" {
		// Tag pushes and other non-branch refs never trigger runs.
		writeJSON(w, http.StatusAccepted, pushResponse{Status: "ignored ref"})
		return
	}

	if !slices.Contains(d.config().Source.Triggers, branch) {
		slog.Debug("Ignoring push to non-trigger branch", logfields.Branch(branch))
		writeJSON(w, http.StatusAccepted, pushResponse{Status: "ignored branch", Branch: branch})
		return
	}

	trigger := pipeline.Trigger{Branch: branch, Revision: payload.After}
	if !d.enqueue(trigger) {
		slog.Warn("Run queue full, dropping trigger", logfields.Branch(branch))
		writeJSON(w, http.StatusServiceUnavailable, pushResponse{Status: "queue full", Branch: branch})
		return
	}

	slog.Info("Queued run for push", logfields.Branch(branch), logfields.Revision(payload.After))
	writeJSON(w, http.StatusAccepted, pushResponse{Status: "queued", Branch: branch})
}

func (d *Daemon) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to write response", logfields.Error(err))
	}
}
