// Package logfields defines canonical slog field names and helpers so that
// log keys stay stable across packages.
package logfields

import "log/slog"

const (
	KeyRunID      = "run_id"
	KeyStage      = "stage"
	KeyBranch     = "branch"
	KeyRevision   = "revision"
	KeyModule     = "module"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyArtifact   = "artifact"
	KeyOutcome    = "outcome"
	KeyDurationMS = "duration_ms"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Branch(b string) slog.Attr       { return slog.String(KeyBranch, b) }
func Revision(r string) slog.Attr     { return slog.String(KeyRevision, r) }
func Module(m string) slog.Attr       { return slog.String(KeyModule, m) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Artifact(a string) slog.Attr     { return slog.String(KeyArtifact, a) }
func Outcome(o string) slog.Attr      { return slog.String(KeyOutcome, o) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
