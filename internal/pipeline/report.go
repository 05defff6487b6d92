package pipeline

import (
	"time"

	"git.home.luguber.info/inful/docpipe/internal/extract"
	"git.home.luguber.info/inful/docpipe/internal/git"
	"git.home.luguber.info/inful/docpipe/internal/workspace"
)

// Trigger describes what started a run.
type Trigger struct {
	Branch   string
	Revision string // optional commit hash from the push event
}

// Report summarizes one pipeline run.
type Report struct {
	RunID          string
	Branch         string
	Revision       string // resolved checkout commit
	Modules        int
	Pages          int
	Requirements   int
	ArtifactPath   string
	PublishOutcome git.CommitOutcome
	StageDurations map[string]time.Duration
	StageOutcomes  map[string]string
	Warnings       []error
	Errors         []error
	Started        time.Time
	Finished       time.Time
}

// Succeeded reports whether the run finished without fatal errors.
func (r *Report) Succeeded() bool { return len(r.Errors) == 0 }

// RunState carries mutable state across stages of a single run.
type RunState struct {
	RunID     string
	Trigger   Trigger
	Workspace *workspace.Manager

	CheckoutDir string
	DocSrcDir   string
	SiteDir     string

	Modules []extract.Module
	Report  *Report
}

func newRunState(runID string, trigger Trigger, ws *workspace.Manager) *RunState {
	return &RunState{
		RunID:     runID,
		Trigger:   trigger,
		Workspace: ws,
		Report: &Report{
			RunID:          runID,
			Branch:         trigger.Branch,
			StageDurations: make(map[string]time.Duration),
			StageOutcomes:  make(map[string]string),
			Started:        time.Now(),
		},
	}
}
