// Package publish pushes the rendered site to the dedicated publish branch.
//
// The stage is a strictly linear state machine: Clone -> Sync -> Commit ->
// Push. Only Commit has a tolerated soft outcome (nothing to commit); every
// other failure is fatal and leaves the previously published site untouched,
// because the branch is only ever mutated by a successful push.
package publish

import (
	"fmt"
	"log/slog"

	"git.home.luguber.info/inful/docpipe/internal/config"
	"git.home.luguber.info/inful/docpipe/internal/git"
	"git.home.luguber.info/inful/docpipe/internal/logfields"
)

// Publisher performs the publish-to-branch stage.
type Publisher struct {
	cfg config.PublishConfig
}

// NewPublisher creates a publisher from the publish configuration.
func NewPublisher(cfg config.PublishConfig) *Publisher {
	return &Publisher{cfg: cfg}
}

// Publish clones the publish branch into workspaceDir, overwrites it with the
// rendered site, commits, and pushes. The returned outcome distinguishes a
// real publish from the no-changes no-op.
func (p *Publisher) Publish(workspaceDir, siteDir, runID string) (git.CommitOutcome, error) {
	// State A: clone. Branch missing or auth failure is fatal.
	repo, err := git.ClonePublishBranch(workspaceDir, p.cfg.URL, p.cfg.Branch, p.cfg.Token)
	if err != nil {
		return "", err
	}

	// State B: sync the rendered site over the workspace.
	if err := syncWorkspace(workspaceDir, siteDir); err != nil {
		return "", err
	}

	// State C: commit, tolerating the nothing-to-commit outcome.
	message := fmt.Sprintf("Update API documentation (run %s)", runID)
	outcome, err := git.CommitAll(repo, message, git.Signature{
		Name:  p.cfg.AuthorName,
		Email: p.cfg.AuthorEmail,
	})
	if err != nil {
		return "", err
	}

	// State D: push. A rejected push (concurrent publish) is fatal with no
	// retry or rebase; the remote's push semantics arbitrate races.
	if err := git.Push(repo, p.cfg.Branch, p.cfg.Token); err != nil {
		return "", err
	}

	slog.Info("Publish complete",
		logfields.RunID(runID),
		logfields.Branch(p.cfg.Branch),
		logfields.Outcome(string(outcome)))
	return outcome, nil
}
