package git

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CommitOutcome is the tri-state result of committing the synced publish
// workspace. Publishing identical content is a success, not an error, so the
// no-op case is modeled explicitly instead of suppressing an exit code.
type CommitOutcome string

const (
	OutcomeCommitted CommitOutcome = "committed"
	OutcomeNoChanges CommitOutcome = "no_changes"
)

// Signature identifies the commit author.
type Signature struct {
	Name  string
	Email string
}

// CommitAll stages every change in the repository worktree and commits it.
// When the worktree is clean the commit is skipped and OutcomeNoChanges is
// returned.
func CommitAll(repo *git.Repository, message string, sig Signature) (CommitOutcome, error) {
	worktree, err := repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("failed to stage changes: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return "", fmt.Errorf("failed to read worktree status: %w", err)
	}
	if status.IsClean() {
		return OutcomeNoChanges, nil
	}

	_, err = worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  sig.Name,
			Email: sig.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return OutcomeCommitted, nil
}

// Push pushes the branch to origin using a scoped token. A non-fast-forward
// rejection (e.g. a concurrent publish won the race) surfaces as an error with
// no retry; the remote's push semantics are the only concurrency arbiter.
func Push(repo *git.Repository, branch, token string) error {
	refSpec := config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
	pushOptions := &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []config.RefSpec{refSpec},
	}
	if token != "" {
		pushOptions.Auth = tokenAuth(token)
	}

	err := repo.Push(pushOptions)
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push branch %s: %w", branch, err)
	}
	return nil
}
