package git

import (
	"fmt"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/docpipe/internal/config"
	"git.home.luguber.info/inful/docpipe/internal/logfields"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Checkout describes a source checkout request.
type Checkout struct {
	URL      string
	Branch   string
	Revision string // optional commit hash; HEAD of Branch when empty
	Auth     *config.AuthConfig
}

// CheckoutSource clones the source repository into dir and, when a revision is
// given, detaches onto it. Returns the checked-out commit hash.
func CheckoutSource(dir string, req Checkout) (string, error) {
	if err := os.RemoveAll(dir); err != nil {
		return "", fmt.Errorf("failed to clear checkout directory: %w", err)
	}

	cloneOptions := &git.CloneOptions{URL: req.URL}
	if req.Branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(req.Branch)
		cloneOptions.SingleBranch = true
	}

	auth, err := authMethod(req.Auth)
	if err != nil {
		return "", fmt.Errorf("failed to setup authentication: %w", err)
	}
	cloneOptions.Auth = auth

	slog.Debug("Cloning source repository", logfields.URL(req.URL), logfields.Branch(req.Branch), logfields.Path(dir))
	repository, err := git.PlainClone(dir, false, cloneOptions)
	if err != nil {
		return "", fmt.Errorf("failed to clone repository %s: %w", req.URL, err)
	}

	if req.Revision != "" {
		worktree, err := repository.Worktree()
		if err != nil {
			return "", fmt.Errorf("failed to get worktree: %w", err)
		}
		if err := worktree.Checkout(&git.CheckoutOptions{Hash: plumbing.NewHash(req.Revision)}); err != nil {
			return "", fmt.Errorf("failed to checkout revision %s: %w", req.Revision, err)
		}
	}

	ref, err := repository.Head()
	if err != nil {
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	}

	slog.Info("Source checked out",
		logfields.URL(req.URL),
		logfields.Branch(req.Branch),
		logfields.Revision(ref.Hash().String()[:8]),
		logfields.Path(dir))
	return ref.Hash().String(), nil
}

// ClonePublishBranch clones the publish branch into dir and returns an open
// repository handle. A missing branch or auth failure surfaces as an error;
// the publish stage treats it as fatal.
func ClonePublishBranch(dir, url, branch, token string) (*git.Repository, error) {
	if err := os.RemoveAll(dir); err != nil {
		return nil, fmt.Errorf("failed to clear publish workspace: %w", err)
	}

	cloneOptions := &git.CloneOptions{
		URL:           url,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
	}
	if token != "" {
		cloneOptions.Auth = tokenAuth(token)
	}

	slog.Debug("Cloning publish branch", logfields.URL(url), logfields.Branch(branch), logfields.Path(dir))
	repository, err := git.PlainClone(dir, false, cloneOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to clone publish branch %s of %s: %w", branch, url, err)
	}
	return repository, nil
}
