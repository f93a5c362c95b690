// Package vcs wraps the local git operations demogen performs on a
// repository working copy: clone, branch, stage, commit, push.
package vcs

import (
	"context"
	"fmt"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

const (
	commitName  = "demogen"
	commitEmail = "demogen@users.noreply.github.com"
)

// Repo is a working copy plus the credentials used to talk to its
// origin remote.
type Repo struct {
	path string
	repo *git.Repository
	auth transport.AuthMethod
}

func tokenAuth(token string) transport.AuthMethod {
	if token == "" {
		return nil
	}
	// any non-empty username works for GitHub token auth over https
	return &githttp.BasicAuth{Username: "x-access-token", Password: token}
}

// Clone clones url into dir. token may be empty for public or local
// remotes.
func Clone(ctx context.Context, url, dir, token string) (*Repo, error) {
	auth := tokenAuth(token)
	r, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:  url,
		Auth: auth,
	})
	if err != nil {
		return nil, fmt.Errorf("cloning %s: %w", url, err)
	}
	return &Repo{path: dir, repo: r, auth: auth}, nil
}

// Open reuses an existing working copy.
func Open(dir, token string) (*Repo, error) {
	r, err := git.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", dir, err)
	}
	return &Repo{path: dir, repo: r, auth: tokenAuth(token)}, nil
}

// Path returns the working copy root.
func (r *Repo) Path() string {
	return r.path
}

// NewBranch creates name off the current HEAD and checks it out.
func (r *Repo) NewBranch(name string) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return err
	}
	err = w.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Create: true,
	})
	if err != nil {
		return fmt.Errorf("creating branch %s: %w", name, err)
	}
	return nil
}

// Checkout switches to an existing local branch.
func (r *Repo) Checkout(name string) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return err
	}
	err = w.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Force:  true,
	})
	if err != nil {
		return fmt.Errorf("checking out %s: %w", name, err)
	}
	return nil
}

// Add stages the given paths, relative to the working copy root.
func (r *Repo) Add(paths ...string) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return err
	}
	for _, p := range paths {
		if _, err := w.Add(p); err != nil {
			return fmt.Errorf("staging %s: %w", p, err)
		}
	}
	return nil
}

// AddAll stages every change in the working copy.
func (r *Repo) AddAll() error {
	w, err := r.repo.Worktree()
	if err != nil {
		return err
	}
	if err := w.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return fmt.Errorf("staging all changes: %w", err)
	}
	return nil
}

// Commit records the staged changes and returns the new commit hash.
func (r *Repo) Commit(message string) (string, error) {
	w, err := r.repo.Worktree()
	if err != nil {
		return "", err
	}
	h, err := w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  commitName,
			Email: commitEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	return h.String(), nil
}

// Push pushes branch to origin under the same name.
func (r *Repo) Push(ctx context.Context, branch string) error {
	spec := gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: "origin",
		RefSpecs:   []gitconfig.RefSpec{spec},
		Auth:       r.auth,
	})
	if err != nil {
		return fmt.Errorf("pushing %s: %w", branch, err)
	}
	return nil
}
