// Package gh is the thin GitHub API surface demogen needs: repository
// metadata, guard-file checks, issue scans, and PR plumbing.
package gh

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/go-github/v59/github"
)

type Client struct {
	gh *github.Client
}

// New returns a client authenticated with a personal access token.
func New(token string) *Client {
	return &Client{gh: github.NewClient(nil).WithAuthToken(token)}
}

// NewWithBaseURL points the client at a different API root, for tests
// or GitHub Enterprise.
func NewWithBaseURL(token, base string) (*Client, error) {
	c := github.NewClient(nil).WithAuthToken(token)
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	c.BaseURL = u
	return &Client{gh: c}, nil
}

// RepoInfo is the repository metadata the run pipeline needs.
type RepoInfo struct {
	Owner         string
	Name          string
	CloneURL      string
	DefaultBranch string
}

func (c *Client) Repo(ctx context.Context, owner, name string) (*RepoInfo, error) {
	repo, _, err := c.gh.Repositories.Get(ctx, owner, name)
	if err != nil {
		return nil, fmt.Errorf("fetching repository %s/%s: %w", owner, name, err)
	}
	info := &RepoInfo{
		Owner:         owner,
		Name:          name,
		CloneURL:      repo.GetCloneURL(),
		DefaultBranch: repo.GetDefaultBranch(),
	}
	if info.DefaultBranch == "" {
		info.DefaultBranch = "main"
	}
	return info, nil
}

// FileExists reports whether path exists in the repository's default
// branch.
func (c *Client) FileExists(ctx context.Context, owner, name, path string) (bool, error) {
	_, _, resp, err := c.gh.Repositories.GetContents(ctx, owner, name, path, nil)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return false, nil
		}
		return false, fmt.Errorf("checking %s in %s/%s: %w", path, owner, name, err)
	}
	return true, nil
}

// HasWorkflows reports whether at least one file exists under
// .github/workflows/.
func (c *Client) HasWorkflows(ctx context.Context, owner, name string) (bool, error) {
	_, dir, resp, err := c.gh.Repositories.GetContents(ctx, owner, name, ".github/workflows", nil)
	if err != nil {
		if resp != nil && resp.StatusCode == 404 {
			return false, nil
		}
		return false, fmt.Errorf("listing workflows in %s/%s: %w", owner, name, err)
	}
	return len(dir) > 0, nil
}

// Issue is the subset of issue data the generator consumes.
type Issue struct {
	Number int
	Title  string
	Body   string
	Labels []string
}

func (i Issue) HasLabel(label string) bool {
	for _, l := range i.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// OpenIssues lists the open issues carrying label. Pull requests are
// excluded even though the issues API returns them.
func (c *Client) OpenIssues(ctx context.Context, owner, name, label string) ([]Issue, error) {
	opts := &github.IssueListByRepoOptions{
		State:       "open",
		Labels:      []string{label},
		ListOptions: github.ListOptions{PerPage: 100},
	}

	var issues []Issue
	for {
		page, resp, err := c.gh.Issues.ListByRepo(ctx, owner, name, opts)
		if err != nil {
			return nil, fmt.Errorf("listing issues in %s/%s: %w", owner, name, err)
		}
		for _, is := range page {
			if is.IsPullRequest() {
				continue
			}
			labels := make([]string, 0, len(is.Labels))
			for _, l := range is.Labels {
				labels = append(labels, l.GetName())
			}
			issues = append(issues, Issue{
				Number: is.GetNumber(),
				Title:  is.GetTitle(),
				Body:   is.GetBody(),
				Labels: labels,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return issues, nil
}

// PullRequest is the result of CreatePull.
type PullRequest struct {
	Number int
	Title  string
	URL    string
}

// CreatePull opens a PR from head into base. GitHub occasionally
// answers with a 5xx right after a fresh push, so transient failures
// are retried.
func (c *Client) CreatePull(ctx context.Context, owner, name, title, body, head, base string) (*PullRequest, error) {
	var pr *github.PullRequest
	op := func() error {
		var resp *github.Response
		var err error
		pr, resp, err = c.gh.PullRequests.Create(ctx, owner, name, &github.NewPullRequest{
			Title: github.String(title),
			Body:  github.String(body),
			Head:  github.String(head),
			Base:  github.String(base),
		})
		if err != nil {
			if transient(resp, err) {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}

	bo := backoff.NewExponentialBackOff(backoff.WithMaxElapsedTime(30 * time.Second))
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, fmt.Errorf("creating pull request %q in %s/%s: %w", title, owner, name, err)
	}
	return &PullRequest{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		URL:    pr.GetHTMLURL(),
	}, nil
}

// AddLabel adds a single label to an issue.
func (c *Client) AddLabel(ctx context.Context, owner, name string, number int, label string) error {
	_, _, err := c.gh.Issues.AddLabelsToIssue(ctx, owner, name, number, []string{label})
	if err != nil {
		return fmt.Errorf("labeling issue #%d in %s/%s: %w", number, owner, name, err)
	}
	return nil
}

// Comment posts a comment on an issue.
func (c *Client) Comment(ctx context.Context, owner, name string, number int, body string) error {
	_, _, err := c.gh.Issues.CreateComment(ctx, owner, name, number, &github.IssueComment{
		Body: github.String(body),
	})
	if err != nil {
		return fmt.Errorf("commenting on issue #%d in %s/%s: %w", number, owner, name, err)
	}
	return nil
}

func transient(resp *github.Response, err error) bool {
	var rle *github.RateLimitError
	if errors.As(err, &rle) {
		return true
	}
	if resp == nil {
		// connection-level failure
		return true
	}
	return resp.StatusCode >= 500
}
