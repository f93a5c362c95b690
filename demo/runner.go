// Package demo runs the demonstrator pipeline: per target repository,
// guarantee the guard files exist, then turn labeled issues into
// generated-code pull requests.
package demo

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"demogen/config"
	"demogen/fileset"
	"demogen/gh"
	"demogen/llm"
	"demogen/vcs"
)

// Forge is the GitHub API surface the runner needs.
type Forge interface {
	Repo(ctx context.Context, owner, name string) (*gh.RepoInfo, error)
	FileExists(ctx context.Context, owner, name, path string) (bool, error)
	HasWorkflows(ctx context.Context, owner, name string) (bool, error)
	OpenIssues(ctx context.Context, owner, name, label string) ([]gh.Issue, error)
	CreatePull(ctx context.Context, owner, name, title, body, head, base string) (*gh.PullRequest, error)
	AddLabel(ctx context.Context, owner, name string, number int, label string) error
	Comment(ctx context.Context, owner, name string, number int, body string) error
}

// Generator produces a file set from an issue prompt.
type Generator interface {
	Demo(ctx context.Context, prompt string) (map[string]string, error)
}

// Workspace is a local working copy of a target repository.
type Workspace interface {
	Path() string
	NewBranch(name string) error
	Checkout(name string) error
	Add(paths ...string) error
	AddAll() error
	Commit(message string) (string, error)
	Push(ctx context.Context, branch string) error
}

type (
	cloneFunc func(ctx context.Context, url, dir, token string) (Workspace, error)
	openFunc  func(dir, token string) (Workspace, error)
)

// Runner processes every target repository once per invocation.
type Runner struct {
	cfg   *config.Config
	forge Forge
	gen   Generator

	clone cloneFunc
	open  openFunc
}

func NewRunner(cfg *config.Config, forge Forge, gen Generator) *Runner {
	return &Runner{
		cfg:   cfg,
		forge: forge,
		gen:   gen,
		clone: func(ctx context.Context, url, dir, token string) (Workspace, error) {
			return vcs.Clone(ctx, url, dir, token)
		},
		open: func(dir, token string) (Workspace, error) {
			return vcs.Open(dir, token)
		},
	}
}

// Run walks the configured repositories in order. A failing repository
// is logged and does not stop the others; Run only reports an error
// when every repository failed.
func (r *Runner) Run(ctx context.Context) error {
	lg := log.Ctx(ctx)

	var failed int
	for _, full := range r.cfg.TargetRepos {
		if err := r.processRepo(ctx, full); err != nil {
			lg.Error().Err(err).Str("repo", full).Msg("error processing repository")
			failed++
		}
	}
	if failed > 0 && failed == len(r.cfg.TargetRepos) {
		return fmt.Errorf("all %d repositories failed", failed)
	}
	return nil
}

func (r *Runner) processRepo(ctx context.Context, full string) error {
	lg := log.Ctx(ctx).With().Str("repo", full).Logger()

	owner, name, err := config.SplitRepo(full)
	if err != nil {
		return err
	}

	info, err := r.forge.Repo(ctx, owner, name)
	if err != nil {
		return err
	}

	lg.Info().Msg("scanning repository")

	ws, err := r.workspace(ctx, full, info)
	if err != nil {
		return err
	}

	ok, err := r.ensureRenovate(ctx, &lg, info, ws)
	if err != nil || !ok {
		return err
	}
	ok, err = r.ensureWorkflow(ctx, &lg, info, ws)
	if err != nil || !ok {
		return err
	}

	issues, err := r.forge.OpenIssues(ctx, owner, name, r.cfg.IssueLabel)
	if err != nil {
		return err
	}
	pending := issues[:0:0]
	for _, is := range issues {
		if !is.HasLabel(config.InProgressLabel) {
			pending = append(pending, is)
		}
	}
	if len(pending) == 0 {
		lg.Info().Msgf("no open issues with label %q to process", r.cfg.IssueLabel)
		return nil
	}

	for _, issue := range pending {
		if err := r.processIssue(ctx, &lg, info, ws, issue); err != nil {
			return err
		}
	}
	return nil
}

// workspace reuses an existing clone of the repository or creates one.
func (r *Runner) workspace(ctx context.Context, full string, info *gh.RepoInfo) (Workspace, error) {
	dir := filepath.Join(r.cfg.WorkDir, strings.ReplaceAll(full, "/", "_"))
	if _, err := os.Stat(dir); err == nil {
		return r.open(dir, r.cfg.GithubToken)
	}
	return r.clone(ctx, info.CloneURL, dir, r.cfg.GithubToken)
}

// ensureRenovate guarantees renovate.json exists upstream. When it is
// missing, a default is pushed as a PR and ok is false: the repository
// is done for this run.
func (r *Runner) ensureRenovate(ctx context.Context, lg *zerolog.Logger, info *gh.RepoInfo, ws Workspace) (ok bool, err error) {
	exists, err := r.forge.FileExists(ctx, info.Owner, info.Name, "renovate.json")
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	lg.Info().Msg("renovate.json missing, creating default")
	path := filepath.Join(ws.Path(), "renovate.json")
	if err := os.WriteFile(path, []byte(DefaultRenovateJSON), 0o644); err != nil {
		return false, fmt.Errorf("writing default renovate.json: %w", err)
	}

	err = r.proposeDefault(ctx, lg, info, ws, proposal{
		branch: "add-renovate-" + fileset.Suffix(6),
		paths:  []string{"renovate.json"},
		title:  "Add default renovate.json",
		body:   renovatePRBody,
	})
	return false, err
}

// ensureWorkflow guarantees at least one workflow file exists
// upstream, with the same stop-for-this-run contract as
// ensureRenovate.
func (r *Runner) ensureWorkflow(ctx context.Context, lg *zerolog.Logger, info *gh.RepoInfo, ws Workspace) (ok bool, err error) {
	exists, err := r.forge.HasWorkflows(ctx, info.Owner, info.Name)
	if err != nil {
		return false, err
	}
	if exists {
		return true, nil
	}

	lg.Info().Msg("no workflow files, creating default workflow")
	rel := filepath.Join(".github", "workflows", "docker.yml")
	path := filepath.Join(ws.Path(), rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("creating workflow directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(DefaultWorkflowYAML), 0o644); err != nil {
		return false, fmt.Errorf("writing default workflow: %w", err)
	}

	err = r.proposeDefault(ctx, lg, info, ws, proposal{
		branch: "add-workflow-" + fileset.Suffix(6),
		paths:  []string{rel},
		title:  "Add default GitHub Actions workflow",
		body:   workflowPRBody,
	})
	return false, err
}

type proposal struct {
	branch string
	paths  []string
	title  string
	body   string
}

// proposeDefault pushes a single-commit branch and opens the PR for a
// missing guard file, then returns the workspace to the base branch.
func (r *Runner) proposeDefault(ctx context.Context, lg *zerolog.Logger, info *gh.RepoInfo, ws Workspace, p proposal) error {
	if err := ws.NewBranch(p.branch); err != nil {
		return err
	}
	if err := ws.Add(p.paths...); err != nil {
		return err
	}
	if _, err := ws.Commit(p.title); err != nil {
		return err
	}
	if err := ws.Push(ctx, p.branch); err != nil {
		return err
	}

	pr, err := r.forge.CreatePull(ctx, info.Owner, info.Name, p.title, p.body, p.branch, info.DefaultBranch)
	if err != nil {
		return err
	}
	lg.Info().Str("pr", pr.URL).Msg("pull request opened")

	return ws.Checkout(info.DefaultBranch)
}

func (r *Runner) processIssue(ctx context.Context, lg *zerolog.Logger, info *gh.RepoInfo, ws Workspace, issue gh.Issue) error {
	lg.Info().Int("issue", issue.Number).Msg("generating code")

	files, err := r.gen.Demo(ctx, llm.Prompt(issue.Number, issue.Title, issue.Body))
	if err != nil {
		return fmt.Errorf("generating demo for issue #%d: %w", issue.Number, err)
	}
	written, err := fileset.Write(files, ws.Path())
	if err != nil {
		return fmt.Errorf("saving demo for issue #%d: %w", issue.Number, err)
	}
	lg.Debug().Strs("files", written).Msg("saved generated files")

	branch := fmt.Sprintf("demo-%d-%s", issue.Number, fileset.Suffix(6))
	if err := ws.NewBranch(branch); err != nil {
		// skip this issue, keep going with the rest
		lg.Error().Err(err).Int("issue", issue.Number).Msg("branch creation failed")
		return nil
	}

	if err := ws.AddAll(); err != nil {
		return err
	}
	title := fmt.Sprintf("Add demo for issue #%d: %s", issue.Number, issue.Title)
	if _, err := ws.Commit(title); err != nil {
		return err
	}
	if err := ws.Push(ctx, branch); err != nil {
		return err
	}

	body := fmt.Sprintf("Generated from issue #%d by an automated demonstrator.\n\n---\n*Created by demogen*", issue.Number)
	pr, err := r.forge.CreatePull(ctx, info.Owner, info.Name, title, body, branch, info.DefaultBranch)
	if err != nil {
		return err
	}
	lg.Info().Int("issue", issue.Number).Str("pr", pr.URL).Msg("pull request opened")

	if err := r.forge.AddLabel(ctx, info.Owner, info.Name, issue.Number, config.InProgressLabel); err != nil {
		lg.Warn().Err(err).Msgf("could not add label %s", config.InProgressLabel)
	}

	comment := fmt.Sprintf("Demo added: [%s](%s), labeled **%s**.", pr.Title, pr.URL, config.InProgressLabel)
	if err := r.forge.Comment(ctx, info.Owner, info.Name, issue.Number, comment); err != nil {
		return err
	}

	return ws.Checkout(info.DefaultBranch)
}
