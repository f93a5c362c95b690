package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// DefaultIssueLabel marks issues that should get a generated demo.
	DefaultIssueLabel = "python_demonstrator"

	// InProgressLabel marks issues that already have a demo PR open.
	InProgressLabel = "in-progress"

	DefaultModel   = "gpt-4o-mini"
	DefaultWorkDir = "repo_clone"
)

// Config is the full runtime configuration, read from the environment.
// A `.env` file in the working directory is loaded when present; its
// absence is not an error.
type Config struct {
	GithubToken   string
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string

	// TargetRepos is the list of "owner/name" repositories to process,
	// in the order they were given.
	TargetRepos []string

	IssueLabel string
	WorkDir    string
}

// Load reads configuration from the environment. It fails before any
// network call if a required variable is missing, naming every missing
// key at once.
func Load() (*Config, error) {
	// .env -> environment, useful for local runs
	_ = godotenv.Load()

	cfg := &Config{
		GithubToken:   os.Getenv("GH_TOKEN"),
		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   os.Getenv("OPENAI_MODEL"),
		IssueLabel:    os.Getenv("PYTHON_DEMONSTRATOR_LABEL"),
		WorkDir:       os.Getenv("DEMOGEN_WORKDIR"),
	}

	var missing []string
	if cfg.GithubToken == "" {
		missing = append(missing, "GH_TOKEN")
	}
	if cfg.OpenAIKey == "" {
		missing = append(missing, "OPENAI_API_KEY")
	}
	rawRepos := os.Getenv("TARGET_REPOS")
	if rawRepos == "" {
		missing = append(missing, "TARGET_REPOS")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	repos, err := ParseRepos(rawRepos)
	if err != nil {
		return nil, err
	}
	cfg.TargetRepos = repos

	if cfg.IssueLabel == "" {
		cfg.IssueLabel = DefaultIssueLabel
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = DefaultModel
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = DefaultWorkDir
	}

	return cfg, nil
}

// ParseRepos splits a comma-separated "owner/name" list, trimming
// whitespace and dropping empty entries.
func ParseRepos(raw string) ([]string, error) {
	var repos []string
	for _, r := range strings.Split(raw, ",") {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if err := validateRepoName(r); err != nil {
			return nil, err
		}
		repos = append(repos, r)
	}
	if len(repos) == 0 {
		return nil, fmt.Errorf("TARGET_REPOS contains no repositories")
	}
	return repos, nil
}

// SplitRepo breaks "owner/name" into its parts.
func SplitRepo(full string) (owner, name string, err error) {
	if err := validateRepoName(full); err != nil {
		return "", "", err
	}
	owner, name, _ = strings.Cut(full, "/")
	return owner, name, nil
}

func validateRepoName(full string) error {
	owner, name, ok := strings.Cut(full, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("invalid repository %q: expected owner/name", full)
	}
	return nil
}
