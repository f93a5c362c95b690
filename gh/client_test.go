package gh

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewWithBaseURL("test-token", srv.URL)
	require.NoError(t, err)
	return c
}

func TestRepo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/org/demo", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"demo","clone_url":"https://github.com/org/demo.git","default_branch":"main"}`)
	})

	info, err := testClient(t, mux).Repo(context.Background(), "org", "demo")
	require.NoError(t, err)
	require.Equal(t, "https://github.com/org/demo.git", info.CloneURL)
	require.Equal(t, "main", info.DefaultBranch)
}

func TestFileExists(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/org/demo/contents/renovate.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"type":"file","name":"renovate.json","path":"renovate.json"}`)
	})
	mux.HandleFunc("GET /repos/org/demo/contents/missing.json", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})

	c := testClient(t, mux)
	ctx := context.Background()

	ok, err := c.FileExists(ctx, "org", "demo", "renovate.json")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.FileExists(ctx, "org", "demo", "missing.json")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHasWorkflows(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/org/with/contents/.github/workflows", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[{"type":"file","name":"docker.yml","path":".github/workflows/docker.yml"}]`)
	})
	mux.HandleFunc("GET /repos/org/without/contents/.github/workflows", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not Found"}`)
	})

	c := testClient(t, mux)
	ctx := context.Background()

	ok, err := c.HasWorkflows(ctx, "org", "with")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = c.HasWorkflows(ctx, "org", "without")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpenIssues(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/org/demo/issues", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "python_demonstrator", r.URL.Query().Get("labels"))
		require.Equal(t, "open", r.URL.Query().Get("state"))
		fmt.Fprint(w, `[
			{"number":7,"title":"CPU dashboard","body":"plot it","labels":[{"name":"python_demonstrator"}]},
			{"number":8,"title":"already running","labels":[{"name":"python_demonstrator"},{"name":"in-progress"}]},
			{"number":9,"title":"a PR, not an issue","pull_request":{"url":"x"},"labels":[{"name":"python_demonstrator"}]}
		]`)
	})

	issues, err := testClient(t, mux).OpenIssues(context.Background(), "org", "demo", "python_demonstrator")
	require.NoError(t, err)
	require.Len(t, issues, 2)

	require.Equal(t, 7, issues[0].Number)
	require.Equal(t, "CPU dashboard", issues[0].Title)
	require.Equal(t, "plot it", issues[0].Body)
	require.False(t, issues[0].HasLabel("in-progress"))
	require.True(t, issues[1].HasLabel("in-progress"))
}

func TestCreatePull(t *testing.T) {
	var body struct {
		Title string `json:"title"`
		Head  string `json:"head"`
		Base  string `json:"base"`
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/org/demo/pulls", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"number":12,"title":"Add default renovate.json","html_url":"https://github.com/org/demo/pull/12"}`)
	})

	pr, err := testClient(t, mux).CreatePull(context.Background(),
		"org", "demo", "Add default renovate.json", "body", "add-renovate-abc123", "main")
	require.NoError(t, err)
	require.Equal(t, 12, pr.Number)
	require.Equal(t, "https://github.com/org/demo/pull/12", pr.URL)
	require.Equal(t, "add-renovate-abc123", body.Head)
	require.Equal(t, "main", body.Base)
}

func TestCreatePullRetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/org/demo/pulls", func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"number":3,"title":"t","html_url":"u"}`)
	})

	pr, err := testClient(t, mux).CreatePull(context.Background(), "org", "demo", "t", "b", "h", "main")
	require.NoError(t, err)
	require.Equal(t, 3, pr.Number)
	require.Equal(t, int32(2), calls.Load())
}

func TestCreatePullDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/org/demo/pulls", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message":"A pull request already exists"}`)
	})

	_, err := testClient(t, mux).CreatePull(context.Background(), "org", "demo", "t", "b", "h", "main")
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())
}

func TestAddLabelAndComment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /repos/org/demo/issues/7/labels", func(w http.ResponseWriter, r *http.Request) {
		var labels []string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&labels))
		require.Equal(t, []string{"in-progress"}, labels)
		fmt.Fprint(w, `[{"name":"in-progress"}]`)
	})
	mux.HandleFunc("POST /repos/org/demo/issues/7/comments", func(w http.ResponseWriter, r *http.Request) {
		var c struct {
			Body string `json:"body"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&c))
		require.Contains(t, c.Body, "pull/12")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":1}`)
	})

	c := testClient(t, mux)
	ctx := context.Background()

	require.NoError(t, c.AddLabel(ctx, "org", "demo", 7, "in-progress"))
	require.NoError(t, c.Comment(ctx, "org", "demo", 7, "Demo added: https://github.com/org/demo/pull/12"))
}
