package staging

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	pkgerrs "github.com/chainthreads/go-threads-publisher/pkg/errors"
)

const (
	githubAPIBase = "https://api.github.com"
	rawBase       = "https://raw.githubusercontent.com"

	// DefaultGitHubTimeout bounds a single contents-API call.
	DefaultGitHubTimeout = 60 * time.Second
)

// GitHubStore stages media as files in a public GitHub repository via the
// contents API. The raw.githubusercontent.com URL of a committed file is
// publicly reachable, which is all the platform needs.
type GitHubStore struct {
	owner  string
	repo   string
	branch string
	token  string
	dir    string

	client  *http.Client
	apiBase string
	rawBase string
}

// GitHubConfig configures a GitHubStore.
type GitHubConfig struct {
	// Owner and Repo identify the public repository used for staging.
	Owner string
	Repo  string

	// Branch to commit to. Defaults to "main".
	Branch string

	// Token is a personal access token with contents write permission.
	Token string

	// Dir is an optional directory prefix inside the repository.
	Dir string

	// HTTPClient to use for requests. Defaults to a client with
	// DefaultGitHubTimeout if not specified.
	HTTPClient *http.Client

	// APIBase and RawBase override the GitHub endpoints, for testing.
	APIBase string
	RawBase string
}

// NewGitHubStore validates the configuration and returns a ready store.
func NewGitHubStore(cfg GitHubConfig) (*GitHubStore, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("staging: github owner and repo are required")
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("staging: github token is required")
	}
	branch := cfg.Branch
	if branch == "" {
		branch = "main"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultGitHubTimeout}
	}
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = githubAPIBase
	}
	raw := cfg.RawBase
	if raw == "" {
		raw = rawBase
	}
	return &GitHubStore{
		owner:   cfg.Owner,
		repo:    cfg.Repo,
		branch:  branch,
		token:   cfg.Token,
		dir:     cfg.Dir,
		client:  client,
		apiBase: apiBase,
		rawBase: raw,
	}, nil
}

func (s *GitHubStore) Name() string { return "github" }

func (s *GitHubStore) path(name string) string {
	if s.dir != "" {
		return s.dir + "/" + name
	}
	return name
}

func (s *GitHubStore) contentsURL(name string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", s.apiBase, s.owner, s.repo, s.path(name))
}

// Put commits the payload to the staging repository and returns the raw URL
// plus the blob SHA needed to delete it again.
func (s *GitHubStore) Put(ctx context.Context, name string, data []byte, contentType string) (Artifact, error) {
	body, err := json.Marshal(map[string]string{
		"message": "stage " + name,
		"content": base64.StdEncoding.EncodeToString(data),
		"branch":  s.branch,
	})
	if err != nil {
		return Artifact{}, &pkgerrs.StagingError{Provider: s.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.contentsURL(name), bytes.NewReader(body))
	if err != nil {
		return Artifact{}, &pkgerrs.StagingError{Provider: s.Name(), Err: err}
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return Artifact{}, &pkgerrs.StagingError{Provider: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return Artifact{}, &pkgerrs.StagingError{Provider: s.Name(), StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var created struct {
		Content struct {
			SHA string `json:"sha"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		return Artifact{}, &pkgerrs.StagingError{Provider: s.Name(), Err: err}
	}

	return Artifact{
		URL:        fmt.Sprintf("%s/%s/%s/%s/%s", s.rawBase, s.owner, s.repo, s.branch, s.path(name)),
		Name:       name,
		Handle:     created.Content.SHA,
		UploadedAt: time.Now(),
	}, nil
}

// Delete removes a staged file. A 404 means the file is already gone and is
// treated as success.
func (s *GitHubStore) Delete(ctx context.Context, artifact Artifact) error {
	body, err := json.Marshal(map[string]string{
		"message": "unstage " + artifact.Name,
		"sha":     artifact.Handle,
		"branch":  s.branch,
	})
	if err != nil {
		return &pkgerrs.StagingError{Provider: s.Name(), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, s.contentsURL(artifact.Name), bytes.NewReader(body))
	if err != nil {
		return &pkgerrs.StagingError{Provider: s.Name(), Err: err}
	}
	s.setHeaders(req)

	resp, err := s.client.Do(req)
	if err != nil {
		return &pkgerrs.StagingError{Provider: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		return &pkgerrs.StagingError{Provider: s.Name(), StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return nil
}

func (s *GitHubStore) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")
}
