package blob

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
)

// DefaultGitHubAPI is the public GitHub REST endpoint.
const DefaultGitHubAPI = "https://api.github.com"

// maxResponseBytes bounds how much of a host response is buffered.
const maxResponseBytes = 32 << 20

// GitHubConfig configures a GitHub contents API client.
type GitHubConfig struct {
	// Token is a personal access or app token with contents:write on Repo.
	Token string
	Owner string
	Repo  string
	// Branch the blob lives on. Defaults to "main".
	Branch string
	// BaseURL of the REST API. Defaults to DefaultGitHubAPI.
	BaseURL string

	// Optional committer identity. When both are empty GitHub uses the
	// token's owner.
	CommitterName  string
	CommitterEmail string

	// UserAgent sent with every request. GitHub rejects requests without one.
	UserAgent string

	// HTTPClient overrides the transport. When nil, an oauth2 client bound to
	// Token is used. When set, the caller is responsible for authentication.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// GitHub is a Store backed by the GitHub contents API.
type GitHub struct {
	cfg    GitHubConfig
	client *http.Client
	logger *slog.Logger
}

// NewGitHub constructs a GitHub store. It performs no I/O.
func NewGitHub(cfg GitHubConfig) (*GitHub, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, errors.New("blob: github owner and repo are required")
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGitHubAPI
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = "jadwald"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	client := cfg.HTTPClient
	if client == nil {
		if cfg.Token == "" {
			return nil, errors.New("blob: github token is required")
		}
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token, TokenType: "Bearer"})
		client = oauth2.NewClient(context.Background(), ts)
	}

	return &GitHub{cfg: cfg, client: client, logger: cfg.Logger}, nil
}

type contentsResponse struct {
	Type     string `json:"type"`
	Encoding string `json:"encoding"`
	Content  string `json:"content"`
	SHA      string `json:"sha"`
}

type committer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type putRequest struct {
	Message   string     `json:"message"`
	Content   string     `json:"content"`
	Branch    string     `json:"branch"`
	SHA       string     `json:"sha,omitempty"`
	Committer *committer `json:"committer,omitempty"`
}

type putResponse struct {
	Content *struct {
		SHA string `json:"sha"`
	} `json:"content"`
}

// Read implements Store.
func (g *GitHub) Read(ctx context.Context, path string) (Snapshot, error) {
	u := g.contentsURL(path) + "?ref=" + url.QueryEscape(g.cfg.Branch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return Snapshot{}, fmt.Errorf("blob: build read request: %w", err)
	}
	status, body, err := g.do(req, "read", path)
	if err != nil {
		return Snapshot{}, err
	}

	switch {
	case status == http.StatusNotFound:
		g.logger.Debug("blob: not found", "path", path, "branch", g.cfg.Branch)
		return Snapshot{}, nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return Snapshot{}, fmt.Errorf("blob: read %s: %w (status %d)", path, ErrAuth, status)
	case status != http.StatusOK:
		return Snapshot{}, &StatusError{Op: "read", Status: status, Body: body}
	}

	var cr contentsResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return Snapshot{}, &MalformedResponseError{Op: "read", Status: status, Body: body, Err: err}
	}
	if cr.SHA == "" {
		return Snapshot{}, &MalformedResponseError{Op: "read", Status: status, Body: body, Err: errors.New("missing sha")}
	}
	if cr.Type != "" && cr.Type != "file" {
		return Snapshot{}, &MalformedResponseError{Op: "read", Status: status, Body: body, Err: fmt.Errorf("path is a %s, not a file", cr.Type)}
	}

	content, err := decodeContent(cr)
	if err != nil {
		return Snapshot{}, &MalformedResponseError{Op: "read", Status: status, Body: body, Err: err}
	}
	return Snapshot{Content: content, Version: cr.SHA, Exists: true}, nil
}

// Write implements Store.
func (g *GitHub) Write(ctx context.Context, path string, content []byte, expectedVersion, message string) (string, error) {
	payload := putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  g.cfg.Branch,
		SHA:     expectedVersion,
	}
	if g.cfg.CommitterName != "" || g.cfg.CommitterEmail != "" {
		payload.Committer = &committer{Name: g.cfg.CommitterName, Email: g.cfg.CommitterEmail}
	}
	buf, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("blob: encode write request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, g.contentsURL(path), bytes.NewReader(buf))
	if err != nil {
		return "", fmt.Errorf("blob: build write request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	status, body, err := g.do(req, "write", path)
	if err != nil {
		return "", err
	}

	switch {
	case status == http.StatusConflict:
		return "", fmt.Errorf("blob: write %s: %w", path, ErrVersionConflict)
	case status == http.StatusUnprocessableEntity && expectedVersion == "":
		// The file appeared after our read; GitHub asks for its sha.
		return "", fmt.Errorf("blob: write %s: %w", path, ErrVersionConflict)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "", fmt.Errorf("blob: write %s: %w (status %d)", path, ErrAuth, status)
	case status != http.StatusOK && status != http.StatusCreated:
		return "", &StatusError{Op: "write", Status: status, Body: body}
	}

	var pr putResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return "", &MalformedResponseError{Op: "write", Status: status, Body: body, Err: err}
	}
	if pr.Content == nil || pr.Content.SHA == "" {
		return "", &MalformedResponseError{Op: "write", Status: status, Body: body, Err: errors.New("missing content.sha")}
	}
	g.logger.Info("blob: committed", "path", path, "branch", g.cfg.Branch, "sha", pr.Content.SHA)
	return pr.Content.SHA, nil
}

func (g *GitHub) contentsURL(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		g.cfg.BaseURL, url.PathEscape(g.cfg.Owner), url.PathEscape(g.cfg.Repo), strings.Join(parts, "/"))
}

func (g *GitHub) do(req *http.Request, op, path string) (int, []byte, error) {
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", g.cfg.UserAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, nil, &TransportError{Op: op, Path: path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, &TransportError{Op: op, Path: path, Err: err}
	}
	return resp.StatusCode, body, nil
}

// decodeContent handles GitHub's base64 payload, which is wrapped at 60
// columns. Files above 1MB come back with an empty content and encoding
// "none"; those are rejected rather than read as empty.
func decodeContent(cr contentsResponse) ([]byte, error) {
	switch cr.Encoding {
	case "base64":
		clean := strings.NewReplacer("\n", "", "\r", "").Replace(cr.Content)
		return base64.StdEncoding.DecodeString(clean)
	case "", "utf-8":
		return []byte(cr.Content), nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", cr.Encoding)
	}
}
