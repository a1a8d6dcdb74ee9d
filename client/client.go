// client/client.go
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"szz/internal/errors"
	"szz/internal/linker"
	"szz/internal/revision"
	"szz/shared/types"
)

// Client talks to a running `szz serve`.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			// Linking a large batch can take a while.
			Timeout: time.Minute * 5,
		},
	}
}

// Link asks the server to link fixes. Commits the server could not link are
// returned in the second map.
func (c *Client) Link(ctx context.Context, fixes []string) (linker.BugLinkMap, map[string]string, error) {
	data, err := json.Marshal(types.LinkRequest{Commits: fixes})
	if err != nil {
		return nil, nil, err
	}

	var resp types.LinkResponse
	if err := c.do(ctx, http.MethodPost, "/api/links", data, &resp); err != nil {
		return nil, nil, err
	}

	links := make(linker.BugLinkMap, len(resp.Links))
	for fix, origins := range resp.Links {
		set := linker.NewOriginSet()
		for _, o := range origins {
			set.Add(revision.CommitRef(o))
		}
		links[revision.CommitRef(fix)] = set
	}
	return links, resp.Failures, nil
}

func (c *Client) LatestRevision(ctx context.Context) (revision.CommitRef, error) {
	var resp types.LatestResponse
	if err := c.do(ctx, http.MethodGet, "/api/revisions/latest", nil, &resp); err != nil {
		return "", err
	}
	return revision.CommitRef(resp.Revision), nil
}

func (c *Client) ChangedFiles(ctx context.Context, commit string) ([]string, error) {
	var resp types.FilesResponse
	path := fmt.Sprintf("/api/commits/%s/files", url.PathEscape(commit))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

func (c *Client) Health(ctx context.Context) error {
	var resp map[string]string
	return c.do(ctx, http.MethodGet, "/health", nil, &resp)
}

// do sends the request and decodes a JSON answer into out. Error bodies are
// turned back into *errors.Error so callers can match on the error type.
func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e types.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Type == "" {
			return fmt.Errorf("unexpected status: %s", resp.Status)
		}
		return &errors.Error{
			Type:    errors.ErrorType(e.Type),
			Message: e.Message,
			Code:    resp.StatusCode,
			Details: e.Details,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
