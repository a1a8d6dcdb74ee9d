package validation

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"szz/internal/errors"
	"szz/shared/types"
)

const (
	// MaxCommits bounds a single link request.
	MaxCommits = 1000
	// MaxBodyBytes bounds the request body read by ValidateLinkRequest.
	MaxBodyBytes = 1 << 20
)

// ValidateLinkRequest decodes a link request and checks its commit list.
// Reference syntax itself is checked by the linker.
func ValidateLinkRequest(r *http.Request) (*types.LinkRequest, error) {
	var req types.LinkRequest
	body := io.LimitReader(r.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		return nil, errors.ValidationError("invalid request body", err.Error())
	}

	if err := ValidateCommits(req.Commits); err != nil {
		return nil, err
	}
	return &req, nil
}

// ValidateCommits rejects an empty or oversized list and blank entries.
func ValidateCommits(commits []string) error {
	if len(commits) == 0 {
		return errors.ValidationError("commits is required", nil)
	}
	if len(commits) > MaxCommits {
		return errors.ValidationError("too many commits", map[string]int{
			"count": len(commits),
			"max":   MaxCommits,
		})
	}

	var blank []int
	for i, c := range commits {
		if strings.TrimSpace(c) == "" {
			blank = append(blank, i)
		}
	}
	if len(blank) > 0 {
		return errors.ValidationError("commits must not be blank", map[string][]int{"indexes": blank})
	}
	return nil
}
