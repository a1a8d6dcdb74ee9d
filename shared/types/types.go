// Package types holds the JSON bodies exchanged between the HTTP service and
// its client.
package types

import "szz/internal/diff"

type LinkRequest struct {
	Commits []string `json:"commits"`
}

// LinkResponse maps each normalized fix commit to its sorted origin commits.
// Failures is only populated when the service collects per-commit failures.
type LinkResponse struct {
	Links    map[string][]string `json:"links"`
	Failures map[string]string   `json:"failures,omitempty"`
}

type LatestResponse struct {
	Revision string `json:"revision"`
}

type LogResponse struct {
	Revision string `json:"revision,omitempty"`
	Log      string `json:"log"`
}

type FilesResponse struct {
	Commit string   `json:"commit"`
	Files  []string `json:"files"`
}

type RangesResponse struct {
	Commit string           `json:"commit"`
	File   string           `json:"file"`
	Ranges []diff.LineRange `json:"ranges"`
}

type ErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}
