package validation

import (
	"net/http/httptest"
	"strings"
	"testing"

	"szz/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateLinkRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    []string
		wantErr bool
	}{
		{"valid", `{"commits": ["abcdef1234", "HEAD"]}`, []string{"abcdef1234", "HEAD"}, false},
		{"malformed json", `{"commits": [`, nil, true},
		{"missing commits", `{}`, nil, true},
		{"empty commits", `{"commits": []}`, nil, true},
		{"blank commit", `{"commits": ["abc", "  "]}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/links", strings.NewReader(tt.body))
			got, err := ValidateLinkRequest(req)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrValidation))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Commits)
		})
	}
}

func TestValidateCommits_TooMany(t *testing.T) {
	commits := make([]string, MaxCommits+1)
	for i := range commits {
		commits[i] = "abc"
	}
	err := ValidateCommits(commits)
	require.Error(t, err)

	var e *errors.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, map[string]int{"count": MaxCommits + 1, "max": MaxCommits}, e.Details)
}
