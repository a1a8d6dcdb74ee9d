package linker

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOriginSetJSON(t *testing.T) {
	links := BugLinkMap{"abcdef12": NewOriginSet("deadbeef", "cafebabe", "deadbeef")}

	data, err := json.Marshal(links)
	require.NoError(t, err)
	assert.JSONEq(t, `{"abcdef12": ["cafebabe", "deadbeef"]}`, string(data))

	var decoded BugLinkMap
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, links, decoded)
}
