package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for range count {
		id, err := Generate("state")
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	id, err := Generate("state")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id, "state-"))
	assert.Len(t, id, len("state-")+nonceLength)
}

func TestGenerate_NoPrefix(t *testing.T) {
	id, err := Generate("")
	require.NoError(t, err)

	assert.Len(t, id, nonceLength)
}
