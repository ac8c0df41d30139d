package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwillems/devassist/errors"
)

func TestMockClientReturnsScriptedRepliesInOrder(t *testing.T) {
	m := &MockClient{Replies: []string{"one", "two"}}

	first, err := m.Complete(context.Background(), "t1", Options{})
	require.NoError(t, err)
	second, err := m.Complete(context.Background(), "t2", Options{})
	require.NoError(t, err)

	assert.Equal(t, "one", first)
	assert.Equal(t, "two", second)
	assert.Equal(t, []string{"t1", "t2"}, m.Transcripts)
}

func TestMockClientExhaustionIsBackendUnavailable(t *testing.T) {
	m := &MockClient{}
	_, err := m.Complete(context.Background(), "t", Options{})
	require.Error(t, err)
	assert.Equal(t, errors.KindBackendUnavailable, errors.KindOf(err))
}
