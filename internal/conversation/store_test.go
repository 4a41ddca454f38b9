package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	state, err := s.Load(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, state.History)

	saved := SessionState{
		History: []Message{{Role: "user", Content: "hi"}},
		Summary: &Summary{Text: "earlier talk", MessagesIncluded: 4},
	}
	require.NoError(t, s.Save(ctx, "s1", saved))

	loaded, err := s.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, saved.History, loaded.History)
	require.NotNil(t, loaded.Summary)
	assert.Equal(t, 4, loaded.Summary.MessagesIncluded)
}

func TestMemoryStoreSessionsIsolated(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, "a", SessionState{History: []Message{{Role: "user", Content: "a"}}}))
	require.NoError(t, s.Save(ctx, "b", SessionState{History: []Message{{Role: "user", Content: "b"}}}))

	a, _ := s.Load(ctx, "a")
	b, _ := s.Load(ctx, "b")
	assert.NotEqual(t, a.History, b.History)
}
