package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_SetGetClear(t *testing.T) {
	s := New()
	assert.Equal(t, Snapshot{}, s.Get())

	require.NoError(t, s.Set("bob", "pub"))
	assert.Equal(t, Snapshot{LoggedIn: true, Alias: "bob", Pub: "pub"}, s.Get())

	s.Clear()
	assert.False(t, s.Get().LoggedIn)
	assert.Empty(t, s.Get().Alias)
}

func TestState_RejectsIncomplete(t *testing.T) {
	s := New()
	require.ErrorIs(t, s.Set("", "pub"), ErrIncomplete)
	require.ErrorIs(t, s.Set("bob", ""), ErrIncomplete)
	assert.False(t, s.Get().LoggedIn)
}

func TestState_ConcurrentSnapshotsAreConsistent(t *testing.T) {
	s := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.Set("bob", "pub-bob")
		}()
		go func() {
			defer wg.Done()
			snap := s.Get()
			if snap.LoggedIn {
				assert.Equal(t, "bob", snap.Alias)
				assert.Equal(t, "pub-bob", snap.Pub)
			}
		}()
	}
	wg.Wait()
}
