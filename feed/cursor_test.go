package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadedCursor(oldest int64) *Cursor {
	c := NewCursor()
	c.ResetForConversation(1)
	c.LatestLoaded(oldest, 20, 20)
	return c
}

func TestCursorInitialState(t *testing.T) {
	c := NewCursor()
	c.ResetForConversation(4)
	assert.True(t, c.HasMore())
	assert.False(t, c.InFlight())
	_, ok := c.OldestID()
	assert.False(t, ok)

	_, ok = c.BeginOlderFetch()
	assert.False(t, ok, "nothing loaded yet, nothing older to ask for")
}

func TestCursorBeginReturnsOldest(t *testing.T) {
	c := loadedCursor(8)
	req, ok := c.BeginOlderFetch()
	require.True(t, ok)
	assert.Equal(t, int64(8), req.Before)
	assert.Equal(t, int64(1), req.ConversationID)
	assert.True(t, c.InFlight())
}

func TestCursorInFlightExclusion(t *testing.T) {
	c := loadedCursor(8)
	_, ok := c.BeginOlderFetch()
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		_, ok = c.BeginOlderFetch()
		assert.False(t, ok)
	}
}

func TestCursorPaginationTermination(t *testing.T) {
	c := loadedCursor(100)

	req, ok := c.BeginOlderFetch()
	require.True(t, ok)
	require.True(t, c.CompleteOlderFetch(req, 20, 20))
	assert.True(t, c.HasMore())
	c.Track(80)

	req, ok = c.BeginOlderFetch()
	require.True(t, ok)
	require.True(t, c.CompleteOlderFetch(req, 7, 20))
	assert.False(t, c.HasMore())
	assert.False(t, c.InFlight())

	for i := 0; i < 5; i++ {
		c.Track(int64(70 - i))
		_, ok = c.BeginOlderFetch()
		assert.False(t, ok)
	}
}

func TestCursorFailureReleasesSlot(t *testing.T) {
	c := loadedCursor(8)
	req, ok := c.BeginOlderFetch()
	require.True(t, ok)
	c.CompleteOlderFetch(req, 0, 20)
	assert.False(t, c.InFlight())
	assert.False(t, c.HasMore())
}

func TestCursorStaleCompletionIgnored(t *testing.T) {
	c := loadedCursor(8)
	stale, ok := c.BeginOlderFetch()
	require.True(t, ok)

	c.ResetForConversation(2)
	c.LatestLoaded(50, 20, 20)
	fresh, ok := c.BeginOlderFetch()
	require.True(t, ok)

	assert.False(t, c.CompleteOlderFetch(stale, 3, 20))
	assert.True(t, c.InFlight(), "stale completion must not release the new request")
	assert.True(t, c.HasMore())

	assert.True(t, c.CompleteOlderFetch(fresh, 20, 20))
	assert.False(t, c.InFlight())
}

func TestCursorShortInitialPage(t *testing.T) {
	c := NewCursor()
	c.ResetForConversation(1)
	c.LatestLoaded(3, 2, 20)
	assert.False(t, c.HasMore())
	_, ok := c.BeginOlderFetch()
	assert.False(t, ok)
}

func TestCursorRestartDropsInFlight(t *testing.T) {
	c := loadedCursor(8)
	req, ok := c.BeginOlderFetch()
	require.True(t, ok)

	c.Restart(40, 20, 20)
	assert.False(t, c.InFlight())
	assert.False(t, c.CompleteOlderFetch(req, 3, 20), "issued against the previous window")
	assert.True(t, c.HasMore())

	next, ok := c.BeginOlderFetch()
	require.True(t, ok)
	assert.Equal(t, int64(40), next.Before)
}
