package feed

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandchat/models"
)

func msg(id int64) models.Message {
	return models.Message{ID: id, ConversationID: 1, SenderID: "u1", Body: "m", Kind: models.KindText}
}

// page builds a newest-first page from the given ids.
func page(ids ...int64) []models.Message {
	out := make([]models.Message, len(ids))
	for i, id := range ids {
		out[i] = msg(id)
	}
	return out
}

func ids(s *Store) []int64 {
	out := make([]int64, 0, s.Len())
	for _, m := range s.Messages() {
		out = append(out, m.ID)
	}
	return out
}

func assertOrdered(t *testing.T, s *Store) {
	t.Helper()
	got := ids(s)
	for i := 1; i < len(got); i++ {
		require.Less(t, got[i-1], got[i], "store not strictly ascending: %v", got)
	}
	for i, id := range got {
		idx, ok := s.IndexOf(id)
		require.True(t, ok)
		require.Equal(t, i, idx)
	}
}

func TestReplaceWithLatestPage(t *testing.T) {
	t.Run("full page", func(t *testing.T) {
		s := NewStore(3)
		s.ReplaceWithLatestPage(page(10, 9, 8))
		assert.Equal(t, []int64{8, 9, 10}, ids(s))
		assert.True(t, s.HasMore())
	})

	t.Run("short page", func(t *testing.T) {
		s := NewStore(20)
		s.ReplaceWithLatestPage(page(10, 9, 8))
		assert.Equal(t, []int64{8, 9, 10}, ids(s))
		assert.False(t, s.HasMore())
	})

	t.Run("empty conversation", func(t *testing.T) {
		s := NewStore(20)
		s.ReplaceWithLatestPage(nil)
		assert.Zero(t, s.Len())
		assert.False(t, s.HasMore())
		_, ok := s.OldestID()
		assert.False(t, ok)
	})

	t.Run("replaces previous contents", func(t *testing.T) {
		s := NewStore(2)
		s.ReplaceWithLatestPage(page(5, 4))
		s.ReplaceWithLatestPage(page(9, 8))
		assert.Equal(t, []int64{8, 9}, ids(s))
		_, ok := s.IndexOf(5)
		assert.False(t, ok)
	})
}

func TestPrependOlderPage(t *testing.T) {
	t.Run("full page keeps paging", func(t *testing.T) {
		s := NewStore(2)
		s.ReplaceWithLatestPage(page(10, 9))
		s.merge(page(8)) // [8,9,10]
		s.PrependOlderPage(page(7, 6))
		assert.Equal(t, []int64{6, 7, 8, 9, 10}, ids(s))
		assert.True(t, s.HasMore())
	})

	t.Run("short page ends history", func(t *testing.T) {
		s := NewStore(2)
		s.ReplaceWithLatestPage(page(10, 9))
		s.merge(page(8))
		s.PrependOlderPage(page(7))
		assert.Equal(t, []int64{7, 8, 9, 10}, ids(s))
		assert.False(t, s.HasMore())
	})

	t.Run("empty page is a no-op", func(t *testing.T) {
		s := NewStore(2)
		s.ReplaceWithLatestPage(page(10, 9))
		s.PrependOlderPage(nil)
		assert.Equal(t, []int64{9, 10}, ids(s))
		assert.False(t, s.HasMore())
	})

	t.Run("overlapping ids are dropped", func(t *testing.T) {
		s := NewStore(3)
		s.ReplaceWithLatestPage(page(10, 9, 8))
		s.PrependOlderPage(page(9, 8, 7))
		assert.Equal(t, []int64{7, 8, 9, 10}, ids(s))
		assert.True(t, s.HasMore(), "has-more follows raw page length")
		assertOrdered(t, s)
	})
}

func TestAppendSent(t *testing.T) {
	s := NewStore(3)
	s.ReplaceWithLatestPage(page(10, 9, 8))

	assert.True(t, s.AppendSent(msg(11)))
	assert.Equal(t, []int64{8, 9, 10, 11}, ids(s))

	assert.False(t, s.AppendSent(msg(9)), "duplicate id must be refused")
	assert.Equal(t, []int64{8, 9, 10, 11}, ids(s))

	idx, ok := s.IndexOf(11)
	require.True(t, ok)
	assert.Equal(t, 3, idx)
}

func TestAppendThenPrependIndependent(t *testing.T) {
	s := NewStore(2)
	s.ReplaceWithLatestPage(page(10, 9))
	s.merge(page(8))
	// older fetch issued against cursor 8, append lands first
	s.AppendSent(msg(11))
	s.PrependOlderPage(page(7, 6))
	assert.Equal(t, []int64{6, 7, 8, 9, 10, 11}, ids(s))
	assertOrdered(t, s)
}

func TestResolveParent(t *testing.T) {
	s := NewStore(3)
	s.ReplaceWithLatestPage(page(10, 9, 8))

	p, ok := s.ResolveParent(9)
	require.True(t, ok)
	assert.Equal(t, int64(9), p.ID)

	_, ok = s.ResolveParent(2)
	assert.False(t, ok)
}

func TestMergeNewer(t *testing.T) {
	s := NewStore(3)
	s.ReplaceWithLatestPage(page(10, 9, 8))

	refreshed := page(12, 11, 10)
	refreshed[2].ReadCount = 4
	added, changed := s.MergeNewer(refreshed)

	assert.Equal(t, 2, added)
	assert.Equal(t, 1, changed)
	assert.Equal(t, []int64{8, 9, 10, 11, 12}, ids(s))
	m, _ := s.ResolveParent(10)
	assert.Equal(t, 4, m.ReadCount)
}

func TestMergeNewerSkipsGap(t *testing.T) {
	s := NewStore(3)
	s.ReplaceWithLatestPage(page(10, 8, 6))
	added, _ := s.MergeNewer(page(11, 9))
	assert.Equal(t, 1, added)
	assert.Equal(t, []int64{6, 8, 10, 11}, ids(s))
}

func TestStoreReaches(t *testing.T) {
	s := NewStore(3)
	assert.True(t, s.Reaches(page(5, 4, 3)), "empty store")

	s.ReplaceWithLatestPage(page(3, 2, 1))
	assert.True(t, s.Reaches(page(5, 4, 3)))
	assert.True(t, s.Reaches(page(5, 4)), "short page is the whole tail")
	assert.False(t, s.Reaches(page(8, 7, 6)))
}

func TestStoreInvariantsUnderRandomOps(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 200; round++ {
		s := NewStore(1 + rng.Intn(5))
		next := int64(100)
		oldest := int64(100)
		s.ReplaceWithLatestPage(page(next, next-1))
		oldest = next - 1

		for op := 0; op < 30; op++ {
			switch rng.Intn(4) {
			case 0:
				next++
				s.AppendSent(msg(next))
			case 1:
				n := rng.Intn(4)
				var p []models.Message
				for i := 0; i < n; i++ {
					p = append(p, msg(oldest-1-int64(i)))
				}
				if n > 0 {
					oldest -= int64(n)
				}
				s.PrependOlderPage(p)
			case 2:
				// overlapping, unordered page straight from a misbehaving backend
				p := page(oldest+int64(rng.Intn(3)), oldest-1, oldest+1)
				s.PrependOlderPage(p)
				oldest--
			case 3:
				s.MergeNewer(page(next+1, next, next-1))
				next++
			}
			assertOrdered(t, s)
		}
	}
}
