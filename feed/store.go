// Package feed holds the client-side state of one open conversation: the ordered
// message list, the older-page fetch cursor and the scroll anchor that keeps the
// reader in place while history is inserted above them.
//
// None of the types here are safe for concurrent use. They are owned by the UI
// loop; network I/O happens elsewhere and its results are applied on the loop.
package feed

import (
	"sort"

	"bandchat/models"
)

// Store is the ordered, deduplicated message list of one conversation.
// Messages are kept in strictly increasing ID order.
type Store struct {
	pageSize int
	messages []models.Message
	index    map[int64]int
	hasMore  bool
}

func NewStore(pageSize int) *Store {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Store{
		pageSize: pageSize,
		index:    make(map[int64]int),
		hasMore:  true,
	}
}

// PageSize is the requested size used for the short-page rule.
func (s *Store) PageSize() int { return s.pageSize }

// Reset empties the store for a conversation switch.
func (s *Store) Reset() {
	s.messages = nil
	s.index = make(map[int64]int)
	s.hasMore = true
}

// ReplaceWithLatestPage replaces the contents with the newest page of a
// conversation. page is newest-first, as the backend returns it.
func (s *Store) ReplaceWithLatestPage(page []models.Message) {
	s.messages = nil
	s.index = make(map[int64]int)
	s.merge(chronological(page))
	s.hasMore = len(page) == s.pageSize
}

// PrependOlderPage merges a newest-first page of older history below the
// loaded entries. IDs already present are dropped. An empty page only marks the
// end of history.
func (s *Store) PrependOlderPage(page []models.Message) {
	s.hasMore = len(page) == s.pageSize
	if len(page) == 0 {
		return
	}
	s.merge(chronological(page))
}

// AppendSent adds a message confirmed by the backend. It returns false and
// leaves the store unchanged if the ID is already loaded.
func (s *Store) AppendSent(msg models.Message) bool {
	if _, ok := s.index[msg.ID]; ok {
		return false
	}
	return s.merge([]models.Message{msg}) == 1
}

// MergeNewer adds entries from a newest-first page that are newer than the
// newest loaded message and refreshes ReadCount on entries already present.
// It returns how many messages were added and how many loaded entries had
// their ReadCount changed.
func (s *Store) MergeNewer(page []models.Message) (added, refreshed int) {
	newest, loaded := s.NewestID()
	var fresh []models.Message
	for _, m := range chronological(page) {
		if i, ok := s.index[m.ID]; ok {
			if s.messages[i].ReadCount != m.ReadCount {
				s.messages[i].ReadCount = m.ReadCount
				refreshed++
			}
			continue
		}
		if loaded && m.ID < newest {
			// belongs to a gap below the newest entry; paging owns that range
			continue
		}
		fresh = append(fresh, m)
	}
	return s.merge(fresh), refreshed
}

// Reaches reports whether a newest-first latest page connects to the loaded
// window. A full page whose oldest entry is newer than everything loaded may
// have skipped messages in between.
func (s *Store) Reaches(page []models.Message) bool {
	newest, loaded := s.NewestID()
	if !loaded || len(page) < s.pageSize || len(page) == 0 {
		return true
	}
	return page[len(page)-1].ID <= newest
}

// ResolveParent looks up a reply's parent. The second return is false when the
// parent is outside the loaded window.
func (s *Store) ResolveParent(id int64) (models.Message, bool) {
	i, ok := s.index[id]
	if !ok {
		return models.Message{}, false
	}
	return s.messages[i], true
}

// IndexOf maps a message ID to its current position.
func (s *Store) IndexOf(id int64) (int, bool) {
	i, ok := s.index[id]
	return i, ok
}

// Messages returns the loaded messages in chronological order. The slice must
// not be modified.
func (s *Store) Messages() []models.Message { return s.messages }

func (s *Store) Len() int { return len(s.messages) }

func (s *Store) HasMore() bool { return s.hasMore }

func (s *Store) OldestID() (int64, bool) {
	if len(s.messages) == 0 {
		return 0, false
	}
	return s.messages[0].ID, true
}

func (s *Store) NewestID() (int64, bool) {
	if len(s.messages) == 0 {
		return 0, false
	}
	return s.messages[len(s.messages)-1].ID, true
}

// merge is the single insert path. in must be sorted ascending; entries whose
// ID is already present (or repeated within in) are skipped. It returns the
// number of entries added.
func (s *Store) merge(in []models.Message) int {
	fresh := in[:0:0]
	seen := make(map[int64]struct{}, len(in))
	for _, m := range in {
		if _, ok := s.index[m.ID]; ok {
			continue
		}
		if _, ok := seen[m.ID]; ok {
			continue
		}
		seen[m.ID] = struct{}{}
		fresh = append(fresh, m)
	}
	if len(fresh) == 0 {
		return 0
	}

	switch {
	case len(s.messages) == 0:
		s.messages = fresh
	case fresh[0].ID > s.messages[len(s.messages)-1].ID:
		s.messages = append(s.messages, fresh...)
	case fresh[len(fresh)-1].ID < s.messages[0].ID:
		s.messages = append(fresh, s.messages...)
	default:
		merged := make([]models.Message, 0, len(s.messages)+len(fresh))
		i, j := 0, 0
		for i < len(s.messages) && j < len(fresh) {
			if s.messages[i].ID < fresh[j].ID {
				merged = append(merged, s.messages[i])
				i++
			} else {
				merged = append(merged, fresh[j])
				j++
			}
		}
		merged = append(merged, s.messages[i:]...)
		merged = append(merged, fresh[j:]...)
		s.messages = merged
	}
	s.reindex()
	return len(fresh)
}

func (s *Store) reindex() {
	s.index = make(map[int64]int, len(s.messages))
	for i, m := range s.messages {
		s.index[m.ID] = i
	}
}

// chronological copies a newest-first page into ascending ID order. Backends
// are expected to return pages strictly newest-first; sorting also repairs a
// page that is not.
func chronological(page []models.Message) []models.Message {
	out := make([]models.Message, len(page))
	for i, m := range page {
		out[len(page)-1-i] = m
	}
	if !sort.SliceIsSorted(out, func(i, j int) bool { return out[i].ID < out[j].ID }) {
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}
	return out
}
