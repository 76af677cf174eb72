package feed

// DefaultPageSize is used when no page size is configured.
const DefaultPageSize = 20

// Request ties an older-page fetch to the cursor state it was issued against.
type Request struct {
	ConversationID int64
	// Before is the oldest loaded message ID; the backend returns messages
	// strictly older than it.
	Before     int64
	generation uint64
	epoch      uint64
}

// Cursor gates "load older" requests: at most one in flight, none after the
// backend reported a short page.
type Cursor struct {
	conversationID int64
	oldestID       int64
	hasOldest      bool
	hasMore        bool
	inFlight       bool
	generation     uint64
	// epoch advances when the loaded window is rebuilt within the same
	// conversation; older fetches from a previous window are ignored.
	epoch uint64
}

func NewCursor() *Cursor {
	return &Cursor{hasMore: true}
}

// ResetForConversation returns the cursor to its initial state for a new
// conversation. Completions of requests issued before the reset are ignored.
func (c *Cursor) ResetForConversation(id int64) {
	c.generation++
	c.conversationID = id
	c.oldestID = 0
	c.hasOldest = false
	c.hasMore = true
	c.inFlight = false
}

// LatestLoaded records the outcome of the initial page load.
func (c *Cursor) LatestLoaded(oldestID int64, pageLength, requestedSize int) {
	if pageLength > 0 {
		c.Track(oldestID)
	}
	c.hasMore = pageLength == requestedSize
}

// Restart rebuilds the cursor from a fresh latest page without leaving the
// conversation. An older fetch still in flight is abandoned.
func (c *Cursor) Restart(oldestID int64, pageLength, requestedSize int) {
	c.epoch++
	c.inFlight = false
	c.hasOldest = false
	c.LatestLoaded(oldestID, pageLength, requestedSize)
}

// Track records the oldest loaded message ID after a store mutation.
func (c *Cursor) Track(oldestID int64) {
	c.oldestID = oldestID
	c.hasOldest = true
}

// BeginOlderFetch claims the single in-flight slot. ok is false when a fetch is
// already running, when history is exhausted or when nothing is loaded yet.
func (c *Cursor) BeginOlderFetch() (Request, bool) {
	if c.inFlight || !c.hasMore || !c.hasOldest {
		return Request{}, false
	}
	c.inFlight = true
	return Request{
		ConversationID: c.conversationID,
		Before:         c.oldestID,
		generation:     c.generation,
		epoch:          c.epoch,
	}, true
}

// CompleteOlderFetch releases the in-flight slot. A page shorter than
// requestedSize marks the end of history. It returns false, changing nothing,
// when req was issued before the last reset.
func (c *Cursor) CompleteOlderFetch(req Request, pageLength, requestedSize int) bool {
	if !c.current(req) {
		return false
	}
	c.inFlight = false
	c.hasMore = pageLength == requestedSize
	return true
}

func (c *Cursor) current(req Request) bool {
	return req.generation == c.generation && req.epoch == c.epoch
}

func (c *Cursor) ConversationID() int64 { return c.conversationID }

func (c *Cursor) HasMore() bool { return c.hasMore }

func (c *Cursor) InFlight() bool { return c.inFlight }

// OldestID returns the pagination cursor, if any message is loaded.
func (c *Cursor) OldestID() (int64, bool) { return c.oldestID, c.hasOldest }
