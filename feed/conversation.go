package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"bandchat/models"
)

// ParentPlaceholder is shown for a reply whose parent is not in the loaded window.
const ParentPlaceholder = "message deleted or not loaded"

var (
	ErrNotOpen      = errors.New("no conversation open")
	ErrEmptyMessage = errors.New("message is empty")
	ErrSendFailed   = errors.New("send failed")
	ErrUploadFailed = errors.New("attachment upload failed")
)

// Backend is the remote side of a conversation. Pages are newest-first.
type Backend interface {
	LatestPage(ctx context.Context, conversationID int64, viewerID string, limit int) ([]models.Message, error)
	OlderPage(ctx context.Context, conversationID int64, viewerID string, before int64, limit int) ([]models.Message, error)
	SendMessage(ctx context.Context, conversationID int64, draft Draft) (models.Message, error)
	Upload(ctx context.Context, name, contentType string, r io.Reader) (models.AttachmentRef, error)
}

// Draft is an outgoing message before the backend assigned it an ID.
type Draft struct {
	SenderID   string
	Body       string
	Kind       models.Kind
	ParentID   *int64
	Attachment *models.AttachmentRef
}

// AttachmentInput describes a file to upload and send.
type AttachmentInput struct {
	Name        string
	ContentType string
	Content     io.Reader
	Caption     string
	ParentID    *int64
}

// ticket pins an operation to the conversation it was issued for.
type ticket struct {
	conversationID int64
	generation     uint64
}

type LatestResult struct {
	t    ticket
	Page []models.Message
	Err  error
}

type OlderResult struct {
	req  Request
	Page []models.Message
	Err  error
}

type SendResult struct {
	t       ticket
	Message models.Message
	Err     error
}

type PollResult struct {
	t    ticket
	Page []models.Message
	Err  error
}

// Conversation owns the store, cursor and anchor of one conversation view.
//
// Every network operation is split in two. The *Job methods run on the UI loop
// and return a function that performs only I/O; it may run on any goroutine.
// Its result is handed back to the matching Apply method on the UI loop.
type Conversation struct {
	backend  Backend
	store    *Store
	cursor   *Cursor
	anchor   *Anchor
	viewerID string
	open     bool
	log      zerolog.Logger
}

func NewConversation(backend Backend, anchor *Anchor, viewerID string, pageSize int, log zerolog.Logger) *Conversation {
	if anchor == nil {
		anchor = NewAnchor(nil)
	}
	return &Conversation{
		backend:  backend,
		store:    NewStore(pageSize),
		cursor:   NewCursor(),
		anchor:   anchor,
		viewerID: viewerID,
		log:      log,
	}
}

func (c *Conversation) Store() *Store   { return c.store }
func (c *Conversation) Cursor() *Cursor { return c.cursor }
func (c *Conversation) Anchor() *Anchor { return c.anchor }
func (c *Conversation) ViewerID() string { return c.viewerID }

// ID returns the open conversation.
func (c *Conversation) ID() int64 { return c.cursor.ConversationID() }

// Switch drops all state and opens conversation id. Results of jobs issued
// for the previous conversation are ignored from now on.
func (c *Conversation) Switch(id int64) {
	c.store.Reset()
	c.cursor.ResetForConversation(id)
	c.open = true
	c.log.Debug().Int64("conversation", id).Msg("conversation opened")
}

func (c *Conversation) ticket() ticket {
	return ticket{conversationID: c.cursor.conversationID, generation: c.cursor.generation}
}

func (c *Conversation) current(t ticket) bool {
	return c.open && t.generation == c.cursor.generation
}

// LatestJob fetches the newest page.
func (c *Conversation) LatestJob() func(context.Context) LatestResult {
	t := c.ticket()
	backend, viewer, size := c.backend, c.viewerID, c.store.PageSize()
	return func(ctx context.Context) LatestResult {
		page, err := backend.LatestPage(ctx, t.conversationID, viewer, size)
		return LatestResult{t: t, Page: page, Err: err}
	}
}

// ApplyLatest installs the initial page and schedules a scroll to the bottom.
// A failed load leaves the store empty and stops paging.
func (c *Conversation) ApplyLatest(r LatestResult) error {
	if !c.current(r.t) {
		return nil
	}
	size := c.store.PageSize()
	if r.Err != nil {
		c.cursor.LatestLoaded(0, 0, size)
		c.log.Warn().Err(r.Err).Int64("conversation", r.t.conversationID).Msg("latest page failed")
		return fmt.Errorf("load conversation %d: %w", r.t.conversationID, r.Err)
	}
	c.store.ReplaceWithLatestPage(r.Page)
	oldest, _ := c.store.OldestID()
	c.cursor.LatestLoaded(oldest, len(r.Page), size)
	c.anchor.ArmBottom()
	c.log.Debug().
		Int64("conversation", r.t.conversationID).
		Int("count", len(r.Page)).
		Bool("has_more", c.cursor.HasMore()).
		Msg("latest page loaded")
	return nil
}

// OlderJob claims the fetch cursor and returns the fetch for the next older
// page. ok is false when the cursor refuses.
func (c *Conversation) OlderJob() (func(context.Context) OlderResult, bool) {
	if !c.open {
		return nil, false
	}
	req, ok := c.cursor.BeginOlderFetch()
	if !ok {
		return nil, false
	}
	backend, viewer, size := c.backend, c.viewerID, c.store.PageSize()
	return func(ctx context.Context) OlderResult {
		page, err := backend.OlderPage(ctx, req.ConversationID, viewer, req.Before, size)
		return OlderResult{req: req, Page: page, Err: err}
	}, true
}

// ApplyOlder merges an older page above the loaded messages and arms the
// scroll restore for the next render. A failed fetch is treated as an empty
// page. It reports whether the store changed.
func (c *Conversation) ApplyOlder(r OlderResult) bool {
	if !c.open || !c.cursor.current(r.req) {
		return false
	}
	size := c.store.PageSize()
	if r.Err != nil {
		c.cursor.CompleteOlderFetch(r.req, 0, size)
		c.store.PrependOlderPage(nil)
		c.log.Warn().Err(r.Err).Int64("before", r.req.Before).Msg("older page failed, paging stopped")
		return false
	}

	token := c.anchor.CaptureBeforePrepend()
	before := c.store.Len()
	c.store.PrependOlderPage(r.Page)
	c.cursor.CompleteOlderFetch(r.req, len(r.Page), size)
	if oldest, ok := c.store.OldestID(); ok {
		c.cursor.Track(oldest)
	}
	changed := c.store.Len() != before
	if changed {
		c.anchor.Arm(token)
	}
	c.log.Debug().
		Int64("before", r.req.Before).
		Int("count", len(r.Page)).
		Bool("has_more", c.cursor.HasMore()).
		Msg("older page merged")
	return changed
}

// SendJob validates a text message and returns the POST.
func (c *Conversation) SendJob(body string, parentID *int64) (func(context.Context) SendResult, error) {
	if !c.open {
		return nil, ErrNotOpen
	}
	if strings.TrimSpace(body) == "" {
		return nil, ErrEmptyMessage
	}
	t := c.ticket()
	backend := c.backend
	draft := Draft{SenderID: c.viewerID, Body: body, Kind: models.KindText, ParentID: parentID}
	return func(ctx context.Context) SendResult {
		msg, err := backend.SendMessage(ctx, t.conversationID, draft)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrSendFailed, err)
		}
		return SendResult{t: t, Message: msg, Err: err}
	}, nil
}

// AttachmentJob returns the two-step upload-then-send. A failed upload
// creates no message.
func (c *Conversation) AttachmentJob(in AttachmentInput) (func(context.Context) SendResult, error) {
	if !c.open {
		return nil, ErrNotOpen
	}
	if in.Content == nil || in.Name == "" {
		return nil, ErrEmptyMessage
	}
	t := c.ticket()
	backend, viewer := c.backend, c.viewerID
	kind := models.KindFile
	if strings.HasPrefix(in.ContentType, "image/") {
		kind = models.KindImage
	}
	return func(ctx context.Context) SendResult {
		ref, err := backend.Upload(ctx, in.Name, in.ContentType, in.Content)
		if err != nil {
			return SendResult{t: t, Err: fmt.Errorf("%w: %w", ErrUploadFailed, err)}
		}
		draft := Draft{
			SenderID:   viewer,
			Body:       in.Caption,
			Kind:       kind,
			ParentID:   in.ParentID,
			Attachment: &ref,
		}
		msg, err := backend.SendMessage(ctx, t.conversationID, draft)
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrSendFailed, err)
		}
		return SendResult{t: t, Message: msg, Err: err}
	}, nil
}

// ApplySent appends the message returned by the backend and schedules a
// scroll to the bottom. On error the store is left untouched.
func (c *Conversation) ApplySent(r SendResult) error {
	if r.Err != nil {
		c.log.Warn().Err(r.Err).Int64("conversation", r.t.conversationID).Msg("send failed")
		return r.Err
	}
	if !c.current(r.t) {
		return nil
	}
	if !c.store.AppendSent(r.Message) {
		c.log.Debug().Int64("id", r.Message.ID).Msg("sent message already loaded")
	}
	c.anchor.ArmBottom()
	return nil
}

// PollJob fetches the newest page for live refresh. The returned function may
// be called repeatedly; its results stay tied to the current conversation.
func (c *Conversation) PollJob() func(context.Context) PollResult {
	t := c.ticket()
	backend, viewer, size := c.backend, c.viewerID, c.store.PageSize()
	return func(ctx context.Context) PollResult {
		page, err := backend.LatestPage(ctx, t.conversationID, viewer, size)
		return PollResult{t: t, Page: page, Err: err}
	}
}

// PollUpdate describes what a poll changed in the store.
type PollUpdate struct {
	Added     int
	Refreshed int
	// Reloaded is set when the poll page did not reach the loaded window and
	// replaced it.
	Reloaded bool
}

// Changed reports whether the view needs a render.
func (u PollUpdate) Changed() bool { return u.Added > 0 || u.Refreshed > 0 || u.Reloaded }

// ApplyPoll merges newer messages. If the reader was following the bottom
// the view keeps following. When more than a page arrived since the last
// poll the loaded window is replaced by the poll page and paging restarts
// from it, so nothing between the two is lost.
func (c *Conversation) ApplyPoll(r PollResult) PollUpdate {
	if !c.current(r.t) {
		return PollUpdate{}
	}
	if r.Err != nil {
		c.log.Debug().Err(r.Err).Msg("poll failed")
		return PollUpdate{}
	}
	if c.store.Len() == 0 {
		// initial load has not landed; it will carry these messages
		return PollUpdate{}
	}
	if !c.store.Reaches(r.Page) {
		size := c.store.PageSize()
		c.store.ReplaceWithLatestPage(r.Page)
		oldest, _ := c.store.OldestID()
		c.cursor.Restart(oldest, len(r.Page), size)
		c.anchor.ArmBottom()
		c.log.Info().
			Int64("conversation", r.t.conversationID).
			Int("count", len(r.Page)).
			Msg("poll skipped past loaded messages, window reloaded")
		return PollUpdate{Added: len(r.Page), Reloaded: true}
	}
	follow := c.anchor.AtBottom()
	added, refreshed := c.store.MergeNewer(r.Page)
	if added > 0 && follow {
		c.anchor.ArmBottom()
	}
	return PollUpdate{Added: added, Refreshed: refreshed}
}

// AfterRender runs the armed scroll action. Call it once the viewport shows
// the current store contents.
func (c *Conversation) AfterRender() { c.anchor.AfterRender() }

// IsMine reports whether the viewer wrote msg.
func (c *Conversation) IsMine(msg models.Message) bool { return msg.SenderID == c.viewerID }

// ReplyPreview returns a one-line quote of msg's parent, or "" if msg is not a reply.
func (c *Conversation) ReplyPreview(msg models.Message) string {
	if msg.ParentID == nil {
		return ""
	}
	parent, ok := c.store.ResolveParent(*msg.ParentID)
	if !ok {
		return ParentPlaceholder
	}
	text := parent.Body
	if parent.Kind != models.KindText && parent.Attachment != nil {
		text = parent.Attachment.Name
	}
	text = strings.Join(strings.Fields(text), " ")
	if r := []rune(text); len(r) > 60 {
		text = string(r[:57]) + "..."
	}
	return text
}

// LoadLatest fetches and applies the newest page on the calling goroutine.
func (c *Conversation) LoadLatest(ctx context.Context) error {
	return c.ApplyLatest(c.LatestJob()(ctx))
}

// LoadOlder fetches and applies one older page on the calling goroutine. It
// reports whether anything was added.
func (c *Conversation) LoadOlder(ctx context.Context) (bool, error) {
	job, ok := c.OlderJob()
	if !ok {
		return false, nil
	}
	r := job(ctx)
	return c.ApplyOlder(r), r.Err
}

// Send posts a text message and applies the result on the calling goroutine.
func (c *Conversation) Send(ctx context.Context, body string, parentID *int64) (models.Message, error) {
	job, err := c.SendJob(body, parentID)
	if err != nil {
		return models.Message{}, err
	}
	r := job(ctx)
	return r.Message, c.ApplySent(r)
}
