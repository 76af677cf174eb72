package feed

// Viewport is the scrollable surface the messages are rendered into. Heights
// and offsets are in the surface's own unit (pixels, terminal lines).
type Viewport interface {
	ContentHeight() int
	ViewportHeight() int
	ScrollTop() int
	SetScrollTop(int)
}

// Token is the viewport state captured before a prepend.
type Token struct {
	Height    int
	ScrollTop int
}

type pending int

const (
	pendingNone pending = iota
	pendingRestore
	pendingBottom
)

// Anchor keeps the reader's position fixed while older messages are inserted
// above it. Restores are two-phase: the caller arms one while mutating the
// store and AfterRender applies it once the view shows the new content.
type Anchor struct {
	vp    Viewport
	next  pending
	token Token
}

func NewAnchor(vp Viewport) *Anchor {
	return &Anchor{vp: vp}
}

// Attach swaps the viewport, e.g. after a resize rebuilt it.
func (a *Anchor) Attach(vp Viewport) { a.vp = vp }

// CaptureBeforePrepend records the content height and offset. It must run
// before the store mutation it accompanies.
func (a *Anchor) CaptureBeforePrepend() Token {
	if a.vp == nil {
		return Token{}
	}
	return Token{Height: a.vp.ContentHeight(), ScrollTop: a.vp.ScrollTop()}
}

// RestoreAfterPrepend moves the offset down by however much content was added
// above, so the same messages stay under the reader. It must run after the
// viewport reflects the prepended entries.
func (a *Anchor) RestoreAfterPrepend(t Token) {
	if a.vp == nil {
		return
	}
	delta := a.vp.ContentHeight() - t.Height
	if delta < 0 {
		delta = 0
	}
	a.vp.SetScrollTop(t.ScrollTop + delta)
}

// ScrollToBottom shows the newest message.
func (a *Anchor) ScrollToBottom() {
	if a.vp == nil {
		return
	}
	top := a.vp.ContentHeight() - a.vp.ViewportHeight()
	if top < 0 {
		top = 0
	}
	a.vp.SetScrollTop(top)
}

// AtBottom reports whether the newest content is in view.
func (a *Anchor) AtBottom() bool {
	if a.vp == nil {
		return true
	}
	return a.vp.ScrollTop()+a.vp.ViewportHeight() >= a.vp.ContentHeight()
}

// Arm schedules RestoreAfterPrepend(t) for the next AfterRender.
func (a *Anchor) Arm(t Token) {
	a.token = t
	a.next = pendingRestore
}

// ArmBottom schedules ScrollToBottom for the next AfterRender. A pending
// restore takes precedence.
func (a *Anchor) ArmBottom() {
	if a.next == pendingRestore {
		return
	}
	a.next = pendingBottom
}

// Pending reports whether an AfterRender call has work to do.
func (a *Anchor) Pending() bool { return a.next != pendingNone }

// AfterRender applies the armed action exactly once.
func (a *Anchor) AfterRender() {
	switch a.next {
	case pendingRestore:
		a.RestoreAfterPrepend(a.token)
	case pendingBottom:
		a.ScrollToBottom()
	default:
		return
	}
	a.next = pendingNone
	a.token = Token{}
}
