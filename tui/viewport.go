package tui

import (
	"github.com/charmbracelet/bubbles/viewport"

	"bandchat/feed"
)

// scroller exposes a bubbles viewport as a feed.Viewport. Heights are in
// terminal lines.
type scroller struct {
	vp *viewport.Model
}

var _ feed.Viewport = scroller{}

func (s scroller) ContentHeight() int  { return s.vp.TotalLineCount() }
func (s scroller) ViewportHeight() int { return s.vp.Height }
func (s scroller) ScrollTop() int      { return s.vp.YOffset }
func (s scroller) SetScrollTop(n int)  { s.vp.SetYOffset(n) }
