// Package tui is the terminal chat view. The Model owns the conversation
// state; network calls run as tea.Cmds and their results come back through
// Update.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"

	"bandchat/client"
	"bandchat/feed"
)

const inputHeight = 3

type (
	latestMsg feed.LatestResult
	olderMsg  feed.OlderResult
	sentMsg   struct {
		result     feed.SendResult
		clearInput bool
	}
	// pollMsg carries the channel it came from so a stopped poller's
	// last result does not start a second reader on the new channel.
	pollMsg struct {
		result feed.PollResult
		ch     <-chan feed.PollResult
	}
	pollStoppedMsg struct{}
	noticeMsg      struct{ err error }
)

// Options configure the view.
type Options struct {
	RoomName string
	// ProximityLines is how close to the top the reader must scroll before
	// the next older page is requested.
	ProximityLines int
	PollInterval   time.Duration
	Logger         zerolog.Logger
	// Now is the clock used for relative timestamps.
	Now func() time.Time
}

type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	conv     *feed.Conversation
	poller   *feed.Poller
	pollCh   <-chan feed.PollResult
	viewport viewport.Model
	input    textarea.Model

	roomName  string
	proximity int
	interval  time.Duration
	log       zerolog.Logger
	now       func() time.Time

	width, height int
	sending       bool
	notice        string
	status        string
	content       string
}

// New builds a view over conv. conv must already be switched to a room.
func New(conv *feed.Conversation, opts Options) *Model {
	input := textarea.New()
	input.Placeholder = "message, /reply <id> <text>, /attach <path> [caption], /room <id>"
	input.ShowLineNumbers = false
	input.CharLimit = 0
	input.SetHeight(inputHeight)
	input.Focus()

	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.ProximityLines < 0 {
		opts.ProximityLines = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := &Model{
		ctx:       ctx,
		cancel:    cancel,
		conv:      conv,
		viewport:  viewport.New(0, 0),
		input:     input,
		roomName:  opts.RoomName,
		proximity: opts.ProximityLines,
		interval:  opts.PollInterval,
		log:       opts.Logger,
		now:       opts.Now,
	}
	conv.Anchor().Attach(scroller{vp: &m.viewport})
	return m
}

func (m *Model) Init() tea.Cmd {
	return m.latestCmd()
}

// Close stops background work. It is safe to call more than once.
func (m *Model) Close() {
	m.stopPoller()
	m.cancel()
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case tea.KeyMsg:
		if m.notice != "" {
			// the notice blocks until dismissed
			m.notice = ""
			m.resize()
			return m, nil
		}
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.Close()
			return m, tea.Quit
		case tea.KeyEnter:
			return m, m.submit()
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, tea.Batch(cmd, m.maybeLoadOlder())
		case tea.KeyHome:
			m.viewport.GotoTop()
			return m, m.maybeLoadOlder()
		case tea.KeyEnd:
			m.viewport.GotoBottom()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		if msg.Button == tea.MouseButtonWheelUp {
			return m, tea.Batch(cmd, m.maybeLoadOlder())
		}
		return m, cmd
	case latestMsg:
		if err := m.conv.ApplyLatest(feed.LatestResult(msg)); err != nil {
			m.status = err.Error()
		} else {
			m.status = ""
		}
		m.render()
		return m, tea.Batch(m.startPoller(), m.fillScreen())
	case olderMsg:
		if m.conv.ApplyOlder(feed.OlderResult(msg)) {
			m.render()
		} else if !m.conv.Cursor().HasMore() {
			// the "older messages" hint goes away
			m.render()
		}
		return m, m.fillScreen()
	case sentMsg:
		m.sending = false
		if err := m.conv.ApplySent(msg.result); err != nil {
			m.notice = sendNotice(err)
			m.resize()
			return m, nil
		}
		if msg.clearInput {
			m.input.Reset()
		}
		m.render()
		return m, nil
	case pollMsg:
		if m.conv.ApplyPoll(msg.result).Changed() {
			m.render()
		}
		if msg.ch != m.pollCh {
			return m, nil
		}
		return m, m.waitPoll()
	case pollStoppedMsg:
		return m, nil
	case noticeMsg:
		m.notice = msg.err.Error()
		m.resize()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) View() string {
	header := headerStyle.Render("#" + m.roomLabel())
	if m.status != "" {
		header += " " + statusStyle.Render(m.status)
	}

	lines := []string{header, m.viewport.View()}
	if m.notice != "" {
		lines = append(lines, noticeStyle.Render(m.notice+"\n"+"press any key"))
	}
	lines = append(lines, inputStyle.Render(m.input.View()), statusStyle.Render(m.statusLine()))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m *Model) statusLine() string {
	cur := m.conv.Cursor()
	parts := []string{fmt.Sprintf("%d loaded", m.conv.Store().Len())}
	switch {
	case cur.InFlight():
		parts = append(parts, "loading older…")
	case !cur.HasMore():
		parts = append(parts, "all history loaded")
	}
	if m.sending {
		parts = append(parts, "sending…")
	}
	parts = append(parts, "esc to quit")
	return strings.Join(parts, " · ")
}

func (m *Model) roomLabel() string {
	if m.roomName != "" {
		return m.roomName
	}
	return strconv.FormatInt(m.conv.ID(), 10)
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	follow := m.viewport.Height == 0 || m.viewport.AtBottom()
	m.input.SetWidth(m.width)
	reserved := 1 + inputHeight + 1 // header, input, status
	if m.notice != "" {
		reserved += lipgloss.Height(noticeStyle.Render(m.notice + "\nx"))
	}
	vpHeight := m.height - reserved
	if vpHeight < 1 {
		vpHeight = 1
	}
	m.viewport.Width = m.width
	m.viewport.Height = vpHeight
	m.render()
	if follow {
		m.viewport.GotoBottom()
	}
}

// render redraws the feed and runs the scroll action armed by the last
// store mutation.
func (m *Model) render() {
	m.content = renderFeed(m.conv, m.width, m.now())
	m.viewport.SetContent(m.content)
	m.conv.AfterRender()
}

func (m *Model) nearTop() bool {
	return m.viewport.YOffset <= m.proximity
}

func (m *Model) maybeLoadOlder() tea.Cmd {
	if !m.nearTop() {
		return nil
	}
	return m.olderCmd()
}

// fillScreen keeps paging while the loaded history is shorter than the view.
func (m *Model) fillScreen() tea.Cmd {
	if m.viewport.Height == 0 || m.conv.Store().Len() == 0 {
		return nil
	}
	if m.viewport.TotalLineCount() > m.viewport.Height {
		return nil
	}
	return m.olderCmd()
}

func (m *Model) latestCmd() tea.Cmd {
	job, ctx := m.conv.LatestJob(), m.ctx
	return func() tea.Msg { return latestMsg(job(ctx)) }
}

func (m *Model) olderCmd() tea.Cmd {
	job, ok := m.conv.OlderJob()
	if !ok {
		return nil
	}
	ctx := m.ctx
	return func() tea.Msg { return olderMsg(job(ctx)) }
}

func (m *Model) startPoller() tea.Cmd {
	if m.interval <= 0 || m.poller != nil {
		return nil
	}
	m.poller = feed.NewPoller(m.conv.PollJob(), m.interval)
	m.pollCh = m.poller.Start(m.ctx)
	return m.waitPoll()
}

func (m *Model) stopPoller() {
	if m.poller != nil {
		m.poller.Stop()
		m.poller, m.pollCh = nil, nil
	}
}

func (m *Model) waitPoll() tea.Cmd {
	ch := m.pollCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return pollStoppedMsg{}
		}
		return pollMsg{result: r, ch: ch}
	}
}

// submit handles the input line. The text stays in the input until the
// backend accepted it.
func (m *Model) submit() tea.Cmd {
	if m.sending {
		return nil
	}
	value := strings.TrimSpace(m.input.Value())
	if value == "" {
		return nil
	}

	if strings.HasPrefix(value, "/") {
		return m.command(value)
	}
	return m.send(value, nil)
}

func (m *Model) send(body string, parentID *int64) tea.Cmd {
	job, err := m.conv.SendJob(body, parentID)
	if err != nil {
		m.notice = sendNotice(err)
		m.resize()
		return nil
	}
	m.sending = true
	ctx := m.ctx
	return func() tea.Msg { return sentMsg{result: job(ctx), clearInput: true} }
}

func (m *Model) attach(path, caption string) tea.Cmd {
	in, err := client.ReadAttachment(path, caption)
	if err != nil {
		return notice(err)
	}
	job, err := m.conv.AttachmentJob(in)
	if err != nil {
		return notice(err)
	}
	m.sending = true
	ctx := m.ctx
	return func() tea.Msg { return sentMsg{result: job(ctx), clearInput: true} }
}

func (m *Model) command(line string) tea.Cmd {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/reply":
		if len(fields) < 3 {
			return notice(errors.New("usage: /reply <message id> <text>"))
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(fields[1], "#"), 10, 64)
		if err != nil {
			return notice(fmt.Errorf("bad message id %q", fields[1]))
		}
		return m.send(strings.Join(fields[2:], " "), &id)
	case "/attach":
		if len(fields) < 2 {
			return notice(errors.New("usage: /attach <path> [caption]"))
		}
		return m.attach(fields[1], strings.Join(fields[2:], " "))
	case "/room":
		if len(fields) != 2 {
			return notice(errors.New("usage: /room <id>"))
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || id <= 0 {
			return notice(fmt.Errorf("bad room id %q", fields[1]))
		}
		m.input.Reset()
		return m.switchRoom(id, "")
	case "/more":
		m.input.Reset()
		return m.olderCmd()
	}
	return notice(fmt.Errorf("unknown command %s", fields[0]))
}

// switchRoom moves the view to another room. Results still in flight for
// the previous room are dropped when they arrive.
func (m *Model) switchRoom(id int64, name string) tea.Cmd {
	m.log.Debug().Int64("from", m.conv.ID()).Int64("to", id).Msg("switching room")
	m.stopPoller()
	m.conv.Switch(id)
	m.roomName = name
	m.status = "loading…"
	m.render()
	return m.latestCmd()
}

func notice(err error) tea.Cmd {
	return func() tea.Msg { return noticeMsg{err: err} }
}

func sendNotice(err error) string {
	switch {
	case errors.Is(err, feed.ErrUploadFailed):
		return "upload failed, nothing was sent: " + err.Error()
	case errors.Is(err, feed.ErrSendFailed):
		return "message not sent: " + err.Error()
	}
	return err.Error()
}
