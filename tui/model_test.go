package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandchat/feed"
	"bandchat/models"
)

type stubBackend struct {
	history  []models.Message
	failSend error
}

func newStub(n int) *stubBackend {
	b := &stubBackend{}
	base := time.Date(2024, 5, 1, 20, 0, 0, 0, time.UTC)
	for i := 1; i <= n; i++ {
		b.history = append(b.history, models.Message{
			ID: int64(i), ConversationID: 1, SenderID: "2", SenderName: "drums",
			Body: fmt.Sprintf("line %d", i), Kind: models.KindText, SentAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return b
}

func (b *stubBackend) page(before int64, limit int) []models.Message {
	var out []models.Message
	for i := len(b.history) - 1; i >= 0 && len(out) < limit; i-- {
		if before > 0 && b.history[i].ID >= before {
			continue
		}
		out = append(out, b.history[i])
	}
	return out
}

func (b *stubBackend) LatestPage(_ context.Context, _ int64, _ string, limit int) ([]models.Message, error) {
	return b.page(0, limit), nil
}

func (b *stubBackend) OlderPage(_ context.Context, _ int64, _ string, before int64, limit int) ([]models.Message, error) {
	return b.page(before, limit), nil
}

func (b *stubBackend) SendMessage(_ context.Context, conv int64, d feed.Draft) (models.Message, error) {
	if b.failSend != nil {
		return models.Message{}, b.failSend
	}
	m := models.Message{ID: int64(len(b.history) + 1), ConversationID: conv, SenderID: d.SenderID, Body: d.Body, Kind: d.Kind, ParentID: d.ParentID}
	b.history = append(b.history, m)
	return m, nil
}

func (b *stubBackend) Upload(context.Context, string, string, io.Reader) (models.AttachmentRef, error) {
	return models.AttachmentRef{}, errors.New("not supported")
}

func newModel(t *testing.T, b *stubBackend) *Model {
	t.Helper()
	conv := feed.NewConversation(b, nil, "1", 10, zerolog.Nop())
	conv.Switch(1)
	now := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	m := New(conv, Options{RoomName: "General", ProximityLines: 1, Logger: zerolog.Nop(), Now: func() time.Time { return now }})
	t.Cleanup(m.Close)

	m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	run(t, m, m.Init())
	return m
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	m.Update(cmd())
}

func TestModelInitialLoadScrollsToBottom(t *testing.T) {
	m := newModel(t, newStub(30))
	assert.Equal(t, 10, m.conv.Store().Len())
	assert.True(t, m.viewport.AtBottom())
	assert.Contains(t, m.View(), "line 30")
	assert.Contains(t, m.View(), "#General")
}

func TestModelScrollUpKeepsAnchor(t *testing.T) {
	m := newModel(t, newStub(30))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyHome})
	require.Equal(t, 0, m.viewport.YOffset)
	before := strings.Split(m.content, "\n")
	window := before[2:8] // first message block, below the hint

	require.NotNil(t, cmd)
	m.Update(cmd())
	assert.Equal(t, 20, m.conv.Store().Len())

	after := strings.Split(m.content, "\n")
	off := m.viewport.YOffset
	require.Greater(t, off, 0)
	assert.Equal(t, window, after[off+2:off+8], "same lines stay on screen")
}

func TestModelSendFailureKeepsInput(t *testing.T) {
	b := newStub(3)
	m := newModel(t, b)
	b.failSend = errors.New("503 unavailable")

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("hello band")})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)

	assert.Equal(t, "hello band", m.input.Value())
	assert.Contains(t, m.notice, "message not sent")
	assert.Equal(t, 3, m.conv.Store().Len())

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.Empty(t, m.notice, "any key dismisses the notice")
	assert.Equal(t, "hello band", m.input.Value())

	b.failSend = nil
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)
	assert.Empty(t, m.input.Value())
	assert.Equal(t, 4, m.conv.Store().Len())
	assert.True(t, m.viewport.AtBottom())
}

func TestModelReplyCommand(t *testing.T) {
	b := newStub(3)
	m := newModel(t, b)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/reply #2 agreed")})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)

	msgs := m.conv.Store().Messages()
	last := msgs[len(msgs)-1]
	require.NotNil(t, last.ParentID)
	assert.Equal(t, int64(2), *last.ParentID)
	assert.Contains(t, m.content, "↳ line 2")
}

func TestModelSwitchRoomDropsStaleResults(t *testing.T) {
	m := newModel(t, newStub(30))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyHome})
	require.NotNil(t, cmd)
	stale := cmd()

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("/room 2")})
	_, latest := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, latest)
	assert.Zero(t, m.conv.Store().Len())

	m.Update(stale)
	assert.Zero(t, m.conv.Store().Len(), "older page of the previous room is dropped")
	assert.Equal(t, int64(2), m.conv.ID())
}

func TestModelPollRefreshesReadCount(t *testing.T) {
	b := newStub(3)
	m := newModel(t, b)

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("tempo up?")})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	run(t, m, cmd)
	require.Equal(t, 4, m.conv.Store().Len())
	assert.NotContains(t, m.content, "seen by")

	b.history[3].ReadCount = 2
	m.Update(pollMsg{result: m.conv.PollJob()(context.Background())})
	assert.Equal(t, 4, m.conv.Store().Len())
	assert.Contains(t, m.content, "seen by 2")
}
