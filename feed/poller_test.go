package feed

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"bandchat/models"
)

func TestPollerDeliversAndStops(t *testing.T) {
	defer goleak.VerifyNone(t)

	var calls atomic.Int32
	p := NewPoller(func(ctx context.Context) PollResult {
		calls.Add(1)
		return PollResult{}
	}, 5*time.Millisecond)

	ch := p.Start(context.Background())
	require.NotNil(t, ch)
	assert.Nil(t, p.Start(context.Background()), "already running")

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no poll result delivered")
	}

	p.Stop()
	for range ch {
		// drain until closed
	}
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	p.Stop()
}

func TestPollerStopsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller(func(ctx context.Context) PollResult { return PollResult{} }, time.Hour)
	ch := p.Start(ctx)
	cancel()

	select {
	case _, ok := <-ch:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop on cancel")
	}
	p.Stop()
}

func TestPollResultAfterSwitchIsNoop(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := newMemBackend(4)
	c, _ := openConversation(t, b, 10)
	b.history = append(b.history, models.Message{ID: 5, ConversationID: 1, SenderID: "other", Body: "late", Kind: models.KindText})

	p := NewPoller(c.PollJob(), 5*time.Millisecond)
	ch := p.Start(context.Background())
	res := <-ch
	p.Stop()

	c.Switch(2)
	assert.False(t, c.ApplyPoll(res).Changed())
	assert.Zero(t, c.Store().Len())
}
