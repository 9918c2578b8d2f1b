package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitingo/advance-workflow/internal/domain/event"
)

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Infow(msg string, _ ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Errorw(msg string, _ ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

func newEvt(t event.Type) *event.Event {
	return event.NewEvent(t, "adv-1", "u-1", nil)
}

func TestDispatch_RunsHandlersInOrder(t *testing.T) {
	d := NewDispatcher()
	var order []string

	d.Subscribe(event.TypeClosingSubmitted, "first", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "first")
		return nil
	})
	d.Subscribe(event.TypeClosingSubmitted, "second", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), newEvt(event.TypeClosingSubmitted)))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestDispatch_StopsAtFirstError(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))
	boom := errors.New("boom")
	secondCalled := false

	d.Subscribe(event.TypeAdvanceRejected, "failing", func(ctx context.Context, evt *event.Event) error {
		return boom
	})
	d.Subscribe(event.TypeAdvanceRejected, "after", func(ctx context.Context, evt *event.Event) error {
		secondCalled = true
		return nil
	})

	err := d.Dispatch(context.Background(), newEvt(event.TypeAdvanceRejected))
	assert.ErrorIs(t, err, boom)
	assert.False(t, secondCalled)
	assert.Equal(t, 1, logger.errorCount())
}

func TestDispatch_RecoversPanics(t *testing.T) {
	d := NewDispatcher()
	d.Subscribe(event.TypeLineApproved, "panicky", func(ctx context.Context, evt *event.Event) error {
		panic("unexpected")
	})

	err := d.Dispatch(context.Background(), newEvt(event.TypeLineApproved))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "handler panic")
}

func TestSubscribeMany_AndUnsubscribe(t *testing.T) {
	d := NewDispatcher()
	var calls atomic.Int32
	h := func(ctx context.Context, evt *event.Event) error {
		calls.Add(1)
		return nil
	}

	d.SubscribeMany([]event.Type{event.TypeAdvanceApproved, event.TypeAdvanceRejected}, "notifier", h)
	d.Subscribe(event.TypeAdvanceApproved, "audit", h)

	require.NoError(t, d.Dispatch(context.Background(), newEvt(event.TypeAdvanceApproved)))
	require.NoError(t, d.Dispatch(context.Background(), newEvt(event.TypeAdvanceRejected)))
	assert.Equal(t, int32(3), calls.Load())

	d.Unsubscribe(event.TypeAdvanceApproved, "notifier")
	handlers := d.ListHandlers(event.TypeAdvanceApproved)
	require.Len(t, handlers, 1)
	assert.Equal(t, "audit", handlers[0].Name)
}

func TestSubscribe_GeneratesName(t *testing.T) {
	d := NewDispatcher()
	d.Subscribe(event.TypeClosingClosed, "", func(ctx context.Context, evt *event.Event) error { return nil })

	handlers := d.ListHandlers(event.TypeClosingClosed)
	require.Len(t, handlers, 1)
	assert.Equal(t, "handler-0", handlers[0].Name)
}

func TestDispatchAsync_SurvivesCancelledContext(t *testing.T) {
	d := NewDispatcher()
	done := make(chan error, 1)

	d.Subscribe(event.TypePartiallyApproved, "slow", func(ctx context.Context, evt *event.Event) error {
		time.Sleep(10 * time.Millisecond)
		done <- ctx.Err()
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.DispatchAsync(ctx, newEvt(event.TypePartiallyApproved))
	cancel()

	require.NoError(t, d.Close())
	assert.NoError(t, <-done)
}

func TestClose(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))

	require.NoError(t, d.Close())
	assert.ErrorIs(t, d.Close(), ErrClosed)
	assert.ErrorIs(t, d.Dispatch(context.Background(), newEvt(event.TypeClosingSaved)), ErrClosed)

	d.DispatchAsync(context.Background(), newEvt(event.TypeClosingSaved))
	assert.Equal(t, 1, logger.errorCount())
}
