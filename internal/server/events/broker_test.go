package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwp-tools/jwpedit/pkg/logging"
)

type recordingSubscriber struct {
	mu     sync.Mutex
	events []Event
	closed bool
	err    error
}

func (r *recordingSubscriber) Send(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingSubscriber) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recordingSubscriber) received() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recordingSubscriber) isClosed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func TestBrokerFanOut(t *testing.T) {
	b := NewBroker(logging.NewNopLogger())
	fixed := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	first, second := &recordingSubscriber{}, &recordingSubscriber{err: errors.New("gone")}
	b.Subscribe(first)
	b.Subscribe(second)
	assert.Equal(t, 2, b.SubscriberCount())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		b.Run(ctx)
		close(done)
	}()

	payload := RowsUpdatedData{Agency: "UNDP", Editor: "Ana", Ordinals: []int{3}}
	b.Publish(RowsUpdated, payload)

	require.Eventually(t, func() bool {
		return len(first.received()) == 1 && len(second.received()) == 1
	}, time.Second, 5*time.Millisecond)

	got := first.received()[0]
	assert.Equal(t, RowsUpdated, got.Type)
	assert.Equal(t, fixed, got.Timestamp)
	assert.Equal(t, payload, got.Data)

	cancel()
	<-done
	assert.True(t, first.isClosed())
	assert.True(t, second.isClosed())
	assert.Zero(t, b.SubscriberCount())
}

func TestBrokerUnsubscribe(t *testing.T) {
	b := NewBroker(logging.NewNopLogger())
	sub := &recordingSubscriber{}
	b.Subscribe(sub)
	b.Unsubscribe(sub)

	assert.Zero(t, b.SubscriberCount())
	assert.True(t, sub.isClosed())

	b.Unsubscribe(sub)
	assert.Zero(t, b.SubscriberCount())
}

func TestBrokerPublishDropsWhenFull(t *testing.T) {
	tl := logging.NewTestLogger(t)
	b := NewBroker(tl.Logger)
	for range cap(b.events) + 1 {
		b.Publish(SessionCreated, SessionCreatedData{Agency: "WFP"})
	}
	assert.Equal(t, cap(b.events), b.QueueDepth())
	assert.Equal(t, int64(cap(b.events)), b.EventsPublished())
	assert.Equal(t, int64(1), b.EventsDropped())
	assert.True(t, tl.Contains("Event queue full"))
}
