// Package notification provides the notification manager for broadcasting playback events.
package notification

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/omxbox/internal/app/playback"
)

// DefaultSendTimeout bounds a single send to one subscriber.
const DefaultSendTimeout = 500 * time.Millisecond

// Notification is a playback event stamped with a sequence number.
type Notification struct {
	SequenceNo uint64
	Event      playback.Event
}

// Stream represents a notification stream for a subscriber.
type Stream interface {
	Send(Notification) error
}

// StreamFunc adapts a function to Stream.
type StreamFunc func(Notification) error

// Send calls f(n).
func (f StreamFunc) Send(n Notification) error {
	return f(n)
}

// subscription represents a subscriber's subscription.
type subscription struct {
	id     string
	stream Stream
}

// Manager manages notification subscriptions and broadcasting.
// It implements playback.Publisher: Publish only enqueues, and a background
// goroutine delivers events in the order they were published.
type Manager struct {
	mu            sync.RWMutex
	subscriptions map[string]*subscription

	queueMu    sync.Mutex
	queueCond  *sync.Cond
	queue      []playback.Event
	closed     bool
	sequenceNo uint64

	sendTimeout time.Duration
	done        chan struct{}
}

// NewManager creates a new notification manager and starts its dispatcher.
func NewManager() *Manager {
	return NewManagerWithTimeout(DefaultSendTimeout)
}

// NewManagerWithTimeout creates a manager with a custom per-subscriber send timeout.
func NewManagerWithTimeout(timeout time.Duration) *Manager {
	m := &Manager{
		subscriptions: make(map[string]*subscription),
		sendTimeout:   timeout,
		done:          make(chan struct{}),
	}
	m.queueCond = sync.NewCond(&m.queueMu)
	go m.run()
	return m
}

// Subscribe adds a new subscription and returns the subscription ID.
func (m *Manager) Subscribe(stream Stream) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New().String()
	m.subscriptions[id] = &subscription{
		id:     id,
		stream: stream,
	}
	zlog.Debug().Str("subscription_id", id).Msg("notification: subscribed")
	return id
}

// Unsubscribe removes a subscription.
func (m *Manager) Unsubscribe(subscriptionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.subscriptions, subscriptionID)
	zlog.Debug().Str("subscription_id", subscriptionID).Msg("notification: unsubscribed")
}

// NextSequenceNo reserves a sequence number outside the event stream,
// e.g. for the initial state sent to a new subscriber.
func (m *Manager) NextSequenceNo() uint64 {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	m.sequenceNo++
	return m.sequenceNo
}

// Publish enqueues an event for delivery. It never blocks on subscribers.
func (m *Manager) Publish(e playback.Event) {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	if m.closed {
		return
	}
	m.queue = append(m.queue, e)
	m.queueCond.Signal()
}

// run delivers queued events one at a time.
func (m *Manager) run() {
	defer close(m.done)
	for {
		m.queueMu.Lock()
		for len(m.queue) == 0 && !m.closed {
			m.queueCond.Wait()
		}
		if len(m.queue) == 0 {
			m.queueMu.Unlock()
			return
		}
		e := m.queue[0]
		m.queue = m.queue[1:]
		m.sequenceNo++
		n := Notification{SequenceNo: m.sequenceNo, Event: e}
		m.queueMu.Unlock()

		m.Broadcast(n)
	}
}

// Broadcast sends a notification to all subscribers.
// Each stream send is done in a goroutine with a timeout to prevent blocking.
func (m *Manager) Broadcast(n Notification) {
	m.mu.RLock()
	subs := make([]*subscription, 0, len(m.subscriptions))
	for _, sub := range m.subscriptions {
		subs = append(subs, sub)
	}
	m.mu.RUnlock()

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *subscription) {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), m.sendTimeout)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- s.stream.Send(n)
			}()

			select {
			case err := <-done:
				if err != nil {
					zlog.Debug().Err(err).Str("subscription_id", s.id).Msg("notification: send failed")
				}
			case <-ctx.Done():
				zlog.Debug().Str("subscription_id", s.id).Uint64("sequence_no", n.SequenceNo).Msg("notification: send timed out")
			}
		}(sub)
	}

	wg.Wait()
}

// SubscriberCount returns the number of active subscribers.
func (m *Manager) SubscriberCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close drains queued events, stops the dispatcher and removes all subscriptions.
func (m *Manager) Close() {
	m.queueMu.Lock()
	m.closed = true
	m.queueCond.Broadcast()
	m.queueMu.Unlock()

	<-m.done

	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = make(map[string]*subscription)
}

// Done is closed once the dispatcher has stopped.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}
