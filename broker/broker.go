package broker

import (
	"sync"

	"github.com/DMIE-inteligencia/iara/core"
	"github.com/DMIE-inteligencia/iara/logging"
)

// DeliveryFunc receives a message routed to a subscribed agent role. It runs
// synchronously on the publisher's goroutine, so implementations should hand
// the message off quickly (typically into an inbox channel).
type DeliveryFunc func(core.Message)

// Subscription is the handle returned by Subscribe, used for targeted
// removal of a single callback.
type Subscription struct {
	agentType core.AgentType
	token     uint64
}

type subscriberEntry struct {
	token uint64
	fn    DeliveryFunc
}

// Broker routes messages between agents. It keeps two tables under a single
// mutex: the subscriber table (agent role -> delivery callbacks) and the
// pending-response table (correlation id -> one-shot future).
//
// A published Response or Error whose correlation id has a registered future
// resolves that future and bypasses subscriber delivery entirely; everything
// else is delivered synchronously to every subscriber of the receiver role.
// Publishing to a role with no subscribers logs a warning and drops the
// message without error.
type Broker struct {
	mu          sync.Mutex
	subscribers map[core.AgentType][]subscriberEntry
	pending     map[string]chan core.Message
	nextToken   uint64
	logger      logging.Logger
}

// Options configures a Broker.
type Options struct {
	// Logger used for delivery diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// New constructs an empty Broker.
func New(optFns ...func(o *Options)) *Broker {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Broker{
		subscribers: make(map[core.AgentType][]subscriberEntry),
		pending:     make(map[string]chan core.Message),
		logger:      opts.Logger,
	}
}

// Subscribe registers a delivery callback for the given agent role and
// returns a handle that can be passed to Remove. An agent normally holds a
// single subscription for its own role.
func (b *Broker) Subscribe(agentType core.AgentType, fn DeliveryFunc) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextToken++
	b.subscribers[agentType] = append(b.subscribers[agentType], subscriberEntry{token: b.nextToken, fn: fn})
	b.logger.Debug("agent subscribed", "agent_type", string(agentType))
	return &Subscription{agentType: agentType, token: b.nextToken}
}

// Unsubscribe removes every callback registered for the given agent role.
func (b *Broker) Unsubscribe(agentType core.AgentType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subscribers, agentType)
	b.logger.Debug("agent unsubscribed", "agent_type", string(agentType))
}

// Remove removes the single callback identified by the subscription handle.
func (b *Broker) Remove(sub *Subscription) {
	if sub == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.subscribers[sub.agentType]
	kept := entries[:0]
	for _, e := range entries {
		if e.token != sub.token {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		delete(b.subscribers, sub.agentType)
		return
	}
	b.subscribers[sub.agentType] = kept
}

// RegisterPending creates a one-shot future for the terminal answer to the
// message with the given id. It must be called before the request is
// published so a fast responder cannot race the registration. The returned
// channel is buffered and receives at most one message.
func (b *Broker) RegisterPending(correlationID string) <-chan core.Message {
	ch := make(chan core.Message, 1)
	b.mu.Lock()
	b.pending[correlationID] = ch
	b.mu.Unlock()
	return ch
}

// UnregisterPending discards the future for the given correlation id. It is
// idempotent; callers invoke it on every exit path of a waiting call so the
// pending table never leaks. A response arriving after removal is treated as
// unroutable and dropped by Publish.
func (b *Broker) UnregisterPending(correlationID string) {
	b.mu.Lock()
	delete(b.pending, correlationID)
	b.mu.Unlock()
}

// Publish routes a message. Correlated terminal messages resolve their
// pending future; all other traffic is delivered synchronously to the
// subscribers of the receiver role on the caller's goroutine. A panicking
// subscriber is recovered and logged without affecting the remaining
// subscribers or the publisher.
func (b *Broker) Publish(msg core.Message) {
	if msg.IsTerminal() && msg.CorrelationID != "" {
		b.mu.Lock()
		ch, ok := b.pending[msg.CorrelationID]
		if ok {
			delete(b.pending, msg.CorrelationID)
		}
		b.mu.Unlock()
		if ok {
			ch <- msg
			b.logger.Debug("resolved pending response",
				"message_id", msg.ID, "correlation_id", msg.CorrelationID)
			b.recordDelivery(msg, 1, true)
			return
		}
	}

	b.mu.Lock()
	entries := make([]subscriberEntry, len(b.subscribers[msg.Receiver]))
	copy(entries, b.subscribers[msg.Receiver])
	b.mu.Unlock()

	if len(entries) == 0 {
		b.logger.Warn("no subscribers for agent",
			"receiver", string(msg.Receiver), "message_id", msg.ID, "action", msg.Action())
		return
	}

	for _, e := range entries {
		b.deliver(e.fn, msg)
	}
	b.recordDelivery(msg, len(entries), false)
}

// deliveryRecorder is the diagnostics surface of logging.IaraLogger. The
// broker upgrades to it when the configured logger provides it.
type deliveryRecorder interface {
	LogMessageDelivery(messageID, receiver string, subscribers int, correlated bool)
}

func (b *Broker) recordDelivery(msg core.Message, subscribers int, correlated bool) {
	if rec, ok := b.logger.(deliveryRecorder); ok {
		rec.LogMessageDelivery(msg.ID, string(msg.Receiver), subscribers, correlated)
	}
}

func (b *Broker) deliver(fn DeliveryFunc, msg core.Message) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("error delivering message to subscriber",
				"message_id", msg.ID, "receiver", string(msg.Receiver), "panic", r)
		}
	}()
	fn(msg)
}

// PendingCount reports the number of outstanding response futures. Used by
// tests to assert cleanup.
func (b *Broker) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// SubscriberCount reports the number of callbacks registered for a role.
func (b *Broker) SubscriberCount(agentType core.AgentType) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers[agentType])
}
