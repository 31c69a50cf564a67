package agent

import (
	"fmt"
	"sync"
	"time"

	"github.com/DMIE-inteligencia/iara/broker"
	"github.com/DMIE-inteligencia/iara/core"
	"github.com/DMIE-inteligencia/iara/logging"
)

const (
	// inboxSize bounds how many undelivered messages an agent may hold
	// before publishers start dropping.
	inboxSize = 128
	// stopTimeout bounds how long Stop waits for the processing goroutine.
	stopTimeout = 2 * time.Second
	// DefaultRequestTimeout is the wait budget of SendAndWait when the
	// caller passes a non-positive timeout.
	DefaultRequestTimeout = 10 * time.Second
)

// MessageHandler is the per-agent message callback. It runs on the agent's
// own goroutine. Returning an error from a Command causes the base agent to
// answer the sender with a correlated Error message; panics are treated the
// same way. Handlers answer successful commands themselves via SendResponse.
type MessageHandler interface {
	HandleMessage(msg core.Message) error
}

// BaseAgent bundles the lifecycle and messaging plumbing shared by every
// agent: broker subscription, the inbox goroutine, correlated
// request/response sending and error reporting. Concrete agents embed it and
// register themselves as the MessageHandler.
type BaseAgent struct {
	agentType core.AgentType
	broker    *broker.Broker
	handler   MessageHandler
	logger    logging.Logger

	mu      sync.Mutex
	running bool
	sub     *broker.Subscription
	inbox   chan core.Message
	stopCh  chan struct{}
	done    chan struct{}
}

// NewBaseAgent wires a BaseAgent for the given role. The handler is usually
// the embedding struct itself.
func NewBaseAgent(agentType core.AgentType, b *broker.Broker, handler MessageHandler, logger logging.Logger) *BaseAgent {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &BaseAgent{
		agentType: agentType,
		broker:    b,
		handler:   handler,
		logger:    logger,
	}
}

// AgentType returns the role this agent serves on the bus.
func (a *BaseAgent) AgentType() core.AgentType { return a.agentType }

// Logger exposes the logger for embedding agents.
func (a *BaseAgent) Logger() logging.Logger { return a.logger }

// Start subscribes the agent to its role and launches the processing
// goroutine. Calling Start on a running agent is a no-op.
func (a *BaseAgent) Start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.running {
		return
	}
	a.running = true
	a.inbox = make(chan core.Message, inboxSize)
	a.stopCh = make(chan struct{})
	a.done = make(chan struct{})
	a.sub = a.broker.Subscribe(a.agentType, a.receive)

	go a.processMessages()
	a.logger.Info("agent started", "agent_type", string(a.agentType))
}

// Stop unsubscribes the agent and waits up to two seconds for the processing
// goroutine to drain. Calling Stop on a stopped agent is a no-op.
func (a *BaseAgent) Stop() {
	a.mu.Lock()
	if !a.running {
		a.mu.Unlock()
		return
	}
	a.running = false
	sub := a.sub
	stopCh := a.stopCh
	done := a.done
	a.mu.Unlock()

	a.broker.Remove(sub)
	close(stopCh)

	select {
	case <-done:
	case <-time.After(stopTimeout):
		a.logger.Warn("timed out waiting for processing loop to stop", "agent_type", string(a.agentType))
	}
	a.logger.Info("agent stopped", "agent_type", string(a.agentType))
}

// Running reports whether the agent's processing loop is active.
func (a *BaseAgent) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// receive is the broker delivery callback. It runs on the publisher's
// goroutine and must not block, so a full inbox drops the message.
func (a *BaseAgent) receive(msg core.Message) {
	select {
	case a.inbox <- msg:
	default:
		a.logger.Warn("inbox full, dropping message",
			"message_id", msg.ID, "sender", string(msg.Sender), "action", msg.Action())
	}
}

func (a *BaseAgent) processMessages() {
	defer close(a.done)
	for {
		select {
		case msg := <-a.inbox:
			a.dispatch(msg)
		case <-a.stopCh:
			return
		}
	}
}

// dispatch invokes the handler with panic recovery. A failed Command is
// answered with a correlated Error so the caller's wait resolves instead of
// timing out; failures of other message types are only logged.
func (a *BaseAgent) dispatch(msg core.Message) {
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%v", r)
			}
		}()
		err = a.handler.HandleMessage(msg)
	}()
	if err == nil {
		return
	}

	a.logger.Error("error handling message",
		"message_id", msg.ID, "sender", string(msg.Sender), "error", err.Error())
	if msg.Type == core.MessageCommand {
		a.SendError(msg.Sender, fmt.Sprintf("error processing command: %s", err), msg.ID)
	}
}

// Send publishes a message on the bus and returns its id.
func (a *BaseAgent) Send(msg core.Message) string {
	a.broker.Publish(msg)
	return msg.ID
}

// SendResponse answers the original command with a correlated Response.
func (a *BaseAgent) SendResponse(original core.Message, content map[string]any) string {
	return a.Send(core.NewResponse(original, content))
}

// SendError sends a correlated Error message to the receiver. The
// correlation id may be empty for uncorrelated failures.
func (a *BaseAgent) SendError(receiver core.AgentType, description, correlationID string) string {
	return a.Send(core.NewError(a.agentType, receiver, description, correlationID))
}

// SendAndWait publishes the message and blocks until a terminal answer
// correlated with its id arrives or the timeout elapses. On timeout it logs a
// warning and returns nil. The pending registration happens before the
// publish so even an instantaneous responder is captured, and it is removed
// on every exit path.
func (a *BaseAgent) SendAndWait(msg core.Message, timeout time.Duration) *core.Message {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	future := a.broker.RegisterPending(msg.ID)
	defer a.broker.UnregisterPending(msg.ID)

	a.Send(msg)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-future:
		return &resp
	case <-timer.C:
		a.logger.Warn("timeout waiting for response",
			"message_id", msg.ID, "receiver", string(msg.Receiver), "action", msg.Action())
		return nil
	}
}
