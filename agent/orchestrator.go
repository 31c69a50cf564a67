package agent

import (
	"fmt"
	"strings"
	"sync"

	"github.com/DMIE-inteligencia/iara/broker"
	"github.com/DMIE-inteligencia/iara/core"
	"github.com/DMIE-inteligencia/iara/logging"
)

// routePrefixes maps action-name prefixes to the agent role that owns them.
// Dispatch picks the first matching prefix.
var routePrefixes = []struct {
	prefix string
	target core.AgentType
}{
	{"process_document", core.AgentDocumentProcessing},
	{"get_document", core.AgentDocumentProcessing},
	{"get_user_documents", core.AgentDocumentProcessing},
	{"delete_document", core.AgentDocumentProcessing},
	{"retrieve_", core.AgentInformationRetrieval},
	{"search_", core.AgentInformationRetrieval},
	{"generate_", core.AgentLLM},
	{"translate_", core.AgentLLM},
	{"auth_", core.AgentSecurity},
	{"login_", core.AgentSecurity},
	{"register_user", core.AgentSecurity},
	{"chat_", core.AgentDialogue},
	{"process_user_message", core.AgentDialogue},
}

// routeRequest is the payload of the "route" action.
type routeRequest struct {
	TargetAgent string         `json:"target_agent"`
	Payload     map[string]any `json:"payload"`
}

// statusRequest is the payload of the "get_agent_status" action.
type statusRequest struct {
	AgentType string `json:"agent_type"`
}

type registeredAgent struct {
	status string
}

// Orchestrator is the coordination agent. It keeps a registry of the other
// agents, answers health queries, and forwards commands it does not own to
// the agent responsible for the action.
//
// Forwarded commands keep the original message's id and sender, so the
// terminal answer produced by the target correlates with the id the original
// caller is waiting on. The orchestrator never sits in the reply path.
type Orchestrator struct {
	*BaseAgent

	mu       sync.Mutex
	registry map[core.AgentType]*registeredAgent
}

// OrchestratorOptions configures an Orchestrator.
type OrchestratorOptions struct {
	Logger logging.Logger
}

// NewOrchestrator constructs an orchestrator bound to the broker.
func NewOrchestrator(b *broker.Broker, optFns ...func(o *OrchestratorOptions)) *Orchestrator {
	opts := OrchestratorOptions{Logger: logging.NewDefaultSlogLogger()}
	for _, fn := range optFns {
		fn(&opts)
	}
	o := &Orchestrator{
		registry: make(map[core.AgentType]*registeredAgent),
	}
	o.BaseAgent = NewBaseAgent(core.AgentOrchestrator, b, o, opts.Logger)
	return o
}

// RegisterAgent records an agent role as active and routable.
func (o *Orchestrator) RegisterAgent(agentType core.AgentType) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.registry[agentType] = &registeredAgent{status: "active"}
	o.Logger().Info("registered agent", "agent_type", string(agentType))
}

// UnregisterAgent removes an agent role from the routing registry.
func (o *Orchestrator) UnregisterAgent(agentType core.AgentType) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.registry, agentType)
	o.Logger().Info("unregistered agent", "agent_type", string(agentType))
}

// HandleMessage implements MessageHandler.
func (o *Orchestrator) HandleMessage(msg core.Message) error {
	switch msg.Type {
	case core.MessageCommand:
		return o.handleCommand(msg)
	case core.MessageError:
		o.Logger().Error("error reported to orchestrator",
			"sender", string(msg.Sender), "error", msg.ErrorText(), "correlation_id", msg.CorrelationID)
	case core.MessageEvent:
		o.handleEvent(msg)
	}
	return nil
}

func (o *Orchestrator) handleCommand(msg core.Message) error {
	switch msg.Action() {
	case "ping":
		o.SendResponse(msg, map[string]any{"status": "ok", "agent": string(o.AgentType())})
	case "get_agent_status":
		o.handleStatus(msg)
	case "route":
		o.handleRoute(msg)
	default:
		o.dispatch(msg)
	}
	return nil
}

func (o *Orchestrator) handleStatus(msg core.Message) {
	var req statusRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil {
		o.SendError(msg.Sender, fmt.Sprintf("invalid get_agent_status request: %s", err), msg.ID)
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if req.AgentType != "" {
		info, ok := o.registry[core.AgentType(req.AgentType)]
		if !ok {
			o.SendError(msg.Sender, fmt.Sprintf("Agent %s not found", req.AgentType), msg.ID)
			return
		}
		o.SendResponse(msg, map[string]any{"agent": req.AgentType, "status": info.status})
		return
	}

	statuses := make(map[string]any, len(o.registry))
	for agentType, info := range o.registry {
		statuses[string(agentType)] = info.status
	}
	o.SendResponse(msg, map[string]any{"agents": statuses})
}

// handleRoute forwards an arbitrary payload to an explicit target. The
// forwarded command reuses the route command's id and sender so the target's
// answer lands on the caller's pending future.
func (o *Orchestrator) handleRoute(msg core.Message) {
	var req routeRequest
	if err := core.DecodeContent(msg.Content, &req); err != nil {
		o.SendError(msg.Sender, fmt.Sprintf("invalid route request: %s", err), msg.ID)
		return
	}
	if req.TargetAgent == "" {
		o.SendError(msg.Sender, "Missing target_agent in route command", msg.ID)
		return
	}
	if len(req.Payload) == 0 {
		o.SendError(msg.Sender, "Missing payload in route command", msg.ID)
		return
	}

	forwarded := core.NewMessage(msg.Sender, core.AgentType(req.TargetAgent), core.MessageCommand, req.Payload)
	forwarded.ID = msg.ID
	forwarded.Priority = msg.Priority
	o.Send(forwarded)
}

// dispatch routes an unowned action to the agent registered for its prefix.
func (o *Orchestrator) dispatch(msg core.Message) {
	action := msg.Action()
	target, ok := targetFor(action)
	if !ok {
		o.SendError(msg.Sender,
			fmt.Sprintf("Unknown action: %s. Don't know which agent should handle it.", action), msg.ID)
		return
	}

	o.mu.Lock()
	_, registered := o.registry[target]
	o.mu.Unlock()
	if !registered {
		o.SendError(msg.Sender,
			fmt.Sprintf("Agent %s not available to handle action %s", target, action), msg.ID)
		return
	}

	forwarded := core.NewMessage(msg.Sender, target, core.MessageCommand, msg.Content)
	forwarded.ID = msg.ID
	forwarded.Priority = msg.Priority
	o.Send(forwarded)
}

func targetFor(action string) (core.AgentType, bool) {
	for _, r := range routePrefixes {
		if strings.HasPrefix(action, r.prefix) {
			return r.target, true
		}
	}
	return "", false
}

func (o *Orchestrator) handleEvent(msg core.Message) {
	eventType, _ := msg.Content["event_type"].(string)
	if eventType != "agent_status_change" {
		return
	}
	agentType, _ := msg.Content["agent_type"].(string)
	status, _ := msg.Content["status"].(string)
	if agentType == "" || status == "" {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if info, ok := o.registry[core.AgentType(agentType)]; ok {
		info.status = status
		o.Logger().Info("agent status changed", "agent_type", agentType, "status", status)
	}
}
