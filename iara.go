// Package iara provides a high-level façade over the message bus and the six
// runtime agents (orchestrator, security, dialogue, text generation, document
// processing and information retrieval), enabling a document-grounded chat
// assistant with a few lines of setup. Most applications interact with this
// package by:
//  1. Creating a Runtime via New() (optionally overriding stores, providers
//     and the embedder)
//  2. Calling Start() to bring every agent online
//  3. Driving the system through Request(), a correlated command/response
//     exchange against any agent role
//
// All defaults are safe for local development and testing: in-memory stores,
// a deterministic embedder and a mock text provider. Production deployments
// supply real providers and a structured logger.
package iara

import (
	"time"

	"github.com/DMIE-inteligencia/iara/agent"
	"github.com/DMIE-inteligencia/iara/broker"
	"github.com/DMIE-inteligencia/iara/core"
	"github.com/DMIE-inteligencia/iara/document"
	"github.com/DMIE-inteligencia/iara/embedding"
	"github.com/DMIE-inteligencia/iara/logging"
	"github.com/DMIE-inteligencia/iara/model"
	"github.com/DMIE-inteligencia/iara/session"
	"github.com/DMIE-inteligencia/iara/user"
)

// Options configures the Runtime.
type Options struct {
	// Stores (default to in-memory implementations if not provided).
	SessionStore  session.Store
	UserStore     user.Store
	DocumentStore document.Store

	// Embedder turns text into vectors for indexing and retrieval. Defaults
	// to the deterministic generator.
	Embedder embedding.Generator

	// Providers are the text-generation backends served by the llm agent.
	// Defaults to a single mock provider.
	Providers []model.Provider

	// DefaultProvider names the provider used when a request omits one.
	DefaultProvider string

	// RequestTimeout bounds every request/response exchange.
	RequestTimeout time.Duration

	// CacheTTL overrides the retrieval query-cache freshness window.
	CacheTTL time.Duration

	// Splitter overrides the document chunking parameters.
	Splitter *document.TextSplitter

	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
}

// Runtime aggregates the broker and the six agents behind one lifecycle.
type Runtime struct {
	opts   Options
	broker *broker.Broker

	orchestrator *agent.Orchestrator
	security     *agent.Security
	dialogue     *agent.Dialogue
	textgen      *agent.TextGeneration
	documents    *agent.DocumentProcessing
	retrieval    *agent.InformationRetrieval
}

// New creates a Runtime with optional overrides. Any unset dependency is
// initialized with an in-memory or mock implementation.
func New(optFns ...func(o *Options)) *Runtime {
	opts := Options{
		SessionStore:   session.NewInMemoryStore(),
		UserStore:      user.NewInMemoryStore(),
		DocumentStore:  document.NewInMemoryStore(),
		Embedder:       embedding.NewDeterministicGenerator(embedding.DefaultDimensions),
		Providers:      []model.Provider{model.NewMockProvider("mock")},
		RequestTimeout: agent.DefaultRequestTimeout,
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	b := broker.New(func(o *broker.Options) { o.Logger = opts.Logger })

	r := &Runtime{opts: opts, broker: b}
	r.orchestrator = agent.NewOrchestrator(b, func(o *agent.OrchestratorOptions) {
		o.Logger = opts.Logger
	})
	r.security = agent.NewSecurity(b, opts.UserStore, func(o *agent.SecurityOptions) {
		o.Logger = opts.Logger
	})
	r.dialogue = agent.NewDialogue(b, opts.SessionStore, func(o *agent.DialogueOptions) {
		o.Logger = opts.Logger
		o.RequestTimeout = opts.RequestTimeout
	})
	r.textgen = agent.NewTextGeneration(b, opts.Providers, func(o *agent.TextGenerationOptions) {
		o.Logger = opts.Logger
		o.DefaultProvider = opts.DefaultProvider
	})
	r.documents = agent.NewDocumentProcessing(b, opts.DocumentStore, opts.Embedder,
		func(o *agent.DocumentProcessingOptions) {
			o.Logger = opts.Logger
			o.Splitter = opts.Splitter
		})
	r.retrieval = agent.NewInformationRetrieval(b, opts.Embedder,
		func(o *agent.InformationRetrievalOptions) {
			o.Logger = opts.Logger
			o.CacheTTL = opts.CacheTTL
		})
	return r
}

// Broker exposes the underlying message bus.
func (r *Runtime) Broker() *broker.Broker { return r.broker }

// Start brings every agent online and registers them with the orchestrator.
func (r *Runtime) Start() {
	for _, a := range r.agents() {
		a.Start()
	}
	for _, role := range []core.AgentType{
		core.AgentSecurity,
		core.AgentDialogue,
		core.AgentLLM,
		core.AgentDocumentProcessing,
		core.AgentInformationRetrieval,
	} {
		r.orchestrator.RegisterAgent(role)
	}
}

// Stop shuts every agent down. Safe to call more than once.
func (r *Runtime) Stop() {
	agents := r.agents()
	for i := len(agents) - 1; i >= 0; i-- {
		agents[i].Stop()
	}
}

type startStopper interface {
	Start()
	Stop()
}

func (r *Runtime) agents() []startStopper {
	return []startStopper{
		r.orchestrator,
		r.security,
		r.textgen,
		r.retrieval,
		r.documents,
		r.dialogue,
	}
}

// Request sends a command to the given agent role and waits for its
// correlated terminal answer. It returns nil when the exchange times out.
func (r *Runtime) Request(receiver core.AgentType, action string, content map[string]any) *core.Message {
	cmd := core.NewCommand(core.AgentOrchestrator, receiver, action, content)
	future := r.broker.RegisterPending(cmd.ID)
	defer r.broker.UnregisterPending(cmd.ID)

	r.broker.Publish(cmd)

	timer := time.NewTimer(r.opts.RequestTimeout)
	defer timer.Stop()
	select {
	case resp := <-future:
		return &resp
	case <-timer.C:
		return nil
	}
}
