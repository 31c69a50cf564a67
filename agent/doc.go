// Package agent hosts the runtime agents of the assistant: the shared
// BaseAgent lifecycle plus the orchestrator, security, dialogue, text
// generation, document processing and information retrieval agents.
//
// Every agent owns one goroutine that drains a buffered inbox. The broker
// delivers messages into the inbox synchronously; all real work happens on
// the agent's own goroutine, so a slow handler never blocks a publisher.
package agent
