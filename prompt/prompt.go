// Package prompt builds the text prompts the dialogue agent sends to the
// language model, for both grounded (document-backed) and plain
// conversational replies.
package prompt

import (
	"fmt"
	"strings"

	"github.com/DMIE-inteligencia/iara/core"
)

// historyWindow is how many trailing messages of the conversation are
// included in a grounded prompt.
const historyWindow = 5

// RAG builds a prompt that instructs the model to answer strictly from the
// supplied context passages, optionally preceded by recent conversation
// history.
func RAG(query string, contexts []string, history []core.ChatMessage) string {
	var sections []string
	for i, c := range contexts {
		sections = append(sections, fmt.Sprintf("Context %d:\n%s", i+1, c))
	}
	contextStr := strings.Join(sections, "\n\n---\n\n")

	historyStr := ""
	if len(history) > 0 {
		start := len(history) - historyWindow
		if start < 0 {
			start = 0
		}
		var lines []string
		for _, msg := range history[start:] {
			if msg.Role == "" || msg.Content == "" {
				continue
			}
			lines = append(lines, fmt.Sprintf("%s: %s", capitalize(msg.Role), msg.Content))
		}
		if len(lines) > 0 {
			historyStr = fmt.Sprintf("\nPrevious conversation:\n%s\n", strings.Join(lines, "\n"))
		}
	}

	return fmt.Sprintf(`You are an intelligent assistant that helps users find information in documents.
Answer the user's question based ONLY on the provided context. If the context doesn't contain the information needed to answer the question, say "I don't have enough information to answer this question." Do not make up information that is not in the context.

%s
Here is the relevant information from the documents:

%s

User's question: %s

Provide a comprehensive and accurate answer to the question based strictly on the provided context. If you need to cite specific parts of the context, do so. If the answer requires information not in the context, state that clearly.
`, historyStr, contextStr, query)
}

// Conversation builds a prompt for a plain chat reply without document
// grounding. The history is preformatted by the caller.
func Conversation(query, conversationHistory string) string {
	historyPart := ""
	if conversationHistory != "" {
		historyPart = fmt.Sprintf("\nHere is the conversation history:\n%s\n", conversationHistory)
	}

	return fmt.Sprintf(`You are IARA, an intelligent assistant. Respond to the user's message in a helpful and conversational way.

%s
User's message: %s

Provide a helpful response:
`, historyPart, query)
}

// FormatHistory renders chat messages as "Role: content" lines for use with
// Conversation.
func FormatHistory(history []core.ChatMessage) string {
	var lines []string
	for _, msg := range history {
		if msg.Role == "" || msg.Content == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", capitalize(msg.Role), msg.Content))
	}
	return strings.Join(lines, "\n")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
