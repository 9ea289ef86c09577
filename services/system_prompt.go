package services

import "fmt"

// NoContextAnswer is returned when retrieval found nothing to answer from.
const NoContextAnswer = "No relevant constitutional text found for this query."

// GetSystemPrompt defines the instructions sent with every synthesis request.
func GetSystemPrompt() string {
	return `You are a constitutional expert. Respond using ONLY the provided context.
For article requests:
- If context contains the full article: return it verbatim with "Article X states: [exact text]"
- If partial: "Excerpt from Article X: [text] (full text not available)"
- No interpretations. Say "Not found in Constitution" if missing.`
}

// BuildUserPrompt frames the retrieved context and the question.
func BuildUserPrompt(contextText, query string) string {
	return fmt.Sprintf("CONTEXT:\n%s\n\nQUERY: %s", contextText, query)
}
