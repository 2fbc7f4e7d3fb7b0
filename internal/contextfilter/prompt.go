package contextfilter

import (
	"fmt"
	"strings"

	"github.com/herointene/ai-translator-discord/internal/storage"
)

// buildFilterPrompt enumerates the window with 1-based indices and asks the
// model to name the relevant ones as a JSON array.
func buildFilterPrompt(targetContent string, window []storage.Message) string {
	var lines []string
	for i, m := range window {
		lines = append(lines, fmt.Sprintf("[%d] %s: %s", i+1, m.AuthorName, m.Content))
	}

	var sb strings.Builder
	sb.WriteString("You are a context filtering assistant for a translation system.\n\n")
	sb.WriteString("Your task is to analyze a list of conversation messages and identify which ones are semantically relevant to the target message that needs translation.\n\n")
	fmt.Fprintf(&sb, "Target message to translate:\n%q\n\n", targetContent)
	fmt.Fprintf(&sb, "Conversation context (most recent first):\n%s\n\n", strings.Join(lines, "\n"))
	sb.WriteString("Instructions:\n")
	sb.WriteString("1. Analyze the semantic relationship between the target message and each context message\n")
	sb.WriteString("2. Identify messages that share the same topic, refer to the same subject, or provide necessary context for understanding the target message\n")
	sb.WriteString("3. Return ONLY a JSON array of indices (1-based) of the relevant messages\n")
	sb.WriteString("4. If no messages are relevant, return an empty array []\n")
	sb.WriteString("5. Be selective - only include messages that truly add context value\n\n")
	sb.WriteString("Response format (JSON only):\n[1, 3, 5]\n\nYour response:")

	return sb.String()
}
