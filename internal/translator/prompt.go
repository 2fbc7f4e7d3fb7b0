package translator

import (
	"strings"

	"github.com/herointene/ai-translator-discord/internal/instruction"
	"github.com/herointene/ai-translator-discord/internal/storage"
)

// BuildTranslationPrompt assembles the translation request. langCode selects
// the target language; an empty code asks the model to detect the source and
// render it in English.
func BuildTranslationPrompt(content string, context []storage.Message, langCode string) string {
	var b strings.Builder

	b.WriteString("You are an expert translator with deep cultural and linguistic knowledge.\n\n")

	if langCode != "" {
		b.WriteString("Translate the following message to ")
		b.WriteString(instruction.LanguageName(langCode))
		b.WriteString(".\n\n")
	} else {
		b.WriteString("Detect the language of the following message and translate it to English.\n\n")
	}

	if len(context) > 0 {
		b.WriteString("Relevant conversation context:\n")
		for _, m := range context {
			b.WriteString("- ")
			b.WriteString(m.AuthorName)
			b.WriteString(": ")
			b.WriteString(m.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Message to translate:\n")
	b.WriteString(content)
	b.WriteString("\n\n")

	b.WriteString("Respond in exactly this format:\n\n")
	b.WriteString("[Translation]\n")
	b.WriteString("The translated message.\n\n")
	b.WriteString("[Context/Term Explanation]\n")
	b.WriteString("Explain slang, idioms, cultural references, or technical terms that do not translate directly. If there is nothing to explain, write \"None\".\n\n")
	b.WriteString("[Tone Notes]\n")
	b.WriteString("Describe the tone or register of the original message if notable. If there is nothing notable, write \"None\".\n")

	return b.String()
}
