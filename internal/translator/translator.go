// Package translator runs the full translation flow: context filtering,
// directive detection, prompt construction, model completion, and section
// parsing. A translation attempt never fails with a Go error; failures are
// reported in the Result's Error field so callers always have something to
// show the user.
package translator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/herointene/ai-translator-discord/internal/instruction"
	"github.com/herointene/ai-translator-discord/internal/sections"
	"github.com/herointene/ai-translator-discord/internal/storage"
)

const (
	translateTemperature = 0.3
	translateMaxTokens   = 2000
)

// Completer performs a single model completion.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// ContextFilterer narrows a context window to the messages relevant to the
// target content.
type ContextFilterer interface {
	Apply(ctx context.Context, targetContent string, window []storage.Message) []storage.Message
}

// Result is the outcome of one translation attempt. Error is empty on
// success; when set, the remaining output fields hold whatever was produced
// before the failure.
type Result struct {
	Original           string            `json:"original"`
	Cleaned            string            `json:"cleaned"`
	TargetLanguage     string            `json:"target_language,omitempty"`
	Translation        string            `json:"translation,omitempty"`
	ContextExplanation string            `json:"context_explanation,omitempty"`
	ToneNotes          string            `json:"tone_notes,omitempty"`
	RelevantContext    []storage.Message `json:"relevant_context,omitempty"`
	Error              string            `json:"error,omitempty"`
}

// Translator coordinates the translation flow.
type Translator struct {
	client Completer
	filter ContextFilterer
	log    *slog.Logger
}

func New(client Completer, filter ContextFilterer, log *slog.Logger) *Translator {
	if log == nil {
		log = slog.Default()
	}
	return &Translator{client: client, filter: filter, log: log}
}

// TranslateWithContext translates content using window as candidate context.
// The window is filtered for relevance before prompting. Any failure,
// including a panic in a downstream component, lands in Result.Error.
func (t *Translator) TranslateWithContext(ctx context.Context, content string, window []storage.Message) (result Result) {
	result.Original = content

	defer func() {
		if r := recover(); r != nil {
			t.log.Error("translation panicked", "panic", r)
			result.Error = fmt.Sprintf("internal error: %v", r)
		}
	}()

	relevant := window
	if t.filter != nil {
		relevant = t.filter.Apply(ctx, content, window)
	}
	result.RelevantContext = relevant

	cleaned, langCode := instruction.Detect(content)
	result.Cleaned = cleaned
	result.TargetLanguage = langCode

	prompt := BuildTranslationPrompt(cleaned, relevant, langCode)

	raw, err := t.client.Complete(ctx, prompt, translateTemperature, translateMaxTokens)
	if err != nil {
		t.log.Error("translation completion failed", "error", err)
		result.Error = err.Error()
		return result
	}

	parsed := sections.Parse(raw)
	result.Translation = parsed.Translation
	if !sections.IsPlaceholder(parsed.ContextExplanation) {
		result.ContextExplanation = parsed.ContextExplanation
	}
	if !sections.IsPlaceholder(parsed.ToneNotes) {
		result.ToneNotes = parsed.ToneNotes
	}

	return result
}

// TranslateAs forces the target language by prepending the matching
// directive before the normal flow runs, so emoji reactions and the API's
// explicit-language path share one code path with typed directives.
func (t *Translator) TranslateAs(ctx context.Context, content string, window []storage.Message, langCode string) Result {
	if langCode != "" {
		if directive := instruction.InstructionFor(langCode); directive != "" {
			content = directive + content
		}
	}
	return t.TranslateWithContext(ctx, content, window)
}
