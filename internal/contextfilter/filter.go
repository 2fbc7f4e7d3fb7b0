// Package contextfilter narrows a context window to the messages that are
// semantically relevant to the target message, using a low-temperature
// completion call. Filtering is an enhancement, never a correctness
// requirement: every failure path returns the original window unchanged.
package contextfilter

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"regexp"
	"strings"

	"github.com/herointene/ai-translator-discord/internal/storage"
)

const (
	filterTemperature = 0.1
	filterMaxTokens   = 500

	// Windows this small are cheaper to keep whole than to filter.
	minFilterSize = 3
)

// Completer is the completion call the filter depends on.
type Completer interface {
	Complete(ctx context.Context, prompt string, temperature float64, maxTokens int) (string, error)
}

// Filter selects relevant context messages via a model call.
type Filter struct {
	client Completer
}

// New creates a Filter using the given completion client.
func New(client Completer) *Filter {
	return &Filter{client: client}
}

// indexArrayPattern matches the first bracketed array of digits, defending
// against the model prefacing the array with commentary.
var indexArrayPattern = regexp.MustCompile(`\[[\d,\s]*\]`)

// Apply returns the subset of window relevant to targetContent. Windows of
// two or fewer messages are returned unchanged without any network call.
// Fail-open: any completion error, unparseable reply, non-list result, or
// empty subset returns the original window — losing context is worse than
// including noise.
func (f *Filter) Apply(ctx context.Context, targetContent string, window []storage.Message) []storage.Message {
	if len(window) < minFilterSize {
		return window
	}

	prompt := buildFilterPrompt(targetContent, window)
	raw, err := f.client.Complete(ctx, prompt, filterTemperature, filterMaxTokens)
	if err != nil {
		slog.Warn("context filter: completion failed, keeping full window", "error", err)
		return window
	}

	indices, err := parseIndices(raw)
	if err != nil {
		slog.Warn("context filter: unparseable reply, keeping full window", "error", err, "reply", raw)
		return window
	}

	filtered := make([]storage.Message, 0, len(indices))
	for _, idx := range indices {
		if idx < 1 || idx > len(window) {
			continue
		}
		filtered = append(filtered, window[idx-1])
	}

	if len(filtered) == 0 {
		return window
	}

	slog.Debug("context filter: narrowed window", "from", len(window), "to", len(filtered))
	return filtered
}

// parseIndices extracts a JSON array of 1-based integers from a model reply.
// The reply may be wrapped in code fences or preceded by commentary;
// non-integer entries are silently dropped.
func parseIndices(raw string) ([]int, error) {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimPrefix(s, "json")
		if end := strings.LastIndex(s, "```"); end != -1 {
			s = s[:end]
		}
		s = strings.TrimSpace(s)
	}

	if m := indexArrayPattern.FindString(s); m != "" {
		s = m
	}

	var decoded []any
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return nil, err
	}

	indices := make([]int, 0, len(decoded))
	for _, v := range decoded {
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) {
			continue
		}
		indices = append(indices, int(f))
	}
	return indices, nil
}
