// Package sections splits a structured translation reply into its
// translation, context-explanation, and tone-notes parts. The parser
// tolerates marker spelling variation and missing sections.
package sections

import (
	"sort"
	"strings"
)

// Sections holds the parsed parts of a translation reply. Empty fields mean
// "not provided" — distinct from the sentinel values a model may emit (see
// IsPlaceholder).
type Sections struct {
	Translation        string
	ContextExplanation string
	ToneNotes          string
}

// sectionMarkers is the declarative marker table: for each section, the
// accepted spellings in preference order (ASCII brackets, full-width
// brackets, "Label:" form).
var sectionMarkers = []struct {
	name    string
	markers []string
}{
	{"translation", []string{"[Translation]", "【Translation】", "Translation:"}},
	{"context", []string{"[Context/Term Explanation]", "【Context/Term Explanation】", "Context/Term Explanation:", "[Context]", "【Context】"}},
	{"tone", []string{"[Tone Notes]", "【Tone Notes】", "Tone Notes:", "[Tone]", "【Tone】"}},
}

type foundMarker struct {
	pos       int
	name      string
	markerLen int
}

// Parse splits raw into sections. Each section's content spans from the end
// of its marker to the start of the next found marker in position order, or
// to end-of-text. If the translation section is absent the entire text
// becomes the translation — non-conforming output degrades to a plain
// translation rather than an error.
func Parse(raw string) Sections {
	var found []foundMarker
	for _, s := range sectionMarkers {
		for _, marker := range s.markers {
			pos := strings.Index(raw, marker)
			if pos != -1 {
				found = append(found, foundMarker{pos: pos, name: s.name, markerLen: len(marker)})
				break
			}
		}
	}

	sort.Slice(found, func(i, j int) bool { return found[i].pos < found[j].pos })

	var result Sections
	for i, fm := range found {
		start := fm.pos + fm.markerLen
		end := len(raw)
		if i+1 < len(found) {
			end = found[i+1].pos
		}

		content := stripLeadingColon(strings.TrimSpace(raw[start:end]))
		switch fm.name {
		case "translation":
			result.Translation = content
		case "context":
			result.ContextExplanation = content
		case "tone":
			result.ToneNotes = content
		}
	}

	if result.Translation == "" {
		result.Translation = strings.TrimSpace(raw)
	}

	return result
}

func stripLeadingColon(s string) string {
	s = strings.TrimPrefix(s, ":")
	s = strings.TrimPrefix(s, "：")
	return strings.TrimSpace(s)
}

// placeholders are the sentinel values models emit for "nothing to say".
var placeholders = map[string]bool{
	"":     true,
	"none": true,
	"n/a":  true,
	"-":    true,
	"无":    true,
}

// IsPlaceholder reports whether a section value carries no real content.
// Callers use it to hide empty sections from the user.
func IsPlaceholder(s string) bool {
	return placeholders[strings.ToLower(strings.TrimSpace(s))]
}
