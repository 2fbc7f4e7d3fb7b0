// Package instruction detects explicit target-language directives embedded
// at the start of a message, e.g. "translate to japanese: ..." or "翻译为日语：...".
package instruction

import (
	"regexp"
	"strings"
)

// Leading-phrase patterns evaluated in order; first match wins. The capture
// group is a single run of letters/digits, so multi-word language names only
// capture their first word (and fall through the synonym table unmapped).
var patterns = []*regexp.Regexp{
	// Chinese phrasings: 翻译/译 with an optional 为/成 connector. The
	// connector class must be explicit so 翻译成日文 captures 日文, not 成日文.
	regexp.MustCompile(`^翻译[为成]?([\p{L}\d_]+)`),
	regexp.MustCompile(`^译[为成]?([\p{L}\d_]+)`),
	// English phrasings.
	regexp.MustCompile(`(?i)^translate to ([\p{L}\d_]+)`),
	regexp.MustCompile(`(?i)^translate into ([\p{L}\d_]+)`),
}

// languageMap maps lowercase language names, in both Chinese and English,
// to an ISO-ish code.
var languageMap = map[string]string{
	// Chinese names.
	"中文":    "zh",
	"简体中文":  "zh",
	"繁体中文":  "zh-tw",
	"英文":    "en",
	"英语":    "en",
	"日文":    "ja",
	"日语":    "ja",
	"韩文":    "ko",
	"韩语":    "ko",
	"法文":    "fr",
	"法语":    "fr",
	"德文":    "de",
	"德语":    "de",
	"西班牙文":  "es",
	"西班牙语":  "es",
	"俄文":    "ru",
	"俄语":    "ru",
	"意大利文":  "it",
	"意大利语":  "it",
	"葡萄牙文":  "pt",
	"葡萄牙语":  "pt",
	"阿拉伯文":  "ar",
	"阿拉伯语":  "ar",
	// English names.
	"chinese":             "zh",
	"simplified chinese":  "zh",
	"traditional chinese": "zh-tw",
	"english":             "en",
	"japanese":            "ja",
	"korean":              "ko",
	"french":              "fr",
	"german":              "de",
	"spanish":             "es",
	"russian":             "ru",
	"italian":             "it",
	"portuguese":          "pt",
	"arabic":              "ar",
}

// languageNames maps codes to display names used in prompts.
var languageNames = map[string]string{
	"zh":    "Chinese (Simplified)",
	"zh-tw": "Chinese (Traditional)",
	"en":    "English",
	"ja":    "Japanese",
	"ko":    "Korean",
	"fr":    "French",
	"de":    "German",
	"es":    "Spanish",
	"ru":    "Russian",
	"it":    "Italian",
	"pt":    "Portuguese",
	"ar":    "Arabic",
}

// instructionNames maps codes to a single-token Chinese name used when
// synthesizing an instruction prefix; single tokens survive the pattern
// capture so the prefix round-trips through Detect.
var instructionNames = map[string]string{
	"zh":    "中文",
	"zh-tw": "繁体中文",
	"en":    "英文",
	"ja":    "日文",
	"ko":    "韩文",
	"fr":    "法文",
	"de":    "德文",
	"es":    "西班牙文",
	"ru":    "俄文",
	"it":    "意大利文",
	"pt":    "葡萄牙文",
	"ar":    "阿拉伯文",
}

// Detect extracts a leading target-language directive from content.
// It returns the content with the matched prefix (and an optional trailing
// colon) stripped, and the target language code. An empty code means either
// no directive was found (content returned verbatim) or the captured name
// is not in the synonym table (prefix still stripped).
//
// Detect never fails and performs no I/O.
func Detect(content string) (cleaned string, code string) {
	content = strings.TrimSpace(content)

	for _, p := range patterns {
		loc := p.FindStringSubmatchIndex(content)
		if loc == nil {
			continue
		}

		name := strings.ToLower(strings.TrimSpace(content[loc[2]:loc[3]]))
		code = languageMap[name]

		cleaned = strings.TrimSpace(content[loc[1]:])
		cleaned = stripDelimiter(cleaned)
		return cleaned, code
	}

	return content, ""
}

// stripDelimiter removes a single leading ASCII or full-width colon plus
// surrounding whitespace.
func stripDelimiter(s string) string {
	s = strings.TrimPrefix(s, ":")
	s = strings.TrimPrefix(s, "：")
	return strings.TrimSpace(s)
}

// LanguageName returns the display name for a code, or the code itself when
// unknown.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

// InstructionFor returns an instruction prefix that Detect resolves back to
// the given code. It lets callers (the reaction trigger) force a target
// language through the normal detection path. Unknown codes yield "".
func InstructionFor(code string) string {
	name, ok := instructionNames[code]
	if !ok {
		return ""
	}
	return "翻译为" + name + "："
}
