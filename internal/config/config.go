// Package config loads daemon configuration from defaults, a JSON config
// file, and environment variables, in that order of increasing precedence.
package config

import (
	"sort"
	"strings"
)

type Config struct {
	Server     ServerConfig
	Completion CompletionConfig
	Storage    StorageConfig
	Retention  RetentionConfig
	Context    ContextConfig
	API        APIConfig
	Log        LogConfig

	// Reactions maps a reaction symbol to a target language code. An empty
	// code means "auto-detect and translate to English".
	Reactions map[string]string
}

type ServerConfig struct {
	Port int
}

type CompletionConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

type StorageConfig struct {
	DataDir string
}

type RetentionConfig struct {
	Days     int
	Interval string
}

type ContextConfig struct {
	// ReactionLimit bounds the context window for reaction-triggered
	// translations; CommandLimit bounds it for explicit text commands.
	ReactionLimit int
	CommandLimit  int
}

type APIConfig struct {
	// Token enables bearer-token auth on the HTTP API when non-empty.
	Token string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Completion: CompletionConfig{
			BaseURL: "https://api.xiaomimimo.com/v1",
			Model:   "xiaomi/mimo-v2-flash",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Retention: RetentionConfig{
			Days:     30,
			Interval: "6h",
		},
		Context: ContextConfig{
			ReactionLimit: 10,
			CommandLimit:  5,
		},
		Log: LogConfig{
			Level: "info",
		},
		Reactions: map[string]string{
			"🌐":  "",
			"🇨🇳": "zh",
			"🇯🇵": "ja",
			"🇰🇷": "ko",
			"🇺🇸": "en",
			"🇬🇧": "en",
			"🇫🇷": "fr",
			"🇩🇪": "de",
			"🇪🇸": "es",
			"🇷🇺": "ru",
		},
	}
}

// Load reads configuration from the JSON config file at
// $XDG_CONFIG_HOME/translatord/config.json and applies TRANSLATOR_* env
// overrides. A missing completion API key is not an error here; the
// completion client reports it on first use.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}

// parseReactionTable decodes "emoji=code" pairs separated by commas.
// An empty code ("🌐=") maps the symbol to auto-detect. Malformed pairs are
// skipped so one typo does not wipe the table.
func parseReactionTable(raw string) map[string]string {
	table := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		emoji, code, ok := strings.Cut(pair, "=")
		emoji = strings.TrimSpace(emoji)
		if !ok || emoji == "" {
			continue
		}
		table[emoji] = strings.TrimSpace(code)
	}
	if len(table) == 0 {
		return nil
	}
	return table
}

func formatReactionTable(table map[string]string) string {
	pairs := make([]string, 0, len(table))
	for emoji, code := range table {
		pairs = append(pairs, emoji+"="+code)
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ",")
}
