package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "TRANSLATOR_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "completion.api_key", typ: kString, env: "TRANSLATOR_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Completion.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.APIKey },
	},
	{
		key: "completion.base_url", typ: kString, env: "TRANSLATOR_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Completion.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.BaseURL },
	},
	{
		key: "completion.model", typ: kString, env: "TRANSLATOR_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Completion.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Completion.Model },
	},
	{
		key: "storage.data_dir", typ: kString, env: "TRANSLATOR_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "retention.days", typ: kInt, env: "TRANSLATOR_RETENTION_DAYS",
		apply:   func(cfg *Config, v any) { cfg.Retention.Days = v.(int) },
		extract: func(cfg Config) any { return cfg.Retention.Days },
	},
	{
		key: "retention.interval", typ: kString, env: "TRANSLATOR_RETENTION_INTERVAL",
		apply:   func(cfg *Config, v any) { cfg.Retention.Interval = v.(string) },
		extract: func(cfg Config) any { return cfg.Retention.Interval },
	},
	{
		key: "context.reaction_limit", typ: kInt, env: "TRANSLATOR_CONTEXT_REACTION_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Context.ReactionLimit = v.(int) },
		extract: func(cfg Config) any { return cfg.Context.ReactionLimit },
	},
	{
		key: "context.command_limit", typ: kInt, env: "TRANSLATOR_CONTEXT_COMMAND_LIMIT",
		apply:   func(cfg *Config, v any) { cfg.Context.CommandLimit = v.(int) },
		extract: func(cfg Config) any { return cfg.Context.CommandLimit },
	},
	{
		key: "reactions.table", typ: kString, env: "TRANSLATOR_REACTIONS_TABLE",
		apply: func(cfg *Config, v any) {
			if table := parseReactionTable(v.(string)); table != nil {
				cfg.Reactions = table
			}
		},
		extract: func(cfg Config) any { return formatReactionTable(cfg.Reactions) },
	},
	{
		key: "api.token", typ: kString, env: "TRANSLATOR_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.API.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.API.Token },
	},
	{
		key: "log.level", typ: kString, env: "TRANSLATOR_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
