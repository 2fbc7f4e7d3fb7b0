package config

import (
	"testing"
)

// mapBackend is an in-memory ConfigBackend for tests.
type mapBackend struct {
	data map[string]any
}

func (b *mapBackend) GetString(key string) (string, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return "", false, nil
	}
	return v.(string), true, nil
}

func (b *mapBackend) GetInt(key string) (int, bool, error) {
	v, ok := b.data[key]
	if !ok {
		return 0, false, nil
	}
	return v.(int), true, nil
}

func (b *mapBackend) SetString(key, val string) error { b.data[key] = val; return nil }
func (b *mapBackend) SetInt(key string, val int) error {
	b.data[key] = val
	return nil
}
func (b *mapBackend) Delete(key string) error { delete(b.data, key); return nil }

func TestLoadDefaults(t *testing.T) {
	cfg, err := loadWith(&mapBackend{data: map[string]any{}})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	if cfg.Server.Port != 4600 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Completion.Model != "xiaomi/mimo-v2-flash" {
		t.Errorf("model = %q", cfg.Completion.Model)
	}
	if cfg.Retention.Days != 30 {
		t.Errorf("retention days = %d", cfg.Retention.Days)
	}
	if cfg.Context.ReactionLimit != 10 || cfg.Context.CommandLimit != 5 {
		t.Errorf("context limits = %d/%d", cfg.Context.ReactionLimit, cfg.Context.CommandLimit)
	}
	if code, ok := cfg.Reactions["🌐"]; !ok || code != "" {
		t.Errorf("globe reaction = %q, %v", code, ok)
	}
	if cfg.Reactions["🇯🇵"] != "ja" {
		t.Errorf("jp flag reaction = %q", cfg.Reactions["🇯🇵"])
	}
}

func TestLoadMissingAPIKeyIsNotAnError(t *testing.T) {
	cfg, err := loadWith(&mapBackend{data: map[string]any{}})
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	if cfg.Completion.APIKey != "" {
		t.Errorf("api key = %q, want empty", cfg.Completion.APIKey)
	}
}

func TestLoadBackendOverridesDefaults(t *testing.T) {
	b := &mapBackend{data: map[string]any{
		"server.port":      9001,
		"completion.model": "some/other-model",
		"reactions.table":  "🌐=,🇮🇹=it",
	}}

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	if cfg.Completion.Model != "some/other-model" {
		t.Errorf("model = %q", cfg.Completion.Model)
	}
	if len(cfg.Reactions) != 2 {
		t.Errorf("reactions = %v, want replaced table", cfg.Reactions)
	}
	if cfg.Reactions["🇮🇹"] != "it" {
		t.Errorf("italy reaction = %q", cfg.Reactions["🇮🇹"])
	}
}

func TestLoadEnvOverridesBackend(t *testing.T) {
	t.Setenv("TRANSLATOR_SERVER_PORT", "7777")
	t.Setenv("TRANSLATOR_API_KEY", "sk-test")
	t.Setenv("TRANSLATOR_RETENTION_DAYS", "not-a-number")

	b := &mapBackend{data: map[string]any{
		"server.port":    9001,
		"retention.days": 14,
	}}

	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}

	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d, want env override", cfg.Server.Port)
	}
	if cfg.Completion.APIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.Completion.APIKey)
	}
	// Unparseable env int keeps the backend value.
	if cfg.Retention.Days != 14 {
		t.Errorf("retention days = %d", cfg.Retention.Days)
	}
}

func TestParseReactionTable(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]string
	}{
		{"pairs", "🇨🇳=zh, 🇯🇵=ja", map[string]string{"🇨🇳": "zh", "🇯🇵": "ja"}},
		{"empty code means auto", "🌐=", map[string]string{"🌐": ""}},
		{"malformed pair skipped", "🇨🇳=zh,broken,🇯🇵=ja", map[string]string{"🇨🇳": "zh", "🇯🇵": "ja"}},
		{"all malformed", "nope", nil},
		{"empty", "", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := parseReactionTable(tc.raw)
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for k, v := range tc.want {
				gv, ok := got[k]
				if !ok || gv != v {
					t.Errorf("got[%q] = %q, %v; want %q", k, gv, ok, v)
				}
			}
		})
	}
}

func TestShowAllHidesSecrets(t *testing.T) {
	cfg := defaults()
	cfg.Completion.APIKey = "sk-secret"
	cfg.API.Token = "tok-secret"

	for _, info := range ShowAll(cfg) {
		if info.Key == "completion.api_key" || info.Key == "api.token" {
			t.Errorf("secret key %q listed", info.Key)
		}
		if info.Value == "sk-secret" || info.Value == "tok-secret" {
			t.Errorf("secret value leaked under %q", info.Key)
		}
	}
}

func TestValidKeysExcludeSecrets(t *testing.T) {
	for _, k := range ValidKeys() {
		if k == "completion.api_key" || k == "api.token" {
			t.Errorf("secret key %q in ValidKeys", k)
		}
	}
}
