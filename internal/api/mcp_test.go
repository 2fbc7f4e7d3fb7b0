package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/herointene/ai-translator-discord/internal/storage"
	"github.com/herointene/ai-translator-discord/internal/translator"
)

func newTestMCPDeps(t *testing.T, completer *stubCompleter) (MCPDeps, *storage.Store) {
	t.Helper()
	store, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return MCPDeps{
		Store:       store,
		Translator:  translator.New(completer, passthroughFilter{}, nil),
		WindowLimit: 10,
		Logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, store
}

func toolText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("no content in result")
	}
	tc, ok := result.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return tc.Text
}

func makeCallToolRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func makeReadResourceRequest(uri string) mcp.ReadResourceRequest {
	return mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestMCPTool_SaveMessage(t *testing.T) {
	deps, store := newTestMCPDeps(t, &stubCompleter{})
	handler := mcpSaveMessage(deps)

	req := makeCallToolRequest("save_message", map[string]interface{}{
		"id":          "m1",
		"content":     "hello there",
		"channel_id":  "c1",
		"author_name": "alice",
		"timestamp":   "2025-06-01T10:00:00Z",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	msg, err := store.GetMessage("m1")
	if err != nil {
		t.Fatalf("GetMessage: %v", err)
	}
	if msg.Content != "hello there" || msg.AuthorName != "alice" {
		t.Errorf("message = %+v", msg)
	}
}

func TestMCPTool_SaveMessage_MissingFields(t *testing.T) {
	deps, _ := newTestMCPDeps(t, &stubCompleter{})
	handler := mcpSaveMessage(deps)

	req := makeCallToolRequest("save_message", map[string]interface{}{
		"content": "orphan",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for missing id")
	}
}

func TestMCPTool_TranslateText(t *testing.T) {
	deps, store := newTestMCPDeps(t, &stubCompleter{reply: "[Translation]\n你好"})
	handler := mcpTranslate(deps)

	req := makeCallToolRequest("translate", map[string]interface{}{
		"content":  "hello",
		"language": "zh",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var res translator.Result
	if err := json.Unmarshal([]byte(toolText(t, result)), &res); err != nil {
		t.Fatalf("parsing result: %v", err)
	}
	if res.Translation != "你好" {
		t.Errorf("translation = %q", res.Translation)
	}
	if res.TargetLanguage != "zh" {
		t.Errorf("target language = %q", res.TargetLanguage)
	}

	recs, err := store.RecentTranslations(10)
	if err != nil {
		t.Fatalf("RecentTranslations: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records = %d, want 1", len(recs))
	}
}

func TestMCPTool_TranslateStoredMessage(t *testing.T) {
	deps, store := newTestMCPDeps(t, &stubCompleter{reply: "[Translation]\nmessage one"})
	seedMessages(t, store, "c1", 2)
	handler := mcpTranslate(deps)

	req := makeCallToolRequest("translate", map[string]interface{}{
		"message_id": "m1",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var res translator.Result
	if err := json.Unmarshal([]byte(toolText(t, result)), &res); err != nil {
		t.Fatalf("parsing result: %v", err)
	}
	if res.Original != "message 1" {
		t.Errorf("original = %q", res.Original)
	}
	if len(res.RelevantContext) != 1 {
		t.Errorf("context = %d messages, want 1", len(res.RelevantContext))
	}
}

func TestMCPTool_TranslateUnknownMessage(t *testing.T) {
	deps, _ := newTestMCPDeps(t, &stubCompleter{})
	handler := mcpTranslate(deps)

	req := makeCallToolRequest("translate", map[string]interface{}{
		"message_id": "ghost",
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error for unknown message")
	}
}

func TestMCPTool_TranslateNoArguments(t *testing.T) {
	deps, _ := newTestMCPDeps(t, &stubCompleter{})
	handler := mcpTranslate(deps)

	result, err := handler(context.Background(), makeCallToolRequest("translate", map[string]interface{}{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected tool error when neither content nor message_id given")
	}
}

func TestMCPTool_ContextWindow(t *testing.T) {
	deps, store := newTestMCPDeps(t, &stubCompleter{})
	seedMessages(t, store, "c1", 4)
	handler := mcpContextWindow(deps)

	req := makeCallToolRequest("context_window", map[string]interface{}{
		"message_id": "m3",
		"limit":      2,
	})

	result, err := handler(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected tool error: %s", toolText(t, result))
	}

	var window []storage.Message
	if err := json.Unmarshal([]byte(toolText(t, result)), &window); err != nil {
		t.Fatalf("parsing window: %v", err)
	}
	if len(window) != 2 {
		t.Fatalf("window = %d messages, want 2", len(window))
	}
	// Oldest first within the limit.
	if window[0].ID != "m1" || window[1].ID != "m2" {
		t.Errorf("window order = %s, %s", window[0].ID, window[1].ID)
	}
}

func TestMCPResource_RecentTranslations(t *testing.T) {
	deps, store := newTestMCPDeps(t, &stubCompleter{})
	handler := mcpResourceTranslations(deps)

	rec := storage.Translation{
		ID:          "t1",
		CreatedAt:   time.Now().UTC(),
		Original:    "hola",
		Translation: "hello",
	}
	if err := store.SaveTranslation(rec); err != nil {
		t.Fatalf("SaveTranslation: %v", err)
	}

	contents, err := handler(context.Background(), makeReadResourceRequest("chat://recent-translations"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d, want 1", len(contents))
	}
	tc, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("expected TextResourceContents, got %T", contents[0])
	}

	var recs []storage.Translation
	if err := json.Unmarshal([]byte(tc.Text), &recs); err != nil {
		t.Fatalf("parsing translations: %v", err)
	}
	if len(recs) != 1 || recs[0].Original != "hola" {
		t.Errorf("records = %+v", recs)
	}
}
