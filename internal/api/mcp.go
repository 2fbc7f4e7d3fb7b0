package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/herointene/ai-translator-discord/internal/storage"
	"github.com/herointene/ai-translator-discord/internal/translator"
)

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Store      *storage.Store
	Translator *translator.Translator
	// WindowLimit bounds context windows for MCP-triggered translations.
	WindowLimit int
	Logger      *slog.Logger
}

// NewMCPServer creates an MCP server exposing the translation pipeline and
// the message store as tools.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	if deps.WindowLimit <= 0 {
		deps.WindowLimit = 10
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	s := server.NewMCPServer(
		"translatord",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("translatord — context-aware chat message translation over a local message store."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("translate",
			mcp.WithDescription("Translate text or a stored message, using surrounding chat messages as context. A leading directive like \"translate to japanese:\" or \"翻译为日文：\" selects the target language."),
			mcp.WithString("content", mcp.Description("Text to translate. Ignored when message_id is set.")),
			mcp.WithString("message_id", mcp.Description("ID of a stored message to translate with its context window.")),
			mcp.WithString("language", mcp.Description("Target language code (e.g. zh, ja, en). Empty means auto-detect.")),
		),
		mcpTranslate(deps),
	)

	s.AddTool(
		mcp.NewTool("save_message",
			mcp.WithDescription("Store a chat message so later translations can use it as context. Redelivery with the same id updates the row."),
			mcp.WithString("id", mcp.Description("Message id"), mcp.Required()),
			mcp.WithString("content", mcp.Description("Message text"), mcp.Required()),
			mcp.WithString("channel_id", mcp.Description("Channel id"), mcp.Required()),
			mcp.WithString("author_id", mcp.Description("Author id")),
			mcp.WithString("author_name", mcp.Description("Author display name")),
			mcp.WithString("thread_id", mcp.Description("Thread id, when the message lives in a thread")),
			mcp.WithString("guild_id", mcp.Description("Guild id")),
			mcp.WithString("timestamp", mcp.Description("RFC 3339 timestamp; defaults to now")),
		),
		mcpSaveMessage(deps),
	)

	s.AddTool(
		mcp.NewTool("context_window",
			mcp.WithDescription("Show the context window a translation of the given stored message would see: same scope, at or before its timestamp, oldest first."),
			mcp.WithString("message_id", mcp.Description("Target message id"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of context messages (default 10)")),
		),
		mcpContextWindow(deps),
	)

	s.AddResource(
		mcp.NewResource(
			"chat://recent-translations",
			"Recent Translations",
			mcp.WithResourceDescription("Last 10 translation records as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceTranslations(deps),
	)

	return s
}

func mcpTranslate(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		content := req.GetString("content", "")
		messageID := req.GetString("message_id", "")
		language := req.GetString("language", "")

		if content == "" && messageID == "" {
			return mcpError("one of content or message_id is required"), nil
		}

		var window []storage.Message
		if messageID != "" {
			msg, err := deps.Store.GetMessage(messageID)
			if errors.Is(err, storage.ErrNotFound) {
				return mcpError(fmt.Sprintf("message %s not found", messageID)), nil
			}
			if err != nil {
				return mcpError(fmt.Sprintf("failed to get message: %v", err)), nil
			}
			content = msg.Content
			if w, err := deps.Store.ContextWindow(messageID, deps.WindowLimit); err == nil {
				window = w
			}
		}

		result := deps.Translator.TranslateAs(ctx, content, window, language)
		saveTranslationRecord(deps.Store, deps.Logger, messageID, result)

		b, err := json.Marshal(result)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal result: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpSaveMessage(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("id")
		if err != nil {
			return mcpError("id is required"), nil
		}
		content, err := req.RequireString("content")
		if err != nil {
			return mcpError("content is required"), nil
		}
		channelID, err := req.RequireString("channel_id")
		if err != nil {
			return mcpError("channel_id is required"), nil
		}

		ts := time.Now().UTC()
		if raw := req.GetString("timestamp", ""); raw != "" {
			parsed, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return mcpError(fmt.Sprintf("invalid timestamp: %v", err)), nil
			}
			ts = parsed.UTC()
		}

		msg := storage.Message{
			ID:         id,
			AuthorID:   req.GetString("author_id", ""),
			AuthorName: req.GetString("author_name", ""),
			Content:    content,
			Timestamp:  ts,
			ChannelID:  channelID,
			ThreadID:   req.GetString("thread_id", ""),
			GuildID:    req.GetString("guild_id", ""),
		}
		if err := deps.Store.UpsertMessage(msg); err != nil {
			return mcpError(fmt.Sprintf("failed to save: %v", err)), nil
		}

		return mcpText(fmt.Sprintf("Saved message %s", id)), nil
	}
}

func mcpContextWindow(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		messageID, err := req.RequireString("message_id")
		if err != nil {
			return mcpError("message_id is required"), nil
		}

		limit := req.GetInt("limit", deps.WindowLimit)
		if limit <= 0 {
			limit = deps.WindowLimit
		}
		if limit > 50 {
			limit = 50
		}

		window, err := deps.Store.ContextWindow(messageID, limit)
		if errors.Is(err, storage.ErrNotFound) {
			return mcpError(fmt.Sprintf("message %s not found", messageID)), nil
		}
		if err != nil {
			return mcpError(fmt.Sprintf("context lookup failed: %v", err)), nil
		}

		if len(window) == 0 {
			return mcpText("[]"), nil
		}
		b, err := json.Marshal(window)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal window: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceTranslations(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		translations, err := deps.Store.RecentTranslations(10)
		if err != nil {
			return nil, fmt.Errorf("failed to get recent translations: %w", err)
		}
		if translations == nil {
			translations = []storage.Translation{}
		}

		b, err := json.Marshal(translations)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal translations: %w", err)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
