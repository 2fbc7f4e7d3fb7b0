// Package api exposes the daemon over HTTP: message ingestion, translation
// triggers (reactions and explicit commands), and inspection of stored
// messages and translation records. Chat-platform connectors are clients of
// this surface.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/herointene/ai-translator-discord/internal/storage"
	"github.com/herointene/ai-translator-discord/internal/translator"
)

const maxRequestBodySize = 1 << 20 // 1MB

type Deps struct {
	Store      *storage.Store
	Translator *translator.Translator
	// Reactions maps a reaction symbol to a target language code; an empty
	// code means auto-detect.
	Reactions map[string]string
	// ReactionLimit bounds context windows for reaction triggers,
	// CommandLimit for explicit text commands.
	ReactionLimit int
	CommandLimit  int
	// Token enables bearer auth when non-empty. Health stays open.
	Token  string
	Logger *slog.Logger
}

func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.ReactionLimit <= 0 {
		deps.ReactionLimit = 10
	}
	if deps.CommandLimit <= 0 {
		deps.CommandLimit = 5
	}

	r := chi.NewRouter()

	r.Get("/health", handleHealth)

	r.Group(func(r chi.Router) {
		if deps.Token != "" {
			r.Use(BearerAuth(deps.Token))
		}

		r.Post("/messages", handleSaveMessage(deps))
		r.Get("/messages/{id}", handleGetMessage(deps))
		r.Get("/messages/recent", handleRecentMessages(deps))
		r.Post("/reactions", handleReaction(deps))
		r.Post("/translate", handleTranslateMessage(deps))
		r.Post("/translate/text", handleTranslateText(deps))
		r.Get("/translations", handleListTranslations(deps))
		r.Post("/purge", handlePurge(deps))
	})

	return r
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

type MessageRequest struct {
	ID         string `json:"id"`
	AuthorID   string `json:"author_id"`
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
	Timestamp  string `json:"timestamp"`
	ChannelID  string `json:"channel_id"`
	ThreadID   string `json:"thread_id"`
	GuildID    string `json:"guild_id"`
}

func handleSaveMessage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req MessageRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.ID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "id is required")
			return
		}
		if req.ChannelID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "channel_id is required")
			return
		}

		ts := time.Now().UTC()
		if req.Timestamp != "" {
			parsed, err := time.Parse(time.RFC3339, req.Timestamp)
			if err != nil {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid timestamp: %v", err)
				return
			}
			ts = parsed.UTC()
		}

		msg := storage.Message{
			ID:         req.ID,
			AuthorID:   req.AuthorID,
			AuthorName: req.AuthorName,
			Content:    req.Content,
			Timestamp:  ts,
			ChannelID:  req.ChannelID,
			ThreadID:   req.ThreadID,
			GuildID:    req.GuildID,
		}

		// A failed write must not interrupt ingestion; report it and move on.
		saved := true
		if err := deps.Store.UpsertMessage(msg); err != nil {
			deps.Logger.Error("message save failed", "message_id", req.ID, "error", err)
			saved = false
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]bool{"saved": saved})
	}
}

func handleGetMessage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		msg, err := deps.Store.GetMessage(id)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "message not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get message: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(msg)
	}
}

func handleRecentMessages(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		channelID := r.URL.Query().Get("channel_id")
		threadID := r.URL.Query().Get("thread_id")
		limit := parseIntParam(r, "limit", 20, 100)

		msgs, err := deps.Store.RecentMessages(channelID, threadID, limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list messages: %v", err)
			return
		}
		if msgs == nil {
			msgs = []storage.Message{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(msgs)
	}
}

type ReactionRequest struct {
	MessageID string `json:"message_id"`
	Emoji     string `json:"emoji"`
}

func handleReaction(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req ReactionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.MessageID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message_id is required")
			return
		}

		langCode, ok := deps.Reactions[req.Emoji]
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]bool{"triggered": false})
			return
		}

		msg, err := deps.Store.GetMessage(req.MessageID)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "message not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get message: %v", err)
			return
		}

		window := contextWindow(deps, msg.ID, deps.ReactionLimit)
		result := deps.Translator.TranslateAs(r.Context(), msg.Content, window, langCode)
		saveTranslationRecord(deps.Store, deps.Logger, msg.ID, result)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"triggered": true,
			"result":    result,
		})
	}
}

type TranslateRequest struct {
	MessageID string `json:"message_id"`
	Limit     int    `json:"limit"`
}

func handleTranslateMessage(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req TranslateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.MessageID == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "message_id is required")
			return
		}

		msg, err := deps.Store.GetMessage(req.MessageID)
		if errors.Is(err, storage.ErrNotFound) {
			httpError(w, http.StatusNotFound, "not_found", "message not found")
			return
		}
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to get message: %v", err)
			return
		}

		limit := req.Limit
		if limit <= 0 {
			limit = deps.ReactionLimit
		}

		window := contextWindow(deps, msg.ID, limit)
		result := deps.Translator.TranslateWithContext(r.Context(), msg.Content, window)
		saveTranslationRecord(deps.Store, deps.Logger, msg.ID, result)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

type TranslateTextRequest struct {
	Content   string `json:"content"`
	ChannelID string `json:"channel_id"`
	Limit     int    `json:"limit"`
}

func handleTranslateText(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req TranslateTextRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Content == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "content is required")
			return
		}

		limit := req.Limit
		if limit <= 0 {
			limit = deps.CommandLimit
		}

		var window []storage.Message
		if req.ChannelID != "" {
			msgs, err := deps.Store.RecentMessages(req.ChannelID, "", limit)
			if err != nil {
				deps.Logger.Warn("context lookup failed, translating without context", "channel_id", req.ChannelID, "error", err)
			} else {
				window = msgs
			}
		}

		result := deps.Translator.TranslateWithContext(r.Context(), req.Content, window)
		saveTranslationRecord(deps.Store, deps.Logger, "", result)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
	}
}

func handleListTranslations(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := parseIntParam(r, "limit", 10, 100)

		translations, err := deps.Store.RecentTranslations(limit)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "failed to list translations: %v", err)
			return
		}
		if translations == nil {
			translations = []storage.Translation{}
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(translations)
	}
}

type PurgeRequest struct {
	Days int `json:"days"`
}

func handlePurge(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		var req PurgeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Days <= 0 {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "days must be positive")
			return
		}

		deleted, err := deps.Store.PurgeOlderThan(time.Duration(req.Days) * 24 * time.Hour)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "purge failed: %v", err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]int64{"deleted": deleted})
	}
}

// contextWindow fetches the scope-correct window for a stored message.
// A read failure degrades to an empty window; a translation without context
// beats no translation.
func contextWindow(deps Deps, messageID string, limit int) []storage.Message {
	window, err := deps.Store.ContextWindow(messageID, limit)
	if err != nil {
		deps.Logger.Warn("context window lookup failed, translating without context", "message_id", messageID, "error", err)
		return nil
	}
	return window
}

// saveTranslationRecord persists one pipeline run. Persistence is
// best-effort; the result already goes back to the caller.
func saveTranslationRecord(store *storage.Store, log *slog.Logger, messageID string, result translator.Result) {
	rec := storage.Translation{
		ID:                 uuid.New().String(),
		MessageID:          messageID,
		CreatedAt:          time.Now().UTC(),
		Original:           result.Original,
		Cleaned:            result.Cleaned,
		TargetLang:         result.TargetLanguage,
		Translation:        result.Translation,
		ContextExplanation: result.ContextExplanation,
		ToneNotes:          result.ToneNotes,
		ContextCount:       len(result.RelevantContext),
		Error:              result.Error,
	}
	if err := store.SaveTranslation(rec); err != nil {
		log.Error("translation record save failed", "translation_id", rec.ID, "error", err)
	}
}

func parseIntParam(r *http.Request, key string, defaultVal, maxVal int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return defaultVal
	}
	if maxVal > 0 && v > maxVal {
		return maxVal
	}
	return v
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
