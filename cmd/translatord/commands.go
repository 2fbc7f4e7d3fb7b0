package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/herointene/ai-translator-discord/internal/config"
	"github.com/herointene/ai-translator-discord/internal/storage"
	"github.com/herointene/ai-translator-discord/internal/translator"
)

// --- translate ---

var translateCmd = &cobra.Command{
	Use:   "translate [text]",
	Short: "Translate text or a stored message",
	Long: `Translate text or a stored message, using surrounding chat messages
as context. A leading directive selects the target language:

  translatord translate "translate to japanese: see you tomorrow"
  translatord translate "翻译为中文：good morning"
  translatord translate --message-id 12345
  translatord translate --message-id 12345 --limit 20`,
	RunE: func(cmd *cobra.Command, args []string) error {
		messageID, _ := cmd.Flags().GetString("message-id")
		channelID, _ := cmd.Flags().GetString("channel")
		limit, _ := cmd.Flags().GetInt("limit")
		asJSON, _ := cmd.Flags().GetBool("json")

		text := strings.Join(args, " ")
		if text == "" && messageID == "" {
			return fmt.Errorf("provide text to translate or --message-id")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		var result translator.Result
		if messageID != "" {
			body := map[string]any{"message_id": messageID}
			if limit > 0 {
				body["limit"] = limit
			}
			httpResp, err := client.post(cmd.Context(), "/translate", body)
			if err != nil {
				return err
			}
			if err := decodeJSON(httpResp, &result); err != nil {
				return err
			}
		} else {
			body := map[string]any{"content": text}
			if channelID != "" {
				body["channel_id"] = channelID
			}
			if limit > 0 {
				body["limit"] = limit
			}
			httpResp, err := client.post(cmd.Context(), "/translate/text", body)
			if err != nil {
				return err
			}
			if err := decodeJSON(httpResp, &result); err != nil {
				return err
			}
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printResult(result)
		return nil
	},
}

func printResult(result translator.Result) {
	if result.Error != "" {
		printError("translation failed: %s", result.Error)
		return
	}

	if result.TargetLanguage != "" {
		printStatus("Target", "%s", result.TargetLanguage)
	}
	if n := len(result.RelevantContext); n > 0 {
		printStatus("Context", "%d message(s)", n)
	}

	printSection("Translation")
	fmt.Println(result.Translation)

	if result.ContextExplanation != "" {
		fmt.Println()
		printSection("Context/Term Explanation")
		fmt.Println(result.ContextExplanation)
	}
	if result.ToneNotes != "" {
		fmt.Println()
		printSection("Tone Notes")
		fmt.Println(result.ToneNotes)
	}
}

func init() {
	translateCmd.Flags().String("message-id", "", "translate a stored message by id")
	translateCmd.Flags().String("channel", "", "channel id for context when translating raw text")
	translateCmd.Flags().Int("limit", 0, "context window size")
	translateCmd.Flags().Bool("json", false, "print the full result as JSON")
}

// --- ingest ---

var ingestCmd = &cobra.Command{
	Use:   "ingest <content>",
	Short: "Store a chat message for later use as context",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("id")
		channelID, _ := cmd.Flags().GetString("channel")
		threadID, _ := cmd.Flags().GetString("thread")
		author, _ := cmd.Flags().GetString("author")

		if channelID == "" {
			return fmt.Errorf("--channel is required")
		}
		if id == "" {
			id = uuid.New().String()
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		body := map[string]any{
			"id":          id,
			"content":     strings.Join(args, " "),
			"channel_id":  channelID,
			"thread_id":   threadID,
			"author_name": author,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		}
		resp, err := client.post(cmd.Context(), "/messages", body)
		if err != nil {
			return err
		}

		var result map[string]bool
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}
		if !result["saved"] {
			printWarning("message %s was not saved", id)
			return nil
		}

		printSuccess("Saved message %s", id)
		return nil
	},
}

func init() {
	ingestCmd.Flags().String("id", "", "message id (default: random)")
	ingestCmd.Flags().String("channel", "", "channel id")
	ingestCmd.Flags().String("thread", "", "thread id")
	ingestCmd.Flags().String("author", "", "author display name")
}

// --- recent ---

var recentCmd = &cobra.Command{
	Use:   "recent",
	Short: "List recent stored messages in a channel or thread",
	RunE: func(cmd *cobra.Command, args []string) error {
		channelID, _ := cmd.Flags().GetString("channel")
		threadID, _ := cmd.Flags().GetString("thread")
		limit, _ := cmd.Flags().GetInt("limit")

		if channelID == "" && threadID == "" {
			return fmt.Errorf("one of --channel or --thread is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		q := url.Values{}
		q.Set("channel_id", channelID)
		q.Set("thread_id", threadID)
		q.Set("limit", fmt.Sprintf("%d", limit))
		resp, err := client.get(cmd.Context(), "/messages/recent?"+q.Encode())
		if err != nil {
			return err
		}

		var msgs []storage.Message
		if err := decodeJSON(resp, &msgs); err != nil {
			return err
		}
		if len(msgs) == 0 {
			fmt.Println("No messages found.")
			return nil
		}

		for _, m := range msgs {
			content := m.Content
			if len(content) > 80 {
				content = content[:80] + "..."
			}
			fmt.Printf("%s  %s  %s: %s\n",
				colorize(colorCyan, m.ID),
				m.Timestamp.Format(time.RFC3339),
				m.AuthorName,
				content,
			)
		}
		return nil
	},
}

func init() {
	recentCmd.Flags().String("channel", "", "channel id")
	recentCmd.Flags().String("thread", "", "thread id")
	recentCmd.Flags().Int("limit", 20, "maximum number of messages")
}

// --- translations ---

var translationsCmd = &cobra.Command{
	Use:   "translations",
	Short: "List recent translation records",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), fmt.Sprintf("/translations?limit=%d", limit))
		if err != nil {
			return err
		}

		var recs []storage.Translation
		if err := decodeJSON(resp, &recs); err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("No translations found.")
			return nil
		}

		for _, rec := range recs {
			status := rec.Translation
			if rec.Error != "" {
				status = colorize(colorRed, "error: "+rec.Error)
			}
			if len(status) > 60 {
				status = status[:60] + "..."
			}
			fmt.Printf("%s  %s  %s\n",
				colorize(colorCyan, rec.ID[:8]),
				rec.CreatedAt.Format(time.RFC3339),
				status,
			)
		}
		return nil
	},
}

func init() {
	translationsCmd.Flags().Int("limit", 10, "maximum number of records")
}

// --- purge ---

var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete stored messages older than a number of days",
	RunE: func(cmd *cobra.Command, args []string) error {
		days, _ := cmd.Flags().GetInt("days")
		confirm, _ := cmd.Flags().GetBool("confirm")

		if days <= 0 {
			return fmt.Errorf("--days must be positive")
		}
		if !confirm {
			printWarning("This will delete all messages older than %d days. Use --confirm to proceed.", days)
			return nil
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.post(cmd.Context(), "/purge", map[string]any{"days": days})
		if err != nil {
			return err
		}

		var result map[string]int64
		if err := decodeJSON(resp, &result); err != nil {
			return err
		}

		printSuccess("Deleted %d message(s)", result["deleted"])
		return nil
	},
}

func init() {
	purgeCmd.Flags().Int("days", 30, "delete messages older than this many days")
	purgeCmd.Flags().Bool("confirm", false, "confirm the purge")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		keys := config.ShowAll(cfg)
		for _, k := range keys {
			fmt.Printf("  %s = %s\n", colorize(colorBold, k.Key), k.Value)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
