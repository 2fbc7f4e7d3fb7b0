package storage

import (
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// timeLayout is RFC 3339 with a fixed-width nanosecond fraction. Timestamps
// are stored and compared as text, so the fraction must be fixed-width for
// lexical order to match chronological order, and sub-second instants must
// survive a round trip through the database.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps a SQLite database holding chat messages and translation records.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database in dataDir and runs pending migrations.
// Pass ":memory:" as dataDir for an in-memory database (used by tests).
func Open(dataDir string) (*Store, error) {
	var dsn string
	if dataDir == ":memory:" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = filepath.Join(dataDir, "messages.db")
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	// Limit to single connection to avoid "database is locked" errors.
	db.SetMaxOpenConns(1)

	// Set busy timeout so concurrent access waits briefly instead of failing immediately.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate reads embedded SQL migration files and applies any that haven't been run yet.
func (s *Store) migrate() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("creating schema_version table: %w", err)
	}

	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort by filename to guarantee ascending order.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}

		version, err := parseMigrationVersion(entry.Name())
		if err != nil {
			return err
		}

		var exists int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM schema_version WHERE version = ?", version).Scan(&exists); err != nil {
			return fmt.Errorf("checking migration %d: %w", version, err)
		}
		if exists > 0 {
			continue
		}

		content, err := migrationsFS.ReadFile("migrations/" + entry.Name())
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning transaction for migration %d: %w", version, err)
		}

		if _, err := tx.Exec(string(content)); err != nil {
			tx.Rollback()
			return fmt.Errorf("applying migration %d: %w", version, err)
		}

		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version); err != nil {
			tx.Rollback()
			return fmt.Errorf("recording migration %d: %w", version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration %d: %w", version, err)
		}
	}

	return nil
}

func parseMigrationVersion(filename string) (int, error) {
	var version int
	if _, err := fmt.Sscanf(filename, "%d_", &version); err != nil {
		return 0, fmt.Errorf("parsing migration version from %q: %w", filename, err)
	}
	return version, nil
}

// AppliedMigrations returns the list of applied migration versions in ascending order.
func (s *Store) AppliedMigrations() ([]int, error) {
	rows, err := s.db.Query("SELECT version FROM schema_version ORDER BY version ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []int
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}

// --- Messages ---

// UpsertMessage writes a message, replacing any existing row with the same id.
// Redelivery of the same id is harmless: last write wins.
func (s *Store) UpsertMessage(m Message) error {
	_, err := s.db.Exec(`
		INSERT INTO messages (id, author_id, author_name, content, timestamp, channel_id, thread_id, guild_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			author_id = excluded.author_id,
			author_name = excluded.author_name,
			content = excluded.content,
			timestamp = excluded.timestamp,
			channel_id = excluded.channel_id,
			thread_id = excluded.thread_id,
			guild_id = excluded.guild_id`,
		m.ID, m.AuthorID, m.AuthorName, m.Content,
		m.Timestamp.UTC().Format(timeLayout), m.ChannelID,
		nullable(m.ThreadID), nullable(m.GuildID),
	)
	return err
}

// GetMessage retrieves a message by id or ErrNotFound.
func (s *Store) GetMessage(id string) (Message, error) {
	row := s.db.QueryRow(`
		SELECT id, author_id, author_name, content, timestamp, channel_id, thread_id, guild_id
		FROM messages WHERE id = ?`, id)
	m, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return Message{}, ErrNotFound
	}
	return m, err
}

// ContextWindow returns up to limit messages preceding the target, oldest
// first. A message inside a thread only ever sees thread-local history; a
// channel-scoped message only sees thread-less messages from its channel.
// The target itself is never included.
func (s *Store) ContextWindow(targetID string, limit int) ([]Message, error) {
	target, err := s.GetMessage(targetID)
	if err != nil {
		return nil, err
	}

	targetTime := target.Timestamp.UTC().Format(timeLayout)

	var rows *sql.Rows
	if target.InThread() {
		rows, err = s.db.Query(`
			SELECT id, author_id, author_name, content, timestamp, channel_id, thread_id, guild_id
			FROM messages
			WHERE thread_id = ? AND timestamp <= ? AND id != ?
			ORDER BY timestamp DESC
			LIMIT ?`,
			target.ThreadID, targetTime, targetID, limit)
	} else {
		rows, err = s.db.Query(`
			SELECT id, author_id, author_name, content, timestamp, channel_id, thread_id, guild_id
			FROM messages
			WHERE channel_id = ? AND thread_id IS NULL AND timestamp <= ? AND id != ?
			ORDER BY timestamp DESC
			LIMIT ?`,
			target.ChannelID, targetTime, targetID, limit)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs, err := collectMessages(rows)
	if err != nil {
		return nil, err
	}

	// Query order is newest-first; reverse to chronological.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// RecentMessages returns the newest messages in a scope, newest first.
// A non-empty threadID takes precedence over channelID; channel scope
// excludes messages that live in threads. Both empty returns nil.
func (s *Store) RecentMessages(channelID, threadID string, limit int) ([]Message, error) {
	var rows *sql.Rows
	var err error
	switch {
	case threadID != "":
		rows, err = s.db.Query(`
			SELECT id, author_id, author_name, content, timestamp, channel_id, thread_id, guild_id
			FROM messages WHERE thread_id = ?
			ORDER BY timestamp DESC LIMIT ?`, threadID, limit)
	case channelID != "":
		rows, err = s.db.Query(`
			SELECT id, author_id, author_name, content, timestamp, channel_id, thread_id, guild_id
			FROM messages WHERE channel_id = ? AND thread_id IS NULL
			ORDER BY timestamp DESC LIMIT ?`, channelID, limit)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMessages(rows)
}

// PurgeOlderThan deletes messages whose timestamp precedes now-minus-age and
// returns the number of rows removed. Safe to run repeatedly.
func (s *Store) PurgeOlderThan(age time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-age).Format(timeLayout)
	res, err := s.db.Exec(`DELETE FROM messages WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (Message, error) {
	var m Message
	var timestamp string
	var threadID, guildID sql.NullString
	err := row.Scan(&m.ID, &m.AuthorID, &m.AuthorName, &m.Content, &timestamp, &m.ChannelID, &threadID, &guildID)
	if err != nil {
		return Message{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return Message{}, fmt.Errorf("parsing timestamp: %w", err)
	}
	m.Timestamp = t
	m.ThreadID = threadID.String
	m.GuildID = guildID.String
	return m, nil
}

func collectMessages(rows *sql.Rows) ([]Message, error) {
	var msgs []Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// --- Translations ---

// SaveTranslation records one pipeline run.
func (s *Store) SaveTranslation(t Translation) error {
	_, err := s.db.Exec(`
		INSERT INTO translations (id, message_id, created_at, original, cleaned, target_lang, translation, context_explanation, tone_notes, context_count, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.MessageID, t.CreatedAt.UTC().Format(timeLayout),
		t.Original, t.Cleaned, t.TargetLang, t.Translation,
		t.ContextExplanation, t.ToneNotes, t.ContextCount, t.Error,
	)
	return err
}

// GetTranslation retrieves a translation record by id or ErrNotFound.
func (s *Store) GetTranslation(id string) (Translation, error) {
	row := s.db.QueryRow(`
		SELECT id, message_id, created_at, original, cleaned, target_lang, translation, context_explanation, tone_notes, context_count, error
		FROM translations WHERE id = ?`, id)
	t, err := scanTranslation(row)
	if err == sql.ErrNoRows {
		return Translation{}, ErrNotFound
	}
	return t, err
}

// RecentTranslations returns the newest translation records, newest first.
func (s *Store) RecentTranslations(limit int) ([]Translation, error) {
	rows, err := s.db.Query(`
		SELECT id, message_id, created_at, original, cleaned, target_lang, translation, context_explanation, tone_notes, context_count, error
		FROM translations ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []Translation
	for rows.Next() {
		t, err := scanTranslation(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

func scanTranslation(row rowScanner) (Translation, error) {
	var t Translation
	var createdAt string
	err := row.Scan(&t.ID, &t.MessageID, &createdAt, &t.Original, &t.Cleaned,
		&t.TargetLang, &t.Translation, &t.ContextExplanation, &t.ToneNotes,
		&t.ContextCount, &t.Error)
	if err != nil {
		return Translation{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return Translation{}, fmt.Errorf("parsing created_at: %w", err)
	}
	t.CreatedAt = ts
	return t, nil
}
