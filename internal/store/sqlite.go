package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rcliao/feedsink/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// sql.Open is lazy; ping so an unusable path fails here, not at the
	// first query.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open db: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS all_messages (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	message           TEXT NOT NULL,
	author            TEXT NOT NULL,
	timestamp         TEXT NOT NULL,
	category          TEXT NOT NULL,
	sentiment         REAL NOT NULL,
	keyword_mentioned TEXT,
	message_length    INTEGER NOT NULL,
	created_at        TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_category ON all_messages(category);

CREATE TABLE IF NOT EXISTS category_stats (
	category      TEXT PRIMARY KEY,
	message_count INTEGER NOT NULL DEFAULT 0,
	avg_sentiment REAL NOT NULL DEFAULT 0.0,
	last_updated  TEXT NOT NULL
);
`

// ResetAll drops every table of the previous run (master, stats, and all
// category partitions) and recreates the base schema.
func (s *SQLiteStore) ResetAll(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name FROM sqlite_master
		 WHERE type = 'table'
		   AND (name IN ('all_messages', 'category_stats') OR name LIKE 'category\_%' ESCAPE '\')`)
	if err != nil {
		return fmt.Errorf("list tables: %w", err)
	}
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list tables: %w", err)
	}

	for _, name := range tables {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
			return fmt.Errorf("drop %s: %w", name, err)
		}
	}

	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// partitionTable maps a category identifier to its physical table name.
func partitionTable(id string) string {
	return "category_" + id
}

// quoteIdent quotes an SQL identifier. Partition names derive from
// untrusted category labels, so they are never interpolated bare.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// EnsurePartition creates the partition table and its timestamp index if
// they do not exist. Safe to call repeatedly.
func (s *SQLiteStore) EnsurePartition(ctx context.Context, id string) error {
	table := quoteIdent(partitionTable(id))
	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			message           TEXT NOT NULL,
			author            TEXT NOT NULL,
			timestamp         TEXT NOT NULL,
			sentiment         REAL NOT NULL,
			keyword_mentioned TEXT,
			message_length    INTEGER NOT NULL,
			created_at        TEXT NOT NULL
		)`, table)
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("create partition %s: %w", id, err)
	}

	index := quoteIdent("idx_" + id + "_timestamp")
	createIndex := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s(timestamp)`, index, table)
	if _, err := s.db.ExecContext(ctx, createIndex); err != nil {
		return fmt.Errorf("create partition index %s: %w", id, err)
	}
	return nil
}

// Insert writes the message to the master table and its partition, then
// recomputes the category's stats row from the master table. Everything
// happens in one transaction, so the two tables can never diverge.
func (s *SQLiteStore) Insert(ctx context.Context, partition string, msg *model.Message) error {
	now := time.Now().UTC()
	createdAt := now.Format(time.RFC3339)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO all_messages
		 (message, author, timestamp, category, sentiment, keyword_mentioned, message_length, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		msg.Message, msg.Author, msg.Timestamp, msg.Category,
		msg.Sentiment, msg.KeywordMentioned, msg.MessageLength, createdAt)
	if err != nil {
		return fmt.Errorf("insert master: %w", err)
	}

	insertPartition := fmt.Sprintf(`
		INSERT INTO %s
		(message, author, timestamp, sentiment, keyword_mentioned, message_length, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`, quoteIdent(partitionTable(partition)))
	if _, err := tx.ExecContext(ctx, insertPartition,
		msg.Message, msg.Author, msg.Timestamp,
		msg.Sentiment, msg.KeywordMentioned, msg.MessageLength, createdAt); err != nil {
		return fmt.Errorf("insert partition %s: %w", partition, err)
	}

	// Full rescan of the category's master rows. The stats row is always
	// a pure function of the stored messages, never patched from a stale
	// previous value.
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO category_stats (category, message_count, avg_sentiment, last_updated)
		 SELECT ?, COUNT(*), AVG(sentiment), ? FROM all_messages WHERE category = ?`,
		msg.Category, createdAt, msg.Category); err != nil {
		return fmt.Errorf("update stats for %s: %w", msg.Category, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		msg.ID = id
	}
	msg.CreatedAt = now
	return nil
}

// CategorySummary returns the analytics rows for every category that has
// at least one stored message. Ties on count break by category name so
// the order is total and deterministic.
func (s *SQLiteStore) CategorySummary(ctx context.Context) ([]model.CategorySummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT
			category,
			COUNT(*) AS message_count,
			AVG(sentiment) AS avg_sentiment,
			COUNT(DISTINCT author) AS unique_authors,
			MAX(timestamp) AS latest_message
		FROM all_messages
		GROUP BY category
		ORDER BY message_count DESC, category ASC`)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	var summaries []model.CategorySummary
	for rows.Next() {
		var cs model.CategorySummary
		if err := rows.Scan(&cs.Category, &cs.MessageCount, &cs.AvgSentiment, &cs.UniqueAuthors, &cs.LatestTimestamp); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		summaries = append(summaries, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	return summaries, nil
}

// StatsFor returns the stats row for one category.
func (s *SQLiteStore) StatsFor(ctx context.Context, category string) (*model.CategoryStats, error) {
	var cs model.CategoryStats
	var lastUpdated string
	err := s.db.QueryRowContext(ctx,
		`SELECT category, message_count, avg_sentiment, last_updated
		 FROM category_stats WHERE category = ?`, category).
		Scan(&cs.Category, &cs.MessageCount, &cs.AvgSentiment, &lastUpdated)
	if err != nil {
		return nil, fmt.Errorf("stats for %s: %w", category, err)
	}
	cs.LastUpdated, _ = time.Parse(time.RFC3339, lastUpdated)
	return &cs, nil
}

// Close closes the store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
