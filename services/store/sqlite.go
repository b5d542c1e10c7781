package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"sjsage522/newsharvester/internal/crawler"
	"sjsage522/newsharvester/logger"
	"sjsage522/newsharvester/pkg/errors"
)

// TimeLayout is how timestamps are written. Columns are TEXT so every value
// carries the +07:00 offset and compares lexicographically.
const TimeLayout = "2006-01-02 15:04:05-07:00"

const schema = `
CREATE TABLE IF NOT EXISTS articles (
    sequence_id INTEGER PRIMARY KEY,
    source TEXT NOT NULL,
    published TEXT NOT NULL,
    link TEXT NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    ingested_at TEXT NOT NULL,
    modified_at TEXT NOT NULL,
    UNIQUE(source, link)
);

CREATE INDEX IF NOT EXISTS idx_articles_source_published ON articles(source, published);
`

// SQLiteStore implements ArticleStore on a SQLite database
type SQLiteStore struct {
	db     *sql.DB
	now    func() time.Time
	logger *logger.Logger
}

// Open opens (creating if needed) the database at path and applies the schema.
// path may be ":memory:".
func Open(ctx context.Context, path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.NewStoreUnavailable("", "create database directory", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, errors.NewStoreUnavailable("", "open database", err)
	}
	// one connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.NewStoreUnavailable("", "ping database", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.NewStoreUnavailable("", "apply schema", err)
	}

	return &SQLiteStore{
		db:     db,
		now:    time.Now,
		logger: logger.ForStore(),
	}, nil
}

// WithClock replaces the clock used to stamp ingested_at and modified_at
func (s *SQLiteStore) WithClock(now func() time.Time) *SQLiteStore {
	s.now = now
	return s
}

// DB exposes the underlying handle for services sharing the database
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetWatermark returns the latest published time stored for source
func (s *SQLiteStore) GetWatermark(ctx context.Context, source string) (time.Time, error) {
	var latest sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(published) FROM articles WHERE source = ?`, source).Scan(&latest)
	if err != nil {
		return time.Time{}, errors.NewStoreUnavailable(source, "query watermark", err)
	}
	if !latest.Valid {
		return crawler.Epoch, nil
	}
	return parseTime(latest.String)
}

// FilterKnownLinks returns links stored for source published at or after since
func (s *SQLiteStore) FilterKnownLinks(ctx context.Context, source string, since time.Time) (crawler.LinkSet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT link FROM articles WHERE source = ? AND published >= ?`,
		source, formatTime(since))
	if err != nil {
		return nil, errors.NewStoreUnavailable(source, "query known links", err)
	}
	defer rows.Close()

	known := crawler.NewLinkSet()
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, errors.NewStoreUnavailable(source, "scan known link", err)
		}
		known.Add(link)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailable(source, "iterate known links", err)
	}
	return known, nil
}

// Append inserts the batch in one transaction. Articles whose (source, link)
// is already stored are skipped; the rest get consecutive sequence ids
// following the current maximum, in batch order.
func (s *SQLiteStore) Append(ctx context.Context, batch []crawler.Article) ([]crawler.Article, error) {
	if len(batch) == 0 {
		return nil, nil
	}
	source := batch[0].Source

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewStoreUnavailable(source, "begin transaction", err)
	}
	defer tx.Rollback()

	var maxID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence_id), 0) FROM articles`).Scan(&maxID); err != nil {
		return nil, errors.NewStoreUnavailable(source, "query max sequence id", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO articles (sequence_id, source, published, link, title, content, ingested_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, link) DO NOTHING`)
	if err != nil {
		return nil, errors.NewStoreUnavailable(source, "prepare insert", err)
	}
	defer stmt.Close()

	stamp := normalize(s.now())
	inserted := make([]crawler.Article, 0, len(batch))
	for _, article := range batch {
		article.SequenceID = maxID + 1
		article.Published = normalize(article.Published)
		article.IngestedAt = stamp
		article.ModifiedAt = stamp

		res, err := stmt.ExecContext(ctx,
			article.SequenceID,
			article.Source,
			formatTime(article.Published),
			article.Link,
			article.Title,
			article.Content,
			formatTime(article.IngestedAt),
			formatTime(article.ModifiedAt),
		)
		if err != nil {
			return nil, errors.NewStoreUnavailable(article.Source, "insert article", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, errors.NewStoreUnavailable(article.Source, "insert article", err)
		}
		if n == 0 {
			s.logger.Debug().Str("source", article.Source).Str("link", article.Link).Msg("Skipping stored link")
			continue
		}
		maxID++
		inserted = append(inserted, article)
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.NewStoreUnavailable(source, "commit", err)
	}

	s.logger.Debug().Str("source", source).Int("batch", len(batch)).Int("inserted", len(inserted)).Msg("Batch appended")
	return inserted, nil
}

// CountBySource returns the number of stored articles per source
func (s *SQLiteStore) CountBySource(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, COUNT(*) FROM articles GROUP BY source`)
	if err != nil {
		return nil, errors.NewStoreUnavailable("", "count articles", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			source string
			count  int
		)
		if err := rows.Scan(&source, &count); err != nil {
			return nil, errors.NewStoreUnavailable("", "scan count", err)
		}
		counts[source] = count
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailable("", "iterate counts", err)
	}
	return counts, nil
}

// normalize expresses t in Asia/Jakarta at second resolution
func normalize(t time.Time) time.Time {
	return t.In(crawler.Jakarta).Truncate(time.Second)
}

func formatTime(t time.Time) string {
	return normalize(t).Format(TimeLayout)
}

func parseTime(value string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return time.Time{}, errors.NewStoreUnavailable("", fmt.Sprintf("malformed timestamp %q", value), err)
	}
	return t.In(crawler.Jakarta), nil
}
