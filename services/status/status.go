package status

import (
	"context"
	"database/sql"
	"time"

	"sjsage522/newsharvester/internal/crawler"
	"sjsage522/newsharvester/pkg/errors"
)

// Status values of an activity
const (
	Idle    = "idle"
	Running = "running"
	Success = "success"
	Failed  = "failed"
)

// Seeded activities
const (
	ActivityScraping   = "scraping"
	ActivityExtracting = "extracting_information"
)

const timeLayout = "2006-01-02 15:04:05-07:00"

const schema = `
CREATE TABLE IF NOT EXISTS status (
    activity TEXT PRIMARY KEY,
    status TEXT NOT NULL,
    modified_at TEXT NOT NULL
);
`

// Entry is one row of the status table
type Entry struct {
	Activity   string
	Status     string
	ModifiedAt time.Time
}

// Service tracks the run state of long-running activities in a table shared
// by every process using the database
type Service struct {
	db  *sql.DB
	now func() time.Time
}

// NewService creates a status service on db
func NewService(db *sql.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// SourceActivity names the scraping activity of one source
func SourceActivity(source string) string {
	return ActivityScraping + ":" + source
}

// Init creates the table and seeds the base activities as idle
func (s *Service) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return errors.NewStoreUnavailable("", "create status table", err)
	}
	for _, activity := range []string{ActivityScraping, ActivityExtracting} {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO status (activity, status, modified_at) VALUES (?, ?, ?)`,
			activity, Idle, s.stamp())
		if err != nil {
			return errors.NewStoreUnavailable("", "seed status", err)
		}
	}
	return nil
}

// Set records status for activity
func (s *Service) Set(ctx context.Context, activity, status string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO status (activity, status, modified_at) VALUES (?, ?, ?)
		ON CONFLICT(activity) DO UPDATE SET status = excluded.status, modified_at = excluded.modified_at`,
		activity, status, s.stamp())
	if err != nil {
		return errors.NewStoreUnavailable("", "set status of "+activity, err)
	}
	return nil
}

// TryStart marks activity running unless it already is. It reports whether
// the caller now owns the activity.
func (s *Service) TryStart(ctx context.Context, activity string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO status (activity, status, modified_at) VALUES (?, ?, ?)
		ON CONFLICT(activity) DO UPDATE SET status = excluded.status, modified_at = excluded.modified_at
		WHERE status.status != excluded.status`,
		activity, Running, s.stamp())
	if err != nil {
		return false, errors.NewStoreUnavailable("", "start "+activity, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, errors.NewStoreUnavailable("", "start "+activity, err)
	}
	return n == 1, nil
}

// Get returns the entry of activity; an unknown activity reads as idle
func (s *Service) Get(ctx context.Context, activity string) (Entry, error) {
	var status, modified string
	err := s.db.QueryRowContext(ctx,
		`SELECT status, modified_at FROM status WHERE activity = ?`, activity).Scan(&status, &modified)
	if err == sql.ErrNoRows {
		return Entry{Activity: activity, Status: Idle}, nil
	}
	if err != nil {
		return Entry{}, errors.NewStoreUnavailable("", "get status of "+activity, err)
	}
	return Entry{Activity: activity, Status: status, ModifiedAt: parseStamp(modified)}, nil
}

// List returns every entry ordered by activity
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT activity, status, modified_at FROM status ORDER BY activity`)
	if err != nil {
		return nil, errors.NewStoreUnavailable("", "list status", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var modified string
		if err := rows.Scan(&e.Activity, &e.Status, &modified); err != nil {
			return nil, errors.NewStoreUnavailable("", "scan status", err)
		}
		e.ModifiedAt = parseStamp(modified)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreUnavailable("", "iterate status", err)
	}
	return entries, nil
}

func (s *Service) stamp() string {
	return s.now().In(crawler.Jakarta).Format(timeLayout)
}

func parseStamp(value string) time.Time {
	t, err := time.Parse(timeLayout, value)
	if err != nil {
		return time.Time{}
	}
	return t.In(crawler.Jakarta)
}
