package sink

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/phuslu/log"

	"github.com/project-tktt/itjob-crawler/internal/domain"
)

// PostgresSink upserts jobs into a PostgreSQL table
type PostgresSink struct {
	db        *sql.DB
	tableName string
}

// NewPostgresSink creates a new PostgreSQL sink
func NewPostgresSink(ctx context.Context, connStr, tableName string) (*PostgresSink, error) {
	if tableName == "" {
		tableName = "jobs"
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	// Test connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	s := newPostgresSink(db, tableName)
	if err := s.ensureTable(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure table: %w", err)
	}

	return s, nil
}

func newPostgresSink(db *sql.DB, tableName string) *PostgresSink {
	return &PostgresSink{
		db:        db,
		tableName: pq.QuoteIdentifier(tableName),
	}
}

// Name returns the sink name
func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			salary BIGINT,
			location TEXT,
			experience TEXT,
			education TEXT,
			posted_date DATE,
			skills TEXT[],
			languages TEXT[],
			url TEXT,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		)
	`, s.tableName)

	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Write upserts jobs in a single transaction
func (s *PostgresSink) Write(ctx context.Context, jobs []*domain.Job) error {
	if len(jobs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO %s (
			key, title, salary, location, experience,
			education, posted_date, skills, languages, url, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10, NOW()
		)
		ON CONFLICT (key) DO UPDATE SET
			title = EXCLUDED.title,
			salary = EXCLUDED.salary,
			location = EXCLUDED.location,
			experience = EXCLUDED.experience,
			education = EXCLUDED.education,
			posted_date = EXCLUDED.posted_date,
			skills = EXCLUDED.skills,
			languages = EXCLUDED.languages,
			url = EXCLUDED.url,
			updated_at = NOW()
	`, s.tableName)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	// A failed statement aborts the whole transaction in PostgreSQL,
	// so every row runs under its own savepoint.
	written := 0
	for _, job := range jobs {
		if _, err := tx.ExecContext(ctx, "SAVEPOINT job_row"); err != nil {
			return fmt.Errorf("savepoint: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, rowArgs(job)...); err != nil {
			log.Error().Err(err).Str("key", jobKey(job)).Msg("[Postgres] Error upserting job")
			if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT job_row"); err != nil {
				return fmt.Errorf("rollback to savepoint: %w", err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT job_row"); err != nil {
			return fmt.Errorf("release savepoint: %w", err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	log.Info().Int("jobs", written).Str("table", s.tableName).Msg("[Postgres] Upserted jobs")
	return nil
}

// Close closes the database connection
func (s *PostgresSink) Close() error {
	return s.db.Close()
}

func rowArgs(job *domain.Job) []any {
	var salary sql.NullInt64
	if job.Salary != nil {
		salary = sql.NullInt64{Int64: *job.Salary, Valid: true}
	}
	var education sql.NullString
	if job.Education != nil {
		education = sql.NullString{String: string(*job.Education), Valid: true}
	}
	var posted sql.NullTime
	if job.PostedDate != nil && !job.PostedDate.IsZero() {
		posted = sql.NullTime{Time: job.PostedDate.Time(), Valid: true}
	}

	return []any{
		jobKey(job),
		job.Title,
		salary,
		job.Location,
		job.Experience,
		education,
		posted,
		pq.Array(nonNil(job.Skills)),
		pq.Array(nonNil(job.Languages)),
		job.URL,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

