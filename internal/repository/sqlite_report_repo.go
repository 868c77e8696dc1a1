package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"pathforge/internal/domain"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// SqliteReportRepository es el archivo local de reportes para las corridas de CLI.
// SQLite no tiene tipo vector: el perfil se guarda como JSON y la similitud se calcula en memoria.
type SqliteReportRepository struct {
	db *sql.DB
}

func NewSqliteReportRepository(path string) (*SqliteReportRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("report archive: create dir: %w", err)
		}
	}
	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("report archive: open database: %w", err)
	}
	for _, p := range []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("report archive: pragma %q: %w", p, err)
		}
	}
	const schema = `
		CREATE TABLE IF NOT EXISTS assessment_reports (
			id         TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			domain     TEXT NOT NULL,
			score      REAL NOT NULL,
			profile    TEXT NOT NULL,
			payload    BLOB,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reports_session ON assessment_reports(session_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("report archive: migration: %w", err)
	}
	return &SqliteReportRepository{db: db}, nil
}

func (r *SqliteReportRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteReportRepository) Save(ctx context.Context, report domain.ArchivedReport) error {
	profile, err := json.Marshal(report.Profile)
	if err != nil {
		return err
	}
	const query = `
		INSERT INTO assessment_reports (id, session_id, domain, score, profile, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query,
		report.ID,
		report.SessionID,
		report.Domain,
		report.Score,
		string(profile),
		report.Payload,
		report.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	return err
}

func (r *SqliteReportRepository) GetBySession(ctx context.Context, sessionID string) (domain.ArchivedReport, error) {
	const query = `
		SELECT id, session_id, domain, score, profile, payload, created_at
		FROM assessment_reports
		WHERE session_id = ?
		ORDER BY created_at DESC
		LIMIT 1
	`
	rep, err := scanSqliteReport(r.db.QueryRowContext(ctx, query, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ArchivedReport{}, ErrReportNotFound
	}
	return rep, err
}

func (r *SqliteReportRepository) FindSimilar(ctx context.Context, profile domain.Profile, k int) ([]domain.ArchivedReport, error) {
	const query = `
		SELECT id, session_id, domain, score, profile, payload, created_at
		FROM assessment_reports
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var all []domain.ArchivedReport
	for rows.Next() {
		rep, err := scanSqliteReport(rows)
		if err != nil {
			return nil, err
		}
		all = append(all, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return nearest(all, profile, k), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSqliteReport(row rowScanner) (domain.ArchivedReport, error) {
	var (
		rep     domain.ArchivedReport
		profile string
		created string
	)
	if err := row.Scan(&rep.ID, &rep.SessionID, &rep.Domain, &rep.Score, &profile, &rep.Payload, &created); err != nil {
		return domain.ArchivedReport{}, err
	}
	if err := json.Unmarshal([]byte(profile), &rep.Profile); err != nil {
		return domain.ArchivedReport{}, fmt.Errorf("decode profile of %s: %w", rep.ID, err)
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return domain.ArchivedReport{}, fmt.Errorf("decode created_at of %s: %w", rep.ID, err)
	}
	rep.CreatedAt = t
	return rep, nil
}
