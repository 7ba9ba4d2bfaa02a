package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/docketwatch/docketwatch/models"
)

// Run statuses persisted for monitor executions.
const (
	RunStatusRunning   = "running"
	RunStatusSucceeded = "succeeded"
	RunStatusFailed    = "failed"
)

type Store struct {
	DB *sql.DB
}

// NewWithDSN constructs the Store using an explicit Postgres DSN.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Run operations

func (s *Store) CreateRun(ctx context.Context, day string) (string, error) {
	id := uuid.NewString()
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO runs (id, day, status, started_at) VALUES ($1,$2,$3,NOW())`,
		id, day, RunStatusRunning)
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	return id, nil
}

func (s *Store) FinishRun(ctx context.Context, runID, status string, errMsg *string, signals, resolved int) error {
	_, err := s.DB.ExecContext(ctx, `
UPDATE runs SET status=$2, error=$3, signal_count=$4, resolved_count=$5, finished_at=NOW()
WHERE id=$1`, runID, status, errMsg, signals, resolved)
	return err
}

type Run struct {
	ID            string
	Day           string
	Status        string
	Error         *string
	SignalCount   int
	ResolvedCount int
	StartedAt     time.Time
	FinishedAt    *time.Time
}

func (s *Store) ListRuns(ctx context.Context, day string) ([]Run, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, day, status, error, signal_count, resolved_count, started_at, finished_at
FROM runs WHERE day=$1 ORDER BY started_at`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.Day, &r.Status, &r.Error, &r.SignalCount, &r.ResolvedCount, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestRunTime returns the start of the most recent run, nil when none exists.
func (s *Store) LatestRunTime(ctx context.Context) (*time.Time, error) {
	var ts sql.NullTime
	err := s.DB.QueryRowContext(ctx, `SELECT MAX(started_at) FROM runs`).Scan(&ts)
	if err != nil {
		return nil, err
	}
	if !ts.Valid {
		return nil, nil
	}
	return &ts.Time, nil
}

// Daily record operations. One row per (identity_key, day); documents live
// in their own table so re-running a day can only add rows, never lose them.

func (s *Store) UpsertDailyRecord(ctx context.Context, rec models.DailyCaseRecord) error {
	caseJSON, err := json.Marshal(rec.Case)
	if err != nil {
		return fmt.Errorf("marshal case %s: %w", rec.IdentityKey, err)
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO daily_case_records (identity_key, day, case_json, first_seen, last_seen, superseded_by)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (identity_key, day) DO UPDATE SET
  case_json     = EXCLUDED.case_json,
  last_seen     = EXCLUDED.last_seen,
  superseded_by = EXCLUDED.superseded_by;
`, rec.IdentityKey, rec.Day, caseJSON, rec.FirstSeen, rec.LastSeen, nullable(rec.SupersededBy))
	if err != nil {
		return fmt.Errorf("upsert record %s/%s: %w", rec.IdentityKey, rec.Day, err)
	}

	for _, doc := range rec.Documents {
		if err := s.insertDocument(ctx, rec.IdentityKey, rec.Day, doc); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) insertDocument(ctx context.Context, identityKey, day string, doc models.SelectedDocument) error {
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.DedupKey(), err)
	}
	_, err = s.DB.ExecContext(ctx, `
INSERT INTO case_documents (identity_key, day, dedup_key, doc_json)
VALUES ($1,$2,$3,$4)
ON CONFLICT (identity_key, day, dedup_key) DO NOTHING;
`, identityKey, day, doc.DedupKey(), docJSON)
	if err != nil {
		return fmt.Errorf("insert document %s/%s: %w", identityKey, doc.DedupKey(), err)
	}
	return nil
}

// ListDayRecords loads a day's accumulated records with their documents,
// ordered by first sighting.
func (s *Store) ListDayRecords(ctx context.Context, day string) ([]models.DailyCaseRecord, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT identity_key, day, case_json, first_seen, last_seen, superseded_by
FROM daily_case_records WHERE day=$1 ORDER BY first_seen, identity_key`, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DailyCaseRecord
	for rows.Next() {
		var (
			rec        models.DailyCaseRecord
			caseJSON   []byte
			superseded sql.NullString
		)
		if err := rows.Scan(&rec.IdentityKey, &rec.Day, &caseJSON, &rec.FirstSeen, &rec.LastSeen, &superseded); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(caseJSON, &rec.Case); err != nil {
			return nil, fmt.Errorf("unmarshal case %s: %w", rec.IdentityKey, err)
		}
		rec.SupersededBy = superseded.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		docs, err := s.listDocuments(ctx, out[i].IdentityKey, out[i].Day)
		if err != nil {
			return nil, err
		}
		out[i].Documents = docs
	}
	return out, nil
}

func (s *Store) listDocuments(ctx context.Context, identityKey, day string) ([]models.SelectedDocument, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT doc_json FROM case_documents
WHERE identity_key=$1 AND day=$2 ORDER BY dedup_key`, identityKey, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SelectedDocument
	for rows.Next() {
		var docJSON []byte
		if err := rows.Scan(&docJSON); err != nil {
			return nil, err
		}
		var doc models.SelectedDocument
		if err := json.Unmarshal(docJSON, &doc); err != nil {
			return nil, fmt.Errorf("unmarshal document for %s: %w", identityKey, err)
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
