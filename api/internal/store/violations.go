// Package store persists violation events in Postgres. The core pipeline
// does not depend on it; it plugs in as one more sink.
package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"go.uber.org/zap"

	"interview-proctor/api/internal/logger"
	"interview-proctor/api/internal/proctor"
)

// One statement per entry: the pgx extended protocol does not accept
// multi-statement strings.
var schema = []string{
	`create table if not exists violations (
		id bigserial primary key,
		session_id text not null,
		type text not null,
		confidence double precision not null,
		details text,
		created_at timestamptz not null default now()
	)`,
	`create index if not exists idx_violations_session on violations(session_id)`,
}

// Open connects, verifies the connection and bootstraps the schema.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, err
		}
	}
	return db, nil
}

type ViolationRepo struct{ DB *sql.DB }

func NewViolationRepo(db *sql.DB) *ViolationRepo { return &ViolationRepo{DB: db} }

func (r *ViolationRepo) Insert(ctx context.Context, ev proctor.ViolationEvent) error {
	ts, err := time.Parse(time.RFC3339, ev.Timestamp)
	if err != nil {
		ts = time.Now().UTC()
	}
	const q = `insert into violations (session_id, type, confidence, details, created_at)
	           values ($1, $2, $3, $4, $5)`
	_, err = r.DB.ExecContext(ctx, q, ev.SessionID, ev.Type, ev.Confidence, ev.Details, ts)
	return err
}

func (r *ViolationRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]proctor.ViolationEvent, error) {
	const q = `select type, confidence, details, created_at
	           from violations
	           where session_id=$1
	           order by created_at desc
	           limit $2`
	rows, err := r.DB.QueryContext(ctx, q, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []proctor.ViolationEvent{}
	for rows.Next() {
		var (
			ev proctor.ViolationEvent
			ts time.Time
		)
		if err := rows.Scan(&ev.Type, &ev.Confidence, &ev.Details, &ts); err != nil {
			return nil, err
		}
		ev.SessionID = sessionID
		ev.Timestamp = ts.UTC().Format(time.RFC3339)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Sink adapts the repo to the pipeline. Writes run with their own deadline
// so a slow database cannot stall the analysis cycle for long.
type Sink struct {
	repo *ViolationRepo
}

func NewSink(repo *ViolationRepo) *Sink { return &Sink{repo: repo} }

func (s *Sink) OnViolation(ev proctor.ViolationEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.repo.Insert(ctx, ev); err != nil {
		logger.L().Error("persist violation", zap.Error(err), zap.String("type", ev.Type))
	}
}

func (s *Sink) OnError(error) {} // transient analysis errors are not persisted
