package jobs

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// RunRecorder persists the lifecycle of a job run.
type RunRecorder interface {
	Start(ctx context.Context, jobType, subject string) (string, error)
	Finish(ctx context.Context, runID, status string, details []byte) error
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PostgresRecorder struct {
	DB execer
}

func NewPostgresRecorder(db execer) *PostgresRecorder {
	return &PostgresRecorder{DB: db}
}

func (r *PostgresRecorder) Start(ctx context.Context, jobType, subject string) (string, error) {
	id := uuid.NewString()
	if _, err := r.DB.Exec(ctx, `
    INSERT INTO job_runs (id, job_type, subject, status)
    VALUES ($1,$2,$3,$4)
  `, id, jobType, subject, StatusRunning); err != nil {
		return "", err
	}
	return id, nil
}

func (r *PostgresRecorder) Finish(ctx context.Context, runID, status string, details []byte) error {
	_, err := r.DB.Exec(ctx, `
    UPDATE job_runs
    SET status = $1, details_json = $2, completed_at = now()
    WHERE id = $3
  `, status, details, runID)
	return err
}

type LogRecorder struct{}

func (LogRecorder) Start(ctx context.Context, jobType, subject string) (string, error) {
	id := uuid.NewString()
	slog.Debug("job run started", "runId", id, "jobType", jobType, "subject", subject)
	return id, nil
}

func (LogRecorder) Finish(ctx context.Context, runID, status string, details []byte) error {
	slog.Info("job run finished", "runId", runID, "status", status, "details", string(details))
	return nil
}
