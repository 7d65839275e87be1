package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
)

const (
	JobReportEmail = "report_email"
	JobCRMSync     = "crm_sync"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var ErrQueueFull = errors.New("job queue full")

type Func func(context.Context) (any, error)

type Service struct {
	recorder RunRecorder
	workers  int
	queue    chan job
	wg       sync.WaitGroup
}

type job struct {
	Type    string
	Subject string
	Run     Func
}

func New(recorder RunRecorder, queueSize, workers int) *Service {
	if recorder == nil {
		recorder = LogRecorder{}
	}
	if queueSize <= 0 {
		queueSize = 128
	}
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		recorder: recorder,
		workers:  workers,
		queue:    make(chan job, queueSize),
	}
}

func (s *Service) Start(ctx context.Context) {
	for i := 0; i < s.workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
}

// Wait blocks until every worker has observed cancellation of the Start context.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Enqueue(jobType, subject string, run Func) error {
	select {
	case s.queue <- job{Type: jobType, Subject: subject, Run: run}:
		return nil
	default:
		slog.Warn("job queue full", "jobType", jobType, "subject", subject)
		return ErrQueueFull
	}
}

func (s *Service) RunNow(ctx context.Context, jobType, subject string, run Func) (any, error) {
	return s.runJob(ctx, job{Type: jobType, Subject: subject, Run: run})
}

func (s *Service) Pending() int {
	return len(s.queue)
}

func (s *Service) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.queue:
			if _, err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "jobType", j.Type, "subject", j.Subject, "err", err)
			}
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (any, error) {
	runID, err := s.recorder.Start(ctx, j.Type, j.Subject)
	if err != nil {
		slog.Warn("job run insert failed", "jobType", j.Type, "err", err)
	}

	details, err := j.Run(ctx)
	status := StatusCompleted
	if err != nil {
		status = StatusFailed
	}
	detailsJSON, marshalErr := json.Marshal(details)
	if marshalErr != nil {
		slog.Warn("job details marshal failed", "err", marshalErr)
		detailsJSON = []byte("{}")
	}
	if runID != "" {
		if updErr := s.recorder.Finish(ctx, runID, status, detailsJSON); updErr != nil {
			slog.Warn("job run update failed", "runId", runID, "err", updErr)
		}
	}
	return details, err
}
