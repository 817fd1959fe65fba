package simmap

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	domain "github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/prometheus"
	"github.com/sj-huang/rdkit-m/pkg/errors"
	"github.com/sj-huang/rdkit-m/pkg/types/common"
)

// SubmitJob validates req, records the job as queued and publishes it.
// Malformed molecules and fingerprint choices are rejected before queueing.
func (s *serviceImpl) SubmitJob(ctx context.Context, req *domain.MapRequest) (*domain.JobRecord, error) {
	if s.publisher == nil {
		return nil, disabled("job queue")
	}
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}
	if _, err := parseMolecule("probe", req.Probe); err != nil {
		return nil, err
	}
	if req.Kind == domain.KindFingerprint {
		if _, err := parseMolecule("reference", req.Reference); err != nil {
			return nil, err
		}
	}
	if err := s.spec(req.Spec).Validate(); err != nil {
		return nil, err
	}

	now := s.now()
	job := &domain.Job{ID: common.NewID(), Request: *req, SubmittedAt: now}
	rec := &domain.JobRecord{ID: job.ID, Status: domain.JobQueued, SubmittedAt: now, UpdatedAt: now}
	if err := s.saveJob(ctx, rec); err != nil {
		return nil, err
	}

	if err := s.publisher.PublishJob(ctx, job); err != nil {
		s.recordError(err)
		rec.Status = domain.JobFailed
		rec.Error = err.Error()
		if saveErr := s.saveJob(ctx, rec); saveErr != nil {
			s.logger.Warn("Failed to mark unpublished job", logging.String("job_id", job.ID.String()), logging.Err(saveErr))
		}
		return nil, err
	}

	s.logger.Info("Submitted similarity map job", logging.String("job_id", job.ID.String()), logging.String("kind", req.Kind))
	return rec, nil
}

func (s *serviceImpl) GetJob(ctx context.Context, id common.ID) (*domain.JobRecord, error) {
	if s.jobs == nil {
		return nil, disabled("job status storage")
	}
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return s.jobs.GetJob(ctx, id)
}

// HandleJob processes one delivery of job. Client-side failures are wrapped
// in backoff.Permanent so the consumer stops retrying them. A job locked by
// another worker is skipped.
func (s *serviceImpl) HandleJob(ctx context.Context, job *domain.Job) error {
	if job == nil || job.ID == "" {
		return backoff.Permanent(errors.InvalidParam("job has no id"))
	}
	log := s.logger.With(logging.String("job_id", job.ID.String()))

	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, "job:"+job.ID.String(), defaultJobLockTTL)
		if err != nil {
			return err
		}
		if !ok {
			log.Info("Job is being processed by another worker")
			return nil
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				log.Warn("Failed to release job lock", logging.Err(err))
			}
		}()
	}

	if s.metrics != nil {
		s.metrics.JobsInFlight.WithLabelValues("worker").Inc()
		defer s.metrics.JobsInFlight.WithLabelValues("worker").Dec()
	}

	job.Attempt = s.nextAttempt(ctx, job)
	if job.Attempt > 1 && s.metrics != nil {
		s.metrics.JobRetriesTotal.WithLabelValues("error").Inc()
	}
	rec := &domain.JobRecord{
		ID:          job.ID,
		Status:      domain.JobRunning,
		Attempts:    job.Attempt,
		SubmittedAt: job.SubmittedAt,
	}
	if err := s.saveJob(ctx, rec); err != nil {
		log.Warn("Failed to mark job running", logging.Err(err))
	}

	start := time.Now()
	req := job.Request
	res, err := s.GenerateMap(ctx, &req)
	if err != nil {
		job.Error = err.Error()
		rec.Error = job.Error
		if saveErr := s.saveJob(ctx, rec); saveErr != nil {
			log.Warn("Failed to record job error", logging.Err(saveErr))
		}
		log.Warn("Job attempt failed", logging.Int("attempt", job.Attempt), logging.Err(err))
		if errors.IsClientError(errors.GetCode(err)) {
			return backoff.Permanent(err)
		}
		return err
	}

	rec.Status = domain.JobSucceeded
	rec.MapID = res.Record.ID
	rec.Error = ""
	if err := s.saveJob(ctx, rec); err != nil {
		log.Warn("Failed to mark job succeeded", logging.Err(err))
	}
	s.publishResult(ctx, &domain.JobResult{JobID: job.ID, MapID: res.Record.ID, Status: domain.JobSucceeded})
	prometheus.RecordJob(s.metrics, domain.JobSucceeded, time.Since(start))
	log.Info("Job succeeded", logging.String("map_id", res.Record.ID.String()), logging.Int("attempt", job.Attempt))
	return nil
}

// HandleExhausted dead-letters job after its last failed attempt and
// publishes the failure.
func (s *serviceImpl) HandleExhausted(ctx context.Context, job *domain.Job, cause error) error {
	if job == nil {
		return errors.InvalidParam("job is required")
	}
	if cause != nil {
		job.Error = cause.Error()
	}
	if job.Attempt == 0 {
		job.Attempt = s.nextAttempt(ctx, job) - 1
	}
	if s.publisher != nil {
		if err := s.publisher.PublishDeadLetter(ctx, job); err != nil {
			return err
		}
	}

	now := s.now()
	rec := &domain.JobRecord{
		ID:          job.ID,
		Status:      domain.JobFailed,
		Attempts:    job.Attempt,
		Error:       job.Error,
		SubmittedAt: job.SubmittedAt,
		UpdatedAt:   now,
	}
	if err := s.saveJob(ctx, rec); err != nil {
		s.logger.Warn("Failed to mark job failed", logging.String("job_id", job.ID.String()), logging.Err(err))
	}
	s.publishResult(ctx, &domain.JobResult{JobID: job.ID, Status: domain.JobFailed, Error: job.Error})
	prometheus.RecordJob(s.metrics, domain.JobFailed, now.Sub(job.SubmittedAt))
	s.logger.Error("Job dead-lettered",
		logging.String("job_id", job.ID.String()),
		logging.Int("attempts", job.Attempt),
		logging.String("error", job.Error),
	)
	return nil
}

// nextAttempt numbers the current delivery of job. Redeliveries decode a
// fresh job, so the stored attempt count wins when it is ahead.
func (s *serviceImpl) nextAttempt(ctx context.Context, job *domain.Job) int {
	next := job.Attempt + 1
	if s.jobs == nil {
		return next
	}
	prev, err := s.jobs.GetJob(ctx, job.ID)
	if err != nil {
		return next
	}
	if prev.Attempts >= next {
		next = prev.Attempts + 1
	}
	return next
}

func (s *serviceImpl) saveJob(ctx context.Context, rec *domain.JobRecord) error {
	if s.jobs == nil {
		return nil
	}
	start := time.Now()
	err := s.jobs.SaveJob(ctx, rec)
	prometheus.RecordDBQuery(s.metrics, "save_job", time.Since(start), err)
	return err
}

func (s *serviceImpl) publishResult(ctx context.Context, res *domain.JobResult) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishResult(ctx, res); err != nil {
		s.logger.Warn("Failed to publish job result", logging.String("job_id", res.JobID.String()), logging.Err(err))
	}
}

//Personal.AI order the ending
