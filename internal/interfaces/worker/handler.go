// Package worker adapts job-topic messages to the similarity map service.
package worker

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/cenkalti/backoff/v4"

	domain "github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/messaging/kafka"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

const defaultHandlerTimeout = 5 * time.Minute

// JobService is the part of the application service the worker drives.
type JobService interface {
	HandleJob(ctx context.Context, job *domain.Job) error
	HandleExhausted(ctx context.Context, job *domain.Job, cause error) error
}

// JobHandler decodes job envelopes and hands them to a JobService.
type JobHandler struct {
	svc     JobService
	timeout time.Duration
	logger  logging.Logger
}

// Option configures a JobHandler.
type Option func(*JobHandler)

// WithTimeout bounds one handling attempt. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(h *JobHandler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

func NewJobHandler(svc JobService, logger logging.Logger, opts ...Option) *JobHandler {
	h := &JobHandler{svc: svc, timeout: defaultHandlerTimeout, logger: logger.Named("worker")}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Handle processes one delivery. Messages that can never decode, and jobs
// whose processing panics, are returned as permanent errors so the consumer
// does not retry them.
func (h *JobHandler) Handle(ctx context.Context, msg *kafka.Message) (err error) {
	job, err := decodeJob(msg)
	if err != nil {
		h.logger.Warn("Dropping undecodable job message",
			logging.String("topic", msg.Topic),
			logging.Int64("offset", msg.Offset),
			logging.Err(err))
		return backoff.Permanent(err)
	}

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("Job processing panicked",
				logging.String("job_id", job.ID.String()),
				logging.Int64("offset", msg.Offset),
				logging.String("panic", fmt.Sprint(r)),
				logging.String("stack", string(debug.Stack())))
			err = backoff.Permanent(errors.New(errors.ErrCodeInternal, "job processing panicked").
				WithDetail(fmt.Sprint(r)))
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()
	return h.svc.HandleJob(ctx, job)
}

// Exhausted dead-letters the job carried by msg. A message that does not
// decode has nothing to dead-letter and is committed.
func (h *JobHandler) Exhausted(ctx context.Context, msg *kafka.Message, cause error) error {
	job, err := decodeJob(msg)
	if err != nil {
		h.logger.Error("Discarding undecodable job message",
			logging.String("topic", msg.Topic),
			logging.Int64("offset", msg.Offset),
			logging.Err(cause))
		return nil
	}
	return h.svc.HandleExhausted(ctx, job, cause)
}

func decodeJob(msg *kafka.Message) (*domain.Job, error) {
	if msg == nil {
		return nil, errors.InvalidParam("nil message")
	}
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return nil, err
	}
	if env.EventType != kafka.EventJobSubmitted {
		return nil, errors.New(errors.ErrCodeValidation, "unexpected event type").WithDetail(env.EventType)
	}
	var job domain.Job
	if err := env.DecodePayload(&job); err != nil {
		return nil, err
	}
	if job.ID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "job has no id")
	}
	return &job, nil
}

//Personal.AI order the ending
