package client

import (
	"context"
	"net/url"
	"time"

	"github.com/sj-huang/rdkit-m/pkg/errors"
	"github.com/sj-huang/rdkit-m/pkg/types/common"
	dto "github.com/sj-huang/rdkit-m/pkg/types/simmap"
)

const defaultPollInterval = time.Second

// JobsClient submits map requests for asynchronous rendering.
type JobsClient struct {
	client *Client
}

// Submit queues req and returns the job in its initial state.
func (j *JobsClient) Submit(ctx context.Context, req *dto.MapRequest) (*dto.JobStatus, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Nearest {
		return nil, errors.InvalidParam("nearest reference lookup is not supported for jobs")
	}
	var out dto.JobStatus
	if err := j.client.post(ctx, apiPrefix+"/jobs", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (j *JobsClient) Get(ctx context.Context, id common.ID) (*dto.JobStatus, error) {
	if id == "" {
		return nil, errors.InvalidParam("job id is required")
	}
	var out dto.JobStatus
	if err := j.client.get(ctx, apiPrefix+"/jobs/"+url.PathEscape(string(id)), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Wait polls the job every interval until it succeeds or fails, or ctx ends.
func (j *JobsClient) Wait(ctx context.Context, id common.ID, interval time.Duration) (*dto.JobStatus, error) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := j.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if job.Done() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

//Personal.AI order the ending
