package client

import (
	"context"

	dto "github.com/sj-huang/rdkit-m/pkg/types/simmap"
)

// WeightsClient computes atomic weights without storing anything.
type WeightsClient struct {
	client *Client
}

// Compute returns the atomic weights of the probe against the reference.
func (w *WeightsClient) Compute(ctx context.Context, req *dto.WeightsRequest) (*dto.WeightsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out dto.WeightsResponse
	if err := w.client.post(ctx, apiPrefix+"/weights", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ComputeModel returns the atomic weights of the probe under a linear model.
func (w *WeightsClient) ComputeModel(ctx context.Context, req *dto.ModelWeightsRequest) (*dto.WeightsResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out dto.WeightsResponse
	if err := w.client.post(ctx, apiPrefix+"/weights/model", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (w *WeightsClient) Standardize(ctx context.Context, weights []float64) (*dto.WeightsResponse, error) {
	var out dto.WeightsResponse
	if err := w.client.post(ctx, apiPrefix+"/weights/standardize", &dto.StandardizeRequest{Weights: weights}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

//Personal.AI order the ending
