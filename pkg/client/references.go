package client

import (
	"context"
	"net/url"
	"strconv"

	"github.com/sj-huang/rdkit-m/pkg/errors"
	dto "github.com/sj-huang/rdkit-m/pkg/types/simmap"
)

// ReferencesClient manages the reference molecule library.
type ReferencesClient struct {
	client *Client
}

// Register adds molecules to the library and returns them with their ids.
func (r *ReferencesClient) Register(ctx context.Context, refs ...dto.ReferenceInput) ([]dto.Reference, error) {
	req := &dto.RegisterReferencesRequest{References: refs}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out dto.RegisterReferencesResponse
	if err := r.client.post(ctx, apiPrefix+"/references", req, &out); err != nil {
		return nil, err
	}
	return out.References, nil
}

// Nearest returns up to k library molecules closest to smiles. k <= 0 takes
// the server default.
func (r *ReferencesClient) Nearest(ctx context.Context, smiles string, k int) ([]dto.ReferenceMatch, error) {
	if smiles == "" {
		return nil, errors.InvalidParam("smiles is required")
	}
	v := url.Values{"smiles": {smiles}}
	if k > 0 {
		v.Set("k", strconv.Itoa(k))
	}
	var out dto.NearestResponse
	if err := r.client.get(ctx, apiPrefix+"/references/nearest?"+v.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Matches, nil
}

//Personal.AI order the ending
