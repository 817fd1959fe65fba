package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sj-huang/rdkit-m/pkg/errors"
	"github.com/sj-huang/rdkit-m/pkg/types/common"
	dto "github.com/sj-huang/rdkit-m/pkg/types/simmap"
)

// MapsClient generates and browses similarity maps.
type MapsClient struct {
	client *Client
}

// ListOptions filters List. Zero values are omitted.
type ListOptions struct {
	Kind     string
	Probe    string
	Page     int
	PageSize int
}

func (o *ListOptions) values() url.Values {
	v := url.Values{}
	if o == nil {
		return v
	}
	if o.Kind != "" {
		v.Set("kind", o.Kind)
	}
	if o.Probe != "" {
		v.Set("probe", o.Probe)
	}
	if o.Page > 0 {
		v.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(o.PageSize))
	}
	return v
}

// Generate renders a map synchronously.
func (m *MapsClient) Generate(ctx context.Context, req *dto.MapRequest) (*dto.MapResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out dto.MapResponse
	if err := m.client.post(ctx, apiPrefix+"/maps", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *MapsClient) List(ctx context.Context, opts *ListOptions) (*dto.MapListResponse, error) {
	path := apiPrefix + "/maps"
	if q := opts.values().Encode(); q != "" {
		path += "?" + q
	}
	var out dto.MapListResponse
	if err := m.client.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search runs a full-text query over stored map labels and SMILES.
func (m *MapsClient) Search(ctx context.Context, query string, opts *ListOptions) (*dto.SearchResponse, error) {
	if query == "" {
		return nil, errors.InvalidParam("search query is required")
	}
	v := opts.values()
	v.Del("probe")
	v.Set("q", query)
	var out dto.SearchResponse
	if err := m.client.get(ctx, apiPrefix+"/maps/search?"+v.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *MapsClient) Get(ctx context.Context, id common.ID) (*dto.MapRecord, error) {
	if id == "" {
		return nil, errors.InvalidParam("map id is required")
	}
	var out dto.MapRecord
	if err := m.client.get(ctx, apiPrefix+"/maps/"+url.PathEscape(string(id)), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *MapsClient) Delete(ctx context.Context, id common.ID) error {
	if id == "" {
		return errors.InvalidParam("map id is required")
	}
	return m.client.delete(ctx, apiPrefix+"/maps/"+url.PathEscape(string(id)))
}

// Image downloads the stored image and returns it with its content type.
func (m *MapsClient) Image(ctx context.Context, id common.ID) ([]byte, string, error) {
	if id == "" {
		return nil, "", errors.InvalidParam("map id is required")
	}
	raw, err := m.client.send(ctx, http.MethodGet, apiPrefix+"/maps/"+url.PathEscape(string(id))+"/image", nil)
	if err != nil {
		return nil, "", err
	}
	return raw.Body, raw.Header.Get("Content-Type"), nil
}

// ImageURL asks for a presigned download link. A zero expiry takes the
// server default.
func (m *MapsClient) ImageURL(ctx context.Context, id common.ID, expiry time.Duration) (*dto.ImageURLResponse, error) {
	if id == "" {
		return nil, errors.InvalidParam("map id is required")
	}
	path := apiPrefix + "/maps/" + url.PathEscape(string(id)) + "/image-url"
	if expiry > 0 {
		path += "?expiry=" + url.QueryEscape(expiry.String())
	}
	var out dto.ImageURLResponse
	if err := m.client.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

//Personal.AI order the ending
