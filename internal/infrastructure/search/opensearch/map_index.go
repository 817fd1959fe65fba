package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
	"github.com/sj-huang/rdkit-m/pkg/types/common"
)

// mapDocument is the indexed view of a simmap.MapRecord.
type mapDocument struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Label     string    `json:"label,omitempty"`
	Reference string    `json:"reference,omitempty"`
	Probe     string    `json:"probe"`
	Family    string    `json:"fingerprint"`
	Metric    string    `json:"metric"`
	MaxWeight float64   `json:"max_weight"`
	CreatedAt time.Time `json:"created_at"`
}

// MapIndexMapping is the mapping of the map index. SMILES fields are keywords
// so probes match exactly; labels are analysed text.
func MapIndexMapping() map[string]interface{} {
	keyword := map[string]interface{}{"type": "keyword"}
	return map[string]interface{}{
		"settings": map[string]interface{}{
			"number_of_shards":   1,
			"number_of_replicas": 0,
		},
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"id":          keyword,
				"kind":        keyword,
				"label":       map[string]interface{}{"type": "text"},
				"reference":   keyword,
				"probe":       keyword,
				"fingerprint": keyword,
				"metric":      keyword,
				"max_weight":  map[string]interface{}{"type": "double"},
				"created_at":  map[string]interface{}{"type": "date"},
			},
		},
	}
}

// MapIndex is a simmap.SearchIndex over one OpenSearch index.
type MapIndex struct {
	client *Client
	index  string
	logger logging.Logger
}

func NewMapIndex(client *Client, logger logging.Logger) *MapIndex {
	return &MapIndex{client: client, index: client.Index(), logger: logger}
}

// EnsureIndex creates the index with MapIndexMapping when it does not exist.
func (m *MapIndex) EnsureIndex(ctx context.Context) error {
	exists, err := opensearchapi.IndicesExistsRequest{Index: []string{m.index}}.Do(ctx, m.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "failed to check index existence")
	}
	exists.Body.Close()
	if exists.StatusCode == 200 {
		return nil
	}

	body, err := json.Marshal(MapIndexMapping())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal index mapping")
	}
	resp, err := opensearchapi.IndicesCreateRequest{Index: m.index, Body: bytes.NewReader(body)}.Do(ctx, m.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "failed to create index")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return handleErrorResponse(resp, "create index failed")
	}
	m.logger.Info("Index created", logging.String("index", m.index))
	return nil
}

// Index upserts rec as a document keyed by its id.
func (m *MapIndex) Index(ctx context.Context, rec *simmap.MapRecord) error {
	doc := mapDocument{
		ID:        string(rec.ID),
		Kind:      rec.Kind,
		Label:     rec.Label,
		Reference: rec.Reference,
		Probe:     rec.Probe,
		Family:    rec.Spec.Type,
		Metric:    rec.Metric,
		MaxWeight: rec.MaxWeight,
		CreatedAt: rec.CreatedAt,
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal document")
	}

	resp, err := opensearchapi.IndexRequest{
		Index:      m.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(body),
		Refresh:    "wait_for",
	}.Do(ctx, m.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "failed to index document")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return handleErrorResponse(resp, "index document failed")
	}
	return nil
}

// Search runs a free-text query over labels and SMILES, optionally filtered
// by kind.
func (m *MapIndex) Search(ctx context.Context, q simmap.SearchQuery) ([]simmap.SearchHit, int64, error) {
	page := q.Pagination.Normalize()
	if err := page.Validate(); err != nil {
		return nil, 0, err
	}

	body, err := json.Marshal(buildQuery(q))
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal query")
	}
	from, size := page.Offset(), page.PageSize
	resp, err := opensearchapi.SearchRequest{
		Index:          []string{m.index},
		Body:           bytes.NewReader(body),
		From:           &from,
		Size:           &size,
		TrackTotalHits: true,
	}.Do(ctx, m.client.GetClient())
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeSearchError, "search request failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		return nil, 0, handleErrorResponse(resp, "search failed")
	}

	var out struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				Score  float64     `json:"_score"`
				Source mapDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode search response")
	}

	hits := make([]simmap.SearchHit, 0, len(out.Hits.Hits))
	for _, h := range out.Hits.Hits {
		hits = append(hits, simmap.SearchHit{
			ID:    common.ID(h.Source.ID),
			Score: h.Score,
			Label: h.Source.Label,
			Probe: h.Source.Probe,
			Kind:  h.Source.Kind,
		})
	}
	m.logger.Debug("Map search executed", logging.String("text", q.Text), logging.Int64("total", out.Hits.Total.Value))
	return hits, out.Hits.Total.Value, nil
}

// Delete removes the document for id. A missing document is not an error.
func (m *MapIndex) Delete(ctx context.Context, id common.ID) error {
	resp, err := opensearchapi.DeleteRequest{Index: m.index, DocumentID: string(id)}.Do(ctx, m.client.GetClient())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "failed to delete document")
	}
	defer resp.Body.Close()
	if resp.StatusCode == 404 {
		return nil
	}
	if resp.IsError() {
		return handleErrorResponse(resp, "delete document failed")
	}
	return nil
}

func buildQuery(q simmap.SearchQuery) map[string]interface{} {
	boolQuery := map[string]interface{}{}
	if q.Text != "" {
		boolQuery["should"] = []interface{}{
			map[string]interface{}{"match": map[string]interface{}{"label": q.Text}},
			map[string]interface{}{"term": map[string]interface{}{"probe": map[string]interface{}{"value": q.Text, "boost": 2.0}}},
			map[string]interface{}{"term": map[string]interface{}{"reference": q.Text}},
		}
		boolQuery["minimum_should_match"] = 1
	}
	if q.Kind != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{"term": map[string]interface{}{"kind": q.Kind}},
		}
	}
	query := map[string]interface{}{"bool": boolQuery}
	if len(boolQuery) == 0 {
		query = map[string]interface{}{"match_all": map[string]interface{}{}}
	}
	return map[string]interface{}{
		"query": query,
		"sort":  []interface{}{"_score", map[string]interface{}{"created_at": "desc"}},
	}
}

func handleErrorResponse(resp *opensearchapi.Response, msg string) error {
	var errResp struct {
		Error struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	}
	bodyBytes, _ := io.ReadAll(resp.Body)
	if err := json.Unmarshal(bodyBytes, &errResp); err == nil && errResp.Error.Reason != "" {
		return errors.New(errors.ErrCodeSearchError, msg).
			WithDetailf("%s: %s", errResp.Error.Type, errResp.Error.Reason)
	}
	return errors.New(errors.ErrCodeSearchError, msg).WithDetailf("status %d", resp.StatusCode)
}

//Personal.AI order the ending
