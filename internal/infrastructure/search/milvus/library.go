package milvus

import (
	"context"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/zeebo/xxh3"

	"github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

const maxTopK = 100

// ReferenceLibrary is a simmap.ReferenceLibrary over a Milvus collection of
// packed Morgan bit vectors, searched by Jaccard distance.
type ReferenceLibrary struct {
	client *Client
	logger logging.Logger
}

func NewReferenceLibrary(c *Client, logger logging.Logger) *ReferenceLibrary {
	return &ReferenceLibrary{client: c, logger: logger}
}

// ReferenceID derives a stable primary key from a SMILES string.
func ReferenceID(smiles string) int64 {
	return int64(xxh3.HashString(smiles) &^ (1 << 63))
}

// Upsert writes refs. References without an ID get ReferenceID(SMILES).
func (l *ReferenceLibrary) Upsert(ctx context.Context, refs []*simmap.Reference) error {
	if len(refs) == 0 {
		return errors.InvalidParam("no references to upsert")
	}
	cfg := l.client.Config()
	width := cfg.Dim / 8

	ids := make([]int64, len(refs))
	names := make([]string, len(refs))
	smiles := make([]string, len(refs))
	vectors := make([][]byte, len(refs))
	for i, ref := range refs {
		if len(ref.Vector) != width {
			return errors.InvalidParam("fingerprint has wrong width").
				WithDetailf("reference %q: got %d bytes, want %d", ref.SMILES, len(ref.Vector), width)
		}
		if ref.ID == 0 {
			ref.ID = ReferenceID(ref.SMILES)
		}
		ids[i], names[i], smiles[i], vectors[i] = ref.ID, ref.Name, ref.SMILES, ref.Vector
	}

	mc := l.client.GetMilvusClient()
	if mc == nil {
		return ErrConnectionFailed
	}
	_, err := mc.Upsert(ctx, cfg.Collection, "",
		entity.NewColumnInt64(FieldID, ids),
		entity.NewColumnVarChar(FieldName, names),
		entity.NewColumnVarChar(FieldSMILES, smiles),
		entity.NewColumnBinaryVector(FieldFingerprint, cfg.Dim, vectors),
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "failed to upsert references")
	}
	l.logger.Info("References upserted", logging.Int("count", len(refs)))
	return nil
}

// Nearest returns up to k references closest to vector, nearest first.
func (l *ReferenceLibrary) Nearest(ctx context.Context, vector []byte, k int) ([]simmap.ReferenceMatch, error) {
	cfg := l.client.Config()
	if len(vector) != cfg.Dim/8 {
		return nil, errors.InvalidParam("query fingerprint has wrong width")
	}
	if k <= 0 {
		return nil, errors.InvalidParam("k must be > 0")
	}
	if k > maxTopK {
		k = maxTopK
	}

	sp, err := entity.NewIndexBinIvfFlatSearchParam(cfg.NProbe)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchError, "failed to build search params")
	}
	mc := l.client.GetMilvusClient()
	if mc == nil {
		return nil, ErrConnectionFailed
	}

	start := time.Now()
	results, err := mc.Search(ctx, cfg.Collection, nil, "", []string{FieldName, FieldSMILES},
		[]entity.Vector{entity.BinaryVector(vector)}, FieldFingerprint, entity.JACCARD, k, sp,
		client.WithSearchQueryConsistencyLevel(entity.ClBounded))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchError, "reference search failed")
	}
	if len(results) == 0 {
		return nil, nil
	}

	matches, err := toMatches(results[0])
	if err != nil {
		return nil, err
	}
	l.logger.Debug("Reference search executed",
		logging.Int("hits", len(matches)),
		logging.Duration("took", time.Since(start)))
	return matches, nil
}

func toMatches(res client.SearchResult) ([]simmap.ReferenceMatch, error) {
	if res.Err != nil {
		return nil, errors.Wrap(res.Err, errors.ErrCodeSearchError, "reference search failed")
	}
	ids, ok := res.IDs.(*entity.ColumnInt64)
	if !ok {
		return nil, errors.New(errors.ErrCodeSearchError, "unexpected id column type")
	}
	var names, smiles []string
	for _, col := range res.Fields {
		vc, ok := col.(*entity.ColumnVarChar)
		if !ok {
			continue
		}
		switch vc.Name() {
		case FieldName:
			names = vc.Data()
		case FieldSMILES:
			smiles = vc.Data()
		}
	}

	out := make([]simmap.ReferenceMatch, 0, res.ResultCount)
	for i, id := range ids.Data() {
		m := simmap.ReferenceMatch{Reference: simmap.Reference{ID: id}}
		if i < len(names) {
			m.Name = names[i]
		}
		if i < len(smiles) {
			m.SMILES = smiles[i]
		}
		if i < len(res.Scores) {
			m.Distance = float64(res.Scores[i])
		}
		out = append(out, m)
	}
	return out, nil
}

//Personal.AI order the ending
