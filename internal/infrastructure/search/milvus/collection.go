package milvus

import (
	"context"
	"strconv"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
)

// Field names of the reference collection.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldSMILES      = "smiles"
	FieldFingerprint = "fingerprint"
)

// ReferenceSchema describes the reference collection: an int64 key, the
// molecule name and SMILES, and a dim-bit binary fingerprint.
func ReferenceSchema(name string, dim int) *entity.Schema {
	return &entity.Schema{
		CollectionName: name,
		Description:    "Reference molecules for similarity maps",
		Fields: []*entity.Field{
			{Name: FieldID, DataType: entity.FieldTypeInt64, PrimaryKey: true, AutoID: false},
			{Name: FieldName, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "256"}},
			{Name: FieldSMILES, DataType: entity.FieldTypeVarChar, TypeParams: map[string]string{"max_length": "2048"}},
			{Name: FieldFingerprint, DataType: entity.FieldTypeBinaryVector, TypeParams: map[string]string{"dim": strconv.Itoa(dim)}},
		},
	}
}

// EnsureCollection creates the reference collection and its BIN_IVF_FLAT
// index when missing, then loads it.
func (c *Client) EnsureCollection(ctx context.Context) error {
	mc := c.GetMilvusClient()
	if mc == nil {
		return ErrConnectionFailed
	}
	name := c.config.Collection

	has, err := mc.HasCollection(ctx, name)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "failed to check collection existence")
	}
	if !has {
		if err := mc.CreateCollection(ctx, ReferenceSchema(name, c.config.Dim), 2); err != nil {
			return errors.Wrap(err, errors.ErrCodeSearchError, "failed to create collection").WithDetail(name)
		}
		idx, err := entity.NewIndexBinIvfFlat(entity.JACCARD, c.config.NList)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSearchError, "failed to build index definition")
		}
		if err := mc.CreateIndex(ctx, name, FieldFingerprint, idx, false); err != nil {
			return errors.Wrap(err, errors.ErrCodeSearchError, "failed to create index").WithDetail(name)
		}
		c.logger.Info("Collection created", logging.String("name", name), logging.Int("dim", c.config.Dim))
	}

	if err := mc.LoadCollection(ctx, name, false); err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchError, "failed to load collection").WithDetail(name)
	}
	return nil
}

//Personal.AI order the ending
