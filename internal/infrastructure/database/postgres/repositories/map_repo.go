package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/database/postgres"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
	"github.com/sj-huang/rdkit-m/pkg/types/common"
)

// queryExecutor abstracts sql.DB and sql.Tx
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanner abstracts sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

const mapColumns = `id, kind, label, reference, probe, fingerprint, metric, weights, max_weight, image_key, image_format, created_at`

type postgresMapRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewPostgresMapRepo returns a simmap.Repository backed by the similarity_maps table.
func NewPostgresMapRepo(conn *postgres.Connection, log logging.Logger) simmap.Repository {
	return &postgresMapRepo{conn: conn, log: log}
}

func (r *postgresMapRepo) executor() queryExecutor {
	return r.conn.DB()
}

// Save inserts rec, or replaces the stored record with the same id.
func (r *postgresMapRepo) Save(ctx context.Context, rec *simmap.MapRecord) error {
	spec, err := json.Marshal(rec.Spec)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode fingerprint spec")
	}
	weights, err := json.Marshal(rec.Weights)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode weights")
	}

	query := `
		INSERT INTO similarity_maps (
			id, kind, label, reference, probe, fingerprint, metric, weights, max_weight, image_key, image_format, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12
		)
		ON CONFLICT (id) DO UPDATE SET
			label = EXCLUDED.label,
			weights = EXCLUDED.weights,
			max_weight = EXCLUDED.max_weight,
			image_key = EXCLUDED.image_key,
			image_format = EXCLUDED.image_format
	`
	_, err = r.executor().ExecContext(ctx, query,
		string(rec.ID), rec.Kind, rec.Label, rec.Reference, rec.Probe, spec, rec.Metric,
		weights, rec.MaxWeight, rec.ImageKey, rec.ImageFormat, rec.CreatedAt,
	)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save similarity map")
	}
	r.log.Debug("Saved similarity map", logging.String("id", string(rec.ID)), logging.String("kind", rec.Kind))
	return nil
}

func (r *postgresMapRepo) Get(ctx context.Context, id common.ID) (*simmap.MapRecord, error) {
	query := `SELECT ` + mapColumns + ` FROM similarity_maps WHERE id = $1`
	rec, err := scanMapRecord(r.executor().QueryRowContext(ctx, query, string(id)))
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.New(errors.ErrCodeMapNotFound, "similarity map not found").WithDetail(string(id))
		}
		return nil, err
	}
	return rec, nil
}

// List returns one page of records, newest first, and the total match count.
func (r *postgresMapRepo) List(ctx context.Context, q simmap.ListQuery) ([]*simmap.MapRecord, int64, error) {
	page := q.Pagination.Normalize()
	if err := page.Validate(); err != nil {
		return nil, 0, err
	}

	baseQuery := `FROM similarity_maps WHERE 1=1`
	var args []interface{}
	if q.Kind != "" {
		args = append(args, q.Kind)
		baseQuery += fmt.Sprintf(` AND kind = $%d`, len(args))
	}
	if q.Probe != "" {
		args = append(args, q.Probe)
		baseQuery += fmt.Sprintf(` AND probe = $%d`, len(args))
	}

	var total int64
	if err := r.executor().QueryRowContext(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count similarity maps")
	}

	dataQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		mapColumns, baseQuery, len(args)+1, len(args)+2)
	args = append(args, page.PageSize, page.Offset())

	rows, err := r.executor().QueryContext(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list similarity maps")
	}
	defer rows.Close()

	var records []*simmap.MapRecord
	for rows.Next() {
		rec, err := scanMapRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to iterate similarity maps")
	}
	return records, total, nil
}

func (r *postgresMapRepo) Delete(ctx context.Context, id common.ID) error {
	res, err := r.executor().ExecContext(ctx, `DELETE FROM similarity_maps WHERE id = $1`, string(id))
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete similarity map")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errors.New(errors.ErrCodeMapNotFound, "similarity map not found").WithDetail(string(id))
	}
	return nil
}

func scanMapRecord(row scanner) (*simmap.MapRecord, error) {
	var (
		rec     simmap.MapRecord
		id      string
		spec    []byte
		weights []byte
	)
	err := row.Scan(&id, &rec.Kind, &rec.Label, &rec.Reference, &rec.Probe, &spec, &rec.Metric,
		&weights, &rec.MaxWeight, &rec.ImageKey, &rec.ImageFormat, &rec.CreatedAt)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan similarity map")
	}
	rec.ID = common.ID(id)
	if err := json.Unmarshal(spec, &rec.Spec); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode fingerprint spec")
	}
	if err := json.Unmarshal(weights, &rec.Weights); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode weights")
	}
	return &rec, nil
}

//Personal.AI order the ending
