package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/database/postgres"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	"github.com/sj-huang/rdkit-m/pkg/errors"
	"github.com/sj-huang/rdkit-m/pkg/types/common"
)

type postgresJobRepo struct {
	conn *postgres.Connection
	log  logging.Logger
}

// NewPostgresJobRepo returns a simmap.JobRepository backed by the map_jobs table.
func NewPostgresJobRepo(conn *postgres.Connection, log logging.Logger) simmap.JobRepository {
	return &postgresJobRepo{conn: conn, log: log}
}

func (r *postgresJobRepo) SaveJob(ctx context.Context, rec *simmap.JobRecord) error {
	query := `
		INSERT INTO map_jobs (id, status, map_id, attempts, error, submitted_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			map_id = EXCLUDED.map_id,
			attempts = EXCLUDED.attempts,
			error = EXCLUDED.error,
			updated_at = NOW()
		RETURNING updated_at
	`
	var mapID sql.NullString
	if rec.MapID != "" {
		mapID = sql.NullString{String: string(rec.MapID), Valid: true}
	}
	err := r.conn.DB().QueryRowContext(ctx, query,
		string(rec.ID), rec.Status, mapID, rec.Attempts, rec.Error, rec.SubmittedAt,
	).Scan(&rec.UpdatedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save job")
	}
	return nil
}

func (r *postgresJobRepo) GetJob(ctx context.Context, id common.ID) (*simmap.JobRecord, error) {
	query := `SELECT id, status, map_id, attempts, error, submitted_at, updated_at FROM map_jobs WHERE id = $1`
	var (
		rec   simmap.JobRecord
		jobID string
		mapID sql.NullString
	)
	err := r.conn.DB().QueryRowContext(ctx, query, string(id)).Scan(
		&jobID, &rec.Status, &mapID, &rec.Attempts, &rec.Error, &rec.SubmittedAt, &rec.UpdatedAt,
	)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound("job not found").WithDetail(string(id))
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to get job")
	}
	rec.ID = common.ID(jobID)
	if mapID.Valid {
		rec.MapID = common.ID(mapID.String)
	}
	return &rec, nil
}

//Personal.AI order the ending
