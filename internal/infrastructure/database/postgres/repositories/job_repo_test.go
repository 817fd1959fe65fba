package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sj-huang/rdkit-m/internal/domain/simmap"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/database/postgres"
	"github.com/sj-huang/rdkit-m/internal/infrastructure/monitoring/logging"
	pkgerrors "github.com/sj-huang/rdkit-m/pkg/errors"
	"github.com/sj-huang/rdkit-m/pkg/types/common"
)

func newJobRepo(t *testing.T) (simmap.JobRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	log := logging.NewNopLogger()
	return NewPostgresJobRepo(postgres.NewConnectionWithDB(db, log), log), mock
}

func TestJobRepo_SaveQueuedJob(t *testing.T) {
	repo, mock := newJobRepo(t)
	submitted := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	updated := submitted.Add(time.Second)

	mock.ExpectQuery("INSERT INTO map_jobs").
		WithArgs("job-1", simmap.JobQueued, nil, 0, "", submitted).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(updated))

	rec := &simmap.JobRecord{ID: "job-1", Status: simmap.JobQueued, SubmittedAt: submitted}
	require.NoError(t, repo.SaveJob(context.Background(), rec))
	assert.Equal(t, updated, rec.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepo_SaveFinishedJob(t *testing.T) {
	repo, mock := newJobRepo(t)
	mock.ExpectQuery("INSERT INTO map_jobs").
		WithArgs("job-2", simmap.JobSucceeded, "map-9", 2, "", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))

	rec := &simmap.JobRecord{ID: "job-2", Status: simmap.JobSucceeded, MapID: "map-9", Attempts: 2, SubmittedAt: time.Now()}
	require.NoError(t, repo.SaveJob(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestJobRepo_GetJob(t *testing.T) {
	repo, mock := newJobRepo(t)
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .* FROM map_jobs WHERE id =").
		WithArgs("job-3").
		WillReturnRows(sqlmock.NewRows([]string{"id", "status", "map_id", "attempts", "error", "submitted_at", "updated_at"}).
			AddRow("job-3", simmap.JobFailed, nil, 3, "boom", now, now))

	rec, err := repo.GetJob(context.Background(), common.ID("job-3"))
	require.NoError(t, err)
	assert.Equal(t, simmap.JobFailed, rec.Status)
	assert.Empty(t, rec.MapID)
	assert.Equal(t, 3, rec.Attempts)
	assert.Equal(t, "boom", rec.Error)
}

func TestJobRepo_GetJobNotFound(t *testing.T) {
	repo, mock := newJobRepo(t)
	mock.ExpectQuery("SELECT .* FROM map_jobs").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetJob(context.Background(), common.ID("nope"))
	assert.True(t, pkgerrors.IsNotFound(err))
}

//Personal.AI order the ending
