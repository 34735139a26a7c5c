package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/girishpw/discount-app/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func personColumns() []string {
	return []string{"id", "email", "full_name", "password_hash", "branch_scope", "approver_level", "can_request_discount", "active", "created_at", "updated_at"}
}

func TestPersonRepositoryFindActiveByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)

	rows := sqlmock.NewRows(personColumns()).
		AddRow("p1", "staff@pw.live", "Staff One", "hash", "Delhi", "NONE", true, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM authorized_persons WHERE email = $1 AND active = TRUE")).
		WithArgs("staff@pw.live").
		WillReturnRows(rows)

	person, err := repo.FindActiveByEmail(context.Background(), "staff@pw.live")
	require.NoError(t, err)
	assert.Equal(t, "Staff One", person.FullName)
	assert.True(t, person.CanRequest)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonRepositoryFindActiveByEmailNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM authorized_persons WHERE email = $1 AND active = TRUE")).
		WithArgs("missing@pw.live").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindActiveByEmail(context.Background(), "missing@pw.live")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestPersonRepositoryListApproversScoped(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)

	rows := sqlmock.NewRows(personColumns()).
		AddRow("p1", "l1-delhi@pw.live", "Delhi L1", "hash", "Delhi, Noida", "L1", false, true, time.Now(), time.Now()).
		AddRow("p2", "l1-mumbai@pw.live", "Mumbai L1", "hash", "Mumbai", "L1", false, true, time.Now(), time.Now()).
		AddRow("p3", "l1-all@pw.live", "HQ L1", "hash", "All", "L1", false, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE approver_level = $1 AND active = TRUE")).
		WithArgs(models.LevelL1).
		WillReturnRows(rows)

	approvers, err := repo.ListApprovers(context.Background(), models.LevelL1, "Delhi")
	require.NoError(t, err)
	require.Len(t, approvers, 2)
	assert.Equal(t, "l1-delhi@pw.live", approvers[0].Email)
	assert.Equal(t, "l1-all@pw.live", approvers[1].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPersonRepositoryListApproversUnscoped(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewPersonRepository(db)

	rows := sqlmock.NewRows(personColumns()).
		AddRow("p1", "l2@pw.live", "L2 One", "hash", "All", "L2", false, true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE approver_level = $1 AND active = TRUE")).
		WithArgs(models.LevelL2).
		WillReturnRows(rows)

	approvers, err := repo.ListApprovers(context.Background(), models.LevelL2, "")
	require.NoError(t, err)
	assert.Len(t, approvers, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}
