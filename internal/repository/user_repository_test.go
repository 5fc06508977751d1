package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "username", "password_hash", "version", "created_at"}

func TestUserRepoCreate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO users \(username, password_hash\) VALUES \(\?,\?\)`).
		WithArgs("testuser", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(3, 1))

	id, err := NewUserRepo(db).Create(context.Background(), " testuser ", "pa55word", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoCreateDuplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`INSERT INTO users`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := NewUserRepo(db).Create(context.Background(), "testuser", "pa55word", 4)
	assert.ErrorIs(t, err, ErrUsernameExists)
}

func TestIsDuplicate(t *testing.T) {
	assert.True(t, isDuplicate(&mysql.MySQLError{Number: 1062}))
	assert.True(t, isDuplicate(fmt.Errorf("insert user: %w", &mysql.MySQLError{Number: 1062})))
	assert.False(t, isDuplicate(&mysql.MySQLError{Number: 1452}))
	assert.False(t, isDuplicate(errors.New("row 1062 not found")))
	assert.False(t, isDuplicate(nil))
}

func TestUserRepoGetByUsername(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now().UTC()
	mock.ExpectQuery(`FROM users WHERE username=\?`).WithArgs("testuser").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "testuser", "hash", 2, now))

	u, err := NewUserRepo(db).GetByUsername(context.Background(), "testuser")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), u.ID)
	assert.Equal(t, uint64(2), u.Version)

	mock.ExpectQuery(`FROM users WHERE id=\?`).WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows(userCols))
	_, err = NewUserRepo(db).GetByID(context.Background(), 4)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoBumpVersionTx(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE users SET version=version\+1 WHERE id=\? AND version=\?`).
		WithArgs(uint64(3), uint64(2)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	err = NewUserRepo(db).BumpVersionTx(context.Background(), tx, 3, 2)
	assert.True(t, errors.Is(err, ErrConflict))
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepoValidate(t *testing.T) {
	cols := []string{"id", "user_id", "token_hash", "expires_at", "revoked_at", "created_at"}
	q := `SELECT id, user_id, token_hash, expires_at, revoked_at, created_at FROM sessions WHERE token_hash=\?`
	created := time.Now().UTC().Add(-time.Hour)
	future := time.Now().UTC().Add(time.Hour)

	t.Run("active", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q).WithArgs("h").WillReturnRows(sqlmock.NewRows(cols).AddRow(1, 3, "h", future, nil, created))
		uid, err := NewSessionRepo(db).Validate(context.Background(), "h")
		require.NoError(t, err)
		assert.Equal(t, uint64(3), uid)
	})

	t.Run("revoked", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q).WithArgs("h").WillReturnRows(sqlmock.NewRows(cols).AddRow(1, 3, "h", future, time.Now(), created))
		_, err := NewSessionRepo(db).Validate(context.Background(), "h")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("expired", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q).WithArgs("h").
			WillReturnRows(sqlmock.NewRows(cols).AddRow(1, 3, "h", time.Now().UTC().Add(-time.Minute), nil, created))
		_, err := NewSessionRepo(db).Validate(context.Background(), "h")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("unknown", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectQuery(q).WithArgs("h").WillReturnRows(sqlmock.NewRows(cols))
		_, err := NewSessionRepo(db).Validate(context.Background(), "h")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})
}

func TestSessionRepoRevoke(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(`UPDATE sessions SET revoked_at=UTC_TIMESTAMP\(\) WHERE token_hash=\? AND revoked_at IS NULL`).
		WithArgs("h").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, NewSessionRepo(db).Revoke(context.Background(), "h"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
