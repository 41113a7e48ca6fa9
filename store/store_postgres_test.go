package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielhkuo/planning-poker/db"
	"github.com/danielhkuo/planning-poker/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return New(conn, db.Postgres), mock
}

func TestPostgresCreateSessionUniqueViolation(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO poker_session \(code,title,stories,voting_mode,status,version,created_at\) VALUES \(\$1,\$2,\$3,\$4,\$5,\$6,\$7\)`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := s.CreateSession(context.Background(), newSession("123456"))
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCreateSessionOtherError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO poker_session`).
		WillReturnError(&pq.Error{Code: "23503", Message: "foreign key violation"})

	err := s.CreateSession(context.Background(), newSession("123456"))
	require.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLockSessionForUpdate(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(sessionColumns).
		AddRow("123456", "Sprint 12", `[{"name":"Login","final_value":"5"}]`, "strict", "in_progress", int64(3), created)
	mock.ExpectQuery(`SELECT .+ FROM poker_session WHERE code = \$1 FOR UPDATE`).
		WithArgs("123456").
		WillReturnRows(rows)

	sess, err := s.LockSession(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, sess.Status)
	assert.Equal(t, int64(3), sess.Version)
	require.Len(t, sess.Stories, 1)
	require.NotNil(t, sess.Stories[0].FinalValue)
	assert.Equal(t, "5", *sess.Stories[0].FinalValue)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetSessionHasNoLock(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT .+ FROM poker_session WHERE code = \$1$`).
		WithArgs("000001").
		WillReturnRows(sqlmock.NewRows(sessionColumns))

	_, err := s.GetSession(context.Background(), "000001")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresUpdateStoriesConflict(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE poker_session SET stories = \$1, version = version \+ 1 WHERE \(?code = \$2 AND version = \$3\)?`).
		WithArgs(sqlmock.AnyArg(), "123456", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateStories(context.Background(), "123456", []models.Story{{Name: "Login"}}, 4)
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresJoinUsesOnConflict(t *testing.T) {
	s, mock := newMockStore(t)
	joined := time.Date(2025, 3, 1, 9, 5, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO participation .+ ON CONFLICT \(session_code, username\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT .+ FROM participation WHERE \(?session_code = \$1 AND username = \$2\)?`).
		WithArgs("123456", "alice").
		WillReturnRows(sqlmock.NewRows(participationColumns).
			AddRow("existing-id", "123456", "alice", "8", true, joined))

	p, created, err := s.GetOrCreateParticipation(context.Background(), newParticipation("123456", "alice"))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "existing-id", p.ID)
	require.NotNil(t, p.CardSelection)
	assert.Equal(t, "8", *p.CardSelection)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteSessionRollsBackWhenMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM participation WHERE session_code = \$1`).
		WithArgs("123456").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM poker_session WHERE code = \$1`).
		WithArgs("123456").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.DeleteSession(context.Background(), "123456")
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresDeleteSessionCommits(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM participation WHERE session_code = \$1`).
		WithArgs("123456").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM poker_session WHERE code = \$1`).
		WithArgs("123456").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, s.DeleteSession(context.Background(), "123456"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresResetVotes(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE participation SET card_selection = \$1, has_voted = \$2 WHERE session_code = \$3`).
		WithArgs(nil, false, "123456").
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := s.ResetVotes(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(&pq.Error{Code: "40001"}))
}
