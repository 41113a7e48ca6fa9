// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/danielhkuo/planning-poker/db"
	"github.com/danielhkuo/planning-poker/lifecycle"
	"github.com/danielhkuo/planning-poker/models"
)

const (
	sessionTable       = "poker_session"
	participationTable = "participation"
)

var sessionColumns = []string{
	"code", "title", "stories", "voting_mode", "status", "version", "created_at",
}

var participationColumns = []string{
	"id", "session_code", "username", "card_selection", "has_voted", "joined_at",
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type queries struct {
	db      dbtx
	sb      sq.StatementBuilderType
	dialect db.Dialect
}

// Store persists sessions and participations.
type Store struct {
	queries
	conn *sql.DB
}

// Tx runs the same queries as Store inside one transaction.
type Tx struct {
	queries
}

// New creates a store for the given dialect. SQLite uses ? placeholders and
// PostgreSQL uses $n.
func New(conn *sql.DB, dialect db.Dialect) *Store {
	sb := sq.StatementBuilder.PlaceholderFormat(sq.Question)
	if dialect == db.Postgres {
		sb = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	}
	return &Store{
		queries: queries{db: conn, sb: sb, dialect: dialect},
		conn:    conn,
	}
}

// WithTx runs fn in a transaction. The transaction commits when fn returns
// nil and rolls back otherwise.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{queries: queries{db: sqlTx, sb: s.sb, dialect: s.dialect}}); err != nil {
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Sessions

// CodeExists reports whether a session already uses code.
func (q *queries) CodeExists(ctx context.Context, code string) (bool, error) {
	query, args, err := q.sb.Select("COUNT(*)").From(sessionTable).Where(sq.Eq{"code": code}).ToSql()
	if err != nil {
		return false, fmt.Errorf("failed to build code query: %w", err)
	}

	var count int
	if err := q.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check session code: %w", err)
	}
	return count > 0, nil
}

// CreateSession inserts a new session. A taken code yields models.ErrConflict.
func (q *queries) CreateSession(ctx context.Context, sess *models.Session) error {
	stories, err := marshalStories(sess.Stories)
	if err != nil {
		return err
	}

	query, args, err := q.sb.Insert(sessionTable).
		Columns(sessionColumns...).
		Values(sess.Code, sess.Title, stories, sess.VotingMode, string(sess.Status), sess.Version, sess.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build session insert: %w", err)
	}

	if _, err := q.db.ExecContext(ctx, query, args...); err != nil {
		if IsUniqueViolation(err) {
			return fmt.Errorf("%w: session code %s already taken", models.ErrConflict, sess.Code)
		}
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// GetSession loads one session by code.
func (q *queries) GetSession(ctx context.Context, code string) (models.Session, error) {
	return q.getSession(ctx, code, false)
}

// LockSession loads a session and, on PostgreSQL, locks its row until the
// transaction ends. SQLite transactions are already serialized.
func (q *queries) LockSession(ctx context.Context, code string) (models.Session, error) {
	return q.getSession(ctx, code, q.dialect == db.Postgres)
}

func (q *queries) getSession(ctx context.Context, code string, forUpdate bool) (models.Session, error) {
	qb := q.sb.Select(sessionColumns...).From(sessionTable).Where(sq.Eq{"code": code})
	if forUpdate {
		qb = qb.Suffix("FOR UPDATE")
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return models.Session{}, fmt.Errorf("failed to build session query: %w", err)
	}

	sess, err := scanSession(q.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, fmt.Errorf("session %s: %w", code, models.ErrNotFound)
	}
	if err != nil {
		return models.Session{}, err
	}
	return sess, nil
}

// ListSessions returns all sessions, newest first.
func (q *queries) ListSessions(ctx context.Context) ([]models.Session, error) {
	query, args, err := q.sb.Select(sessionColumns...).From(sessionTable).
		OrderBy("created_at DESC", "code").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build session list query: %w", err)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

// UpdateSessionStatus sets the status and bumps the version.
func (q *queries) UpdateSessionStatus(ctx context.Context, code string, status models.Status) error {
	query, args, err := q.sb.Update(sessionTable).
		Set("status", string(status)).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"code": code}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build status update: %w", err)
	}

	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	return expectRow(res, fmt.Errorf("session %s: %w", code, models.ErrNotFound))
}

// UpdateStories writes the stories only if the session is still at version.
// A concurrent writer makes it fail with models.ErrConflict.
func (q *queries) UpdateStories(ctx context.Context, code string, stories []models.Story, version int64) error {
	payload, err := marshalStories(stories)
	if err != nil {
		return err
	}

	query, args, err := q.sb.Update(sessionTable).
		Set("stories", payload).
		Set("version", sq.Expr("version + 1")).
		Where(sq.Eq{"code": code, "version": version}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build stories update: %w", err)
	}

	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update stories: %w", err)
	}
	return expectRow(res, fmt.Errorf("%w: session %s changed since version %d", models.ErrConflict, code, version))
}

// DeleteSession removes a session together with its participations.
func (s *Store) DeleteSession(ctx context.Context, code string) error {
	return s.WithTx(ctx, func(tx *Tx) error {
		// The foreign key cascades too; deleting here keeps backends without
		// enforced foreign keys consistent.
		if _, err := tx.deleteWhere(ctx, participationTable, sq.Eq{"session_code": code}); err != nil {
			return fmt.Errorf("failed to delete participations: %w", err)
		}

		n, err := tx.deleteWhere(ctx, sessionTable, sq.Eq{"code": code})
		if err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("session %s: %w", code, models.ErrNotFound)
		}
		return nil
	})
}

// Participations

// GetOrCreateParticipation inserts p unless the player already joined the
// session, then returns the stored row. created is false when a row existed,
// including when a concurrent insert won the race.
func (q *queries) GetOrCreateParticipation(ctx context.Context, p models.Participation) (models.Participation, bool, error) {
	query, args, err := q.sb.Insert(participationTable).
		Columns(participationColumns...).
		Values(p.ID, p.SessionCode, p.Username, p.CardSelection, p.HasVoted, p.JoinedAt).
		Suffix("ON CONFLICT (session_code, username) DO NOTHING").
		ToSql()
	if err != nil {
		return models.Participation{}, false, fmt.Errorf("failed to build participation insert: %w", err)
	}

	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return models.Participation{}, false, fmt.Errorf("failed to insert participation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return models.Participation{}, false, fmt.Errorf("failed to read rows affected: %w", err)
	}

	stored, err := q.GetParticipation(ctx, p.SessionCode, p.Username)
	if err != nil {
		return models.Participation{}, false, err
	}
	return stored, n == 1, nil
}

// GetParticipation loads one player's row in a session.
func (q *queries) GetParticipation(ctx context.Context, code, username string) (models.Participation, error) {
	query, args, err := q.sb.Select(participationColumns...).From(participationTable).
		Where(sq.Eq{"session_code": code, "username": username}).
		ToSql()
	if err != nil {
		return models.Participation{}, fmt.Errorf("failed to build participation query: %w", err)
	}

	p, err := scanParticipation(q.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Participation{}, fmt.Errorf("participant %q in session %s: %w", username, code, models.ErrNotFound)
	}
	return p, err
}

// SetVote records a player's card and marks them as voted.
func (q *queries) SetVote(ctx context.Context, code, username, card string) error {
	query, args, err := q.sb.Update(participationTable).
		Set("card_selection", card).
		Set("has_voted", true).
		Where(sq.Eq{"session_code": code, "username": username}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build vote update: %w", err)
	}

	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to record vote: %w", err)
	}
	return expectRow(res, fmt.Errorf("participant %q in session %s: %w", username, code, models.ErrNotFound))
}

// ResetVotes clears every vote in a session and returns how many rows changed.
func (q *queries) ResetVotes(ctx context.Context, code string) (int64, error) {
	query, args, err := q.sb.Update(participationTable).
		Set("card_selection", nil).
		Set("has_voted", false).
		Where(sq.Eq{"session_code": code}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build vote reset: %w", err)
	}

	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to reset votes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n, nil
}

// DeleteParticipation removes a player from a session.
func (q *queries) DeleteParticipation(ctx context.Context, code, username string) error {
	n, err := q.deleteWhere(ctx, participationTable, sq.Eq{"session_code": code, "username": username})
	if err != nil {
		return fmt.Errorf("failed to delete participation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("participant %q in session %s: %w", username, code, models.ErrNotFound)
	}
	return nil
}

// ListParticipations returns a session's players in join order.
func (q *queries) ListParticipations(ctx context.Context, code string) ([]models.Participation, error) {
	query, args, err := q.sb.Select(participationColumns...).From(participationTable).
		Where(sq.Eq{"session_code": code}).
		OrderBy("joined_at", "username").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build participation list query: %w", err)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query participations: %w", err)
	}
	defer rows.Close()

	participations := []models.Participation{}
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, err
		}
		participations = append(participations, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participations: %w", err)
	}
	return participations, nil
}

// CountParticipations returns the number of players in a session.
func (q *queries) CountParticipations(ctx context.Context, code string) (int, error) {
	query, args, err := q.sb.Select("COUNT(*)").From(participationTable).
		Where(sq.Eq{"session_code": code}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build participation count: %w", err)
	}

	var count int
	if err := q.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count participations: %w", err)
	}
	return count, nil
}

// Helpers

// IsUniqueViolation reports whether err comes from a unique or primary key
// constraint on either backend.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

func (q *queries) deleteWhere(ctx context.Context, table string, where sq.Eq) (int64, error) {
	query, args, err := q.sb.Delete(table).Where(where).ToSql()
	if err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func expectRow(res sql.Result, errNone error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return errNone
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (models.Session, error) {
	var sess models.Session
	var status, stories string

	err := row.Scan(&sess.Code, &sess.Title, &stories, &sess.VotingMode, &status, &sess.Version, &sess.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, err
		}
		return models.Session{}, fmt.Errorf("failed to scan session: %w", err)
	}

	if sess.Status, err = lifecycle.ParseStatus(status); err != nil {
		return models.Session{}, fmt.Errorf("session %s: %w", sess.Code, err)
	}
	if err := json.Unmarshal([]byte(stories), &sess.Stories); err != nil {
		return models.Session{}, fmt.Errorf("failed to decode stories of session %s: %w", sess.Code, err)
	}
	if sess.Stories == nil {
		sess.Stories = []models.Story{}
	}
	return sess, nil
}

func scanParticipation(row scanner) (models.Participation, error) {
	var p models.Participation
	var card sql.NullString

	err := row.Scan(&p.ID, &p.SessionCode, &p.Username, &card, &p.HasVoted, &p.JoinedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Participation{}, err
		}
		return models.Participation{}, fmt.Errorf("failed to scan participation: %w", err)
	}
	if card.Valid {
		p.CardSelection = &card.String
	}
	return p, nil
}

func marshalStories(stories []models.Story) (string, error) {
	if stories == nil {
		stories = []models.Story{}
	}
	data, err := json.Marshal(stories)
	if err != nil {
		return "", fmt.Errorf("failed to encode stories: %w", err)
	}
	return string(data), nil
}
