// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package registry

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/planning-poker/lifecycle"
	"github.com/danielhkuo/planning-poker/models"
	"github.com/danielhkuo/planning-poker/store"
)

// JoinResult describes the outcome of a join.
type JoinResult struct {
	// Session reflects any status change made by the join.
	Session models.Session
	// Participation is nil when the session was closed.
	Participation *models.Participation
	// Created is true when this call added the player.
	Created bool
}

// Registry manages participations on top of the store.
type Registry struct {
	store *store.Store
	now   func() time.Time
}

func New(s *store.Store) *Registry {
	return &Registry{
		store: s,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Join adds username to the session, or returns the existing participation.
func (r *Registry) Join(ctx context.Context, code, username string) (JoinResult, error) {
	var res JoinResult

	err := r.store.WithTx(ctx, func(tx *store.Tx) error {
		sess, err := tx.LockSession(ctx, code)
		if err != nil {
			return err
		}
		res.Session = sess

		if !lifecycle.CanJoin(sess.Status) {
			return nil
		}

		p, created, err := tx.GetOrCreateParticipation(ctx, models.Participation{
			ID:          uuid.NewString(),
			SessionCode: code,
			Username:    username,
			JoinedAt:    r.now(),
		})
		if err != nil {
			return err
		}
		res.Participation = &p
		res.Created = created

		next := lifecycle.AfterJoin(sess.Status, created)
		if next != sess.Status {
			if err := tx.UpdateSessionStatus(ctx, code, next); err != nil {
				return err
			}
			res.Session.Status = next
			res.Session.Version++
		}
		return nil
	})
	if err != nil {
		return JoinResult{}, err
	}

	switch {
	case res.Participation == nil:
		slog.Info("join rejected, session closed", "code", code, "username", username)
	case res.Created:
		slog.Info("player joined", "code", code, "username", username, "status", res.Session.Status)
	default:
		slog.Debug("player rejoined", "code", code, "username", username)
	}
	return res, nil
}

// SubmitVote records card as the player's vote and returns the updated row.
func (r *Registry) SubmitVote(ctx context.Context, code, username, card string) (models.Participation, error) {
	var p models.Participation
	err := r.store.WithTx(ctx, func(tx *store.Tx) error {
		if err := tx.SetVote(ctx, code, username, card); err != nil {
			return err
		}
		var err error
		p, err = tx.GetParticipation(ctx, code, username)
		return err
	})
	if err != nil {
		return models.Participation{}, err
	}

	slog.Debug("vote recorded", "code", code, "username", username)
	return p, nil
}

// ResetRound clears every vote in the session. A session without players is
// not an error.
func (r *Registry) ResetRound(ctx context.Context, code string) (int64, error) {
	n, err := r.store.ResetVotes(ctx, code)
	if err != nil {
		return 0, err
	}
	slog.Info("votes reset", "code", code, "participants", n)
	return n, nil
}

// Leave removes username from the session.
func (r *Registry) Leave(ctx context.Context, code, username string) error {
	if err := r.store.DeleteParticipation(ctx, code, username); err != nil {
		return err
	}
	slog.Info("player left", "code", code, "username", username)
	return nil
}

// List returns the session's players in join order.
func (r *Registry) List(ctx context.Context, code string) ([]models.Participation, error) {
	participations, err := r.store.ListParticipations(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants of %s: %w", code, err)
	}
	return participations, nil
}

// Votes returns the card selections of a session in join order. Players who
// have not voted contribute nil.
func (r *Registry) Votes(ctx context.Context, code string) ([]*string, error) {
	participations, err := r.List(ctx, code)
	if err != nil {
		return nil, err
	}
	votes := make([]*string, len(participations))
	for i, p := range participations {
		votes[i] = p.CardSelection
	}
	return votes, nil
}
