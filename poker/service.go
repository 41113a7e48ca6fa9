// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package poker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cenkalti/backoff/v5"

	"github.com/danielhkuo/planning-poker/idgen"
	"github.com/danielhkuo/planning-poker/lifecycle"
	"github.com/danielhkuo/planning-poker/models"
	"github.com/danielhkuo/planning-poker/registry"
	"github.com/danielhkuo/planning-poker/store"
	"github.com/danielhkuo/planning-poker/voting"
)

// Input limits.
const (
	MaxTitleLength    = 255
	MaxUsernameLength = 50
	MaxCardLength     = 16
)

// Defaults used when Config leaves a field at zero.
const (
	DefaultCloseStoryRetries = 5
	createAttempts           = 3
)

// Config tunes the service.
type Config struct {
	// CodeAttempts bounds the draws per generated session code.
	CodeAttempts int
	// CloseStoryRetries bounds the attempts of a story closure that keeps
	// losing to concurrent writers.
	CloseStoryRetries int
}

// CreateSessionInput holds the facilitator's choices for a new session.
type CreateSessionInput struct {
	Title      string
	Stories    []models.Story
	VotingMode string
}

// JoinOutcome is what a player sees after joining.
type JoinOutcome struct {
	VotingMode    string
	Status        models.Status
	Created       bool
	Participation *models.Participation
}

// Service implements the player and facilitator operations.
type Service struct {
	store    *store.Store
	registry *registry.Registry
	codes    *idgen.Generator

	closeRetries uint
	newBackOff   func() backoff.BackOff
	now          func() time.Time
}

func NewService(s *store.Store, cfg Config) *Service {
	retries := cfg.CloseStoryRetries
	if retries <= 0 {
		retries = DefaultCloseStoryRetries
	}
	return &Service{
		store:        s,
		registry:     registry.New(s),
		codes:        idgen.New(s, idgen.WithMaxAttempts(cfg.CodeAttempts)),
		closeRetries: uint(retries),
		newBackOff:   closeStoryBackOff,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func closeStoryBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	return b
}

// Sessions

// CreateSession validates the input and stores a new open session under a
// fresh code.
func (s *Service) CreateSession(ctx context.Context, in CreateSessionInput) (models.Session, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return models.Session{}, fmt.Errorf("%w: title is required", models.ErrValidation)
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return models.Session{}, fmt.Errorf("%w: title must be at most %d characters", models.ErrValidation, MaxTitleLength)
	}

	// Story contents belong to the client; only the name is tidied.
	stories := make([]models.Story, len(in.Stories))
	for i, story := range in.Stories {
		story.Name = strings.TrimSpace(story.Name)
		stories[i] = story
	}

	mode, ok := voting.LookupMode(in.VotingMode)
	if !ok {
		return models.Session{}, fmt.Errorf("%w: unknown voting mode %q", models.ErrValidation, in.VotingMode)
	}

	sess := models.Session{
		Title:      title,
		Stories:    stories,
		VotingMode: mode.String(),
		Status:     models.StatusOpen,
		CreatedAt:  s.now(),
	}

	// Another request can take the code between the lookup and the insert.
	for attempt := 0; attempt < createAttempts; attempt++ {
		code, err := s.codes.Generate(ctx)
		if err != nil {
			return models.Session{}, err
		}
		sess.Code = code

		err = s.store.CreateSession(ctx, &sess)
		if errors.Is(err, models.ErrConflict) {
			slog.Warn("session code taken during insert, retrying", "code", code, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return models.Session{}, err
		}

		slog.Info("session created", "code", code, "voting_mode", sess.VotingMode, "stories", len(stories))
		return sess, nil
	}
	return models.Session{}, fmt.Errorf("%w: session code collided on insert %d times", models.ErrCapacityExhausted, createAttempts)
}

func (s *Service) GetSession(ctx context.Context, code string) (models.Session, error) {
	return s.store.GetSession(ctx, code)
}

func (s *Service) ListSessions(ctx context.Context) ([]models.Session, error) {
	return s.store.ListSessions(ctx)
}

// DeleteSession removes a session and every participation in it.
func (s *Service) DeleteSession(ctx context.Context, code string) error {
	if err := s.store.DeleteSession(ctx, code); err != nil {
		return err
	}
	slog.Info("session deleted", "code", code)
	return nil
}

// CloseSession moves the session to closed. confirm must be "closed".
func (s *Service) CloseSession(ctx context.Context, code, confirm string) (models.Status, error) {
	var status models.Status
	err := s.store.WithTx(ctx, func(tx *store.Tx) error {
		sess, err := tx.LockSession(ctx, code)
		if err != nil {
			return err
		}

		status, err = lifecycle.Close(sess.Status, confirm)
		if err != nil {
			return err
		}
		if status == sess.Status {
			return nil
		}
		return tx.UpdateSessionStatus(ctx, code, status)
	})
	if err != nil {
		return "", err
	}

	slog.Info("session closed", "code", code)
	return status, nil
}

// Players

// JoinSession adds a player, or returns their existing participation. A closed
// session reports its status and adds nobody.
func (s *Service) JoinSession(ctx context.Context, code, username string) (JoinOutcome, error) {
	username, err := checkUsername(username)
	if err != nil {
		return JoinOutcome{}, err
	}

	res, err := s.registry.Join(ctx, code, username)
	if err != nil {
		return JoinOutcome{}, err
	}
	return JoinOutcome{
		VotingMode:    res.Session.VotingMode,
		Status:        res.Session.Status,
		Created:       res.Created,
		Participation: res.Participation,
	}, nil
}

// VoteCard records a player's card for the current round.
func (s *Service) VoteCard(ctx context.Context, code, username, card string) error {
	username, err := checkUsername(username)
	if err != nil {
		return err
	}
	card = strings.TrimSpace(card)
	if card == "" {
		return fmt.Errorf("%w: card is required", models.ErrValidation)
	}
	if utf8.RuneCountInString(card) > MaxCardLength {
		return fmt.Errorf("%w: card must be at most %d characters", models.ErrValidation, MaxCardLength)
	}

	if _, err := s.store.GetSession(ctx, code); err != nil {
		return err
	}
	_, err = s.registry.SubmitVote(ctx, code, username, card)
	return err
}

// LeaveSession removes a player from a session.
func (s *Service) LeaveSession(ctx context.Context, code, username string) error {
	username, err := checkUsername(username)
	if err != nil {
		return err
	}
	if _, err := s.store.GetSession(ctx, code); err != nil {
		return err
	}
	return s.registry.Leave(ctx, code, username)
}

// ResetVotes clears every vote of the session for a new round.
func (s *Service) ResetVotes(ctx context.Context, code string) error {
	if _, err := s.store.GetSession(ctx, code); err != nil {
		return err
	}
	_, err := s.registry.ResetRound(ctx, code)
	return err
}

// ListParticipants returns the session's players in join order.
func (s *Service) ListParticipants(ctx context.Context, code string) ([]models.Participation, error) {
	if _, err := s.store.GetSession(ctx, code); err != nil {
		return nil, err
	}
	return s.registry.List(ctx, code)
}

// VoteSummary counts the cards of the current round.
func (s *Service) VoteSummary(ctx context.Context, code string) (models.VoteSummary, error) {
	sess, err := s.store.GetSession(ctx, code)
	if err != nil {
		return models.VoteSummary{}, err
	}
	votes, err := s.registry.Votes(ctx, code)
	if err != nil {
		return models.VoteSummary{}, err
	}

	summary := models.VoteSummary{
		SessionCode: code,
		VotingMode:  sess.VotingMode,
		Total:       len(votes),
		Cards:       voting.Tally(votes),
	}
	for _, c := range summary.Cards {
		summary.Voted += c.Count
	}
	return summary, nil
}

// Stories

// CloseStory resolves one story and returns its final value. A non-empty
// override is stored as is; otherwise the current votes are aggregated with
// the session's voting mode. Votes are left in place.
//
// The stories are written only if the session is unchanged since it was read,
// so closures of different stories never overwrite each other. A lost race is
// retried with exponential backoff.
func (s *Service) CloseStory(ctx context.Context, code string, storyIndex *int, override string) (string, error) {
	if storyIndex == nil {
		return "", fmt.Errorf("%w: story_index is required", models.ErrValidation)
	}
	index := *storyIndex
	override = strings.TrimSpace(override)

	attempt := func() (string, error) {
		sess, err := s.store.GetSession(ctx, code)
		if err != nil {
			return "", backoff.Permanent(err)
		}
		if err := lifecycle.CheckStoryIndex(sess.Stories, index); err != nil {
			return "", backoff.Permanent(err)
		}

		value := override
		if value == "" {
			votes, err := s.registry.Votes(ctx, code)
			if err != nil {
				return "", backoff.Permanent(err)
			}
			if err := lifecycle.CheckVotesPresent(len(votes)); err != nil {
				return "", backoff.Permanent(err)
			}
			value = voting.Aggregate(voting.ParseMode(sess.VotingMode), votes)
		}

		stories, err := lifecycle.ResolveStory(sess.Stories, index, value)
		if err != nil {
			return "", backoff.Permanent(err)
		}

		err = s.store.UpdateStories(ctx, code, stories, sess.Version)
		if errors.Is(err, models.ErrConflict) {
			return "", err
		}
		if err != nil {
			return "", backoff.Permanent(err)
		}
		return value, nil
	}

	value, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(s.newBackOff()),
		backoff.WithMaxTries(s.closeRetries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			slog.Debug("story closure lost a race, retrying", "code", code, "story_index", index, "wait", wait)
		}),
	)
	if err != nil {
		return "", err
	}

	slog.Info("story closed", "code", code, "story_index", index, "final_value", value, "override", override != "")
	return value, nil
}

func checkUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return "", fmt.Errorf("%w: username is required", models.ErrValidation)
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return "", fmt.Errorf("%w: username must be at most %d characters", models.ErrValidation, MaxUsernameLength)
	}
	return username, nil
}
