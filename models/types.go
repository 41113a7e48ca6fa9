package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Status is the lifecycle state of a session.
type Status string

// Session status constants
const (
	StatusOpen       Status = "open"
	StatusInProgress Status = "in_progress"
	StatusClosed     Status = "closed"
)

// NoConsensus is stored as a story's final value when the votes disagree.
const NoConsensus = "-1"

// Request types

type CreateSessionRequest struct {
	Title      string  `json:"title"`
	Stories    []Story `json:"stories"`
	VotingMode string  `json:"voting_mode"`
}

type JoinSessionRequest struct {
	Username string `json:"username"`
}

type VoteCardRequest struct {
	Username string `json:"username"`
	Card     string `json:"card"`
}

type LeaveSessionRequest struct {
	Username string `json:"username"`
}

// StoryIndex is a pointer so a missing index can be told apart from 0.
type CloseStoryRequest struct {
	StoryIndex *int   `json:"story_index"`
	FinalValue string `json:"final_value,omitempty"`
}

type CloseSessionRequest struct {
	Status string `json:"status"`
}

// Response types

type JoinSessionResponse struct {
	VotingMode    string         `json:"voting_mode"`
	Status        Status         `json:"status"`
	Created       bool           `json:"created"`
	Participation *Participation `json:"participation,omitempty"`
}

type CloseStoryResponse struct {
	StoryIndex int    `json:"story_index"`
	FinalValue string `json:"final_value"`
}

type CloseSessionResponse struct {
	Status Status `json:"status"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// Domain types

type Session struct {
	Code       string    `json:"code"`
	Title      string    `json:"title"`
	Stories    []Story   `json:"stories"`
	VotingMode string    `json:"voting_mode"`
	Status     Status    `json:"status"`
	Version    int64     `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}

type Participation struct {
	ID            string    `json:"id"`
	SessionCode   string    `json:"session_code"`
	Username      string    `json:"username"`
	CardSelection *string   `json:"card_selection"`
	HasVoted      bool      `json:"has_voted"`
	JoinedAt      time.Time `json:"joined_at"`
}

// Story is one backlog item. Fields other than name and final_value are kept
// in Extra and written back unchanged. Name is optional; clients may label
// stories with any field of their own, such as "titre".
type Story struct {
	Name       string
	FinalValue *string
	Extra      map[string]json.RawMessage
}

func (s Story) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(s.Extra)+2)
	for k, v := range s.Extra {
		out[k] = v
	}

	var err error
	if s.Name != "" {
		if out["name"], err = json.Marshal(s.Name); err != nil {
			return nil, err
		}
	}

	final := []byte("null")
	if s.FinalValue != nil {
		if final, err = json.Marshal(*s.FinalValue); err != nil {
			return nil, err
		}
	}
	out["final_value"] = final

	return json.Marshal(out)
}

func (s *Story) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("story must be a JSON object: %w", err)
	}

	*s = Story{}
	if v, ok := raw["name"]; ok {
		if err := json.Unmarshal(v, &s.Name); err != nil {
			return fmt.Errorf("story name: %w", err)
		}
		delete(raw, "name")
	}
	if v, ok := raw["final_value"]; ok {
		if !bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			var final string
			if err := json.Unmarshal(v, &final); err != nil {
				return fmt.Errorf("story final_value: %w", err)
			}
			s.FinalValue = &final
		}
		delete(raw, "final_value")
	}
	if len(raw) > 0 {
		s.Extra = raw
	}
	return nil
}

// Resolved reports whether the story has been closed at least once.
func (s Story) Resolved() bool {
	return s.FinalValue != nil
}

// VoteSummary is the facilitator's view of the current round.
type VoteSummary struct {
	SessionCode string      `json:"session_code"`
	VotingMode  string      `json:"voting_mode"`
	Total       int         `json:"total"`
	Voted       int         `json:"voted"`
	Cards       []CardCount `json:"cards"`
}

type CardCount struct {
	Card  string `json:"card"`
	Count int    `json:"count"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
