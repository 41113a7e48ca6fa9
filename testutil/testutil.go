// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/planning-poker/cliparse"
	"github.com/danielhkuo/planning-poker/db"
	"github.com/danielhkuo/planning-poker/models"
)

var codeSeq atomic.Int64

// SetupTestDB creates a fresh, migrated SQLite database in a temp dir.
// It is closed automatically when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := "file:" + filepath.Join(t.TempDir(), "poker_test.db")
	conn, err := db.Open(db.SQLite, url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.Migrate(conn, db.SQLite); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:              3318,
		DatabaseURL:       "file::memory:",
		DatabaseType:      string(db.SQLite),
		LogLevel:          "error",
		LogFormat:         "text",
		CodeAttempts:      32,
		CloseStoryRetries: 5,
	}
}

// NextCode returns a session code not used by any other test in this process.
func NextCode() string {
	return fmt.Sprintf("%06d", 100000+codeSeq.Add(1))
}

// CreateTestSession inserts a session with the given mode and status and one
// unresolved story per name. It returns the session code.
func CreateTestSession(t *testing.T, conn *sql.DB, mode string, status models.Status, storyNames ...string) string {
	t.Helper()

	stories := make([]models.Story, len(storyNames))
	for i, name := range storyNames {
		stories[i] = models.Story{Name: name}
	}
	payload, err := json.Marshal(stories)
	if err != nil {
		t.Fatalf("Failed to encode stories: %v", err)
	}

	code := NextCode()
	_, err = conn.Exec(`
		INSERT INTO poker_session (code, title, stories, voting_mode, status, version, created_at)
		VALUES (?, 'Test Session', ?, ?, ?, 0, ?)
	`, code, string(payload), mode, string(status), time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test session: %v", err)
	}

	return code
}

// AddTestPlayer adds a participation; a nil card means the player has not voted.
func AddTestPlayer(t *testing.T, conn *sql.DB, code, username string, card *string) string {
	t.Helper()

	id := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO participation (id, session_code, username, card_selection, has_voted, joined_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, code, username, card, card != nil, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test player: %v", err)
	}

	return id
}

// Card returns a pointer to v for use as a vote.
func Card(v string) *string {
	return &v
}

// CountParticipants returns the number of participation rows of a session.
func CountParticipants(t *testing.T, conn *sql.DB, code string) int {
	t.Helper()

	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM participation WHERE session_code = ?`, code).Scan(&n); err != nil {
		t.Fatalf("Failed to count participants: %v", err)
	}
	return n
}

// SessionStatus reads a session's status straight from the table.
func SessionStatus(t *testing.T, conn *sql.DB, code string) models.Status {
	t.Helper()

	var status string
	if err := conn.QueryRow(`SELECT status FROM poker_session WHERE code = ?`, code).Scan(&status); err != nil {
		t.Fatalf("Failed to read session status: %v", err)
	}
	return models.Status(status)
}

// SessionStories reads and decodes a session's stories.
func SessionStories(t *testing.T, conn *sql.DB, code string) []models.Story {
	t.Helper()

	var payload string
	if err := conn.QueryRow(`SELECT stories FROM poker_session WHERE code = ?`, code).Scan(&payload); err != nil {
		t.Fatalf("Failed to read stories: %v", err)
	}
	var stories []models.Story
	if err := json.Unmarshal([]byte(payload), &stories); err != nil {
		t.Fatalf("Failed to decode stories: %v", err)
	}
	return stories
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
