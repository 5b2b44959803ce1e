// Package history keeps a transcript of the current run in SQLite.
// The database lives in memory unless a path is configured. If opening it or executing
// queries fails, the store falls back to plain in-memory slices.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/comigor/helpdesk-go/internal/conversation"
	"github.com/comigor/helpdesk-go/internal/logger"
)

const schema = `
CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT,
    conversation INTEGER,
    message_id INTEGER,
    role TEXT,
    content TEXT,
    response_id INTEGER,
    created_at DATETIME
);
CREATE TABLE IF NOT EXISTS ratings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT,
    conversation INTEGER,
    message_id INTEGER,
    state TEXT,
    helpful BOOLEAN,
    created_at DATETIME
);`

// Store records messages and feedback outcomes.
type Store struct {
	db *sql.DB

	mu       sync.Mutex
	messages []Entry // in-memory fallback
	ratings  []Rating
	nextID   int64
}

// Open opens the transcript database at path, or an in-memory one when path is empty.
// It never fails: on error the returned Store keeps everything in memory.
func Open(path string) *Store {
	s := &Store{}
	dsn := ":memory:"
	if path != "" {
		dsn = "file:" + path + "?_pragma=busy_timeout(10000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		logger.L.Warn("sqlite open failed; using in-memory history", "error", err)
		return s
	}
	// a second connection would see a different :memory: database
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		logger.L.Warn("sqlite table creation failed; using in-memory history", "error", err)
		_ = db.Close()
		return s
	}
	logger.L.Debug("sqlite history DB initialized", "path", path)
	s.db = db
	return s
}

// Close releases the database, if any.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Persistent reports whether SQLite is in use.
func (s *Store) Persistent() bool {
	return s.db != nil
}

// RecordMessage stores m under the given session and conversation epoch.
func (s *Store) RecordMessage(ctx context.Context, sessionID string, epoch uint64, m conversation.Message) error {
	e := Entry{
		SessionID:    sessionID,
		Conversation: epoch,
		MessageID:    int64(m.ID),
		Role:         string(m.Role),
		Content:      m.Text,
		CreatedAt:    m.CreatedAt,
	}
	if m.ResponseID != nil {
		r := int64(*m.ResponseID)
		e.ResponseID = &r
	}

	if s.db != nil {
		_, err := s.db.ExecContext(ctx, `INSERT INTO messages (session_id, conversation, message_id, role, content, response_id, created_at) VALUES (?,?,?,?,?,?,?);`,
			e.SessionID, e.Conversation, e.MessageID, e.Role, e.Content, e.ResponseID, e.CreatedAt)
		if err != nil {
			return fmt.Errorf("store message: %w", err)
		}
		return nil
	}

	s.mu.Lock()
	s.nextID++
	e.ID = s.nextID
	s.messages = append(s.messages, e)
	s.mu.Unlock()
	return nil
}

// RecordFeedback stores the feedback state m has just reached.
func (s *Store) RecordFeedback(ctx context.Context, sessionID string, epoch uint64, m conversation.Message) error {
	r := Rating{
		SessionID:    sessionID,
		Conversation: epoch,
		MessageID:    int64(m.ID),
		State:        string(m.Feedback),
		Helpful:      m.Helpful,
		CreatedAt:    time.Now(),
	}

	if s.db != nil {
		_, err := s.db.ExecContext(ctx, `INSERT INTO ratings (session_id, conversation, message_id, state, helpful, created_at) VALUES (?,?,?,?,?,?);`,
			r.SessionID, r.Conversation, r.MessageID, r.State, r.Helpful, r.CreatedAt)
		if err != nil {
			return fmt.Errorf("store rating: %w", err)
		}
		return nil
	}

	s.mu.Lock()
	s.ratings = append(s.ratings, r)
	s.mu.Unlock()
	return nil
}

// Sessions returns the ids of every recorded session, oldest first.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	if s.db != nil {
		rows, err := s.db.QueryContext(ctx, `SELECT session_id FROM messages GROUP BY session_id ORDER BY MIN(id) ASC;`)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		defer rows.Close()
		var out []string
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return nil, fmt.Errorf("scan session: %w", err)
			}
			out = append(out, id)
		}
		return out, rows.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool)
	var out []string
	for _, e := range s.messages {
		if !seen[e.SessionID] {
			seen[e.SessionID] = true
			out = append(out, e.SessionID)
		}
	}
	return out, nil
}

// List returns the messages of a session in chronological order.
func (s *Store) List(ctx context.Context, sessionID string) ([]Entry, error) {
	if s.db != nil {
		rows, err := s.db.QueryContext(ctx, `SELECT id, session_id, conversation, message_id, role, content, response_id, created_at FROM messages WHERE session_id = ? ORDER BY id ASC;`, sessionID)
		if err != nil {
			return nil, fmt.Errorf("list messages: %w", err)
		}
		defer rows.Close()
		var out []Entry
		for rows.Next() {
			var e Entry
			var responseID sql.NullInt64
			if err := rows.Scan(&e.ID, &e.SessionID, &e.Conversation, &e.MessageID, &e.Role, &e.Content, &responseID, &e.CreatedAt); err != nil {
				return nil, fmt.Errorf("scan message: %w", err)
			}
			if responseID.Valid {
				e.ResponseID = &responseID.Int64
			}
			out = append(out, e)
		}
		return out, rows.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Entry
	for _, e := range s.messages {
		if e.SessionID == sessionID {
			out = append(out, e)
		}
	}
	return out, nil
}

// Ratings returns the feedback outcomes of a session in chronological order.
func (s *Store) Ratings(ctx context.Context, sessionID string) ([]Rating, error) {
	if s.db != nil {
		rows, err := s.db.QueryContext(ctx, `SELECT session_id, conversation, message_id, state, helpful, created_at FROM ratings WHERE session_id = ? ORDER BY id ASC;`, sessionID)
		if err != nil {
			return nil, fmt.Errorf("list ratings: %w", err)
		}
		defer rows.Close()
		var out []Rating
		for rows.Next() {
			var r Rating
			if err := rows.Scan(&r.SessionID, &r.Conversation, &r.MessageID, &r.State, &r.Helpful, &r.CreatedAt); err != nil {
				return nil, fmt.Errorf("scan rating: %w", err)
			}
			out = append(out, r)
		}
		return out, rows.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Rating
	for _, r := range s.ratings {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}
