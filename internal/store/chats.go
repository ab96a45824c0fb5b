package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Chat session methods. Messages live inside the session row as a JSON
// array; appends are read-modify-write, which is safe within one client
// since per-session operations are issued sequentially by user action.

func (s *SQLiteStore) CreateChatSession(userID int64, title string, messages []ChatMessage) (*ChatSession, error) {
	sessionID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chat session id: %w", err)
	}

	if messages == nil {
		messages = []ChatMessage{}
	}
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal messages: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(
		"INSERT INTO chat_sessions (id, user_id, title, messages, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		sessionID, userID, title, string(messagesJSON), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert chat session: %w", err)
	}

	return &ChatSession{
		ID:        sessionID,
		UserID:    userID,
		Title:     title,
		Messages:  messages,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) GetChatSession(sessionID string, userID int64) (*ChatSession, error) {
	var session ChatSession
	var messagesJSON string
	err := s.db.QueryRow(
		"SELECT id, user_id, title, messages, created_at, updated_at FROM chat_sessions WHERE id = ? AND user_id = ?",
		sessionID, userID,
	).Scan(&session.ID, &session.UserID, &session.Title, &messagesJSON, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get chat session: %w", err)
	}
	if err := json.Unmarshal([]byte(messagesJSON), &session.Messages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal messages for session %s: %w", session.ID, err)
	}
	return &session, nil
}

func (s *SQLiteStore) ListChatSessions(userID int64, limit int) ([]ChatSession, error) {
	query := "SELECT id, user_id, title, messages, created_at, updated_at FROM chat_sessions WHERE user_id = ? ORDER BY updated_at DESC"
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list chat sessions: %w", err)
	}
	defer rows.Close()

	sessions := []ChatSession{}
	for rows.Next() {
		var session ChatSession
		var messagesJSON string
		if err := rows.Scan(&session.ID, &session.UserID, &session.Title, &messagesJSON, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat session: %w", err)
		}
		if err := json.Unmarshal([]byte(messagesJSON), &session.Messages); err != nil {
			return nil, fmt.Errorf("failed to unmarshal messages for session %s: %w", session.ID, err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// AppendChatMessages adds messages to a session and stamps updated_at.
func (s *SQLiteStore) AppendChatMessages(sessionID string, userID int64, newMessages ...ChatMessage) error {
	session, err := s.GetChatSession(sessionID, userID)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrNotFound
	}

	messages := append(session.Messages, newMessages...)
	messagesJSON, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("failed to marshal messages: %w", err)
	}

	_, err = s.db.Exec(
		"UPDATE chat_sessions SET messages = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		string(messagesJSON), time.Now().UTC(), sessionID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to append chat messages: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteChatSession(sessionID string, userID int64) error {
	res, err := s.db.Exec("DELETE FROM chat_sessions WHERE id = ? AND user_id = ?", sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete chat session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
