package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

func (s *SQLiteStore) CreateNote(userID int64, title, summary, sourceFileName string, tags []string) (*Note, error) {
	noteID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate note id: %w", err)
	}

	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(
		"INSERT INTO notes (id, user_id, title, summary, source_file_name, tags, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		noteID, userID, title, summary, sourceFileName, string(tagsJSON), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert note: %w", err)
	}

	return &Note{
		ID:             noteID,
		UserID:         userID,
		Title:          title,
		Summary:        summary,
		SourceFileName: sourceFileName,
		Tags:           tags,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (s *SQLiteStore) GetNote(noteID string, userID int64) (*Note, error) {
	var note Note
	var tagsJSON string
	err := s.db.QueryRow(
		"SELECT id, user_id, title, summary, source_file_name, tags, created_at, updated_at FROM notes WHERE id = ? AND user_id = ?",
		noteID, userID,
	).Scan(&note.ID, &note.UserID, &note.Title, &note.Summary, &note.SourceFileName, &tagsJSON, &note.CreatedAt, &note.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &note.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags for note %s: %w", note.ID, err)
	}
	return &note, nil
}

func (s *SQLiteStore) ListNotes(userID int64, limit int) ([]Note, error) {
	query := "SELECT id, user_id, title, summary, source_file_name, tags, created_at, updated_at FROM notes WHERE user_id = ? ORDER BY updated_at DESC"
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := []Note{}
	for rows.Next() {
		var note Note
		var tagsJSON string
		if err := rows.Scan(&note.ID, &note.UserID, &note.Title, &note.Summary, &note.SourceFileName, &tagsJSON, &note.CreatedAt, &note.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		if err := json.Unmarshal([]byte(tagsJSON), &note.Tags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags for note %s: %w", note.ID, err)
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

func (s *SQLiteStore) UpdateNote(noteID string, userID int64, title, summary string, tags []string) error {
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	res, err := s.db.Exec(
		"UPDATE notes SET title = ?, summary = ?, tags = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		title, summary, string(tagsJSON), time.Now().UTC(), noteID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteNote(noteID string, userID int64) error {
	res, err := s.db.Exec("DELETE FROM notes WHERE id = ? AND user_id = ?", noteID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
