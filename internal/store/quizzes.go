package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Quiz deck methods, structurally analogous to flashcard decks.

func (s *SQLiteStore) CreateQuizDeck(userID int64, title, description string, questions []QuizQuestion) (*QuizDeck, error) {
	deckID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate quiz deck id: %w", err)
	}

	questionsJSON, err := json.Marshal(questions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal questions: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(
		"INSERT INTO quiz_decks (id, user_id, title, description, questions, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		deckID, userID, title, description, string(questionsJSON), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert quiz deck: %w", err)
	}

	return &QuizDeck{
		ID:          deckID,
		UserID:      userID,
		Title:       title,
		Description: description,
		Questions:   questions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *SQLiteStore) GetQuizDeck(deckID string, userID int64) (*QuizDeck, error) {
	var deck QuizDeck
	var questionsJSON string
	err := s.db.QueryRow(
		"SELECT id, user_id, title, description, questions, created_at, updated_at FROM quiz_decks WHERE id = ? AND user_id = ?",
		deckID, userID,
	).Scan(&deck.ID, &deck.UserID, &deck.Title, &deck.Description, &questionsJSON, &deck.CreatedAt, &deck.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get quiz deck: %w", err)
	}
	if err := json.Unmarshal([]byte(questionsJSON), &deck.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions for quiz deck %s: %w", deck.ID, err)
	}
	return &deck, nil
}

func (s *SQLiteStore) ListQuizDecks(userID int64, limit int) ([]QuizDeck, error) {
	query := "SELECT id, user_id, title, description, questions, created_at, updated_at FROM quiz_decks WHERE user_id = ? ORDER BY updated_at DESC"
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz decks: %w", err)
	}
	defer rows.Close()

	decks := []QuizDeck{}
	for rows.Next() {
		var deck QuizDeck
		var questionsJSON string
		if err := rows.Scan(&deck.ID, &deck.UserID, &deck.Title, &deck.Description, &questionsJSON, &deck.CreatedAt, &deck.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quiz deck: %w", err)
		}
		if err := json.Unmarshal([]byte(questionsJSON), &deck.Questions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal questions for quiz deck %s: %w", deck.ID, err)
		}
		decks = append(decks, deck)
	}
	return decks, rows.Err()
}

func (s *SQLiteStore) DeleteQuizDeck(deckID string, userID int64) error {
	res, err := s.db.Exec("DELETE FROM quiz_decks WHERE id = ? AND user_id = ?", deckID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete quiz deck: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
