package store

import (
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Quiz attempt methods. Attempts are write-once; there is no update path.

func (s *SQLiteStore) CreateQuizAttempt(attempt *QuizAttempt) error {
	id, err := gonanoid.New()
	if err != nil {
		return fmt.Errorf("failed to generate attempt id: %w", err)
	}

	attempt.ID = id
	if attempt.CompletedAt.IsZero() {
		attempt.CompletedAt = time.Now().UTC()
	}

	_, err = s.db.Exec(
		"INSERT INTO quiz_attempts (id, user_id, deck_id, deck_title, score, total_questions, percentage, completed_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		attempt.ID, attempt.UserID, attempt.DeckID, attempt.DeckTitle, attempt.Score, attempt.TotalQuestions, attempt.Percentage, attempt.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quiz attempt: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListQuizAttempts(userID int64, limit int) ([]QuizAttempt, error) {
	query := "SELECT id, user_id, deck_id, deck_title, score, total_questions, percentage, completed_at FROM quiz_attempts WHERE user_id = ? ORDER BY completed_at DESC"
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quiz attempts: %w", err)
	}
	defer rows.Close()

	attempts := []QuizAttempt{}
	for rows.Next() {
		var a QuizAttempt
		if err := rows.Scan(&a.ID, &a.UserID, &a.DeckID, &a.DeckTitle, &a.Score, &a.TotalQuestions, &a.Percentage, &a.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quiz attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
