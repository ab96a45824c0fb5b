package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Flashcard deck methods. The card array is embedded in the deck row as
// JSON, mirroring a document-store layout rather than a normalized child
// table.

func (s *SQLiteStore) CreateFlashcardDeck(userID int64, title, description string, cards []Card) (*FlashcardDeck, error) {
	deckID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate deck id: %w", err)
	}

	cardsJSON, err := json.Marshal(cards)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal cards: %w", err)
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(
		"INSERT INTO flashcard_decks (id, user_id, title, description, cards, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		deckID, userID, title, description, string(cardsJSON), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert flashcard deck: %w", err)
	}

	return &FlashcardDeck{
		ID:          deckID,
		UserID:      userID,
		Title:       title,
		Description: description,
		Cards:       cards,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (s *SQLiteStore) GetFlashcardDeck(deckID string, userID int64) (*FlashcardDeck, error) {
	var deck FlashcardDeck
	var cardsJSON string
	err := s.db.QueryRow(
		"SELECT id, user_id, title, description, cards, created_at, updated_at FROM flashcard_decks WHERE id = ? AND user_id = ?",
		deckID, userID,
	).Scan(&deck.ID, &deck.UserID, &deck.Title, &deck.Description, &cardsJSON, &deck.CreatedAt, &deck.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("failed to get flashcard deck: %w", err)
	}
	if err := json.Unmarshal([]byte(cardsJSON), &deck.Cards); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cards for deck %s: %w", deck.ID, err)
	}
	return &deck, nil
}

func (s *SQLiteStore) ListFlashcardDecks(userID int64, limit int) ([]FlashcardDeck, error) {
	query := "SELECT id, user_id, title, description, cards, created_at, updated_at FROM flashcard_decks WHERE user_id = ? ORDER BY updated_at DESC"
	args := []interface{}{userID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list flashcard decks: %w", err)
	}
	defer rows.Close()

	decks := []FlashcardDeck{}
	for rows.Next() {
		var deck FlashcardDeck
		var cardsJSON string
		if err := rows.Scan(&deck.ID, &deck.UserID, &deck.Title, &deck.Description, &cardsJSON, &deck.CreatedAt, &deck.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flashcard deck: %w", err)
		}
		if err := json.Unmarshal([]byte(cardsJSON), &deck.Cards); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cards for deck %s: %w", deck.ID, err)
		}
		decks = append(decks, deck)
	}
	return decks, rows.Err()
}

func (s *SQLiteStore) UpdateFlashcardDeck(deckID string, userID int64, title string, cards []Card) error {
	cardsJSON, err := json.Marshal(cards)
	if err != nil {
		return fmt.Errorf("failed to marshal cards: %w", err)
	}

	res, err := s.db.Exec(
		"UPDATE flashcard_decks SET title = ?, cards = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		title, string(cardsJSON), time.Now().UTC(), deckID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update flashcard deck: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) DeleteFlashcardDeck(deckID string, userID int64) error {
	res, err := s.db.Exec("DELETE FROM flashcard_decks WHERE id = ? AND user_id = ?", deckID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete flashcard deck: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
