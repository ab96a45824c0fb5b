package core

import (
	"regexp"
	"strings"
	"time"

	"github.com/studybeam/studybeam-api/internal/store"
)

// PlaceholderAnswer fills the answer half when a generated flashcard string
// carries no recognizable delimiter.
const PlaceholderAnswer = "See question for context / No answer provided by AI"

var flashcardDelimiters = regexp.MustCompile(` - | :: | \? `)

// ParseFlashcard splits a generated "Question - Answer" style string into
// its halves. Delimiters are tried in order: " - ", " :: ", " ? ", then the
// first ":". The heuristic is lossy for free-form text and is kept as-is
// for compatibility with previously generated decks.
func ParseFlashcard(s string) (question, answer string) {
	parts := flashcardDelimiters.Split(s, -1)
	if len(parts) > 1 {
		question = strings.TrimSpace(parts[0])
		answer = strings.TrimSpace(strings.Join(parts[1:], " - "))
		return question, answer
	}

	if before, after, ok := strings.Cut(s, ":"); ok {
		before, after = strings.TrimSpace(before), strings.TrimSpace(after)
		if before != "" && after != "" {
			return before, after
		}
	}

	return s, PlaceholderAnswer
}

// CardsFromStrings converts generated flashcard strings into cards. IDs are
// current-time-based plus the index, unique within the new deck.
func CardsFromStrings(flashcards []string) []store.Card {
	base := time.Now().UnixMilli()
	cards := make([]store.Card, 0, len(flashcards))
	for i, s := range flashcards {
		question, answer := ParseFlashcard(s)
		cards = append(cards, store.Card{
			ID:       base + int64(i),
			Question: question,
			Answer:   answer,
		})
	}
	return cards
}

// NumberQuestions assigns deck-scoped IDs to freshly generated quiz
// questions, same allocation scheme as CardsFromStrings.
func NumberQuestions(questions []store.QuizQuestion) []store.QuizQuestion {
	base := time.Now().UnixMilli()
	out := make([]store.QuizQuestion, len(questions))
	for i, q := range questions {
		q.ID = base + int64(i)
		out[i] = q
	}
	return out
}
