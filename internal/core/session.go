package core

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/studybeam/studybeam-api/internal/store"
)

// Session errors. NameRequiredError and UnsavedSessionError carry the
// suggested deck name so the caller can run the confirm/name round trip.
var (
	ErrNoActiveSession = errors.New("no active session")
	ErrEmptySession    = errors.New("session has no items")
)

// NameRequiredError is returned when a save is requested without a title.
// The save is aborted with no partial write; the caller retries with a
// title or cancels.
type NameRequiredError struct {
	Suggested string
}

func (e *NameRequiredError) Error() string {
	return "a deck name is required to save"
}

// UnsavedSessionError is returned when an exit would drop unsaved non-empty
// content without explicit confirmation.
type UnsavedSessionError struct {
	Suggested string
}

func (e *UnsavedSessionError) Error() string {
	return "session has unsaved changes"
}

const (
	titleAIPrefix      = "New AI: "
	titleAIDeck        = "New AI-Generated Deck"
	titleAIQuiz        = "New AI-Generated Quiz"
	titleManualDeck    = "New Manual Deck"
	fallbackDeckName   = "My New Deck"
	fallbackManualName = "My Manual Deck"
	fallbackQuizName   = "My New Quiz"
)

// generatedTitle synthesizes the working title for a freshly generated
// session: "New AI: <file base>" when the notes came from a file, otherwise
// the generic fallback.
func generatedTitle(fileName, fallback string) string {
	if fileName == "" {
		return fallback
	}
	base, _, _ := strings.Cut(fileName, ".")
	return titleAIPrefix + base
}

// ReviewSession is the in-memory working copy of a flashcard deck under
// review. It is unsaved-until-confirmed; Unsaved gates the exit guard.
type ReviewSession struct {
	mu sync.Mutex

	deckID  string
	title   string
	unsaved bool
	cards   []store.Card
	index   int
	flipped bool

	sourceFileName string
	manual         bool
}

type ReviewSessionView struct {
	DeckID    string       `json:"deck_id,omitempty"`
	Title     string       `json:"title"`
	Unsaved   bool         `json:"unsaved"`
	Cards     []store.Card `json:"cards"`
	Index     int          `json:"index"`
	Flipped   bool         `json:"flipped"`
	CardCount int          `json:"card_count"`
}

// NewReviewFromDeck snapshots a stored deck into a session: position zero,
// answer hidden, nothing unsaved.
func NewReviewFromDeck(deck *store.FlashcardDeck) *ReviewSession {
	cards := make([]store.Card, len(deck.Cards))
	copy(cards, deck.Cards)
	return &ReviewSession{
		deckID: deck.ID,
		title:  deck.Title,
		cards:  cards,
	}
}

// NewReviewFromGeneration opens a session over freshly generated cards.
func NewReviewFromGeneration(cards []store.Card, sourceFileName string) *ReviewSession {
	return &ReviewSession{
		title:          generatedTitle(sourceFileName, titleAIDeck),
		unsaved:        true,
		cards:          cards,
		sourceFileName: sourceFileName,
	}
}

// NewManualReview starts an empty deck to be filled card by card.
func NewManualReview() *ReviewSession {
	return &ReviewSession{
		title:   titleManualDeck,
		unsaved: true,
		manual:  true,
		cards:   []store.Card{},
	}
}

func (s *ReviewSession) View() ReviewSessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	cards := make([]store.Card, len(s.cards))
	copy(cards, s.cards)
	return ReviewSessionView{
		DeckID:    s.deckID,
		Title:     s.title,
		Unsaved:   s.unsaved,
		Cards:     cards,
		Index:     s.index,
		Flipped:   s.flipped,
		CardCount: len(s.cards),
	}
}

// Next advances circularly and hides the answer again.
func (s *ReviewSession) Next() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cards) == 0 {
		return ErrEmptySession
	}
	s.index = (s.index + 1) % len(s.cards)
	s.flipped = false
	return nil
}

// Previous moves back circularly; from index 0 it lands on the last card.
func (s *ReviewSession) Previous() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cards) == 0 {
		return ErrEmptySession
	}
	s.index = (s.index - 1 + len(s.cards)) % len(s.cards)
	s.flipped = false
	return nil
}

// Flip toggles the reveal state of the current card, independent of
// navigation.
func (s *ReviewSession) Flip() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.cards) == 0 {
		return ErrEmptySession
	}
	s.flipped = !s.flipped
	return nil
}

// AddCard appends a manually entered card, jumps to it, and marks the
// session unsaved. IDs are max-plus-one, or time-based for the first card.
func (s *ReviewSession) AddCard(question, answer string) (store.Card, error) {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(answer) == "" {
		return store.Card{}, fmt.Errorf("question and answer cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var newID int64
	if len(s.cards) > 0 {
		for _, c := range s.cards {
			if c.ID > newID {
				newID = c.ID
			}
		}
		newID++
	} else {
		newID = time.Now().UnixMilli()
	}

	card := store.Card{ID: newID, Question: question, Answer: answer}
	s.cards = append(s.cards, card)
	s.unsaved = true
	s.index = len(s.cards) - 1
	s.flipped = false
	return card, nil
}

// SuggestedName seeds the save-name prompt, stripping the synthesized
// AI/manual prefixes from the working title.
func (s *ReviewSession) SuggestedName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case strings.HasPrefix(s.title, titleAIPrefix):
		return s.title[len(titleAIPrefix):]
	case strings.HasPrefix(s.title, titleManualDeck):
		return fallbackManualName
	case s.title != "":
		return s.title
	default:
		return fallbackDeckName
	}
}

func (s *ReviewSession) CardsSnapshot() []store.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	cards := make([]store.Card, len(s.cards))
	copy(cards, s.cards)
	return cards
}

// Description derives the stored deck description from how the session was
// produced.
func (s *ReviewSession) Description() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	today := time.Now().Format("Jan 2, 2006")
	switch {
	case s.sourceFileName != "":
		return "Generated from " + s.sourceFileName
	case s.manual:
		return "Manually created on " + today
	default:
		return "Generated on " + today
	}
}

// MarkSaved clears the unsaved flag and adopts the persisted identity.
func (s *ReviewSession) MarkSaved(deckID, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deckID = deckID
	s.title = title
	s.unsaved = false
	s.sourceFileName = ""
}

// NeedsExitGuard reports whether exiting now would lose unsaved non-empty
// content.
func (s *ReviewSession) NeedsExitGuard() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsaved && len(s.cards) > 0
}
