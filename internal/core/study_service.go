package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/studybeam/studybeam-api/internal/store"
)

var (
	ErrDeckNotFound = errors.New("deck not found")
	ErrNoMaterials  = errors.New("no study materials were generated")
	ErrInvalidMode  = errors.New("invalid exit mode")
)

// Exit modes for the unsaved-session guard.
const (
	ExitPlain   = ""
	ExitSave    = "save"
	ExitDiscard = "discard"
)

// StudyStore is the slice of the persistence layer the study service needs.
// *store.SQLiteStore satisfies it.
type StudyStore interface {
	CreateFlashcardDeck(userID int64, title, description string, cards []store.Card) (*store.FlashcardDeck, error)
	GetFlashcardDeck(deckID string, userID int64) (*store.FlashcardDeck, error)
	ListFlashcardDecks(userID int64, limit int) ([]store.FlashcardDeck, error)
	DeleteFlashcardDeck(deckID string, userID int64) error

	CreateQuizDeck(userID int64, title, description string, questions []store.QuizQuestion) (*store.QuizDeck, error)
	GetQuizDeck(deckID string, userID int64) (*store.QuizDeck, error)
	ListQuizDecks(userID int64, limit int) ([]store.QuizDeck, error)
	DeleteQuizDeck(deckID string, userID int64) error

	CreateQuizAttempt(attempt *store.QuizAttempt) error
	ListQuizAttempts(userID int64, limit int) ([]store.QuizAttempt, error)
}

// StudyService owns deck/quiz persistence and the active review and quiz
// sessions.
type StudyService struct {
	store    StudyStore
	llm      FlowRunner
	sessions *SessionRegistry
}

func NewStudyService(st StudyStore, llm FlowRunner) *StudyService {
	return &StudyService{
		store:    st,
		llm:      llm,
		sessions: NewSessionRegistry(),
	}
}

// Deck CRUD

func (s *StudyService) ListFlashcardDecks(userID int64) ([]store.FlashcardDeck, error) {
	return s.store.ListFlashcardDecks(userID, 0)
}

func (s *StudyService) GetFlashcardDeck(deckID string, userID int64) (*store.FlashcardDeck, error) {
	return s.store.GetFlashcardDeck(deckID, userID)
}

func (s *StudyService) CreateFlashcardDeck(userID int64, title, description string, cards []store.Card) (*store.FlashcardDeck, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("deck title is required")
	}
	return s.store.CreateFlashcardDeck(userID, title, description, cards)
}

func (s *StudyService) DeleteFlashcardDeck(deckID string, userID int64) error {
	return s.store.DeleteFlashcardDeck(deckID, userID)
}

func (s *StudyService) ListQuizDecks(userID int64) ([]store.QuizDeck, error) {
	return s.store.ListQuizDecks(userID, 0)
}

func (s *StudyService) GetQuizDeck(deckID string, userID int64) (*store.QuizDeck, error) {
	return s.store.GetQuizDeck(deckID, userID)
}

func (s *StudyService) CreateQuizDeck(userID int64, title, description string, questions []store.QuizQuestion) (*store.QuizDeck, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("quiz deck title is required")
	}
	return s.store.CreateQuizDeck(userID, title, description, questions)
}

func (s *StudyService) DeleteQuizDeck(deckID string, userID int64) error {
	return s.store.DeleteQuizDeck(deckID, userID)
}

func (s *StudyService) ListQuizAttempts(userID int64) ([]store.QuizAttempt, error) {
	return s.store.ListQuizAttempts(userID, 0)
}

// GenerateMaterials runs the notes-to-materials flow without opening a
// session; the caller gets the raw bundle (upload page behavior).
func (s *StudyService) GenerateMaterials(ctx context.Context, input GenerateStudyMaterialsInput) (GenerateStudyMaterialsOutput, error) {
	return s.llm.GenerateStudyMaterials(ctx, input)
}

// Flashcard review lifecycle

// StartDeckReview snapshots a stored deck into a fresh session. Reading a
// deck for review never writes anything back.
func (s *StudyService) StartDeckReview(userID int64, deckID string) (ReviewSessionView, error) {
	deck, err := s.store.GetFlashcardDeck(deckID, userID)
	if err != nil {
		return ReviewSessionView{}, err
	}
	if deck == nil {
		return ReviewSessionView{}, ErrDeckNotFound
	}
	sess := NewReviewFromDeck(deck)
	s.sessions.SetReview(userID, sess)
	return sess.View(), nil
}

// GenerateFlashcards runs the materials flow over pasted or uploaded notes
// and opens an unsaved review session over the parsed cards.
func (s *StudyService) GenerateFlashcards(ctx context.Context, userID int64, lectureNotes, fileName string) (ReviewSessionView, error) {
	out, err := s.llm.GenerateStudyMaterials(ctx, GenerateStudyMaterialsInput{LectureNotes: lectureNotes})
	if err != nil {
		return ReviewSessionView{}, err
	}

	cards := CardsFromStrings(out.Flashcards)
	if len(cards) == 0 {
		return ReviewSessionView{}, ErrNoMaterials
	}

	sess := NewReviewFromGeneration(cards, fileName)
	s.sessions.SetReview(userID, sess)
	return sess.View(), nil
}

func (s *StudyService) StartManualDeck(userID int64) ReviewSessionView {
	sess := NewManualReview()
	s.sessions.SetReview(userID, sess)
	return sess.View()
}

// AddManualCard appends a card to the active session, starting a manual
// session first if none is open.
func (s *StudyService) AddManualCard(userID int64, question, answer string) (ReviewSessionView, error) {
	sess, ok := s.sessions.Review(userID)
	if !ok {
		sess = NewManualReview()
		s.sessions.SetReview(userID, sess)
	}
	if _, err := sess.AddCard(question, answer); err != nil {
		return ReviewSessionView{}, err
	}
	return sess.View(), nil
}

func (s *StudyService) ReviewSession(userID int64) (ReviewSessionView, error) {
	sess, ok := s.sessions.Review(userID)
	if !ok {
		return ReviewSessionView{}, ErrNoActiveSession
	}
	return sess.View(), nil
}

func (s *StudyService) NextCard(userID int64) (ReviewSessionView, error) {
	return s.reviewOp(userID, (*ReviewSession).Next)
}

func (s *StudyService) PreviousCard(userID int64) (ReviewSessionView, error) {
	return s.reviewOp(userID, (*ReviewSession).Previous)
}

func (s *StudyService) FlipCard(userID int64) (ReviewSessionView, error) {
	return s.reviewOp(userID, (*ReviewSession).Flip)
}

func (s *StudyService) reviewOp(userID int64, op func(*ReviewSession) error) (ReviewSessionView, error) {
	sess, ok := s.sessions.Review(userID)
	if !ok {
		return ReviewSessionView{}, ErrNoActiveSession
	}
	if err := op(sess); err != nil {
		return ReviewSessionView{}, err
	}
	return sess.View(), nil
}

// SaveFlashcardSession persists the working cards as a new deck. An empty
// title aborts with NameRequiredError and no partial write.
func (s *StudyService) SaveFlashcardSession(userID int64, title string) (*store.FlashcardDeck, error) {
	sess, ok := s.sessions.Review(userID)
	if !ok {
		return nil, ErrNoActiveSession
	}

	cards := sess.CardsSnapshot()
	if len(cards) == 0 {
		return nil, ErrEmptySession
	}
	if strings.TrimSpace(title) == "" {
		return nil, &NameRequiredError{Suggested: sess.SuggestedName()}
	}

	deck, err := s.store.CreateFlashcardDeck(userID, title, sess.Description(), cards)
	if err != nil {
		return nil, fmt.Errorf("failed to save deck: %w", err)
	}
	sess.MarkSaved(deck.ID, deck.Title)
	return deck, nil
}

// ExitFlashcardSession closes the active review. A plain exit with unsaved
// non-empty content is refused with UnsavedSessionError; the caller must
// either save (which only exits on success) or explicitly discard.
func (s *StudyService) ExitFlashcardSession(userID int64, mode, title string) error {
	sess, ok := s.sessions.Review(userID)
	if !ok {
		return ErrNoActiveSession
	}

	switch mode {
	case ExitDiscard:
		s.sessions.DropReview(userID)
		return nil
	case ExitSave:
		if _, err := s.SaveFlashcardSession(userID, title); err != nil {
			return err // session stays open
		}
		s.sessions.DropReview(userID)
		return nil
	case ExitPlain:
		if sess.NeedsExitGuard() {
			return &UnsavedSessionError{Suggested: sess.SuggestedName()}
		}
		s.sessions.DropReview(userID)
		return nil
	default:
		return ErrInvalidMode
	}
}

// Quiz lifecycle

func (s *StudyService) StartQuiz(userID int64, deckID string) (QuizSessionView, error) {
	deck, err := s.store.GetQuizDeck(deckID, userID)
	if err != nil {
		return QuizSessionView{}, err
	}
	if deck == nil {
		return QuizSessionView{}, ErrDeckNotFound
	}
	sess := NewQuizFromDeck(deck)
	s.sessions.SetQuiz(userID, sess)
	return sess.View(), nil
}

func (s *StudyService) GenerateQuiz(ctx context.Context, userID int64, lectureNotes, fileName string, numberOfQuestions int) (QuizSessionView, error) {
	out, err := s.llm.GenerateStudyMaterials(ctx, GenerateStudyMaterialsInput{
		LectureNotes:      lectureNotes,
		NumberOfQuestions: numberOfQuestions,
	})
	if err != nil {
		return QuizSessionView{}, err
	}

	if len(out.PracticeQuestions) == 0 {
		return QuizSessionView{}, ErrNoMaterials
	}

	sess := NewQuizFromGeneration(NumberQuestions(out.PracticeQuestions), fileName)
	s.sessions.SetQuiz(userID, sess)
	return sess.View(), nil
}

func (s *StudyService) QuizSession(userID int64) (QuizSessionView, error) {
	sess, ok := s.sessions.Quiz(userID)
	if !ok {
		return QuizSessionView{}, ErrNoActiveSession
	}
	return sess.View(), nil
}

func (s *StudyService) SelectQuizAnswer(userID, questionID int64, answer string) (QuizSessionView, error) {
	sess, ok := s.sessions.Quiz(userID)
	if !ok {
		return QuizSessionView{}, ErrNoActiveSession
	}
	if err := sess.SelectAnswer(questionID, answer); err != nil {
		return QuizSessionView{}, err
	}
	return sess.View(), nil
}

func (s *StudyService) SubmitQuizAnswer(userID int64) (SubmitResult, error) {
	sess, ok := s.sessions.Quiz(userID)
	if !ok {
		return SubmitResult{}, ErrNoActiveSession
	}
	return sess.Submit()
}

// AdvanceQuiz moves to the next question, or finishes the quiz. Finishing a
// quiz with at least one question records exactly one attempt; a failed
// attempt write is logged but does not undo the finish.
func (s *StudyService) AdvanceQuiz(userID int64) (QuizSessionView, error) {
	sess, ok := s.sessions.Quiz(userID)
	if !ok {
		return QuizSessionView{}, ErrNoActiveSession
	}

	finished, err := sess.Advance()
	if err != nil {
		return QuizSessionView{}, err
	}
	if finished {
		s.recordAttempt(userID, sess)
	}
	return sess.View(), nil
}

func (s *StudyService) recordAttempt(userID int64, sess *QuizSession) {
	attempt := sess.AttemptRecord(userID)
	if attempt.TotalQuestions == 0 {
		return
	}
	if err := s.store.CreateQuizAttempt(&attempt); err != nil {
		log.Printf("Failed to record quiz attempt for user %d (deck %s): %v", userID, attempt.DeckID, err)
	}
}

func (s *StudyService) SaveQuizSession(userID int64, title string) (*store.QuizDeck, error) {
	sess, ok := s.sessions.Quiz(userID)
	if !ok {
		return nil, ErrNoActiveSession
	}

	questions := sess.QuestionsSnapshot()
	if len(questions) == 0 {
		return nil, ErrEmptySession
	}
	if strings.TrimSpace(title) == "" {
		return nil, &NameRequiredError{Suggested: sess.SuggestedName()}
	}

	deck, err := s.store.CreateQuizDeck(userID, title, sess.Description(), questions)
	if err != nil {
		return nil, fmt.Errorf("failed to save quiz deck: %w", err)
	}
	// Later attempts are attributed to the saved deck instead of a temp ID.
	sess.MarkSaved(deck.ID, deck.Title)
	return deck, nil
}

// ExitQuizSession closes the active quiz with the same unsaved guard as
// flashcards. A quiz abandoned mid-pass still records its running score as
// an attempt.
func (s *StudyService) ExitQuizSession(userID int64, mode, title string) error {
	sess, ok := s.sessions.Quiz(userID)
	if !ok {
		return ErrNoActiveSession
	}

	exit := func() error {
		if sess.ShouldRecordExitAttempt() {
			s.recordAttempt(userID, sess)
		}
		s.sessions.DropQuiz(userID)
		return nil
	}

	switch mode {
	case ExitDiscard:
		return exit()
	case ExitSave:
		if _, err := s.SaveQuizSession(userID, title); err != nil {
			return err // session stays open
		}
		return exit()
	case ExitPlain:
		if sess.NeedsExitGuard() {
			return &UnsavedSessionError{Suggested: sess.SuggestedName()}
		}
		return exit()
	default:
		return ErrInvalidMode
	}
}
