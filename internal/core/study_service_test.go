package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybeam/studybeam-api/internal/store"
)

// fakeStudyStore is an in-memory StudyStore keeping decks and attempts in
// insertion order.
type fakeStudyStore struct {
	decks    []store.FlashcardDeck
	quizzes  []store.QuizDeck
	attempts []store.QuizAttempt
	nextID   int

	failCreateDeck bool
}

func (f *fakeStudyStore) id() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeStudyStore) CreateFlashcardDeck(userID int64, title, description string, cards []store.Card) (*store.FlashcardDeck, error) {
	if f.failCreateDeck {
		return nil, errors.New("store unavailable")
	}
	deck := store.FlashcardDeck{
		ID:          f.id(),
		UserID:      userID,
		Title:       title,
		Description: description,
		Cards:       cards,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	f.decks = append(f.decks, deck)
	return &deck, nil
}

func (f *fakeStudyStore) GetFlashcardDeck(deckID string, userID int64) (*store.FlashcardDeck, error) {
	for _, d := range f.decks {
		if d.ID == deckID && d.UserID == userID {
			deck := d
			return &deck, nil
		}
	}
	return nil, nil
}

func (f *fakeStudyStore) ListFlashcardDecks(userID int64, limit int) ([]store.FlashcardDeck, error) {
	var out []store.FlashcardDeck
	for _, d := range f.decks {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStudyStore) DeleteFlashcardDeck(deckID string, userID int64) error {
	for i, d := range f.decks {
		if d.ID == deckID && d.UserID == userID {
			f.decks = append(f.decks[:i], f.decks[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStudyStore) CreateQuizDeck(userID int64, title, description string, questions []store.QuizQuestion) (*store.QuizDeck, error) {
	deck := store.QuizDeck{
		ID:        f.id(),
		UserID:    userID,
		Title:     title,
		Questions: questions,
	}
	f.quizzes = append(f.quizzes, deck)
	return &deck, nil
}

func (f *fakeStudyStore) GetQuizDeck(deckID string, userID int64) (*store.QuizDeck, error) {
	for _, d := range f.quizzes {
		if d.ID == deckID && d.UserID == userID {
			deck := d
			return &deck, nil
		}
	}
	return nil, nil
}

func (f *fakeStudyStore) ListQuizDecks(userID int64, limit int) ([]store.QuizDeck, error) {
	var out []store.QuizDeck
	for _, d := range f.quizzes {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeStudyStore) DeleteQuizDeck(deckID string, userID int64) error {
	for i, d := range f.quizzes {
		if d.ID == deckID && d.UserID == userID {
			f.quizzes = append(f.quizzes[:i], f.quizzes[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (f *fakeStudyStore) CreateQuizAttempt(attempt *store.QuizAttempt) error {
	attempt.ID = f.id()
	f.attempts = append(f.attempts, *attempt)
	return nil
}

func (f *fakeStudyStore) ListQuizAttempts(userID int64, limit int) ([]store.QuizAttempt, error) {
	var out []store.QuizAttempt
	for _, a := range f.attempts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

// fakeFlowRunner returns canned outputs without touching the model.
type fakeFlowRunner struct {
	materials GenerateStudyMaterialsOutput
	answer    string
	err       error
}

func (f *fakeFlowRunner) AnswerQuestions(ctx context.Context, in AnswerQuestionsInput) (AnswerQuestionsOutput, error) {
	if f.err != nil {
		return AnswerQuestionsOutput{}, f.err
	}
	return AnswerQuestionsOutput{Answer: f.answer}, nil
}

func (f *fakeFlowRunner) GenerateStudyMaterials(ctx context.Context, in GenerateStudyMaterialsInput) (GenerateStudyMaterialsOutput, error) {
	if f.err != nil {
		return GenerateStudyMaterialsOutput{}, f.err
	}
	return f.materials, nil
}

const testUser int64 = 1

func newStudyFixture(llm *fakeFlowRunner) (*StudyService, *fakeStudyStore) {
	st := &fakeStudyStore{}
	if llm == nil {
		llm = &fakeFlowRunner{}
	}
	return NewStudyService(st, llm), st
}

func TestStartDeckReviewThenExitWritesNothing(t *testing.T) {
	svc, st := newStudyFixture(nil)
	deck, err := st.CreateFlashcardDeck(testUser, "Biology", "", sampleCards(3))
	require.NoError(t, err)

	view, err := svc.StartDeckReview(testUser, deck.ID)
	require.NoError(t, err)
	assert.False(t, view.Unsaved)

	_, err = svc.NextCard(testUser)
	require.NoError(t, err)
	_, err = svc.FlipCard(testUser)
	require.NoError(t, err)

	require.NoError(t, svc.ExitFlashcardSession(testUser, ExitPlain, ""))
	assert.Len(t, st.decks, 1, "reviewing a stored deck must not write")

	_, err = svc.ReviewSession(testUser)
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestStartDeckReviewUnknownDeck(t *testing.T) {
	svc, _ := newStudyFixture(nil)
	_, err := svc.StartDeckReview(testUser, "nope")
	assert.ErrorIs(t, err, ErrDeckNotFound)
}

func TestGenerateFlashcardsOpensUnsavedSession(t *testing.T) {
	llm := &fakeFlowRunner{materials: GenerateStudyMaterialsOutput{
		Flashcards: []string{"Capital of France - Paris", "Just a statement"},
	}}
	svc, _ := newStudyFixture(llm)

	view, err := svc.GenerateFlashcards(context.Background(), testUser, "some notes", "bio.pdf")
	require.NoError(t, err)
	assert.True(t, view.Unsaved)
	assert.Equal(t, "New AI: bio", view.Title)
	assert.Equal(t, 2, view.CardCount)
}

func TestGenerateFlashcardsNoMaterials(t *testing.T) {
	svc, _ := newStudyFixture(&fakeFlowRunner{})
	_, err := svc.GenerateFlashcards(context.Background(), testUser, "notes", "")
	assert.ErrorIs(t, err, ErrNoMaterials)
}

func TestUnsavedExitIsGuarded(t *testing.T) {
	llm := &fakeFlowRunner{materials: GenerateStudyMaterialsOutput{
		Flashcards: []string{"Q - A"},
	}}
	svc, st := newStudyFixture(llm)
	_, err := svc.GenerateFlashcards(context.Background(), testUser, "notes", "bio.pdf")
	require.NoError(t, err)

	err = svc.ExitFlashcardSession(testUser, ExitPlain, "")
	var unsaved *UnsavedSessionError
	require.ErrorAs(t, err, &unsaved)
	assert.Equal(t, "bio", unsaved.Suggested)

	// Session survives the refused exit.
	_, err = svc.ReviewSession(testUser)
	require.NoError(t, err)

	// Explicit discard closes it without writing.
	require.NoError(t, svc.ExitFlashcardSession(testUser, ExitDiscard, ""))
	assert.Empty(t, st.decks)
}

func TestSaveFlashcardSessionRequiresName(t *testing.T) {
	llm := &fakeFlowRunner{materials: GenerateStudyMaterialsOutput{
		Flashcards: []string{"Q - A"},
	}}
	svc, st := newStudyFixture(llm)
	_, err := svc.GenerateFlashcards(context.Background(), testUser, "notes", "")
	require.NoError(t, err)

	_, err = svc.SaveFlashcardSession(testUser, "  ")
	var nameErr *NameRequiredError
	require.ErrorAs(t, err, &nameErr)
	assert.Equal(t, "New AI-Generated Deck", nameErr.Suggested)
	assert.Empty(t, st.decks, "refused save must not write")
}

func TestSaveThenReviewRoundTrip(t *testing.T) {
	llm := &fakeFlowRunner{materials: GenerateStudyMaterialsOutput{
		Flashcards: []string{"Q1 - A1", "Q2 - A2", "Q3 - A3"},
	}}
	svc, _ := newStudyFixture(llm)
	before, err := svc.GenerateFlashcards(context.Background(), testUser, "notes", "")
	require.NoError(t, err)

	deck, err := svc.SaveFlashcardSession(testUser, "My Deck")
	require.NoError(t, err)
	require.NoError(t, svc.ExitFlashcardSession(testUser, ExitPlain, ""))

	// Reopening the saved deck reproduces the same card sequence.
	after, err := svc.StartDeckReview(testUser, deck.ID)
	require.NoError(t, err)
	require.Equal(t, before.CardCount, after.CardCount)
	assert.Equal(t, before.Cards, after.Cards)
	assert.False(t, after.Unsaved)
}

func TestSaveFailureKeepsSessionOpen(t *testing.T) {
	llm := &fakeFlowRunner{materials: GenerateStudyMaterialsOutput{
		Flashcards: []string{"Q - A"},
	}}
	svc, st := newStudyFixture(llm)
	st.failCreateDeck = true
	_, err := svc.GenerateFlashcards(context.Background(), testUser, "notes", "")
	require.NoError(t, err)

	err = svc.ExitFlashcardSession(testUser, ExitSave, "My Deck")
	require.Error(t, err)

	view, err := svc.ReviewSession(testUser)
	require.NoError(t, err)
	assert.True(t, view.Unsaved)
}

func TestManualDeckLifecycle(t *testing.T) {
	svc, st := newStudyFixture(nil)

	// Adding a card without a session opens a manual one.
	view, err := svc.AddManualCard(testUser, "q1", "a1")
	require.NoError(t, err)
	assert.Equal(t, "New Manual Deck", view.Title)
	assert.Equal(t, 1, view.CardCount)

	_, err = svc.AddManualCard(testUser, "q2", "a2")
	require.NoError(t, err)

	deck, err := svc.SaveFlashcardSession(testUser, "Chemistry")
	require.NoError(t, err)
	assert.Equal(t, "Chemistry", deck.Title)
	require.Len(t, st.decks, 1)
	assert.Len(t, st.decks[0].Cards, 2)

	// Saved session exits without a guard.
	require.NoError(t, svc.ExitFlashcardSession(testUser, ExitPlain, ""))
}

func TestGenerateQuizEndToEnd(t *testing.T) {
	llm := &fakeFlowRunner{materials: GenerateStudyMaterialsOutput{
		PracticeQuestions: sampleQuestions(1),
	}}
	svc, st := newStudyFixture(llm)

	view, err := svc.GenerateQuiz(context.Background(), testUser, "notes", "", 1)
	require.NoError(t, err)
	require.Equal(t, 1, view.QuestionCount)
	question := view.Questions[0]
	assert.Contains(t, question.Options, question.CorrectAnswer)

	_, err = svc.SelectQuizAnswer(testUser, question.ID, question.CorrectAnswer)
	require.NoError(t, err)
	result, err := svc.SubmitQuizAnswer(testUser)
	require.NoError(t, err)
	assert.True(t, result.Correct)

	view, err = svc.AdvanceQuiz(testUser)
	require.NoError(t, err)
	assert.Equal(t, QuizFinished, view.State)

	// Finishing records exactly one attempt at 100%.
	require.Len(t, st.attempts, 1)
	assert.Equal(t, 1, st.attempts[0].Score)
	assert.Equal(t, 1, st.attempts[0].TotalQuestions)
	assert.InDelta(t, 100.0, st.attempts[0].Percentage, 0.001)
}

func TestMidQuizExitRecordsAttempt(t *testing.T) {
	llm := &fakeFlowRunner{materials: GenerateStudyMaterialsOutput{
		PracticeQuestions: sampleQuestions(3),
	}}
	svc, st := newStudyFixture(llm)
	view, err := svc.GenerateQuiz(context.Background(), testUser, "notes", "", 3)
	require.NoError(t, err)

	question := view.Questions[0]
	_, err = svc.SelectQuizAnswer(testUser, question.ID, question.CorrectAnswer)
	require.NoError(t, err)
	_, err = svc.SubmitQuizAnswer(testUser)
	require.NoError(t, err)
	_, err = svc.AdvanceQuiz(testUser)
	require.NoError(t, err)

	// Abandon mid-pass: running score still lands in the history.
	require.NoError(t, svc.ExitQuizSession(testUser, ExitDiscard, ""))
	require.Len(t, st.attempts, 1)
	assert.Equal(t, 1, st.attempts[0].Score)
	assert.Equal(t, 3, st.attempts[0].TotalQuestions)
	assert.InDelta(t, 33.33, st.attempts[0].Percentage, 0.001)
}

func TestQuizSaveAttributesLaterAttemptsToDeck(t *testing.T) {
	llm := &fakeFlowRunner{materials: GenerateStudyMaterialsOutput{
		PracticeQuestions: sampleQuestions(1),
	}}
	svc, st := newStudyFixture(llm)
	view, err := svc.GenerateQuiz(context.Background(), testUser, "notes", "", 1)
	require.NoError(t, err)

	deck, err := svc.SaveQuizSession(testUser, "Saved Quiz")
	require.NoError(t, err)

	question := view.Questions[0]
	_, err = svc.SelectQuizAnswer(testUser, question.ID, "wrong answer")
	require.NoError(t, err)
	_, err = svc.SubmitQuizAnswer(testUser)
	require.NoError(t, err)
	_, err = svc.AdvanceQuiz(testUser)
	require.NoError(t, err)

	require.Len(t, st.attempts, 1)
	assert.Equal(t, deck.ID, st.attempts[0].DeckID)
	assert.Equal(t, "Saved Quiz", st.attempts[0].DeckTitle)
}

func TestExitModesValidation(t *testing.T) {
	svc, st := newStudyFixture(nil)
	deck, err := st.CreateFlashcardDeck(testUser, "Biology", "", sampleCards(1))
	require.NoError(t, err)
	_, err = svc.StartDeckReview(testUser, deck.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ExitFlashcardSession(testUser, "maybe", ""), ErrInvalidMode)
	assert.ErrorIs(t, svc.ExitFlashcardSession(2, ExitPlain, ""), ErrNoActiveSession)
}
