package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studybeam/studybeam-api/internal/config"
	"github.com/studybeam/studybeam-api/internal/core"
	"github.com/studybeam/studybeam-api/internal/storage"
	"github.com/studybeam/studybeam-api/internal/store"
)

// fakeFlows satisfies core.FlowRunner without touching the model API.
type fakeFlows struct {
	answer    string
	materials core.GenerateStudyMaterialsOutput
}

func (f *fakeFlows) AnswerQuestions(ctx context.Context, in core.AnswerQuestionsInput) (core.AnswerQuestionsOutput, error) {
	return core.AnswerQuestionsOutput{Answer: f.answer}, nil
}

func (f *fakeFlows) GenerateStudyMaterials(ctx context.Context, in core.GenerateStudyMaterialsInput) (core.GenerateStudyMaterialsOutput, error) {
	return f.materials, nil
}

type testEnv struct {
	server *httptest.Server
	token  string
}

func newTestEnv(t *testing.T, flows *fakeFlows) *testEnv {
	t.Helper()
	config.AppConfig.JWTSecret = "test-secret"

	dbStore, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { dbStore.Close() })

	blobStore, err := storage.NewDiskStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	if flows == nil {
		flows = &fakeFlows{answer: "The answer."}
	}

	handler := NewAPIHandler(
		dbStore,
		core.NewStudyService(dbStore, flows),
		core.NewChatService(dbStore, flows),
		core.NewNotesService(dbStore),
		core.NewProgressService(dbStore),
		flows,
		blobStore,
	)
	server := httptest.NewServer(NewRouter(handler, blobStore.Dir()))
	t.Cleanup(server.Close)

	env := &testEnv{server: server}

	// Sign up and log in a default user.
	resp := env.do(t, http.MethodPost, "/api/signup", map[string]string{
		"email": "alice@example.com", "name": "Alice", "password": "secret123",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/login", map[string]string{
		"email": "alice@example.com", "password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
	resp.Body.Close()
	require.NotEmpty(t, login["token"])
	env.token = login["token"]

	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestUnauthenticatedRequestsRejected(t *testing.T) {
	env := newTestEnv(t, nil)

	req, err := http.NewRequest(http.MethodGet, env.server.URL+"/api/decks", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSignupDuplicateEmail(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.do(t, http.MethodPost, "/api/signup", map[string]string{
		"email": "alice@example.com", "password": "other",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestLoginWrongPassword(t *testing.T) {
	env := newTestEnv(t, nil)
	resp := env.do(t, http.MethodPost, "/api/login", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDeckCRUDOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPost, "/api/decks", CreateDeckRequest{
		Title: "Biology",
		Cards: []store.Card{{ID: 1, Question: "q", Answer: "a"}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var deck store.FlashcardDeck
	decode(t, resp, &deck)
	require.NotEmpty(t, deck.ID)

	resp = env.do(t, http.MethodGet, "/api/decks", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var decks []store.FlashcardDeck
	decode(t, resp, &decks)
	require.Len(t, decks, 1)
	assert.Equal(t, "Biology", decks[0].Title)

	resp = env.do(t, http.MethodGet, "/api/decks/"+deck.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodDelete, "/api/decks/"+deck.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/decks/"+deck.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestReviewSessionFlowOverHTTP(t *testing.T) {
	flows := &fakeFlows{materials: core.GenerateStudyMaterialsOutput{
		Flashcards: []string{"Q1 - A1", "Q2 - A2"},
	}}
	env := newTestEnv(t, flows)

	resp := env.do(t, http.MethodPost, "/api/review/flashcards", StartReviewRequest{
		LectureNotes: "some notes", FileName: "bio.pdf",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var view core.ReviewSessionView
	decode(t, resp, &view)
	assert.Equal(t, "New AI: bio", view.Title)
	assert.True(t, view.Unsaved)
	assert.Equal(t, 2, view.CardCount)

	resp = env.do(t, http.MethodPost, "/api/review/flashcards/next", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &view)
	assert.Equal(t, 1, view.Index)

	// Plain exit is refused while unsaved.
	resp = env.do(t, http.MethodPost, "/api/review/flashcards/exit", ExitSessionRequest{})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var guard map[string]string
	decode(t, resp, &guard)
	assert.Equal(t, "unsaved_session", guard["reason"])
	assert.Equal(t, "bio", guard["suggested_name"])

	// Saving without a title is refused with a suggestion.
	resp = env.do(t, http.MethodPost, "/api/review/flashcards/save", SaveSessionRequest{})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	decode(t, resp, &guard)
	assert.Equal(t, "name_required", guard["reason"])

	// Save-exit persists the deck and closes the session.
	resp = env.do(t, http.MethodPost, "/api/review/flashcards/exit", ExitSessionRequest{
		Mode: "save", Title: "My Bio Deck",
	})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/review/flashcards", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/decks", nil)
	var decks []store.FlashcardDeck
	decode(t, resp, &decks)
	require.Len(t, decks, 1)
	assert.Equal(t, "My Bio Deck", decks[0].Title)
}

func TestQuizSessionFlowOverHTTP(t *testing.T) {
	flows := &fakeFlows{materials: core.GenerateStudyMaterialsOutput{
		PracticeQuestions: []store.QuizQuestion{{
			Question:      "Pick alpha",
			Options:       []string{"alpha", "beta", "gamma"},
			CorrectAnswer: "alpha",
		}},
	}}
	env := newTestEnv(t, flows)

	resp := env.do(t, http.MethodPost, "/api/review/quiz", StartQuizRequest{
		LectureNotes: "some notes", NumberOfQuestions: 1,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var view core.QuizSessionView
	decode(t, resp, &view)
	require.Equal(t, 1, view.QuestionCount)
	questionID := view.Questions[0].ID

	// Submitting without a selection fails.
	resp = env.do(t, http.MethodPost, "/api/review/quiz/submit", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/review/quiz/answer", SelectAnswerRequest{
		QuestionID: questionID, Answer: "alpha",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodPost, "/api/review/quiz/submit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result core.SubmitResult
	decode(t, resp, &result)
	assert.True(t, result.Correct)
	assert.Equal(t, 1, result.Score)

	resp = env.do(t, http.MethodPost, "/api/review/quiz/advance", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &view)
	assert.Equal(t, core.QuizFinished, view.State)

	// Finishing recorded an attempt.
	resp = env.do(t, http.MethodGet, "/api/attempts", nil)
	var attempts []store.QuizAttempt
	decode(t, resp, &attempts)
	require.Len(t, attempts, 1)
	assert.InDelta(t, 100.0, attempts[0].Percentage, 0.001)

	// Finished quiz still guards a plain exit while unsaved.
	resp = env.do(t, http.MethodPost, "/api/review/quiz/exit", ExitSessionRequest{Mode: "discard"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()
}

func TestCreateQuizDeckOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPost, "/api/quizzes", CreateQuizDeckRequest{
		Title: "History",
		Questions: []store.QuizQuestion{{
			ID: 1, Question: "Pick alpha",
			Options: []string{"alpha", "beta", "gamma"}, CorrectAnswer: "alpha",
		}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var deck store.QuizDeck
	decode(t, resp, &deck)
	require.NotEmpty(t, deck.ID)

	resp = env.do(t, http.MethodGet, "/api/quizzes/"+deck.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &deck)
	assert.Equal(t, "History", deck.Title)
	assert.Len(t, deck.Questions, 1)
}

func TestGenerateWithSummaryNote(t *testing.T) {
	flows := &fakeFlows{materials: core.GenerateStudyMaterialsOutput{
		Flashcards: []string{"Q - A"},
		Summary:    "Key points of the lecture.",
	}}
	env := newTestEnv(t, flows)

	resp := env.do(t, http.MethodPost, "/api/generate", GenerateRequest{
		LectureNotes: "some notes", FileName: "bio.pdf", SaveSummary: true,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out core.GenerateStudyMaterialsOutput
	decode(t, resp, &out)
	assert.Equal(t, "Key points of the lecture.", out.Summary)

	resp = env.do(t, http.MethodGet, "/api/notes", nil)
	var notes []store.Note
	decode(t, resp, &notes)
	require.Len(t, notes, 1)
	assert.Equal(t, "Summary of bio.pdf", notes[0].Title)
	assert.Equal(t, "bio.pdf", notes[0].SourceFileName)
	assert.Contains(t, notes[0].Tags, "Summary")
}

func TestChatFlowOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPost, "/api/chats", PostMessageRequest{
		Question: "What is osmosis?",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var session store.ChatSession
	decode(t, resp, &session)
	require.Len(t, session.Messages, 2)
	assert.Equal(t, "The answer.", session.Messages[1].Text)

	resp = env.do(t, http.MethodPost, fmt.Sprintf("/api/chats/%s/messages", session.ID), PostMessageRequest{
		Question: "Tell me more",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &session)
	assert.Len(t, session.Messages, 4)

	resp = env.do(t, http.MethodPost, "/api/chats/save-note", SaveNoteFromChatRequest{
		ChatTitle: session.Title, AnswerText: "The answer.",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var note store.Note
	decode(t, resp, &note)
	assert.Equal(t, "Note from: "+session.Title, note.Title)

	resp = env.do(t, http.MethodDelete, "/api/chats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cleared map[string]int
	decode(t, resp, &cleared)
	assert.Equal(t, 1, cleared["deleted"])
}

func TestNotesCRUDOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodPost, "/api/notes", NoteRequest{
		Title: "Osmosis", Summary: "Water moves.", Tags: []string{"biology"},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var note store.Note
	decode(t, resp, &note)

	resp = env.do(t, http.MethodPut, "/api/notes/"+note.ID, NoteRequest{
		Title: "Osmosis v2", Summary: "Updated.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &note)
	assert.Equal(t, "Osmosis v2", note.Title)

	resp = env.do(t, http.MethodDelete, "/api/notes/"+note.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = env.do(t, http.MethodGet, "/api/notes/"+note.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestProfileOverHTTP(t *testing.T) {
	env := newTestEnv(t, nil)

	resp := env.do(t, http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var user store.User
	decode(t, resp, &user)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, "alice@example.com", user.Email)

	resp = env.do(t, http.MethodPut, "/api/profile", map[string]string{"name": "Alice B."})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &user)
	assert.Equal(t, "Alice B.", user.Name)
}
