package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/studybeam/studybeam-api/internal/core"
	"github.com/studybeam/studybeam-api/internal/store"
)

// Flashcard deck CRUD

func (h *APIHandler) ListDecksHandler(w http.ResponseWriter, r *http.Request) {
	decks, err := h.study.ListFlashcardDecks(userID(r))
	if err != nil {
		log.Printf("Error listing decks for user %d: %v", userID(r), err)
		http.Error(w, "Failed to load flashcard decks", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(decks)
}

type CreateDeckRequest struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Cards       []store.Card `json:"cards"`
}

func (h *APIHandler) CreateDeckHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "Deck title is required", http.StatusBadRequest)
		return
	}

	deck, err := h.study.CreateFlashcardDeck(userID(r), req.Title, req.Description, req.Cards)
	if err != nil {
		log.Printf("Error creating deck for user %d: %v", userID(r), err)
		http.Error(w, "Failed to save the deck", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(deck)
}

func (h *APIHandler) GetDeckHandler(w http.ResponseWriter, r *http.Request) {
	deck, err := h.study.GetFlashcardDeck(chi.URLParam(r, "deckID"), userID(r))
	if err != nil {
		log.Printf("Error getting deck for user %d: %v", userID(r), err)
		http.Error(w, "Failed to load the deck", http.StatusInternalServerError)
		return
	}
	if deck == nil {
		http.Error(w, "Deck not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(deck)
}

func (h *APIHandler) DeleteDeckHandler(w http.ResponseWriter, r *http.Request) {
	err := h.study.DeleteFlashcardDeck(chi.URLParam(r, "deckID"), userID(r))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Deck not found", http.StatusNotFound)
			return
		}
		log.Printf("Error deleting deck for user %d: %v", userID(r), err)
		http.Error(w, "Failed to delete the deck", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Quiz deck CRUD

func (h *APIHandler) ListQuizDecksHandler(w http.ResponseWriter, r *http.Request) {
	decks, err := h.study.ListQuizDecks(userID(r))
	if err != nil {
		log.Printf("Error listing quiz decks for user %d: %v", userID(r), err)
		http.Error(w, "Failed to load quiz decks", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(decks)
}

type CreateQuizDeckRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Questions   []store.QuizQuestion `json:"questions"`
}

func (h *APIHandler) CreateQuizDeckHandler(w http.ResponseWriter, r *http.Request) {
	var req CreateQuizDeckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "Quiz deck title is required", http.StatusBadRequest)
		return
	}

	deck, err := h.study.CreateQuizDeck(userID(r), req.Title, req.Description, req.Questions)
	if err != nil {
		log.Printf("Error creating quiz deck for user %d: %v", userID(r), err)
		http.Error(w, "Failed to save the quiz deck", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(deck)
}

func (h *APIHandler) GetQuizDeckHandler(w http.ResponseWriter, r *http.Request) {
	deck, err := h.study.GetQuizDeck(chi.URLParam(r, "quizID"), userID(r))
	if err != nil {
		log.Printf("Error getting quiz deck for user %d: %v", userID(r), err)
		http.Error(w, "Failed to load the quiz deck", http.StatusInternalServerError)
		return
	}
	if deck == nil {
		http.Error(w, "Quiz deck not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(deck)
}

func (h *APIHandler) DeleteQuizDeckHandler(w http.ResponseWriter, r *http.Request) {
	err := h.study.DeleteQuizDeck(chi.URLParam(r, "quizID"), userID(r))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Quiz deck not found", http.StatusNotFound)
			return
		}
		log.Printf("Error deleting quiz deck for user %d: %v", userID(r), err)
		http.Error(w, "Failed to delete the quiz deck", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) ListAttemptsHandler(w http.ResponseWriter, r *http.Request) {
	attempts, err := h.study.ListQuizAttempts(userID(r))
	if err != nil {
		log.Printf("Error listing attempts for user %d: %v", userID(r), err)
		http.Error(w, "Failed to load quiz attempts", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(attempts)
}

func (h *APIHandler) ProgressHandler(w http.ResponseWriter, r *http.Request) {
	report, err := h.progress.Report(userID(r))
	if err != nil {
		log.Printf("Error building progress report for user %d: %v", userID(r), err)
		http.Error(w, "Failed to load progress", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(report)
}

// Generation

type GenerateRequest struct {
	LectureNotes      string `json:"lecture_notes"`
	NumberOfQuestions int    `json:"number_of_questions,omitempty"`
	FileName          string `json:"file_name,omitempty"`
	// SaveSummary stores the generated summary as a note.
	SaveSummary bool `json:"save_summary,omitempty"`
}

// GenerateHandler runs the raw materials flow (upload page): flashcard
// strings, summary, and practice questions, without opening a session.
// With save_summary set, the summary is also stored as a note; a failed
// note write is logged but does not fail the generation.
func (h *APIHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.LectureNotes == "" {
		http.Error(w, "Lecture notes are required", http.StatusBadRequest)
		return
	}

	out, err := h.study.GenerateMaterials(r.Context(), core.GenerateStudyMaterialsInput{
		LectureNotes:      req.LectureNotes,
		NumberOfQuestions: req.NumberOfQuestions,
	})
	if err != nil {
		log.Printf("Error generating study materials for user %d: %v", userID(r), err)
		http.Error(w, "Could not generate study materials", http.StatusInternalServerError)
		return
	}

	if req.SaveSummary && out.Summary != "" {
		title := "Summary of Lecture Notes"
		if req.FileName != "" {
			title = "Summary of " + req.FileName
		}
		tags := []string{"Summary", "AI Generated", time.Now().Format("2006-01-02")}
		if _, err := h.notes.Create(userID(r), title, out.Summary, req.FileName, tags); err != nil {
			log.Printf("Error saving summary note for user %d: %v", userID(r), err)
		}
	}

	json.NewEncoder(w).Encode(out)
}

// Flashcard review session

type StartReviewRequest struct {
	DeckID       string `json:"deck_id,omitempty"`
	LectureNotes string `json:"lecture_notes,omitempty"`
	FileName     string `json:"file_name,omitempty"`
	Manual       bool   `json:"manual,omitempty"`
}

func (h *APIHandler) StartReviewHandler(w http.ResponseWriter, r *http.Request) {
	var req StartReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	var view core.ReviewSessionView
	var err error
	switch {
	case req.DeckID != "":
		view, err = h.study.StartDeckReview(userID(r), req.DeckID)
	case req.LectureNotes != "":
		view, err = h.study.GenerateFlashcards(r.Context(), userID(r), req.LectureNotes, req.FileName)
	case req.Manual:
		view = h.study.StartManualDeck(userID(r))
	default:
		http.Error(w, "Provide a deck_id, lecture_notes, or manual=true", http.StatusBadRequest)
		return
	}
	if err != nil {
		if errors.Is(err, core.ErrNoMaterials) {
			http.Error(w, "The AI couldn't generate flashcards from the provided text", http.StatusUnprocessableEntity)
			return
		}
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(view)
}

func (h *APIHandler) GetReviewHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.study.ReviewSession(userID(r))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	json.NewEncoder(w).Encode(view)
}

func (h *APIHandler) NextCardHandler(w http.ResponseWriter, r *http.Request) {
	h.reviewOp(w, r, h.study.NextCard)
}

func (h *APIHandler) PreviousCardHandler(w http.ResponseWriter, r *http.Request) {
	h.reviewOp(w, r, h.study.PreviousCard)
}

func (h *APIHandler) FlipCardHandler(w http.ResponseWriter, r *http.Request) {
	h.reviewOp(w, r, h.study.FlipCard)
}

func (h *APIHandler) reviewOp(w http.ResponseWriter, r *http.Request, op func(int64) (core.ReviewSessionView, error)) {
	view, err := op(userID(r))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	json.NewEncoder(w).Encode(view)
}

type AddCardRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (h *APIHandler) AddCardHandler(w http.ResponseWriter, r *http.Request) {
	var req AddCardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Question == "" || req.Answer == "" {
		http.Error(w, "Question and answer cannot be empty", http.StatusBadRequest)
		return
	}

	view, err := h.study.AddManualCard(userID(r), req.Question, req.Answer)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	json.NewEncoder(w).Encode(view)
}

type SaveSessionRequest struct {
	Title string `json:"title"`
}

func (h *APIHandler) SaveReviewHandler(w http.ResponseWriter, r *http.Request) {
	var req SaveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	deck, err := h.study.SaveFlashcardSession(userID(r), req.Title)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(deck)
}

type ExitSessionRequest struct {
	// Mode is "", "save", or "discard". A plain exit is refused with 409
	// while unsaved non-empty content is present.
	Mode  string `json:"mode,omitempty"`
	Title string `json:"title,omitempty"`
}

func (h *APIHandler) ExitReviewHandler(w http.ResponseWriter, r *http.Request) {
	var req ExitSessionRequest
	if r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	if err := h.study.ExitFlashcardSession(userID(r), req.Mode, req.Title); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Quiz session

type StartQuizRequest struct {
	DeckID            string `json:"deck_id,omitempty"`
	LectureNotes      string `json:"lecture_notes,omitempty"`
	FileName          string `json:"file_name,omitempty"`
	NumberOfQuestions int    `json:"number_of_questions,omitempty"`
}

func (h *APIHandler) StartQuizHandler(w http.ResponseWriter, r *http.Request) {
	var req StartQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	var view core.QuizSessionView
	var err error
	switch {
	case req.DeckID != "":
		view, err = h.study.StartQuiz(userID(r), req.DeckID)
	case req.LectureNotes != "":
		view, err = h.study.GenerateQuiz(r.Context(), userID(r), req.LectureNotes, req.FileName, req.NumberOfQuestions)
	default:
		http.Error(w, "Provide a deck_id or lecture_notes", http.StatusBadRequest)
		return
	}
	if err != nil {
		if errors.Is(err, core.ErrNoMaterials) {
			http.Error(w, "The AI couldn't generate quiz questions from the provided text", http.StatusUnprocessableEntity)
			return
		}
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(view)
}

func (h *APIHandler) GetQuizHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.study.QuizSession(userID(r))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	json.NewEncoder(w).Encode(view)
}

type SelectAnswerRequest struct {
	QuestionID int64  `json:"question_id"`
	Answer     string `json:"answer"`
}

func (h *APIHandler) SelectAnswerHandler(w http.ResponseWriter, r *http.Request) {
	var req SelectAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Answer == "" {
		http.Error(w, "An answer is required", http.StatusBadRequest)
		return
	}

	view, err := h.study.SelectQuizAnswer(userID(r), req.QuestionID, req.Answer)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	json.NewEncoder(w).Encode(view)
}

func (h *APIHandler) SubmitAnswerHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.study.SubmitQuizAnswer(userID(r))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	json.NewEncoder(w).Encode(result)
}

func (h *APIHandler) AdvanceQuizHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.study.AdvanceQuiz(userID(r))
	if err != nil {
		writeSessionError(w, err)
		return
	}
	json.NewEncoder(w).Encode(view)
}

func (h *APIHandler) SaveQuizHandler(w http.ResponseWriter, r *http.Request) {
	var req SaveSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	deck, err := h.study.SaveQuizSession(userID(r), req.Title)
	if err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(deck)
}

func (h *APIHandler) ExitQuizHandler(w http.ResponseWriter, r *http.Request) {
	var req ExitSessionRequest
	if r.Body != http.NoBody {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
	}

	if err := h.study.ExitQuizSession(userID(r), req.Mode, req.Title); err != nil {
		writeSessionError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
