package core

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/studybeam/studybeam-api/internal/store"
)

type QuizState string

const (
	QuizOngoing   QuizState = "ongoing"
	QuizSubmitted QuizState = "submitted"
	QuizFinished  QuizState = "finished"
)

var (
	ErrAnswerRequired   = errors.New("an answer must be selected before submitting")
	ErrAlreadySubmitted = errors.New("current question was already submitted")
	ErrNotSubmitted     = errors.New("submit the current question before advancing")
	ErrQuizFinished     = errors.New("quiz is already finished")
)

// QuizSession is the in-memory state of one quiz pass. Per-question flow is
// ongoing -> submitted; advancing returns to ongoing, or to finished on the
// last question.
type QuizSession struct {
	mu sync.Mutex

	deckID    string
	title     string
	unsaved   bool
	questions []store.QuizQuestion
	index     int
	selected  map[int64]string
	score     int
	state     QuizState

	sourceFileName string
}

type QuizSessionView struct {
	DeckID        string               `json:"deck_id,omitempty"`
	Title         string               `json:"title"`
	Unsaved       bool                 `json:"unsaved"`
	State         QuizState            `json:"state"`
	Index         int                  `json:"index"`
	Score         int                  `json:"score"`
	QuestionCount int                  `json:"question_count"`
	Questions     []store.QuizQuestion `json:"questions"`
	Selected      map[int64]string     `json:"selected"`
}

type SubmitResult struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation,omitempty"`
	Score         int    `json:"score"`
}

func NewQuizFromDeck(deck *store.QuizDeck) *QuizSession {
	questions := make([]store.QuizQuestion, len(deck.Questions))
	copy(questions, deck.Questions)
	return &QuizSession{
		deckID:    deck.ID,
		title:     deck.Title,
		questions: questions,
		selected:  make(map[int64]string),
		state:     QuizOngoing,
	}
}

func NewQuizFromGeneration(questions []store.QuizQuestion, sourceFileName string) *QuizSession {
	return &QuizSession{
		title:          generatedTitle(sourceFileName, titleAIQuiz),
		unsaved:        true,
		questions:      questions,
		selected:       make(map[int64]string),
		state:          QuizOngoing,
		sourceFileName: sourceFileName,
	}
}

func (s *QuizSession) View() QuizSessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	questions := make([]store.QuizQuestion, len(s.questions))
	copy(questions, s.questions)
	selected := make(map[int64]string, len(s.selected))
	for k, v := range s.selected {
		selected[k] = v
	}
	return QuizSessionView{
		DeckID:        s.deckID,
		Title:         s.title,
		Unsaved:       s.unsaved,
		State:         s.state,
		Index:         s.index,
		Score:         s.score,
		QuestionCount: len(s.questions),
		Questions:     questions,
		Selected:      selected,
	}
}

// SelectAnswer records the user's pick for the current question. Selection
// is only possible while the question is still ongoing.
func (s *QuizSession) SelectAnswer(questionID int64, answer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) == 0 {
		return ErrEmptySession
	}
	switch s.state {
	case QuizFinished:
		return ErrQuizFinished
	case QuizSubmitted:
		return ErrAlreadySubmitted
	}
	s.selected[questionID] = answer
	return nil
}

// Submit grades the current question and moves it to submitted. The running
// score increments when the selected answer equals the correct one.
func (s *QuizSession) Submit() (SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) == 0 {
		return SubmitResult{}, ErrEmptySession
	}
	switch s.state {
	case QuizFinished:
		return SubmitResult{}, ErrQuizFinished
	case QuizSubmitted:
		return SubmitResult{}, ErrAlreadySubmitted
	}

	question := s.questions[s.index]
	answer, ok := s.selected[question.ID]
	if !ok || answer == "" {
		return SubmitResult{}, ErrAnswerRequired
	}

	s.state = QuizSubmitted
	correct := answer == question.CorrectAnswer
	if correct {
		s.score++
	}
	return SubmitResult{
		Correct:       correct,
		CorrectAnswer: question.CorrectAnswer,
		Explanation:   question.Explanation,
		Score:         s.score,
	}, nil
}

// Advance moves past a submitted question: to the next one, or to finished
// when it was the last. Returns true when the quiz finished.
func (s *QuizSession) Advance() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.questions) == 0 {
		return false, ErrEmptySession
	}
	switch s.state {
	case QuizFinished:
		return false, ErrQuizFinished
	case QuizOngoing:
		return false, ErrNotSubmitted
	}

	if s.index < len(s.questions)-1 {
		s.index++
		s.state = QuizOngoing
		return false, nil
	}
	s.state = QuizFinished
	return true, nil
}

func (s *QuizSession) SuggestedName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case strings.HasPrefix(s.title, titleAIPrefix):
		return s.title[len(titleAIPrefix):]
	case s.title != "":
		return s.title
	default:
		return fallbackQuizName
	}
}

func (s *QuizSession) QuestionsSnapshot() []store.QuizQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	questions := make([]store.QuizQuestion, len(s.questions))
	copy(questions, s.questions)
	return questions
}

func (s *QuizSession) Description() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sourceFileName != "" {
		return "Generated from " + s.sourceFileName
	}
	return "Generated on " + time.Now().Format("Jan 2, 2006")
}

func (s *QuizSession) MarkSaved(deckID, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deckID = deckID
	s.title = title
	s.unsaved = false
	s.sourceFileName = ""
}

func (s *QuizSession) NeedsExitGuard() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unsaved && len(s.questions) > 0
}

// AttemptRecord builds the immutable attempt row for the current score. An
// unsaved deck gets a synthetic temp-<ms> ID; the title is a snapshot,
// deliberately decoupled from any live deck.
func (s *QuizSession) AttemptRecord(userID int64) store.QuizAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	deckID := s.deckID
	if deckID == "" {
		deckID = "temp-" + strconv.FormatInt(time.Now().UnixMilli(), 10)
	}
	total := len(s.questions)
	percentage := 0.0
	if total > 0 {
		percentage = math.Round(float64(s.score)/float64(total)*100*100) / 100
	}
	return store.QuizAttempt{
		UserID:         userID,
		DeckID:         deckID,
		DeckTitle:      s.title,
		Score:          s.score,
		TotalQuestions: total,
		Percentage:     percentage,
	}
}

// ShouldRecordExitAttempt reports whether an exit right now must still
// record the running score: the quiz was in progress, not finished.
func (s *QuizSession) ShouldRecordExitAttempt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == QuizOngoing && len(s.questions) > 0
}
