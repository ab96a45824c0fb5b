package core

import "sync"

// SessionRegistry holds the active study sessions, at most one flashcard
// review and one quiz per user. Sessions are in-memory only; restarting the
// server drops them, which is acceptable because nothing is persisted until
// an explicit save.
type SessionRegistry struct {
	mu      sync.Mutex
	reviews map[int64]*ReviewSession
	quizzes map[int64]*QuizSession
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		reviews: make(map[int64]*ReviewSession),
		quizzes: make(map[int64]*QuizSession),
	}
}

func (r *SessionRegistry) Review(userID int64) (*ReviewSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.reviews[userID]
	return s, ok
}

func (r *SessionRegistry) SetReview(userID int64, s *ReviewSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reviews[userID] = s
}

func (r *SessionRegistry) DropReview(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.reviews, userID)
}

func (r *SessionRegistry) Quiz(userID int64) (*QuizSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.quizzes[userID]
	return s, ok
}

func (r *SessionRegistry) SetQuiz(userID int64, s *QuizSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.quizzes[userID] = s
}

func (r *SessionRegistry) DropQuiz(userID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.quizzes, userID)
}
