package core

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/studybeam/studybeam-api/internal/store"
)

// maxRecentActivities caps the per-collection reads feeding the activity
// feed, matching the dashboard's recency queries.
const maxRecentActivities = 5

type ProgressStore interface {
	ListQuizAttempts(userID int64, limit int) ([]store.QuizAttempt, error)
	ListFlashcardDecks(userID int64, limit int) ([]store.FlashcardDeck, error)
	ListQuizDecks(userID int64, limit int) ([]store.QuizDeck, error)
	ListNotes(userID int64, limit int) ([]store.Note, error)
	ListChatSessions(userID int64, limit int) ([]store.ChatSession, error)
}

type ProgressService struct {
	store ProgressStore
}

func NewProgressService(st ProgressStore) *ProgressService {
	return &ProgressService{store: st}
}

type RecentActivityItem struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"` // "quiz", "note", "flashcards", "chat"
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type ProgressReport struct {
	Attempts         []store.QuizAttempt  `json:"attempts"`
	TotalAttempts    int                  `json:"total_attempts"`
	AveragePercent   float64              `json:"average_percent"`
	RecentActivities []RecentActivityItem `json:"recent_activities"`
}

// Report aggregates the progress page's data: every attempt newest-first,
// the average score across them, and a merged recency feed over decks,
// quizzes, notes, and chats.
func (s *ProgressService) Report(userID int64) (*ProgressReport, error) {
	attempts, err := s.store.ListQuizAttempts(userID, 0)
	if err != nil {
		return nil, err
	}

	report := &ProgressReport{
		Attempts:      attempts,
		TotalAttempts: len(attempts),
	}
	if len(attempts) > 0 {
		total := 0.0
		for _, a := range attempts {
			total += a.Percentage
		}
		report.AveragePercent = math.Round(total/float64(len(attempts))*100) / 100
	}

	activities, err := s.recentActivities(userID)
	if err != nil {
		return nil, err
	}
	report.RecentActivities = activities
	return report, nil
}

func (s *ProgressService) recentActivities(userID int64) ([]RecentActivityItem, error) {
	var items []RecentActivityItem

	attempts, err := s.store.ListQuizAttempts(userID, maxRecentActivities)
	if err != nil {
		return nil, err
	}
	for _, a := range attempts {
		items = append(items, RecentActivityItem{
			ID:          a.ID,
			Type:        "quiz",
			Title:       a.DeckTitle,
			Description: formatAttemptDescription(a),
			Timestamp:   a.CompletedAt,
		})
	}

	decks, err := s.store.ListFlashcardDecks(userID, maxRecentActivities)
	if err != nil {
		return nil, err
	}
	for _, d := range decks {
		items = append(items, RecentActivityItem{
			ID:        d.ID,
			Type:      "flashcards",
			Title:     d.Title,
			Timestamp: d.UpdatedAt,
		})
	}

	quizzes, err := s.store.ListQuizDecks(userID, maxRecentActivities)
	if err != nil {
		return nil, err
	}
	for _, q := range quizzes {
		items = append(items, RecentActivityItem{
			ID:        q.ID,
			Type:      "quiz",
			Title:     q.Title,
			Timestamp: q.UpdatedAt,
		})
	}

	notes, err := s.store.ListNotes(userID, maxRecentActivities)
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		items = append(items, RecentActivityItem{
			ID:        n.ID,
			Type:      "note",
			Title:     n.Title,
			Timestamp: n.UpdatedAt,
		})
	}

	chats, err := s.store.ListChatSessions(userID, maxRecentActivities)
	if err != nil {
		return nil, err
	}
	for _, c := range chats {
		items = append(items, RecentActivityItem{
			ID:        c.ID,
			Type:      "chat",
			Title:     c.Title,
			Timestamp: c.UpdatedAt,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Timestamp.After(items[j].Timestamp)
	})
	if len(items) > maxRecentActivities {
		items = items[:maxRecentActivities]
	}
	return items, nil
}

func formatAttemptDescription(a store.QuizAttempt) string {
	return fmt.Sprintf("Scored %d/%d (%.0f%%)", a.Score, a.TotalQuestions, a.Percentage)
}
