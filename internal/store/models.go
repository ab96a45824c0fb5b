package store

import "time"

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	AvatarURL    string    `json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Card is a single flashcard inside a deck. IDs are client-visible
// integers, unique within the deck only.
type Card struct {
	ID       int64  `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FlashcardDeck embeds its full card array, stored as a JSON column.
type FlashcardDeck struct {
	ID          string    `json:"id"`
	UserID      int64     `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Cards       []Card    `json:"cards"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// QuizQuestion carries 3-5 options; CorrectAnswer must equal one of them.
type QuizQuestion struct {
	ID            int64    `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation,omitempty"`
}

type QuizDeck struct {
	ID          string         `json:"id"`
	UserID      int64          `json:"user_id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Questions   []QuizQuestion `json:"questions"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// QuizAttempt is immutable once written. DeckID may be a synthetic
// "temp-<ms>" value when the quiz was taken before the deck was saved,
// and DeckTitle is a snapshot, deliberately decoupled from the live deck.
type QuizAttempt struct {
	ID             string    `json:"id"`
	UserID         int64     `json:"user_id"`
	DeckID         string    `json:"deck_id"`
	DeckTitle      string    `json:"deck_title"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     float64   `json:"percentage"`
	CompletedAt    time.Time `json:"completed_at"`
}

type Note struct {
	ID             string    `json:"id"`
	UserID         int64     `json:"user_id"`
	Title          string    `json:"title"`
	Summary        string    `json:"summary"` // Markdown
	SourceFileName string    `json:"source_file_name,omitempty"`
	Tags           []string  `json:"tags"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ChatMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user" or "ai"
	Text      string    `json:"text"`
	FileName  string    `json:"fileName,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatSession embeds its messages as a JSON column; messages are
// append-only, individual messages are never edited or deleted.
type ChatSession struct {
	ID        string        `json:"id"`
	UserID    int64         `json:"user_id"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
