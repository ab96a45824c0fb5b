package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/studybeam/studybeam-api/internal/store"
)

var ErrChatNotFound = errors.New("chat session not found")

// ChatStore is the slice of the persistence layer the chat service needs.
type ChatStore interface {
	CreateChatSession(userID int64, title string, messages []store.ChatMessage) (*store.ChatSession, error)
	GetChatSession(sessionID string, userID int64) (*store.ChatSession, error)
	ListChatSessions(userID int64, limit int) ([]store.ChatSession, error)
	AppendChatMessages(sessionID string, userID int64, newMessages ...store.ChatMessage) error
	DeleteChatSession(sessionID string, userID int64) error

	CreateNote(userID int64, title, summary, sourceFileName string, tags []string) (*store.Note, error)
}

type ChatService struct {
	store ChatStore
	llm   FlowRunner
}

func NewChatService(st ChatStore, llm FlowRunner) *ChatService {
	return &ChatService{store: st, llm: llm}
}

// ChatSessionSummary is the list-view shape: title plus a preview of the
// latest message.
type ChatSessionSummary struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	LastMessagePreview string    `json:"last_message_preview,omitempty"`
	MessageCount       int       `json:"message_count"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (s *ChatService) ListSessions(userID int64) ([]ChatSessionSummary, error) {
	sessions, err := s.store.ListChatSessions(userID, 0)
	if err != nil {
		return nil, err
	}

	summaries := make([]ChatSessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summary := ChatSessionSummary{
			ID:           session.ID,
			Title:        session.Title,
			MessageCount: len(session.Messages),
			UpdatedAt:    session.UpdatedAt,
		}
		if n := len(session.Messages); n > 0 {
			summary.LastMessagePreview = previewText(session.Messages[n-1].Text, 100)
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

func (s *ChatService) GetSession(sessionID string, userID int64) (*store.ChatSession, error) {
	return s.store.GetChatSession(sessionID, userID)
}

// SendMessage appends the user's message to a session (creating one when
// sessionID is empty), asks the answer flow for a reply, and appends that
// too. A failed AI call is stored as an apology message rather than failing
// the whole exchange, so the session stays consistent.
func (s *ChatService) SendMessage(ctx context.Context, userID int64, sessionID, question, fileDataURI, fileName string) (*store.ChatSession, error) {
	question = strings.TrimSpace(question)
	if question == "" && fileDataURI == "" {
		return nil, fmt.Errorf("a question or an attached file is required")
	}

	effectiveQuestion := question
	if effectiveQuestion == "" {
		effectiveQuestion = "Analyze this file: " + fileName
	}

	userMsg := store.ChatMessage{
		ID:        uuid.NewString(),
		Role:      "user",
		Text:      effectiveQuestion,
		FileName:  fileName,
		Timestamp: time.Now().UTC(),
	}

	if sessionID == "" {
		session, err := s.store.CreateChatSession(userID, deriveChatTitle(effectiveQuestion, fileName), []store.ChatMessage{userMsg})
		if err != nil {
			return nil, fmt.Errorf("failed to create chat session: %w", err)
		}
		sessionID = session.ID
	} else {
		session, err := s.store.GetChatSession(sessionID, userID)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, ErrChatNotFound
		}
		if err := s.store.AppendChatMessages(sessionID, userID, userMsg); err != nil {
			return nil, fmt.Errorf("failed to store user message: %w", err)
		}
	}

	aiText := ""
	result, err := s.llm.AnswerQuestions(ctx, AnswerQuestionsInput{
		Question:    effectiveQuestion,
		FileDataURI: fileDataURI,
		FileName:    fileName,
	})
	if err != nil {
		log.Printf("Error generating answer for chat %s: %v", sessionID, err)
		aiText = "Sorry, I encountered an error. Please try again."
	} else {
		aiText = result.Answer
	}

	aiMsg := store.ChatMessage{
		ID:        uuid.NewString(),
		Role:      "ai",
		Text:      aiText,
		Timestamp: time.Now().UTC(),
	}
	if err := s.store.AppendChatMessages(sessionID, userID, aiMsg); err != nil {
		return nil, fmt.Errorf("failed to store model message: %w", err)
	}

	return s.store.GetChatSession(sessionID, userID)
}

func (s *ChatService) DeleteSession(sessionID string, userID int64) error {
	return s.store.DeleteChatSession(sessionID, userID)
}

// ClearHistory deletes every chat session the user owns, one by one. The
// fan-out has no transactional atomicity; the deleted count is reported so
// a partial failure is visible to the caller instead of masked.
func (s *ChatService) ClearHistory(userID int64) (int, error) {
	sessions, err := s.store.ListChatSessions(userID, 0)
	if err != nil {
		return 0, err
	}

	deleted := 0
	var firstErr error
	for _, session := range sessions {
		if err := s.store.DeleteChatSession(session.ID, userID); err != nil {
			log.Printf("Failed to delete chat session %s for user %d: %v", session.ID, userID, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		deleted++
	}
	return deleted, firstErr
}

// SaveAnswerAsNote copies an AI answer into the user's notes.
func (s *ChatService) SaveAnswerAsNote(userID int64, chatTitle, answerText string) (*store.Note, error) {
	if strings.TrimSpace(answerText) == "" {
		return nil, fmt.Errorf("answer text is required")
	}

	titleBase := chatTitle
	if titleBase == "" || titleBase == "New Chat" {
		titleBase = previewText(answerText, 40)
	}
	if titleBase == "" {
		titleBase = "Chat"
	}

	source := "Chat Conversation"
	if chatTitle != "" && chatTitle != "New Chat" {
		source = chatTitle
	}

	tags := []string{"Chat", "AI Generated", time.Now().Format("2006-01-02")}
	return s.store.CreateNote(userID, "Note from: "+titleBase, answerText, source, tags)
}

// deriveChatTitle names a new session after its first message: the file
// name when one is attached, otherwise the first five words.
func deriveChatTitle(firstMessage, fileName string) string {
	if fileName != "" {
		return "Chat about " + fileName
	}
	words := strings.Fields(firstMessage)
	if len(words) > 5 {
		return strings.Join(words[:5], " ") + "..."
	}
	if firstMessage == "" {
		return "New Chat"
	}
	return firstMessage
}

func previewText(s string, max int) string {
	s = strings.TrimSpace(strings.Join(strings.Fields(s), " "))
	if len(s) > max {
		return s[:max]
	}
	return s
}
