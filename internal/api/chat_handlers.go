package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/studybeam/studybeam-api/internal/core"
	"github.com/studybeam/studybeam-api/internal/store"
)

func (h *APIHandler) ListChatsHandler(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.chat.ListSessions(userID(r))
	if err != nil {
		log.Printf("Error listing chats for user %d: %v", userID(r), err)
		http.Error(w, "Failed to load chat history", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(summaries)
}

func (h *APIHandler) GetChatHandler(w http.ResponseWriter, r *http.Request) {
	session, err := h.chat.GetSession(chi.URLParam(r, "chatID"), userID(r))
	if err != nil {
		log.Printf("Error getting chat for user %d: %v", userID(r), err)
		http.Error(w, "Failed to load chat messages", http.StatusInternalServerError)
		return
	}
	if session == nil {
		http.Error(w, "Chat not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(session)
}

type PostMessageRequest struct {
	Question    string `json:"question"`
	FileDataURI string `json:"fileDataUri,omitempty"`
	FileName    string `json:"fileName,omitempty"`
}

// CreateChatHandler starts a new session with the first message and the AI
// reply.
func (h *APIHandler) CreateChatHandler(w http.ResponseWriter, r *http.Request) {
	h.postMessage(w, r, "")
}

func (h *APIHandler) PostMessageHandler(w http.ResponseWriter, r *http.Request) {
	h.postMessage(w, r, chi.URLParam(r, "chatID"))
}

func (h *APIHandler) postMessage(w http.ResponseWriter, r *http.Request, chatID string) {
	var req PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Question == "" && req.FileDataURI == "" {
		http.Error(w, "Please enter a question or attach a file", http.StatusBadRequest)
		return
	}

	session, err := h.chat.SendMessage(r.Context(), userID(r), chatID, req.Question, req.FileDataURI, req.FileName)
	if err != nil {
		if errors.Is(err, core.ErrChatNotFound) {
			http.Error(w, "Chat not found", http.StatusNotFound)
			return
		}
		log.Printf("Error posting message for user %d, chat %s: %v", userID(r), chatID, err)
		http.Error(w, "Failed to post message", http.StatusInternalServerError)
		return
	}
	if chatID == "" {
		w.WriteHeader(http.StatusCreated)
	}
	json.NewEncoder(w).Encode(session)
}

func (h *APIHandler) DeleteChatHandler(w http.ResponseWriter, r *http.Request) {
	err := h.chat.DeleteSession(chi.URLParam(r, "chatID"), userID(r))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "Chat not found", http.StatusNotFound)
			return
		}
		log.Printf("Error deleting chat for user %d: %v", userID(r), err)
		http.Error(w, "Failed to delete the chat", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearChatsHandler deletes all of the user's sessions and reports how many
// went through, so a partial failure is not presented as all-or-nothing.
func (h *APIHandler) ClearChatsHandler(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.chat.ClearHistory(userID(r))
	resp := map[string]interface{}{"deleted": deleted}
	if err != nil {
		log.Printf("Error clearing chat history for user %d (deleted %d): %v", userID(r), deleted, err)
		resp["error"] = "Some chat sessions could not be deleted"
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(resp)
		return
	}
	json.NewEncoder(w).Encode(resp)
}

type SaveNoteFromChatRequest struct {
	ChatTitle  string `json:"chat_title,omitempty"`
	AnswerText string `json:"answer_text"`
}

func (h *APIHandler) SaveNoteFromChatHandler(w http.ResponseWriter, r *http.Request) {
	var req SaveNoteFromChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.AnswerText == "" {
		http.Error(w, "Answer text is required", http.StatusBadRequest)
		return
	}

	note, err := h.chat.SaveAnswerAsNote(userID(r), req.ChatTitle, req.AnswerText)
	if err != nil {
		log.Printf("Error saving note from chat for user %d: %v", userID(r), err)
		http.Error(w, "Could not save the note", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(note)
}

// AnswerHandler runs the one-shot answer flow without touching any chat
// session.
func (h *APIHandler) AnswerHandler(w http.ResponseWriter, r *http.Request) {
	var input core.AnswerQuestionsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := input.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	output, err := h.llm.AnswerQuestions(r.Context(), input)
	if err != nil {
		log.Printf("Error answering question for user %d: %v", userID(r), err)
		http.Error(w, "Could not generate an answer", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(output)
}
