package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/studybeam/studybeam-api/internal/core"
)

func (h *APIHandler) ListNotesHandler(w http.ResponseWriter, r *http.Request) {
	notes, err := h.notes.List(userID(r))
	if err != nil {
		log.Printf("Error listing notes for user %d: %v", userID(r), err)
		http.Error(w, "Failed to load notes", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(notes)
}

type NoteRequest struct {
	Title          string   `json:"title"`
	Summary        string   `json:"summary"`
	SourceFileName string   `json:"source_file_name,omitempty"`
	Tags           []string `json:"tags,omitempty"`
}

func (h *APIHandler) CreateNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.Summary == "" {
		http.Error(w, "Title and summary are required", http.StatusBadRequest)
		return
	}

	note, err := h.notes.Create(userID(r), req.Title, req.Summary, req.SourceFileName, req.Tags)
	if err != nil {
		log.Printf("Error creating note for user %d: %v", userID(r), err)
		http.Error(w, "Could not save the note", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(note)
}

func (h *APIHandler) GetNoteHandler(w http.ResponseWriter, r *http.Request) {
	note, err := h.notes.Get(chi.URLParam(r, "noteID"), userID(r))
	if err != nil {
		log.Printf("Error getting note for user %d: %v", userID(r), err)
		http.Error(w, "Failed to load the note", http.StatusInternalServerError)
		return
	}
	if note == nil {
		http.Error(w, "Note not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(note)
}

func (h *APIHandler) UpdateNoteHandler(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	note, err := h.notes.Update(chi.URLParam(r, "noteID"), userID(r), req.Title, req.Summary, req.Tags)
	if err != nil {
		if errors.Is(err, core.ErrNoteNotFound) {
			http.Error(w, "Note not found", http.StatusNotFound)
			return
		}
		log.Printf("Error updating note for user %d: %v", userID(r), err)
		http.Error(w, "Could not update the note", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(note)
}

func (h *APIHandler) DeleteNoteHandler(w http.ResponseWriter, r *http.Request) {
	err := h.notes.Delete(chi.URLParam(r, "noteID"), userID(r))
	if err != nil {
		if errors.Is(err, core.ErrNoteNotFound) {
			http.Error(w, "Note not found", http.StatusNotFound)
			return
		}
		log.Printf("Error deleting note for user %d: %v", userID(r), err)
		http.Error(w, "Could not delete the note", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
