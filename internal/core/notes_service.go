package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/studybeam/studybeam-api/internal/store"
)

var ErrNoteNotFound = errors.New("note not found")

type NotesStore interface {
	CreateNote(userID int64, title, summary, sourceFileName string, tags []string) (*store.Note, error)
	GetNote(noteID string, userID int64) (*store.Note, error)
	ListNotes(userID int64, limit int) ([]store.Note, error)
	UpdateNote(noteID string, userID int64, title, summary string, tags []string) error
	DeleteNote(noteID string, userID int64) error
}

type NotesService struct {
	store NotesStore
}

func NewNotesService(st NotesStore) *NotesService {
	return &NotesService{store: st}
}

func (s *NotesService) List(userID int64) ([]store.Note, error) {
	return s.store.ListNotes(userID, 0)
}

func (s *NotesService) Get(noteID string, userID int64) (*store.Note, error) {
	return s.store.GetNote(noteID, userID)
}

func (s *NotesService) Create(userID int64, title, summary, sourceFileName string, tags []string) (*store.Note, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("note title is required")
	}
	if strings.TrimSpace(summary) == "" {
		return nil, fmt.Errorf("note summary is required")
	}
	return s.store.CreateNote(userID, title, summary, sourceFileName, tags)
}

func (s *NotesService) Update(noteID string, userID int64, title, summary string, tags []string) (*store.Note, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("note title is required")
	}
	if err := s.store.UpdateNote(noteID, userID, title, summary, tags); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}
	return s.store.GetNote(noteID, userID)
}

func (s *NotesService) Delete(noteID string, userID int64) error {
	if err := s.store.DeleteNote(noteID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNoteNotFound
		}
		return err
	}
	return nil
}
