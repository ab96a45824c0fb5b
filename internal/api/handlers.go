package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/studybeam/studybeam-api/internal/auth"
	"github.com/studybeam/studybeam-api/internal/core"
	"github.com/studybeam/studybeam-api/internal/storage"
	"github.com/studybeam/studybeam-api/internal/store"
)

// UserStore is the user slice of the persistence layer.
type UserStore interface {
	GetUserByEmail(email string) (*store.User, error)
	GetUserByID(id int64) (*store.User, error)
	CreateUser(email, name, passwordHash string) (*store.User, error)
	UpdateUserProfile(id int64, name, avatarURL string) error
}

type APIHandler struct {
	users    UserStore
	study    *core.StudyService
	chat     *core.ChatService
	notes    *core.NotesService
	progress *core.ProgressService
	llm      core.FlowRunner
	blobs    storage.BlobStore
}

func NewAPIHandler(users UserStore, study *core.StudyService, chat *core.ChatService, notes *core.NotesService, progress *core.ProgressService, llm core.FlowRunner, blobs storage.BlobStore) *APIHandler {
	return &APIHandler{
		users:    users,
		study:    study,
		chat:     chat,
		notes:    notes,
		progress: progress,
		llm:      llm,
		blobs:    blobs,
	}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		email, err := auth.ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		user, err := h.users.GetUserByEmail(email)
		if err != nil {
			log.Printf("Error in JWTAuthMiddleware for user %s: %v", email, err)
			http.Error(w, "Failed to process user identity", http.StatusInternalServerError)
			return
		}

		if user == nil {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "userID", user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) int64 {
	return r.Context().Value("userID").(int64)
}

type SignupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	existing, err := h.users.GetUserByEmail(req.Email)
	if err != nil {
		log.Printf("Error checking user %s: %v", req.Email, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, "An account with this email already exists", http.StatusConflict)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password for user %s: %v", req.Email, err)
		http.Error(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	user, err := h.users.CreateUser(req.Email, req.Name, hashedPassword)
	if err != nil {
		log.Printf("Error creating user %s: %v", req.Email, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.Email == "" || req.Password == "" {
		http.Error(w, "Email and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByEmail(req.Email)
	if err != nil {
		log.Printf("Error getting user %s: %v", req.Email, err)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(req.Email)
	if err != nil {
		log.Printf("Error generating JWT for user %s: %v", req.Email, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

// writeSessionError maps session-machine errors onto HTTP statuses. The
// two guard errors come back as 409 with a machine-readable reason and the
// suggested deck name, so the client can run the save/discard round trip.
func writeSessionError(w http.ResponseWriter, err error) {
	var nameRequired *core.NameRequiredError
	var unsaved *core.UnsavedSessionError

	switch {
	case errors.As(err, &nameRequired):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error":          nameRequired.Error(),
			"reason":         "name_required",
			"suggested_name": nameRequired.Suggested,
		})
	case errors.As(err, &unsaved):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error":          unsaved.Error(),
			"reason":         "unsaved_session",
			"suggested_name": unsaved.Suggested,
		})
	case errors.Is(err, core.ErrNoActiveSession), errors.Is(err, core.ErrDeckNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, core.ErrEmptySession),
		errors.Is(err, core.ErrAnswerRequired),
		errors.Is(err, core.ErrAlreadySubmitted),
		errors.Is(err, core.ErrNotSubmitted),
		errors.Is(err, core.ErrQuizFinished),
		errors.Is(err, core.ErrInvalidMode):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("Session operation failed: %v", err)
		http.Error(w, "Operation failed", http.StatusInternalServerError)
	}
}
