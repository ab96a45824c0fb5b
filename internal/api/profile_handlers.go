package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/studybeam/studybeam-api/internal/store"
)

// maxAvatarSize bounds avatar uploads to 5 MiB.
const maxAvatarSize = 5 << 20

func (h *APIHandler) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetUserByID(userID(r))
	if err != nil {
		log.Printf("Error loading profile for user %d: %v", userID(r), err)
		http.Error(w, "Failed to load profile", http.StatusInternalServerError)
		return
	}
	if user == nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(user)
}

type UpdateProfileRequest struct {
	Name string `json:"name"`
}

func (h *APIHandler) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		http.Error(w, "Name cannot be empty", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByID(userID(r))
	if err != nil || user == nil {
		log.Printf("Error loading profile for user %d: %v", userID(r), err)
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	if err := h.users.UpdateUserProfile(user.ID, req.Name, user.AvatarURL); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		log.Printf("Error updating profile for user %d: %v", user.ID, err)
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	user.Name = req.Name
	json.NewEncoder(w).Encode(user)
}

// UploadAvatarHandler stores the uploaded image under the user's key and
// persists the resulting URL on the profile.
func (h *APIHandler) UploadAvatarHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		http.Error(w, "Invalid upload: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		http.Error(w, "An avatar file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	user, err := h.users.GetUserByID(userID(r))
	if err != nil || user == nil {
		log.Printf("Error loading profile for user %d: %v", userID(r), err)
		http.Error(w, "Failed to upload avatar", http.StatusInternalServerError)
		return
	}

	url, err := h.blobs.SaveAvatar(user.ID, header.Filename, file)
	if err != nil {
		log.Printf("Error storing avatar for user %d: %v", user.ID, err)
		http.Error(w, "Could not upload avatar", http.StatusInternalServerError)
		return
	}

	if err := h.users.UpdateUserProfile(user.ID, user.Name, url); err != nil {
		log.Printf("Error saving avatar URL for user %d: %v", user.ID, err)
		http.Error(w, "Could not upload avatar", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"avatar_url": url})
}
