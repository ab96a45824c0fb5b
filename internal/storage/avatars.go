// Package storage holds user-uploaded blobs. Avatars are keyed
// <userID>/<filename>; uploading returns a URL the browser can fetch.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// BlobStore is the object-storage contract: write-once-per-upload, keyed
// by owner and filename.
type BlobStore interface {
	SaveAvatar(userID int64, fileName string, r io.Reader) (url string, err error)
}

// DiskStore keeps blobs under a local directory, served by the HTTP layer
// under baseURL.
type DiskStore struct {
	dir     string
	baseURL string
}

func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create avatar directory: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Dir exposes the backing directory so the router can mount a file server
// over it.
func (s *DiskStore) Dir() string {
	return s.dir
}

func (s *DiskStore) SaveAvatar(userID int64, fileName string, r io.Reader) (string, error) {
	fileName = sanitizeFileName(fileName)
	if fileName == "" {
		return "", fmt.Errorf("invalid file name")
	}

	userDir := filepath.Join(s.dir, strconv.FormatInt(userID, 10))
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create user avatar directory: %w", err)
	}

	path := filepath.Join(userDir, fileName)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create avatar file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write avatar file: %w", err)
	}

	return fmt.Sprintf("%s/static/avatars/%d/%s", s.baseURL, userID, fileName), nil
}

// sanitizeFileName strips any path components so uploads cannot escape the
// avatar directory.
func sanitizeFileName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}
