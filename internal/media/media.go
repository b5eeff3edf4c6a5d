// Package media stores product and option images on disk and builds their
// public URLs.
package media

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/Zhanbolat567/qoyu-coffee2/internal/config"
	"github.com/Zhanbolat567/qoyu-coffee2/internal/logger"
)

type Store struct {
	dir       string
	publicURL string
	log       *logger.Logger
}

func NewStore(cfg config.MediaConfig, log *logger.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create media dir: %w", err)
	}
	return &Store{dir: cfg.Dir, publicURL: strings.TrimRight(cfg.PublicURL, "/"), log: log}, nil
}

// Dir is the directory images are served from.
func (s *Store) Dir() string { return s.dir }

// Save writes the uploaded file under a random name and returns the stored
// filename.
func (s *Store) Save(file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create media file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("failed to write media file: %w", err)
	}
	s.log.Info("MEDIA", fmt.Sprintf("Stored image %s (%d bytes)", name, file.Size))
	return name, nil
}

// Remove deletes a stored file. Missing files are not an error.
func (s *Store) Remove(name string) {
	if name == "" {
		return
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		s.log.Warn("MEDIA", fmt.Sprintf("Failed to remove image %s: %v", name, err))
	}
}

// PublicURL maps a stored filename to its public URL; nil stays nil.
func (s *Store) PublicURL(name *string) *string {
	if name == nil || *name == "" {
		return nil
	}
	url := s.publicURL + "/" + *name
	return &url
}
