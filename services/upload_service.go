package services

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"

	"bandchat/models"
	"bandchat/repository"
)

type UploadService struct {
	uploads  repository.UploadRepository
	maxBytes int64
}

func NewUploadService(up repository.UploadRepository, maxBytes int64) *UploadService {
	return &UploadService{uploads: up, maxBytes: maxBytes}
}

// Store reads r in full and saves it as name. An empty content type is
// sniffed from the first bytes.
func (s *UploadService) Store(name, contentType string, r io.Reader) (models.AttachmentRef, error) {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return models.AttachmentRef{}, fmt.Errorf("%w: file name is required", ErrInvalid)
	}

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return models.AttachmentRef{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return models.AttachmentRef{}, fmt.Errorf("%w: upload exceeds %d bytes", ErrTooLarge, s.maxBytes)
	}
	if len(data) == 0 {
		return models.AttachmentRef{}, fmt.Errorf("%w: empty upload", ErrInvalid)
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return s.uploads.Save(name, contentType, data)
}

// Open returns a stored upload by locator.
func (s *UploadService) Open(locator string) (*repository.Blob, error) {
	b, err := s.uploads.Find(locator)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
	}
	return b, nil
}
