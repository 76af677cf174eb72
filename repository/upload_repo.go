package repository

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"bandchat/models"
)

var ErrUploadNotFound = errors.New("upload not found")

// Blob is a stored upload.
type Blob struct {
	Ref  models.AttachmentRef
	Data []byte
}

type UploadRepository interface {
	Save(name, contentType string, data []byte) (models.AttachmentRef, error)
	Find(locator string) (*Blob, error)
}

type InMemoryUploadRepo struct {
	mu   sync.RWMutex
	data map[string]*Blob
}

func NewInMemoryUploadRepo() *InMemoryUploadRepo {
	return &InMemoryUploadRepo{data: make(map[string]*Blob)}
}

func (r *InMemoryUploadRepo) Save(name, contentType string, data []byte) (models.AttachmentRef, error) {
	if name == "" {
		return models.AttachmentRef{}, errors.New("upload name cannot be empty")
	}
	ref := models.AttachmentRef{
		Locator:     "uploads/" + uuid.NewString(),
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[ref.Locator] = &Blob{Ref: ref, Data: data}
	return ref, nil
}

func (r *InMemoryUploadRepo) Find(locator string) (*Blob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.data[locator]
	if !ok {
		return nil, ErrUploadNotFound
	}
	return b, nil
}
