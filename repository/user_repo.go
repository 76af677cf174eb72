package repository

import (
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"bandchat/models"
)

var (
	ErrUserExists   = errors.New("username already exists")
	ErrUserNotFound = errors.New("user not found")
)

// UnknownSender is shown for messages whose sender no longer resolves.
const UnknownSender = "Unknown User"

// UserRepository stores band members. Usernames are unique regardless of
// case, so "Drums" and "drums" cannot both sign up.
type UserRepository interface {
	Create(username, hashedPwd string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	FindByID(id int64) (*models.User, error)
	// FindBySender resolves the string sender ID carried on a message.
	FindBySender(senderID string) (*models.User, error)
}

type InMemoryUserRepo struct {
	mu     sync.RWMutex
	seq    int64
	byID   map[int64]*models.User
	byName map[string]*models.User // keyed by folded username
}

func NewInMemoryUserRepo() *InMemoryUserRepo {
	return &InMemoryUserRepo{
		byID:   make(map[int64]*models.User),
		byName: make(map[string]*models.User),
	}
}

func foldName(username string) string { return strings.ToLower(strings.TrimSpace(username)) }

func (r *InMemoryUserRepo) Create(username, hashedPwd string) (*models.User, error) {
	key := foldName(username)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[key]; ok {
		return nil, ErrUserExists
	}
	r.seq++
	u := &models.User{
		ID:        r.seq,
		Username:  strings.TrimSpace(username),
		Password:  hashedPwd,
		CreatedAt: time.Now(),
	}
	r.byID[u.ID] = u
	r.byName[key] = u
	return u, nil
}

func (r *InMemoryUserRepo) FindByUsername(username string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byName[foldName(username)]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (r *InMemoryUserRepo) FindByID(id int64) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (r *InMemoryUserRepo) FindBySender(senderID string) (*models.User, error) {
	id, err := strconv.ParseInt(senderID, 10, 64)
	if err != nil || id <= 0 {
		return nil, ErrUserNotFound
	}
	return r.FindByID(id)
}
