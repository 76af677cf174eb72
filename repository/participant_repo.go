package repository

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"bandchat/models"
)

type ParticipantRepository interface {
	Add(roomID, userID int64) error
	Remove(roomID, userID int64) error
	IsParticipant(roomID, userID int64) (bool, error)
	ListByRoom(roomID int64) ([]int64, error)
}

type InMemoryParticipantRepo struct {
	mu   sync.RWMutex
	seq  int64
	data map[string]*models.Participant // "roomID:userID"
}

func NewInMemoryParticipantRepo() *InMemoryParticipantRepo {
	return &InMemoryParticipantRepo{
		data: make(map[string]*models.Participant),
	}
}

func (r *InMemoryParticipantRepo) Add(roomID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := roomUserKey(roomID, userID)
	if _, exists := r.data[key]; exists {
		return nil // already in
	}
	r.seq++
	r.data[key] = &models.Participant{
		ID:       r.seq,
		RoomID:   roomID,
		UserID:   userID,
		JoinedAt: time.Now(),
	}
	return nil
}

func (r *InMemoryParticipantRepo) Remove(roomID, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.data, roomUserKey(roomID, userID))
	return nil
}

func (r *InMemoryParticipantRepo) IsParticipant(roomID, userID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.data[roomUserKey(roomID, userID)]
	return ok, nil
}

func (r *InMemoryParticipantRepo) ListByRoom(roomID int64) ([]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var users []int64
	for _, p := range r.data {
		if p.RoomID == roomID {
			users = append(users, p.UserID)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}

func roomUserKey(roomID, userID int64) string {
	return fmt.Sprintf("%d:%d", roomID, userID)
}
