package repository

import (
	"errors"
	"sort"
	"sync"
	"time"

	"bandchat/models"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room name already exists")
)

type ChatRepository interface {
	Create(name string, isPrivate bool, createdBy int64) (*models.ChatRoom, error)
	List() ([]models.ChatRoom, error)
	FindByID(id int64) (*models.ChatRoom, error)
	Delete(id int64) error
}

type InMemoryChatRepo struct {
	mu   sync.RWMutex
	seq  int64
	data map[int64]*models.ChatRoom
}

func NewInMemoryChatRepo() *InMemoryChatRepo {
	return &InMemoryChatRepo{
		data: make(map[int64]*models.ChatRoom),
	}
}

func (r *InMemoryChatRepo) Create(name string, isPrivate bool, createdBy int64) (*models.ChatRoom, error) {
	if name == "" {
		return nil, errors.New("room name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, room := range r.data {
		if room.Name == name {
			return nil, ErrRoomExists
		}
	}

	r.seq++
	room := &models.ChatRoom{
		ID:        r.seq,
		Name:      name,
		IsPrivate: isPrivate,
		CreatedBy: createdBy,
		CreatedAt: time.Now(),
	}
	r.data[room.ID] = room
	return room, nil
}

func (r *InMemoryChatRepo) List() ([]models.ChatRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]models.ChatRoom, 0, len(r.data))
	for _, v := range r.data {
		rooms = append(rooms, *v)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID < rooms[j].ID })
	return rooms, nil
}

func (r *InMemoryChatRepo) FindByID(id int64) (*models.ChatRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.data[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	out := *room
	return &out, nil
}

func (r *InMemoryChatRepo) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data[id]; !ok {
		return ErrRoomNotFound
	}
	delete(r.data, id)
	return nil
}
