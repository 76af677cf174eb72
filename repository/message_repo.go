package repository

import (
	"errors"
	"sort"
	"sync"
	"time"

	"bandchat/models"
)

var ErrMessageNotFound = errors.New("message not found")

type MessageRepository interface {
	Save(msg *models.Message) (*models.Message, error)
	// ListByRoom returns up to limit messages newest-first. With before > 0
	// only messages with a smaller ID are considered.
	ListByRoom(roomID int64, before int64, limit int) ([]models.Message, error)
	FindByID(roomID, id int64) (*models.Message, error)
	DeleteByRoom(roomID int64) error
	// MarkRead records viewerID as a reader of ids. A sender never reads
	// its own message.
	MarkRead(viewerID string, ids []int64) error
}

type InMemoryMessageRepo struct {
	mu   sync.RWMutex
	seq  int64
	data map[int64]*models.Message // by id
	byR  map[int64][]int64         // room -> message IDs, ascending
	read map[int64]map[string]struct{}
}

func NewInMemoryMessageRepo() *InMemoryMessageRepo {
	return &InMemoryMessageRepo{
		data: make(map[int64]*models.Message),
		byR:  make(map[int64][]int64),
		read: make(map[int64]map[string]struct{}),
	}
}

func (r *InMemoryMessageRepo) Save(msg *models.Message) (*models.Message, error) {
	if msg == nil {
		return nil, errors.New("nil message")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	stored := *msg
	stored.ID = r.seq
	if stored.SentAt.IsZero() {
		stored.SentAt = time.Now()
	}
	r.data[stored.ID] = &stored
	r.byR[stored.ConversationID] = append(r.byR[stored.ConversationID], stored.ID)
	out := stored
	return &out, nil
}

func (r *InMemoryMessageRepo) ListByRoom(roomID int64, before int64, limit int) ([]models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byR[roomID]
	end := len(ids)
	if before > 0 {
		end = sort.Search(len(ids), func(i int) bool { return ids[i] >= before })
	}
	msgs := make([]models.Message, 0, limit)
	for i := end - 1; i >= 0 && (limit <= 0 || len(msgs) < limit); i-- {
		m := *r.data[ids[i]]
		m.ReadCount = len(r.read[m.ID])
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (r *InMemoryMessageRepo) FindByID(roomID, id int64) (*models.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.data[id]
	if !ok || m.ConversationID != roomID {
		return nil, ErrMessageNotFound
	}
	out := *m
	out.ReadCount = len(r.read[id])
	return &out, nil
}

func (r *InMemoryMessageRepo) MarkRead(viewerID string, ids []int64) error {
	if viewerID == "" {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		m, ok := r.data[id]
		if !ok || m.SenderID == viewerID {
			continue
		}
		if r.read[id] == nil {
			r.read[id] = make(map[string]struct{})
		}
		r.read[id][viewerID] = struct{}{}
	}
	return nil
}

func (r *InMemoryMessageRepo) DeleteByRoom(roomID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.byR[roomID] {
		delete(r.data, id)
		delete(r.read, id)
	}
	delete(r.byR, roomID)
	return nil
}
