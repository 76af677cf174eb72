package services

import (
	"errors"
	"fmt"

	"bandchat/models"
	"bandchat/repository"
)

type ChatService struct {
	chats        repository.ChatRepository
	messages     repository.MessageRepository
	participants repository.ParticipantRepository
}

func NewChatService(cr repository.ChatRepository, mr repository.MessageRepository, pr repository.ParticipantRepository) *ChatService {
	return &ChatService{chats: cr, messages: mr, participants: pr}
}

func (s *ChatService) CreateRoom(name string, isPrivate bool, createdBy int64) (*models.ChatRoom, error) {
	if len(name) < 2 || len(name) > 50 {
		return nil, fmt.Errorf("%w: room name must be 2-50 characters", ErrInvalid)
	}

	room, err := s.chats.Create(name, isPrivate, createdBy)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	// the creator is always a participant of a private room
	if isPrivate {
		if err := s.participants.Add(room.ID, createdBy); err != nil {
			return nil, errors.New("failed to add creator to room")
		}
	}
	return room, nil
}

// ListRooms returns the rooms userID can open.
func (s *ChatService) ListRooms(userID int64) ([]models.ChatRoom, error) {
	rooms, err := s.chats.List()
	if err != nil {
		return nil, err
	}
	out := rooms[:0]
	for _, room := range rooms {
		if ok, _ := s.canAccess(&room, userID); ok {
			out = append(out, room)
		}
	}
	return out, nil
}

// Room returns roomID if userID may read it.
func (s *ChatService) Room(roomID, userID int64) (*models.ChatRoom, error) {
	room, err := s.chats.FindByID(roomID)
	if err != nil {
		return nil, fmt.Errorf("%w: room %d", ErrNotFound, roomID)
	}
	ok, err := s.canAccess(room, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: not a participant of room %d", ErrForbidden, roomID)
	}
	return room, nil
}

// AddParticipant lets the room creator invite userID into a private room.
func (s *ChatService) AddParticipant(roomID, actorID, userID int64) error {
	room, err := s.chats.FindByID(roomID)
	if err != nil {
		return fmt.Errorf("%w: room %d", ErrNotFound, roomID)
	}
	if room.CreatedBy != actorID {
		return fmt.Errorf("%w: only the room creator can add participants", ErrForbidden)
	}
	return s.participants.Add(roomID, userID)
}

func (s *ChatService) DeleteRoom(roomID, userID int64) error {
	// the default room stays
	if roomID == 1 {
		return fmt.Errorf("%w: cannot delete the default room", ErrForbidden)
	}
	room, err := s.chats.FindByID(roomID)
	if err != nil {
		return fmt.Errorf("%w: room %d", ErrNotFound, roomID)
	}
	if room.CreatedBy != userID {
		return fmt.Errorf("%w: only room creator can delete the room", ErrForbidden)
	}

	members, err := s.participants.ListByRoom(roomID)
	if err == nil {
		for _, id := range members {
			_ = s.participants.Remove(roomID, id)
		}
	}
	if err := s.messages.DeleteByRoom(roomID); err != nil {
		return errors.New("failed to delete messages from room")
	}
	return s.chats.Delete(roomID)
}

func (s *ChatService) canAccess(room *models.ChatRoom, userID int64) (bool, error) {
	if !room.IsPrivate || room.CreatedBy == userID {
		return true, nil
	}
	return s.participants.IsParticipant(room.ID, userID)
}
