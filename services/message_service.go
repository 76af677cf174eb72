package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"bandchat/config"
	"bandchat/models"
	"bandchat/repository"
)

const defaultPageLimit = 50

// SendRequest is a new message as posted by a client.
type SendRequest struct {
	SenderID   string                `json:"sender_id"`
	Body       string                `json:"body"`
	Kind       models.Kind           `json:"kind"`
	ParentID   *int64                `json:"parent_id,omitempty"`
	Attachment *models.AttachmentRef `json:"attachment,omitempty"`
}

type MessageService struct {
	msgs    repository.MessageRepository
	chats   *ChatService
	users   repository.UserRepository
	uploads repository.UploadRepository
	limiter *limiterPool
	config  *config.ServerConfig
	log     zerolog.Logger
}

func NewMessageService(mr repository.MessageRepository, cs *ChatService, ur repository.UserRepository, up repository.UploadRepository, cfg *config.ServerConfig, log zerolog.Logger) *MessageService {
	return &MessageService{
		msgs:    mr,
		chats:   cs,
		users:   ur,
		uploads: up,
		limiter: newLimiterPool(cfg.SendRate, cfg.SendBurst),
		config:  cfg,
		log:     log,
	}
}

// Send stores a message posted by userID into roomID.
func (s *MessageService) Send(roomID, userID int64, req SendRequest) (*models.Message, error) {
	sender := strconv.FormatInt(userID, 10)
	if req.SenderID != "" && req.SenderID != sender {
		return nil, fmt.Errorf("%w: sender_id does not match the authenticated user", ErrForbidden)
	}
	if _, err := s.chats.Room(roomID, userID); err != nil {
		return nil, err
	}

	if req.Kind == "" {
		req.Kind = models.KindText
	}
	msg := &models.Message{
		ConversationID: roomID,
		SenderID:       sender,
		Body:           strings.TrimSpace(req.Body),
		Kind:           req.Kind,
		ParentID:       req.ParentID,
		Attachment:     req.Attachment,
	}
	if err := msg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if len(msg.Body) > s.config.MaxMessageLength {
		return nil, fmt.Errorf("%w: message too long (max %d characters)", ErrInvalid, s.config.MaxMessageLength)
	}
	if msg.Attachment != nil {
		blob, err := s.uploads.Find(msg.Attachment.Locator)
		if err != nil {
			return nil, fmt.Errorf("%w: unknown attachment %q", ErrInvalid, msg.Attachment.Locator)
		}
		ref := blob.Ref
		msg.Attachment = &ref
	}
	if msg.ParentID != nil {
		parent, err := s.msgs.FindByID(roomID, *msg.ParentID)
		if errors.Is(err, repository.ErrMessageNotFound) {
			return nil, fmt.Errorf("%w: message %d not found in room %d", ErrBadParent, *msg.ParentID, roomID)
		}
		if err != nil {
			return nil, err
		}
		if parent.IsReply() {
			return nil, fmt.Errorf("%w: cannot reply to a reply", ErrBadParent)
		}
	}

	if !s.limiter.Allow(sender) {
		return nil, fmt.Errorf("%w: slow down", ErrRateLimited)
	}

	saved, err := s.msgs.Save(msg)
	if err != nil {
		return nil, err
	}
	s.fillSender(saved)
	s.log.Debug().Int64("room", roomID).Int64("id", saved.ID).Str("kind", string(saved.Kind)).Msg("message stored")
	return saved, nil
}

// List returns up to limit messages of roomID newest-first. With before > 0
// only messages older than that ID are returned. The page counts as read by
// viewerID.
func (s *MessageService) List(roomID, userID int64, viewerID string, before int64, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if s.config.MaxPageSize > 0 && limit > s.config.MaxPageSize {
		limit = s.config.MaxPageSize
	}
	if before < 0 {
		return nil, fmt.Errorf("%w: before must not be negative", ErrInvalid)
	}
	if _, err := s.chats.Room(roomID, userID); err != nil {
		return nil, err
	}

	msgs, err := s.msgs.ListByRoom(roomID, before, limit)
	if err != nil {
		return nil, err
	}
	if len(msgs) > 0 {
		ids := make([]int64, len(msgs))
		for i := range msgs {
			ids[i] = msgs[i].ID
		}
		if err := s.msgs.MarkRead(viewerID, ids); err != nil {
			s.log.Warn().Err(err).Int64("room", roomID).Msg("mark read failed")
		}
	}

	for i := range msgs {
		s.fillSender(&msgs[i])
	}
	return msgs, nil
}

func (s *MessageService) fillSender(m *models.Message) {
	user, err := s.users.FindBySender(m.SenderID)
	if err != nil {
		m.SenderName = repository.UnknownSender
		return
	}
	m.SenderName = user.Username
}
