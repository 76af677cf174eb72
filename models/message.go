package models

import (
	"errors"
	"time"
)

// Kind selects how a message body is rendered and whether it carries an attachment.
type Kind string

const (
	KindText  Kind = "TEXT"
	KindImage Kind = "IMAGE"
	KindFile  Kind = "FILE"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindImage, KindFile:
		return true
	}
	return false
}

// AttachmentRef points at a stored upload.
type AttachmentRef struct {
	Locator     string `json:"locator"`
	Name        string `json:"name"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

type Message struct {
	ID             int64          `json:"id"`
	ConversationID int64          `json:"conversation_id"`
	SenderID       string         `json:"sender_id"`
	SenderName     string         `json:"sender_name,omitempty"`
	Body           string         `json:"body"`
	Kind           Kind           `json:"kind"`
	Attachment     *AttachmentRef `json:"attachment,omitempty"`
	SentAt         time.Time      `json:"sent_at"`
	// one level only: a reply may not itself be replied to
	ParentID  *int64 `json:"parent_id,omitempty"`
	ReadCount int    `json:"read_count"`
}

var (
	ErrUnknownKind        = errors.New("unknown message kind")
	ErrMissingAttachment  = errors.New("attachment required for non-text message")
	ErrUnexpectedAttached = errors.New("text message cannot carry an attachment")
	ErrEmptyBody          = errors.New("empty body")
)

// Validate checks that the kind and attachment fields agree.
func (m Message) Validate() error {
	if !m.Kind.Valid() {
		return ErrUnknownKind
	}
	if m.Kind == KindText {
		if m.Attachment != nil {
			return ErrUnexpectedAttached
		}
		if m.Body == "" {
			return ErrEmptyBody
		}
		return nil
	}
	if m.Attachment == nil || m.Attachment.Locator == "" {
		return ErrMissingAttachment
	}
	return nil
}

// IsReply reports whether the message points at a parent.
func (m Message) IsReply() bool { return m.ParentID != nil }
