package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MediaKind tags the optional attachment on a message.
type MediaKind string

const (
	MediaNone  MediaKind = "none"
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Message is a direct message between two users. Immutable after creation
// except for Seen, which flips false->true exactly once when the receiver
// opens the thread.
type Message struct {
	ID         string    `gorm:"primaryKey;type:text" json:"id"`
	SenderID   string    `gorm:"index;type:text;not null" json:"senderId"`
	ReceiverID string    `gorm:"index;type:text;not null" json:"receiverId"`
	Text       string    `gorm:"type:text" json:"text"`
	MediaURL   string    `gorm:"type:text" json:"mediaUrl"`
	MediaKind  MediaKind `gorm:"type:text;default:'none';not null" json:"mediaKind"`
	Seen       bool      `gorm:"default:false;not null" json:"seen"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`

	Sender   User `gorm:"foreignKey:SenderID" json:"-"`
	Receiver User `gorm:"foreignKey:ReceiverID" json:"-"`
}

func (m *Message) BeforeCreate(tx *gorm.DB) (err error) {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return
}

// HasContent reports whether the message carries text or media. A message
// with neither is rejected before persistence.
func (m *Message) HasContent() bool {
	return m.Text != "" || m.MediaURL != ""
}

// ConversationSummary is derived per (owner, partner) pair and never stored.
// Ordering key is LastMessageAt descending.
type ConversationSummary struct {
	Partner       User      `json:"partner"`
	LastMessageAt time.Time `json:"lastMessageAt"`
	UnreadCount   int64     `json:"unreadCount"`
}
