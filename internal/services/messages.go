package services

import (
	"errors"
	"time"

	"github.com/dev-debabrata/devchat-backend/internal/database"
	"github.com/dev-debabrata/devchat-backend/internal/models"
	"gorm.io/gorm"
)

// Validation and lookup failures surfaced by the message store. Anything
// else coming back from these functions is a storage failure.
var (
	ErrEmptyMessage     = errors.New("message requires text or media")
	ErrSelfMessage      = errors.New("cannot send messages to yourself")
	ErrInvalidMedia     = errors.New("media kind must be image or video")
	ErrReceiverNotFound = errors.New("receiver not found")
)

// AppendMessage is the single write path for new messages. It validates,
// assigns id and creation time, persists and returns the full record.
// Nothing is written when any validation fails.
func AppendMessage(senderID, receiverID, text, mediaURL string, kind models.MediaKind) (*models.Message, error) {
	if text == "" && mediaURL == "" {
		return nil, ErrEmptyMessage
	}
	if senderID == receiverID {
		return nil, ErrSelfMessage
	}

	if mediaURL == "" {
		kind = models.MediaNone
	} else if kind != models.MediaImage && kind != models.MediaVideo {
		return nil, ErrInvalidMedia
	}

	var receiver models.User
	if err := database.DB.Select("id").First(&receiver, "id = ?", receiverID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReceiverNotFound
		}
		return nil, err
	}

	msg := models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		MediaURL:   mediaURL,
		MediaKind:  kind,
		Seen:       false,
		CreatedAt:  time.Now(),
	}

	if err := database.DB.Create(&msg).Error; err != nil {
		return nil, err
	}

	return &msg, nil
}

// ListBetween returns every message exchanged between the two users,
// ascending by creation time with id as the tie-break so ordering is stable.
func ListBetween(userA, userB string) ([]models.Message, error) {
	var messages []models.Message
	err := database.DB.Where(
		"(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
		userA, userB, userB, userA,
	).Order("created_at asc, id asc").Find(&messages).Error

	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkSeen flips seen false->true for all unseen messages from fromUser to
// toUser and returns how many were flipped. One conditional UPDATE, so
// concurrent calls for the same pair cannot double-count or lose updates,
// and a second call with nothing pending returns 0.
func MarkSeen(fromUser, toUser string) (int64, error) {
	result := database.DB.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND seen = ?", fromUser, toUser, false).
		Update("seen", true)

	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
