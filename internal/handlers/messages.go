package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dev-debabrata/devchat-backend/internal/database"
	"github.com/dev-debabrata/devchat-backend/internal/metrics"
	"github.com/dev-debabrata/devchat-backend/internal/models"
	"github.com/dev-debabrata/devchat-backend/internal/realtime"
	"github.com/dev-debabrata/devchat-backend/internal/services"
	apperrors "github.com/dev-debabrata/devchat-backend/pkg/errors"
	"github.com/dev-debabrata/devchat-backend/pkg/logger"
)

const sendLimitPerMinute = 30

// GetContacts returns every user except the caller, for the "start new chat"
// listing. Independent of message history.
func GetContacts(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	users, err := services.AllOtherUsers(userId)
	if err != nil {
		fail(c, apperrors.Internal("Failed to fetch contacts"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"contacts": users})
}

// GetChatPartners returns the caller's conversation list, most recent first,
// with unread counts.
func GetChatPartners(c *gin.Context) {
	userId := c.MustGet("userId").(string)

	chats, err := services.ChatPartners(userId)
	if err != nil {
		logger.Error().Err(err).Str("user", userId).Msg("chat partners query failed")
		fail(c, apperrors.Internal("Failed to fetch conversations"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// GetMessages returns the thread with one partner. Opening a thread is the
// receiver's act of viewing, so unseen inbound messages flip to seen here
// and the partner's devices are told about it.
func GetMessages(c *gin.Context) {
	currentUserID := c.MustGet("userId").(string)
	partnerID := c.Param("id")

	flipped, err := services.MarkSeen(partnerID, currentUserID)
	if err != nil {
		fail(c, apperrors.Internal("Failed to fetch messages"))
		return
	}

	if flipped > 0 {
		metrics.SeenTransitions.Add(float64(flipped))
		if realtime.Events != nil {
			realtime.Events.OnMessagesSeen(partnerID, currentUserID)
		}
	}

	messages, err := services.ListBetween(currentUserID, partnerID)
	if err != nil {
		fail(c, apperrors.Internal("Failed to fetch messages"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// SendMessage persists a new message and fans it out to both parties' live
// connections. The clientId in the body is the caller's correlation token;
// the server neither stores nor echoes it — the HTTP response itself is the
// confirmation channel.
func SendMessage(c *gin.Context) {
	senderID := c.MustGet("userId").(string)
	receiverID := c.Param("id")

	var req struct {
		Text      string           `json:"text"`
		MediaURL  string           `json:"mediaUrl"`
		MediaKind models.MediaKind `json:"mediaKind"`
		ClientID  string           `json:"clientId"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.BadRequest("Invalid request"))
		return
	}

	allowed, err := database.CheckRateLimit(senderID, sendLimitPerMinute, time.Minute)
	if err != nil {
		logger.Warn().Err(err).Msg("rate limit check failed, allowing request")
	}
	if !allowed {
		fail(c, apperrors.ErrRateLimit)
		return
	}

	msg, err := services.AppendMessage(senderID, receiverID, req.Text, req.MediaURL, req.MediaKind)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyMessage),
			errors.Is(err, services.ErrSelfMessage),
			errors.Is(err, services.ErrInvalidMedia):
			fail(c, apperrors.BadRequest(err.Error()))
		case errors.Is(err, services.ErrReceiverNotFound):
			fail(c, apperrors.NotFound(err.Error()))
		default:
			logger.Error().Err(err).Str("sender", senderID).Msg("message append failed")
			fail(c, apperrors.Internal("Failed to send message"))
		}
		return
	}

	metrics.MessagesPersisted.Inc()

	// Best-effort: the send already succeeded regardless of delivery.
	if realtime.Events != nil {
		realtime.Events.OnMessageCreated(msg)
	}

	c.JSON(http.StatusCreated, gin.H{"message": msg})
}
