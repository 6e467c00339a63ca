package realtime

import (
	"github.com/dev-debabrata/devchat-backend/internal/metrics"
	"github.com/dev-debabrata/devchat-backend/internal/models"
	"github.com/dev-debabrata/devchat-backend/pkg/logger"
)

// Fanout pushes server-side events to every live connection of the target
// users. Delivery is at-most-once and best-effort: a connection that cannot
// take the write loses the event, durability lives in the message store and
// a reconnecting client recovers via the thread and conversation fetches.
type Fanout struct {
	presence *Registry
}

func NewFanout(presence *Registry) *Fanout {
	return &Fanout{presence: presence}
}

// OnMessageCreated notifies both participants, sender included so the
// sender's other devices pick the message up too.
func (f *Fanout) OnMessageCreated(msg *models.Message) {
	f.emitTo(msg.ReceiverID, "newMessage", msg)
	f.emitTo(msg.SenderID, "newMessage", msg)
}

// OnMessagesSeen tells the original sender that toUser has seen their
// messages. Callers only invoke this after a nonzero markSeen count.
func (f *Fanout) OnMessagesSeen(fromUser, toUser string) {
	f.emitTo(fromUser, "messagesSeen", map[string]interface{}{
		"by": toUser,
	})
}

// OnTyping relays a typing signal to the receiver's connections. No
// persistence, no acknowledgement.
func (f *Fanout) OnTyping(senderID, receiverID string) {
	f.emitTo(receiverID, "typing", map[string]interface{}{
		"senderId":   senderID,
		"receiverId": receiverID,
	})
}

// OnStopTyping relays the stop signal. Delivery is not guaranteed; the
// receiving client times the indicator out on its own.
func (f *Fanout) OnStopTyping(senderID, receiverID string) {
	f.emitTo(receiverID, "stopTyping", map[string]interface{}{
		"senderId":   senderID,
		"receiverId": receiverID,
	})
}

// BroadcastPresenceUpdate tells every client that one user went online or
// offline.
func (f *Fanout) BroadcastPresenceUpdate(userID string, isOnline bool) {
	data := map[string]interface{}{
		"userId":   userID,
		"isOnline": isOnline,
	}
	for _, c := range f.presence.AllConnections() {
		f.emit(c, "presence_update", data)
	}
}

// BroadcastOnlineUsers pushes the current online user list to everyone.
func (f *Fanout) BroadcastOnlineUsers() {
	users := f.presence.OnlineUsers()
	for _, c := range f.presence.AllConnections() {
		f.emit(c, "online_users", users)
	}
}

func (f *Fanout) emitTo(userID, event string, payload interface{}) {
	for _, c := range f.presence.ConnectionsFor(userID) {
		f.emit(c, event, payload)
	}
}

// emit writes one event to one connection, swallowing a torn connection
// rather than letting it take the caller down.
func (f *Fanout) emit(c Conn, event string, payload interface{}) {
	defer func() {
		if r := recover(); r != nil {
			metrics.EventsDropped.WithLabelValues(event).Inc()
			logger.Debug().Str("event", event).Str("conn", c.ID()).Msg("dropped realtime event")
		}
	}()

	c.Emit(event, payload)
	metrics.EventsEmitted.WithLabelValues(event).Inc()
}
