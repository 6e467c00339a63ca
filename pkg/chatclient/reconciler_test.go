package chatclient

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dev-debabrata/devchat-backend/internal/models"
)

func noRefetch(t *testing.T) RefetchFunc {
	return func() ([]models.ConversationSummary, error) {
		t.Fatal("unexpected refetch")
		return nil, nil
	}
}

func summary(partnerID string, at time.Time, unread int64) models.ConversationSummary {
	return models.ConversationSummary{
		Partner:       models.User{ID: partnerID, Name: partnerID},
		LastMessageAt: at,
		UnreadCount:   unread,
	}
}

func TestOptimisticSendConfirm(t *testing.T) {
	s := NewStore("me", noRefetch(t))
	s.SetChats([]models.ConversationSummary{summary("bob", time.Now().Add(-time.Hour), 0)})
	s.OpenConversation("bob", nil)

	clientID := s.BeginSend("bob", "hi", "", models.MediaNone)
	assert.NotEmpty(t, clientID)

	msgs := s.Messages()
	assert.Len(t, msgs, 1)
	assert.Equal(t, SendPending, msgs[0].State)
	assert.Equal(t, clientID, msgs[0].ClientID)

	confirmed := models.Message{ID: "srv-1", SenderID: "me", ReceiverID: "bob", Text: "hi", CreatedAt: time.Now()}
	assert.NoError(t, s.ConfirmSend(clientID, confirmed))

	msgs = s.Messages()
	assert.Len(t, msgs, 1)
	assert.Equal(t, SendConfirmed, msgs[0].State)
	assert.Equal(t, "srv-1", msgs[0].Message.ID)
	assert.Empty(t, msgs[0].ClientID, "server record carries no correlation token")
}

func TestConfirmToBrandNewPartnerRefetchesChats(t *testing.T) {
	refetched := []models.ConversationSummary{
		summary("newbie", time.Now(), 0),
	}
	calls := 0
	s := NewStore("me", func() ([]models.ConversationSummary, error) {
		calls++
		return refetched, nil
	})
	s.SetChats(nil)
	s.OpenConversation("newbie", nil)

	// very first message to this partner: no summary exists yet
	clientID := s.BeginSend("newbie", "hello there", "", models.MediaNone)
	confirmed := models.Message{ID: "srv-1", SenderID: "me", ReceiverID: "newbie", Text: "hello there", CreatedAt: time.Now()}
	assert.NoError(t, s.ConfirmSend(clientID, confirmed))

	assert.Equal(t, 1, calls, "confirm repairs the list itself, the echo is dedup'd")
	chats := s.Chats()
	assert.Len(t, chats, 1)
	assert.Equal(t, "newbie", chats[0].Partner.ID)

	// the fan-out echo arrives afterwards and must change nothing
	assert.NoError(t, s.HandleNewMessage(confirmed))
	assert.Equal(t, 1, calls)
	assert.Len(t, s.Messages(), 1)
}

func TestRollbackRemovesFromViewAndReturnsDraft(t *testing.T) {
	s := NewStore("me", noRefetch(t))
	s.OpenConversation("bob", nil)

	clientID := s.BeginSend("bob", "doomed", "", models.MediaNone)

	draft, ok := s.RollbackSend(clientID)
	assert.True(t, ok)
	assert.Equal(t, "doomed", draft.Text)
	assert.Equal(t, "bob", draft.ReceiverID)
	assert.Empty(t, s.Messages(), "no phantom confirmed-looking message")

	_, ok = s.RollbackSend(clientID)
	assert.False(t, ok, "rollback is a one-shot")
}

func TestEchoDedup_EventAfterConfirm(t *testing.T) {
	s := NewStore("me", noRefetch(t))
	s.SetChats([]models.ConversationSummary{summary("bob", time.Now().Add(-time.Hour), 0)})
	s.OpenConversation("bob", nil)

	clientID := s.BeginSend("bob", "hi", "", models.MediaNone)
	confirmed := models.Message{ID: "srv-1", SenderID: "me", ReceiverID: "bob", Text: "hi", CreatedAt: time.Now()}
	assert.NoError(t, s.ConfirmSend(clientID, confirmed))

	// the fan-out echo for our own send arrives afterwards
	assert.NoError(t, s.HandleNewMessage(confirmed))

	assert.Len(t, s.Messages(), 1, "exactly one visible entry, not two")
}

func TestEchoDedup_EventBeforeConfirm(t *testing.T) {
	s := NewStore("me", noRefetch(t))
	s.SetChats([]models.ConversationSummary{summary("bob", time.Now().Add(-time.Hour), 0)})
	s.OpenConversation("bob", nil)

	clientID := s.BeginSend("bob", "hi", "", models.MediaNone)
	confirmed := models.Message{ID: "srv-1", SenderID: "me", ReceiverID: "bob", Text: "hi", CreatedAt: time.Now()}

	// echo beats the HTTP response
	assert.NoError(t, s.HandleNewMessage(confirmed))
	assert.NoError(t, s.ConfirmSend(clientID, confirmed))

	msgs := s.Messages()
	assert.Len(t, msgs, 1)
	assert.Equal(t, "srv-1", msgs[0].Message.ID)
	assert.Equal(t, SendConfirmed, msgs[0].State)
}

func TestInboundMessageAppendsAndBumpsUnread(t *testing.T) {
	s := NewStore("me", noRefetch(t))
	old := time.Now().Add(-time.Hour)
	s.SetChats([]models.ConversationSummary{
		summary("carol", old.Add(time.Minute), 0),
		summary("bob", old, 0),
	})

	// no thread open: unread must bump and bob moves to the front
	msg := models.Message{ID: "m1", SenderID: "bob", ReceiverID: "me", Text: "yo", CreatedAt: time.Now()}
	assert.NoError(t, s.HandleNewMessage(msg))

	chats := s.Chats()
	assert.Equal(t, "bob", chats[0].Partner.ID)
	assert.Equal(t, int64(1), chats[0].UnreadCount)
	assert.Equal(t, msg.CreatedAt, chats[0].LastMessageAt)

	// reapplying the same event is a no-op
	assert.NoError(t, s.HandleNewMessage(msg))
	assert.Equal(t, int64(1), s.Chats()[0].UnreadCount)
}

func TestInboundMessageToOpenThreadIsSeenOnArrival(t *testing.T) {
	s := NewStore("me", noRefetch(t))
	s.SetChats([]models.ConversationSummary{summary("bob", time.Now().Add(-time.Hour), 0)})
	s.OpenConversation("bob", nil)

	msg := models.Message{ID: "m1", SenderID: "bob", ReceiverID: "me", Text: "yo", CreatedAt: time.Now()}
	assert.NoError(t, s.HandleNewMessage(msg))

	assert.Len(t, s.Messages(), 1, "lands in the open thread")
	assert.Equal(t, int64(0), s.Chats()[0].UnreadCount, "no unread bump while the thread is open")
}

func TestOutboundEchoNeverBumpsUnread(t *testing.T) {
	s := NewStore("me", noRefetch(t))
	s.SetChats([]models.ConversationSummary{summary("bob", time.Now().Add(-time.Hour), 2)})

	// echo of a send from another of my devices
	msg := models.Message{ID: "m1", SenderID: "me", ReceiverID: "bob", Text: "from my phone", CreatedAt: time.Now()}
	assert.NoError(t, s.HandleNewMessage(msg))

	assert.Equal(t, int64(2), s.Chats()[0].UnreadCount)
	assert.Equal(t, msg.CreatedAt, s.Chats()[0].LastMessageAt)
}

func TestUnknownPartnerTriggersRefetch(t *testing.T) {
	refetched := []models.ConversationSummary{
		summary("stranger", time.Now(), 1),
	}
	calls := 0
	s := NewStore("me", func() ([]models.ConversationSummary, error) {
		calls++
		return refetched, nil
	})
	s.SetChats(nil)

	msg := models.Message{ID: "m1", SenderID: "stranger", ReceiverID: "me", Text: "hello", CreatedAt: time.Now()}
	assert.NoError(t, s.HandleNewMessage(msg))

	assert.Equal(t, 1, calls)
	chats := s.Chats()
	assert.Len(t, chats, 1)
	assert.Equal(t, "stranger", chats[0].Partner.ID)
	assert.Equal(t, "stranger", chats[0].Partner.Name, "summary fields come from the server, not guessed")
}

func TestRefetchFailureSurfaces(t *testing.T) {
	s := NewStore("me", func() ([]models.ConversationSummary, error) {
		return nil, errors.New("network down")
	})

	msg := models.Message{ID: "m1", SenderID: "stranger", ReceiverID: "me", Text: "hello", CreatedAt: time.Now()}
	assert.Error(t, s.HandleNewMessage(msg))
}

func TestMessagesSeenFlipsOwnMessagesOnly(t *testing.T) {
	s := NewStore("me", noRefetch(t))
	s.OpenConversation("bob", []models.Message{
		{ID: "m1", SenderID: "me", ReceiverID: "bob", Text: "one"},
		{ID: "m2", SenderID: "bob", ReceiverID: "me", Text: "two"},
	})

	s.HandleMessagesSeen("bob")

	msgs := s.Messages()
	assert.True(t, msgs[0].Message.Seen)
	assert.False(t, msgs[1].Message.Seen, "inbound messages are not mine to tick")

	// idempotent
	s.HandleMessagesSeen("bob")
	assert.True(t, s.Messages()[0].Message.Seen)
}

func TestOpenConversationClearsUnread(t *testing.T) {
	s := NewStore("me", noRefetch(t))
	s.SetChats([]models.ConversationSummary{summary("bob", time.Now(), 5)})

	s.OpenConversation("bob", nil)

	assert.Equal(t, int64(0), s.Chats()[0].UnreadCount)
}

func TestTypingIndicatorExpires(t *testing.T) {
	s := NewStore("me", noRefetch(t))

	s.HandleTyping("bob")
	assert.True(t, s.IsTyping("bob"))

	s.HandleStopTyping("bob")
	assert.False(t, s.IsTyping("bob"))

	// expiry without a stop signal
	s.HandleTyping("bob")
	s.mu.Lock()
	s.typing["bob"] = time.Now().Add(-time.Millisecond)
	s.mu.Unlock()
	assert.False(t, s.IsTyping("bob"))
}
