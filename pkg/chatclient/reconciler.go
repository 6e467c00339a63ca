// Package chatclient holds the client-side projection of a user's messages
// and conversations. Outbound messages show up immediately as pending
// entries keyed by a client-generated correlation id, then get reconciled
// against the server-confirmed record or rolled back; inbound fan-out events
// merge in without duplicating what the client already shows.
package chatclient

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dev-debabrata/devchat-backend/internal/models"
)

// SendState tags one visible outbound message.
type SendState int

const (
	SendPending SendState = iota
	SendConfirmed
	SendRolledBack
)

// TypingTimeout is how long a typing indicator stays up without a fresh
// signal. Stop-typing delivery is not guaranteed, so expiry is local.
const TypingTimeout = 4 * time.Second

// Entry is one message in the visible list plus its reconciliation state.
// ClientID is only set while the entry is pending.
type Entry struct {
	State    SendState
	ClientID string
	Message  models.Message
}

// Draft is what remains of a rolled-back send, recoverable for retry.
type Draft struct {
	ReceiverID string
	Text       string
	MediaURL   string
	MediaKind  models.MediaKind
}

// RefetchFunc pulls the full conversation list from the server. The store
// falls back to it when an event names a partner it has no summary for,
// rather than guessing fields it does not have.
type RefetchFunc func() ([]models.ConversationSummary, error)

// Store is the local state machine. Server truth is never mutated from
// here; every mutation the user intends goes through a request the caller
// awaits, and the result is fed back in via ConfirmSend or RollbackSend.
type Store struct {
	mu sync.Mutex

	selfID  string
	refetch RefetchFunc

	openPartner string
	entries     []Entry
	chats       []models.ConversationSummary
	chatsLoaded bool

	// server message ids already merged, for echo dedup and so the
	// conversation projection is bumped at most once per message
	merged map[string]bool

	typing map[string]time.Time
}

func NewStore(selfID string, refetch RefetchFunc) *Store {
	return &Store{
		selfID:  selfID,
		refetch: refetch,
		merged:  make(map[string]bool),
		typing:  make(map[string]time.Time),
	}
}

// OpenConversation switches the visible thread to one partner. The caller
// passes the freshly fetched messages; fetching the thread already marked
// them seen server-side, so the partner's unread count drops to zero here.
func (s *Store) OpenConversation(partnerID string, messages []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.openPartner = partnerID
	s.entries = s.entries[:0]
	for _, m := range messages {
		s.merged[m.ID] = true
		s.entries = append(s.entries, Entry{State: SendConfirmed, Message: m})
	}

	for i := range s.chats {
		if s.chats[i].Partner.ID == partnerID {
			s.chats[i].UnreadCount = 0
		}
	}
}

// CloseConversation clears the open thread.
func (s *Store) CloseConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openPartner = ""
	s.entries = s.entries[:0]
}

// SetChats replaces the conversation list with a server-fetched one.
func (s *Store) SetChats(chats []models.ConversationSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chats = append(s.chats[:0], chats...)
	s.chatsLoaded = true
}

// Messages returns a copy of the visible thread.
func (s *Store) Messages() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Chats returns a copy of the conversation list.
func (s *Store) Chats() []models.ConversationSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ConversationSummary, len(s.chats))
	copy(out, s.chats)
	return out
}

// BeginSend appends an optimistic entry at the tail of the visible list and
// returns the correlation id the caller must pass along with the request.
// The list is already time-ordered and a local send is always "now".
func (s *Store) BeginSend(receiverID, text, mediaURL string, kind models.MediaKind) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	clientID := uuid.New().String()
	s.entries = append(s.entries, Entry{
		State:    SendPending,
		ClientID: clientID,
		Message: models.Message{
			SenderID:   s.selfID,
			ReceiverID: receiverID,
			Text:       text,
			MediaURL:   mediaURL,
			MediaKind:  kind,
			CreatedAt:  time.Now(),
		},
	})
	return clientID
}

// ConfirmSend replaces the pending entry wholesale with the
// server-confirmed record — the server is authoritative for every field,
// id and createdAt included. If the record already arrived as a fan-out
// echo, the pending entry is simply dropped. A confirmed send to a partner
// the conversation list has no summary for yet (the first-ever message)
// falls back to a full refetch; the later echo is dedup'd by id and will
// not get a second chance to repair the list.
func (s *Store) ConfirmSend(clientID string, confirmed models.Message) error {
	s.mu.Lock()

	idx := s.indexOfClientID(clientID)

	if s.merged[confirmed.ID] {
		// echo beat the response; the confirmed entry is already visible
		if idx >= 0 {
			s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
		}
		s.mu.Unlock()
		return nil
	}

	if idx >= 0 {
		s.entries[idx] = Entry{State: SendConfirmed, Message: confirmed}
	} else {
		s.entries = append(s.entries, Entry{State: SendConfirmed, Message: confirmed})
	}
	s.merged[confirmed.ID] = true

	if s.bumpConversation(confirmed) {
		s.mu.Unlock()
		return nil
	}

	s.mu.Unlock()
	return s.refetchChats()
}

// RollbackSend removes the pending entry from view and hands back the draft
// so the surrounding UI can offer a retry. Reapplying is a no-op.
func (s *Store) RollbackSend(clientID string) (Draft, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOfClientID(clientID)
	if idx < 0 {
		return Draft{}, false
	}

	m := s.entries[idx].Message
	s.entries = append(s.entries[:idx], s.entries[idx+1:]...)
	return Draft{
		ReceiverID: m.ReceiverID,
		Text:       m.Text,
		MediaURL:   m.MediaURL,
		MediaKind:  m.MediaKind,
	}, true
}

// HandleNewMessage merges an inbound fan-out event. Events arrive only
// after persistence, so within a pair their order is monotonic and a plain
// append keeps the thread sorted. An echo of a message already shown (by
// id) is ignored.
func (s *Store) HandleNewMessage(msg models.Message) error {
	s.mu.Lock()

	if s.merged[msg.ID] {
		s.mu.Unlock()
		return nil
	}
	s.merged[msg.ID] = true

	partnerID := msg.SenderID
	if msg.SenderID == s.selfID {
		partnerID = msg.ReceiverID
	}

	if s.openPartner != "" && s.openPartner == partnerID {
		s.entries = append(s.entries, Entry{State: SendConfirmed, Message: msg})
	}

	if s.bumpConversation(msg) {
		s.mu.Unlock()
		return nil
	}

	// Unknown partner: refetch the whole list instead of inventing a
	// summary with fields we don't have (name, avatar).
	s.mu.Unlock()
	return s.refetchChats()
}

func (s *Store) refetchChats() error {
	chats, err := s.refetch()
	if err != nil {
		return err
	}
	s.SetChats(chats)
	return nil
}

// HandleMessagesSeen flips seen on every visible message from self to the
// given user. Idempotent.
func (s *Store) HandleMessagesSeen(by string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.entries {
		m := &s.entries[i].Message
		if m.SenderID == s.selfID && m.ReceiverID == by {
			m.Seen = true
		}
	}
}

// HandleTyping records a typing signal from a partner.
func (s *Store) HandleTyping(from string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.typing[from] = time.Now().Add(TypingTimeout)
}

// HandleStopTyping clears the indicator for a partner.
func (s *Store) HandleStopTyping(from string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.typing, from)
}

// IsTyping reports whether a partner's indicator is still live. Indicators
// expire on their own, stop-typing signal or not.
func (s *Store) IsTyping(partnerID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, ok := s.typing[partnerID]
	if !ok {
		return false
	}
	if time.Now().After(deadline) {
		delete(s.typing, partnerID)
		return false
	}
	return true
}

func (s *Store) indexOfClientID(clientID string) int {
	for i := range s.entries {
		if s.entries[i].State == SendPending && s.entries[i].ClientID == clientID {
			return i
		}
	}
	return -1
}

// bumpConversation moves the partner's summary to the front and updates its
// last-activity time. Inbound messages bump the unread count unless that
// conversation is the open one, in which case arrival counts as seen.
// Returns false when the partner has no summary yet (or the list was never
// loaded) and a full refetch is needed. Caller holds the lock.
func (s *Store) bumpConversation(msg models.Message) bool {
	outbound := msg.SenderID == s.selfID
	partnerID := msg.SenderID
	if outbound {
		partnerID = msg.ReceiverID
	}

	if !s.chatsLoaded {
		return false
	}

	for i := range s.chats {
		if s.chats[i].Partner.ID != partnerID {
			continue
		}
		chat := s.chats[i]
		chat.LastMessageAt = msg.CreatedAt
		if !outbound && s.openPartner != partnerID {
			chat.UnreadCount++
		}
		s.chats = append(s.chats[:i], s.chats[i+1:]...)
		s.chats = append([]models.ConversationSummary{chat}, s.chats...)
		return true
	}
	return false
}
