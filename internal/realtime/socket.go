package realtime

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/googollee/go-socket.io/engineio"
	"github.com/googollee/go-socket.io/engineio/transport"
	"github.com/googollee/go-socket.io/engineio/transport/polling"
	"github.com/googollee/go-socket.io/engineio/transport/websocket"

	"github.com/dev-debabrata/devchat-backend/internal/metrics"
	"github.com/dev-debabrata/devchat-backend/pkg/logger"
	"github.com/dev-debabrata/devchat-backend/pkg/utils"
)

var (
	Server   *socketio.Server
	Presence *Registry
	Events   *Fanout
)

// Typing throttle: track last typing emit per user to prevent spam.
var (
	lastTypingEmit         = make(map[string]time.Time)
	lastTypingMu           sync.Mutex
	typingThrottleDuration = 3 * time.Second
)

func throttleTyping(senderID string) bool {
	lastTypingMu.Lock()
	defer lastTypingMu.Unlock()

	if last, ok := lastTypingEmit[senderID]; ok && time.Since(last) < typingThrottleDuration {
		return true
	}
	lastTypingEmit[senderID] = time.Now()
	return false
}

// sweepTypingThrottle drops entries old enough that they no longer throttle
// anything, so the map doesn't grow with every user who ever typed.
func sweepTypingThrottle() {
	lastTypingMu.Lock()
	defer lastTypingMu.Unlock()

	for id, last := range lastTypingEmit {
		if time.Since(last) > typingThrottleDuration {
			delete(lastTypingEmit, id)
		}
	}
}

// InitSocketServer wires the socket.io server: JWT handshake, presence
// binding, typing relay. The verified user id rides in the socket context
// for O(1) lookup in event handlers.
func InitSocketServer() *socketio.Server {
	Presence = NewRegistry()
	Events = NewFanout(Presence)

	server := socketio.NewServer(&engineio.Options{
		Transports: []transport.Transport{
			&websocket.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
			&polling.Transport{
				CheckOrigin: func(r *http.Request) bool { return true },
			},
		},
	})

	server.OnConnect("/", func(s socketio.Conn) error {
		s.SetContext("")
		url := s.URL()

		token := url.Query().Get("token")
		if token == "" {
			token = url.Query().Get("auth_token")
		}
		if token == "" {
			logger.Warn().Str("socket", s.ID()).Msg("socket rejected: no token")
			return fmt.Errorf("authentication required")
		}

		claims, err := utils.ValidateToken(token)
		if err != nil {
			logger.Warn().Str("socket", s.ID()).Msg("socket rejected: invalid token")
			return fmt.Errorf("invalid token")
		}

		userId := claims.UserID
		s.SetContext(userId)

		Presence.Bind(userId, s)
		metrics.OpenSockets.Inc()

		logger.Info().Str("socket", s.ID()).Str("user", userId).Msg("socket connected")

		// Everyone gets the refreshed online list, the newcomer included.
		Events.BroadcastPresenceUpdate(userId, true)
		Events.BroadcastOnlineUsers()

		return nil
	})

	server.OnEvent("/", "typing", func(s socketio.Conn, data map[string]interface{}) {
		senderID, _ := s.Context().(string)
		receiverID, _ := data["receiverId"].(string)
		if senderID == "" || receiverID == "" {
			return
		}
		if throttleTyping(senderID) {
			return
		}
		Events.OnTyping(senderID, receiverID)
	})

	server.OnEvent("/", "stopTyping", func(s socketio.Conn, data map[string]interface{}) {
		senderID, _ := s.Context().(string)
		receiverID, _ := data["receiverId"].(string)
		if senderID == "" || receiverID == "" {
			return
		}
		Events.OnStopTyping(senderID, receiverID)
	})

	server.OnEvent("/", "get_online_users", func(s socketio.Conn, msg string) {
		s.Emit("online_users", Presence.OnlineUsers())
	})

	server.OnDisconnect("/", func(s socketio.Conn, reason string) {
		if userID, ok := Presence.Unbind(s.ID()); ok {
			metrics.OpenSockets.Dec()
			// only announce offline once the last device is gone
			if !Presence.IsOnline(userID) {
				Events.BroadcastPresenceUpdate(userID, false)
			}
		}
		logger.Info().Str("socket", s.ID()).Str("reason", reason).Msg("socket closed")
		Events.BroadcastOnlineUsers()
	})

	server.OnError("/", func(s socketio.Conn, e error) {
		logger.Error().Err(e).Msg("socket error")
	})

	go server.Serve()
	go func() {
		for {
			time.Sleep(time.Minute)
			sweepTypingThrottle()
		}
	}()
	Server = server
	return server
}

// Handler wraps the socket.io server for gin.
func Handler(server *socketio.Server) gin.HandlerFunc {
	return func(c *gin.Context) {
		server.ServeHTTP(c.Writer, c.Request)
	}
}
