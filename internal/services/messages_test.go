package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/dev-debabrata/devchat-backend/internal/database"
	"github.com/dev-debabrata/devchat-backend/internal/models"
)

// SetupTestDB initializes an in-memory SQLite DB for testing
func SetupTestDB() {
	db, _ := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	database.DB = db
	database.DB.AutoMigrate(&models.User{}, &models.Message{})
	database.DB.Exec("DELETE FROM messages")
	database.DB.Exec("DELETE FROM users")
}

func seedUsers(ids ...string) {
	for _, id := range ids {
		database.DB.Create(&models.User{ID: id, Name: id, Email: id + "@example.com"})
	}
}

func TestAppendMessage_RejectsEmptyPayload(t *testing.T) {
	SetupTestDB()
	seedUsers("a", "b")

	_, err := AppendMessage("a", "b", "", "", models.MediaNone)
	assert.ErrorIs(t, err, ErrEmptyMessage)

	var count int64
	database.DB.Model(&models.Message{}).Count(&count)
	assert.Equal(t, int64(0), count, "nothing should be persisted on validation failure")
}

func TestAppendMessage_RejectsSelfSend(t *testing.T) {
	SetupTestDB()
	seedUsers("a", "b")

	for _, u := range []string{"a", "b"} {
		_, err := AppendMessage(u, u, "hi", "", models.MediaNone)
		assert.ErrorIs(t, err, ErrSelfMessage)
	}
}

func TestAppendMessage_RejectsUnknownReceiver(t *testing.T) {
	SetupTestDB()
	seedUsers("a")

	_, err := AppendMessage("a", "ghost", "hi", "", models.MediaNone)
	assert.ErrorIs(t, err, ErrReceiverNotFound)
}

func TestAppendMessage_RejectsBadMediaKind(t *testing.T) {
	SetupTestDB()
	seedUsers("a", "b")

	_, err := AppendMessage("a", "b", "", "https://cdn.example.com/x.gif", models.MediaKind("gif"))
	assert.ErrorIs(t, err, ErrInvalidMedia)
}

func TestAppendMessage_Success(t *testing.T) {
	SetupTestDB()
	seedUsers("a", "b")

	msg, err := AppendMessage("a", "b", "hello", "", models.MediaNone)
	assert.NoError(t, err)
	assert.NotEmpty(t, msg.ID)
	assert.False(t, msg.Seen)
	assert.Equal(t, models.MediaNone, msg.MediaKind)
	assert.WithinDuration(t, time.Now(), msg.CreatedAt, 2*time.Second)

	// media-only message is fine too
	msg2, err := AppendMessage("b", "a", "", "https://cdn.example.com/v.mp4", models.MediaVideo)
	assert.NoError(t, err)
	assert.Equal(t, models.MediaVideo, msg2.MediaKind)
}

func TestListBetween_OrderingStableUnderTies(t *testing.T) {
	SetupTestDB()
	seedUsers("a", "b", "c")

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	database.DB.Create(&models.Message{ID: "m2", SenderID: "a", ReceiverID: "b", Text: "second", CreatedAt: ts})
	database.DB.Create(&models.Message{ID: "m1", SenderID: "b", ReceiverID: "a", Text: "first", CreatedAt: ts})
	database.DB.Create(&models.Message{ID: "m0", SenderID: "a", ReceiverID: "b", Text: "earliest", CreatedAt: ts.Add(-time.Minute)})
	// unrelated pair must not leak in
	database.DB.Create(&models.Message{ID: "mx", SenderID: "a", ReceiverID: "c", Text: "other", CreatedAt: ts})

	msgs, err := ListBetween("a", "b")
	assert.NoError(t, err)
	assert.Len(t, msgs, 3)
	assert.Equal(t, "m0", msgs[0].ID)
	assert.Equal(t, "m1", msgs[1].ID) // equal timestamps tie-break by id
	assert.Equal(t, "m2", msgs[2].ID)

	// symmetric: same thread regardless of argument order
	rev, err := ListBetween("b", "a")
	assert.NoError(t, err)
	assert.Equal(t, msgs, rev)
}

func TestMarkSeen_Idempotent(t *testing.T) {
	SetupTestDB()
	seedUsers("a", "b")

	for i := 0; i < 3; i++ {
		database.DB.Create(&models.Message{ID: string(rune('x'+i)), SenderID: "b", ReceiverID: "a", Text: "msg", CreatedAt: time.Now()})
	}

	flipped, err := MarkSeen("b", "a")
	assert.NoError(t, err)
	assert.Equal(t, int64(3), flipped)

	flipped, err = MarkSeen("b", "a")
	assert.NoError(t, err)
	assert.Equal(t, int64(0), flipped, "second call has nothing to flip")

	var unseen int64
	database.DB.Model(&models.Message{}).Where("seen = ?", false).Count(&unseen)
	assert.Equal(t, int64(0), unseen)
}

func TestMarkSeen_OnlyTargetsOneDirection(t *testing.T) {
	SetupTestDB()
	seedUsers("a", "b")

	database.DB.Create(&models.Message{ID: "in", SenderID: "b", ReceiverID: "a", Text: "in", CreatedAt: time.Now()})
	database.DB.Create(&models.Message{ID: "out", SenderID: "a", ReceiverID: "b", Text: "out", CreatedAt: time.Now()})

	flipped, err := MarkSeen("b", "a")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), flipped)

	var out models.Message
	database.DB.First(&out, "id = ?", "out")
	assert.False(t, out.Seen, "the opposite direction must be untouched")
}
