// Seeds a handful of demo users and a short conversation for local
// development. Run against a scratch database only.
package main

import (
	"fmt"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dev-debabrata/devchat-backend/internal/config"
	"github.com/dev-debabrata/devchat-backend/internal/database"
	"github.com/dev-debabrata/devchat-backend/internal/models"
	"github.com/dev-debabrata/devchat-backend/pkg/utils"
)

func main() {
	config.LoadConfig()
	database.Connect()

	if err := database.DB.AutoMigrate(&models.User{}, &models.Message{}); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

	names := []string{"alice", "bob", "carol"}
	ids := make([]string, len(names))
	for i, name := range names {
		user := models.User{
			ID:       utils.GenerateID(),
			Name:     name,
			Email:    fmt.Sprintf("%s@example.com", name),
			Password: string(hash),
		}
		if err := database.DB.Where("email = ?", user.Email).FirstOrCreate(&user).Error; err != nil {
			log.Fatalf("seed user %s: %v", name, err)
		}
		ids[i] = user.ID
	}

	lines := []struct {
		from, to int
		text     string
	}{
		{0, 1, "hey bob"},
		{1, 0, "hi alice!"},
		{0, 1, "lunch today?"},
	}

	base := time.Now().Add(-time.Hour)
	for i, l := range lines {
		msg := models.Message{
			SenderID:   ids[l.from],
			ReceiverID: ids[l.to],
			Text:       l.text,
			MediaKind:  models.MediaNone,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		}
		if err := database.DB.Create(&msg).Error; err != nil {
			log.Fatalf("seed message: %v", err)
		}
	}

	log.Printf("Seeded %d users and %d messages", len(names), len(lines))
}
