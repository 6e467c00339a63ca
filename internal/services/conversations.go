package services

import (
	"time"

	"github.com/dev-debabrata/devchat-backend/internal/database"
	"github.com/dev-debabrata/devchat-backend/internal/models"
)

// sqlite hands aggregate results back untyped, so MAX(created_at) may
// arrive as text rather than time.Time. Postgres gives us the real thing.
func scanTime(v interface{}) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case []byte:
		return parseTimeString(string(t))
	case string:
		return parseTimeString(t)
	}
	return time.Time{}
}

func parseTimeString(s string) time.Time {
	for _, layout := range []string{
		"2006-01-02 15:04:05.999999999-07:00",
		time.RFC3339Nano,
		"2006-01-02 15:04:05",
	} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ChatPartners computes the owner's conversation list straight from the
// messages table: for every counterpart the max created_at across both
// directions plus the count of unseen inbound messages. Recomputed on every
// call — there is no denormalized last-message cache to drift out of sync.
func ChatPartners(ownerID string) ([]models.ConversationSummary, error) {
	query := `
		WITH partner_latest AS (
			SELECT
				CASE WHEN sender_id = ? THEN receiver_id ELSE sender_id END AS partner_id,
				MAX(created_at) AS last_msg_at
			FROM messages
			WHERE sender_id = ? OR receiver_id = ?
			GROUP BY 1
		)
		SELECT
			u.id, u.name, u.email, u.image, u.bio,
			pl.last_msg_at,
			(SELECT COUNT(*) FROM messages m
				WHERE m.sender_id = u.id AND m.receiver_id = ? AND m.seen = ?) AS unread_count
		FROM partner_latest pl
		JOIN users u ON u.id = pl.partner_id
		ORDER BY pl.last_msg_at DESC, u.id ASC
	`

	rows, err := database.DB.Raw(query, ownerID, ownerID, ownerID, ownerID, false).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.ConversationSummary
	for rows.Next() {
		var s models.ConversationSummary
		var lastMsgAt interface{}
		if err := rows.Scan(
			&s.Partner.ID, &s.Partner.Name, &s.Partner.Email, &s.Partner.Image, &s.Partner.Bio,
			&lastMsgAt, &s.UnreadCount,
		); err != nil {
			return nil, err
		}
		s.LastMessageAt = scanTime(lastMsgAt)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return summaries, nil
}

// AllOtherUsers returns every user except the owner, regardless of message
// history. Ordered by id so repeated calls are stable.
func AllOtherUsers(ownerID string) ([]models.User, error) {
	var users []models.User
	err := database.DB.Where("id <> ?", ownerID).Order("id asc").Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
