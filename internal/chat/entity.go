// AngelaMos | 2026
// entity.go

package chat

import (
	"time"
)

// Log is one answered or filtered question kept for analytics.
type Log struct {
	ID             string    `db:"id"`
	AccountID      string    `db:"account_id"`
	TopicID        int       `db:"topic_id"`
	Message        string    `db:"message"`
	Response       string    `db:"response"`
	Filtered       bool      `db:"filtered"`
	MessageLength  int       `db:"message_length"`
	ResponseLength int       `db:"response_length"`
	ProcessingMS   int64     `db:"processing_ms"`
	CreatedAt      time.Time `db:"created_at"`
}

type TopicCount struct {
	TopicID int `db:"topic_id"`
	Count   int `db:"count"`
}
