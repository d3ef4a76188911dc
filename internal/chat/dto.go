// AngelaMos | 2026
// dto.go

package chat

import (
	"github.com/kidsask/api/internal/subscription"
)

type HistoryItem struct {
	Role    string `json:"role"    validate:"required,oneof=user assistant"`
	Content string `json:"content" validate:"required"`
}

type AskRequest struct {
	Message string        `json:"message" validate:"required,max=500"`
	TopicID int           `json:"topicId" validate:"required,min=1"`
	History []HistoryItem `json:"history" validate:"omitempty,max=50,dive"`
}

type AskResponse struct {
	Response     string                             `json:"response"`
	Topic        Topic                              `json:"topic"`
	Filtered     bool                               `json:"filtered"`
	Subscription *subscription.SubscriptionResponse `json:"subscription,omitempty"`
}

type TopicsResponse struct {
	Topics []Topic `json:"topics"`
}
