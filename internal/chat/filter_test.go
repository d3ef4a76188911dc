// AngelaMos | 2026
// filter_test.go

package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentFilter(t *testing.T) {
	f := NewContentFilter()

	tests := []struct {
		message string
		keyword string
		blocked bool
	}{
		{message: "Why is the sky blue?", blocked: false},
		{message: "Can a BOMB be fixed?", keyword: "bomb", blocked: true},
		{message: "is that sexy", keyword: "sexy", blocked: true},
		{message: "what was my class assignment about", blocked: false},
		{message: "Tell me about Scunthorpe", blocked: false},
		{message: "do dinosaurs die?", keyword: "die", blocked: true},
		{message: "what does a diet do", blocked: false},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			keyword, blocked := f.Check(tt.message)
			assert.Equal(t, tt.blocked, blocked)
			assert.Equal(t, tt.keyword, keyword)
		})
	}
}

func TestContentFilterCustomKeywords(t *testing.T) {
	f := NewContentFilter("Homework")

	_, blocked := f.Check("do my homework please")
	assert.True(t, blocked)

	_, blocked = f.Check("is a bomb loud")
	assert.False(t, blocked)
}

func TestTopicCatalog(t *testing.T) {
	all := Topics()
	assert.Len(t, all, 12)

	topic, ok := TopicByID(2)
	assert.True(t, ok)
	assert.Equal(t, "Space and Planets", topic.Name)

	_, ok = TopicByID(13)
	assert.False(t, ok)

	all[0].Name = "changed"
	first, _ := TopicByID(1)
	assert.Equal(t, "Animals", first.Name)
}
