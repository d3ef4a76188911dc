// AngelaMos | 2026
// service.go

package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kidsask/api/internal/metrics"
	"github.com/kidsask/api/internal/subscription"
)

type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

type QuotaTracker interface {
	CanAsk(ctx context.Context, accountID string) (*subscription.State, error)
	RecordQuestionAsked(ctx context.Context, accountID string) (*subscription.State, error)
	Catalog() *subscription.Catalog
}

type Service struct {
	repo   Repository
	ai     Generator
	quota  QuotaTracker
	filter *ContentFilter
	now    func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithContentFilter(f *ContentFilter) Option {
	return func(s *Service) {
		if f != nil {
			s.filter = f
		}
	}
}

func NewService(repo Repository, ai Generator, quota QuotaTracker, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		ai:     ai,
		quota:  quota,
		filter: NewContentFilter(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers one question. Blocked messages get the canned reply without
// touching the quota. Otherwise the allowance is checked first and one
// question is spent only after the answer service replied.
func (s *Service) Ask(
	ctx context.Context,
	accountID string,
	req AskRequest,
) (*AskResponse, error) {
	topic, ok := TopicByID(req.TopicID)
	if !ok {
		return nil, ErrInvalidTopic
	}

	start := s.now()

	if keyword, blocked := s.filter.Check(req.Message); blocked {
		metrics.FilteredMessages.Inc()
		slog.WarnContext(ctx, "message filtered",
			"account_id", accountID,
			"topic_id", topic.ID,
			"keyword", keyword,
		)
		s.saveLog(ctx, accountID, topic, req.Message, FilteredReply, true, start)
		return &AskResponse{Response: FilteredReply, Topic: topic, Filtered: true}, nil
	}

	if _, err := s.quota.CanAsk(ctx, accountID); err != nil {
		return nil, err
	}

	answer, err := s.ai.Generate(ctx, GenerateRequest{
		Message: req.Message,
		Topic:   topic.Name,
		History: req.History,
	})
	if err != nil {
		slog.ErrorContext(ctx, "answer generation failed",
			"account_id", accountID,
			"topic_id", topic.ID,
			"error", err,
		)
		return nil, err
	}

	state, err := s.quota.RecordQuestionAsked(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("record question: %w", err)
	}

	metrics.QuestionsAnswered.WithLabelValues(strconv.Itoa(topic.ID)).Inc()
	s.saveLog(ctx, accountID, topic, req.Message, answer, false, start)

	sub := s.quota.Catalog().ToResponse(*state)
	return &AskResponse{
		Response:     answer,
		Topic:        topic,
		Subscription: &sub,
	}, nil
}

func (s *Service) saveLog(
	ctx context.Context,
	accountID string,
	topic Topic,
	message, response string,
	filtered bool,
	start time.Time,
) {
	now := s.now()
	entry := &Log{
		ID:             uuid.New().String(),
		AccountID:      accountID,
		TopicID:        topic.ID,
		Message:        message,
		Response:       response,
		Filtered:       filtered,
		MessageLength:  utf8.RuneCountInString(message),
		ResponseLength: utf8.RuneCountInString(response),
		ProcessingMS:   now.Sub(start).Milliseconds(),
		CreatedAt:      now,
	}

	if err := s.repo.Save(ctx, entry); err != nil {
		slog.WarnContext(ctx, "chat log not saved",
			"account_id", accountID,
			"error", err,
		)
	}
}

// TopicUsage reports answered questions per topic name since the given time.
func (s *Service) TopicUsage(ctx context.Context, since time.Time) (map[string]int, error) {
	counts, err := s.repo.CountByTopic(ctx, since)
	if err != nil {
		return nil, err
	}

	usage := make(map[string]int, len(counts))
	for _, c := range counts {
		name := strconv.Itoa(c.TopicID)
		if t, ok := TopicByID(c.TopicID); ok {
			name = t.Name
		}
		usage[name] = c.Count
	}

	return usage, nil
}
