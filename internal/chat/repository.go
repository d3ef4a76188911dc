// AngelaMos | 2026
// repository.go

package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/kidsask/api/internal/core"
)

type Repository interface {
	Save(ctx context.Context, log *Log) error
	CountByTopic(ctx context.Context, since time.Time) ([]TopicCount, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Save(ctx context.Context, l *Log) error {
	query := `
		INSERT INTO chat_logs (
			id, account_id, topic_id, message, response, filtered,
			message_length, response_length, processing_ms, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.db.ExecContext(ctx, query,
		l.ID,
		l.AccountID,
		l.TopicID,
		l.Message,
		l.Response,
		l.Filtered,
		l.MessageLength,
		l.ResponseLength,
		l.ProcessingMS,
		l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save chat log: %w", err)
	}

	return nil
}

// CountByTopic returns answered questions per topic since the given time.
func (r *repository) CountByTopic(ctx context.Context, since time.Time) ([]TopicCount, error) {
	query := `
		SELECT topic_id, COUNT(*) AS count
		FROM chat_logs
		WHERE created_at >= $1 AND NOT filtered
		GROUP BY topic_id
		ORDER BY topic_id`

	var counts []TopicCount
	if err := r.db.SelectContext(ctx, &counts, query, since); err != nil {
		return nil, fmt.Errorf("count chat logs by topic: %w", err)
	}

	return counts, nil
}
