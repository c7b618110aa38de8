package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hey-coffee/maintenance-service/internal/domain"
)

// PauseIntervalRepository reads pause/resume cycles for requests. Writes go
// through RequestRepository.MarkPaused and MarkResumed so the interval rows
// and the request's paused flag always change together.
type PauseIntervalRepository interface {
	ListByRequest(ctx context.Context, requestID string) ([]domain.PauseInterval, error)
}

type pauseIntervalRepository struct {
	pool *pgxpool.Pool
}

// NewPauseIntervalRepository builds repository.
func NewPauseIntervalRepository(pool *pgxpool.Pool) PauseIntervalRepository {
	return &pauseIntervalRepository{pool: pool}
}

func (r *pauseIntervalRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.PauseInterval, error) {
	const query = `
        SELECT id, request_id, reason, started_at, ended_at, created_at
        FROM pause_intervals WHERE request_id=$1 ORDER BY started_at ASC`
	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.PauseInterval
	for rows.Next() {
		var interval domain.PauseInterval
		if err := rows.Scan(
			&interval.ID,
			&interval.RequestID,
			&interval.Reason,
			&interval.StartedAt,
			&interval.EndedAt,
			&interval.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, interval)
	}
	return result, rows.Err()
}
