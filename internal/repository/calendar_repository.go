package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hey-coffee/maintenance-service/internal/domain"
)

// CalendarRepository manages branch working hours and holidays.
type CalendarRepository interface {
	UpsertWorkingHours(ctx context.Context, hours *domain.WorkingHours) error
	ListWorkingHours(ctx context.Context, branchID string) ([]domain.WorkingHours, error)
	CreateHoliday(ctx context.Context, holiday *domain.Holiday) error
	DeleteHoliday(ctx context.Context, id string) error
	// ListHolidays returns the branch's holidays plus organization-wide
	// ones (branch_id IS NULL).
	ListHolidays(ctx context.Context, branchID string) ([]domain.Holiday, error)
}

type calendarRepository struct {
	pool *pgxpool.Pool
}

// NewCalendarRepository constructs repository.
func NewCalendarRepository(pool *pgxpool.Pool) CalendarRepository {
	return &calendarRepository{pool: pool}
}

func (r *calendarRepository) UpsertWorkingHours(ctx context.Context, hours *domain.WorkingHours) error {
	const query = `
        INSERT INTO working_hours (branch_id, day_of_week, open_time, close_time, is_closed)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (branch_id, day_of_week)
        DO UPDATE SET open_time=EXCLUDED.open_time, close_time=EXCLUDED.close_time,
            is_closed=EXCLUDED.is_closed, updated_at=NOW()
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		hours.BranchID,
		hours.DayOfWeek,
		hours.OpenTime,
		hours.CloseTime,
		hours.IsClosed,
	).Scan(&hours.ID, &hours.CreatedAt, &hours.UpdatedAt)
}

func (r *calendarRepository) ListWorkingHours(ctx context.Context, branchID string) ([]domain.WorkingHours, error) {
	const query = `
        SELECT id, branch_id, day_of_week, open_time, close_time, is_closed, created_at, updated_at
        FROM working_hours WHERE branch_id=$1 ORDER BY day_of_week ASC`
	rows, err := r.pool.Query(ctx, query, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkingHours
	for rows.Next() {
		var hours domain.WorkingHours
		if err := rows.Scan(
			&hours.ID,
			&hours.BranchID,
			&hours.DayOfWeek,
			&hours.OpenTime,
			&hours.CloseTime,
			&hours.IsClosed,
			&hours.CreatedAt,
			&hours.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, hours)
	}
	return result, rows.Err()
}

func (r *calendarRepository) CreateHoliday(ctx context.Context, holiday *domain.Holiday) error {
	const query = `
        INSERT INTO holidays (branch_id, name, holiday_date, is_recurring)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		holiday.BranchID,
		holiday.Name,
		holiday.Date,
		holiday.IsRecurring,
	).Scan(&holiday.ID, &holiday.CreatedAt)
}

func (r *calendarRepository) DeleteHoliday(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM holidays WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *calendarRepository) ListHolidays(ctx context.Context, branchID string) ([]domain.Holiday, error) {
	const query = `
        SELECT id, branch_id, name, holiday_date, is_recurring, created_at
        FROM holidays WHERE branch_id=$1 OR branch_id IS NULL ORDER BY holiday_date ASC`
	rows, err := r.pool.Query(ctx, query, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Holiday
	for rows.Next() {
		var holiday domain.Holiday
		if err := rows.Scan(
			&holiday.ID,
			&holiday.BranchID,
			&holiday.Name,
			&holiday.Date,
			&holiday.IsRecurring,
			&holiday.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, holiday)
	}
	return result, rows.Err()
}
