package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hey-coffee/maintenance-service/internal/domain"
)

// RequestFilter captures listing parameters for maintenance requests.
type RequestFilter struct {
	BranchID       *string
	AssignedUserID *string
	Statuses       []domain.RequestStatus
	Priorities     []domain.RequestPriority
	Category       *string
	Paused         *bool
	SearchTerm     *string
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	DueFrom        *time.Time
	DueTo          *time.Time
	Limit          int
	Offset         int
}

// RequestRepository encapsulates maintenance request persistence. The
// conditional mutations (AssignUser, AssignVendor, MarkPaused, MarkResumed)
// are the single point of truth for their state transitions: they only
// touch rows in the expected pre-state and report pgx.ErrNoRows when the
// row was not in it, which callers surface as a recoverable conflict.
// The pause mutations also own the pause_intervals rows: the flag on the
// request and the interval backing it always move in one transaction.
type RequestRepository interface {
	Create(ctx context.Context, req *domain.MaintenanceRequest) error
	Update(ctx context.Context, req *domain.MaintenanceRequest) error
	GetByID(ctx context.Context, id string) (*domain.MaintenanceRequest, error)
	GetByExternalKey(ctx context.Context, key string) (*domain.MaintenanceRequest, error)
	ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.MaintenanceRequest, error)
	ListOpen(ctx context.Context, limit int) ([]domain.MaintenanceRequest, error)
	AssignUser(ctx context.Context, requestID, profileID string) error
	AssignVendor(ctx context.Context, requestID, vendorID string) error
	MarkPaused(ctx context.Context, interval *domain.PauseInterval) error
	MarkResumed(ctx context.Context, requestID string, endedAt time.Time) (*domain.PauseInterval, time.Time, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

const requestColumns = `id, external_key, branch_id, equipment_id, reporter_id, category, title, description,
               status, priority, sla_hours, sla_mode, due_at, is_paused, paused_at,
               assigned_user_id, assigned_vendor_id, created_at, updated_at, completed_at`

func (r *requestRepository) Create(ctx context.Context, req *domain.MaintenanceRequest) error {
	const query = `
        INSERT INTO maintenance_requests (external_key, branch_id, equipment_id, reporter_id, category, title,
            description, status, priority, sla_hours, sla_mode, due_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		req.ExternalKey,
		req.BranchID,
		req.EquipmentID,
		req.ReporterID,
		req.Category,
		req.Title,
		req.Description,
		req.Status,
		req.Priority,
		req.SLAHours,
		req.SLAMode,
		req.DueAt,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
}

func (r *requestRepository) Update(ctx context.Context, req *domain.MaintenanceRequest) error {
	const query = `
        UPDATE maintenance_requests SET category=$1, title=$2, description=$3, status=$4, priority=$5,
            sla_hours=$6, sla_mode=$7, due_at=$8, is_paused=$9, paused_at=$10,
            assigned_user_id=$11, assigned_vendor_id=$12, completed_at=$13, updated_at=NOW()
        WHERE id=$14`
	cmd, err := r.pool.Exec(ctx, query,
		req.Category,
		req.Title,
		req.Description,
		req.Status,
		req.Priority,
		req.SLAHours,
		req.SLAMode,
		req.DueAt,
		req.IsPaused,
		req.PausedAt,
		req.AssignedUserID,
		req.AssignedVendorID,
		req.CompletedAt,
		req.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM maintenance_requests WHERE id=$1`, requestColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *requestRepository) GetByExternalKey(ctx context.Context, key string) (*domain.MaintenanceRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM maintenance_requests WHERE external_key=$1`, requestColumns)
	return r.fetchSingle(ctx, query, key)
}

func (r *requestRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.MaintenanceRequest, error) {
	var req domain.MaintenanceRequest
	if err := scanRequest(r.pool.QueryRow(ctx, query, arg), &req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.MaintenanceRequest, error) {
	base := fmt.Sprintf(`SELECT %s FROM maintenance_requests`, requestColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.BranchID != nil {
		args = append(args, *filter.BranchID)
		clauses = append(clauses, fmt.Sprintf("branch_id=$%d", len(args)))
	}
	if filter.AssignedUserID != nil {
		args = append(args, *filter.AssignedUserID)
		clauses = append(clauses, fmt.Sprintf("assigned_user_id=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Paused != nil {
		args = append(args, *filter.Paused)
		clauses = append(clauses, fmt.Sprintf("is_paused=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	if filter.DueFrom != nil {
		args = append(args, *filter.DueFrom)
		clauses = append(clauses, fmt.Sprintf("due_at >= $%d", len(args)))
	}
	if filter.DueTo != nil {
		args = append(args, *filter.DueTo)
		clauses = append(clauses, fmt.Sprintf("due_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(title) LIKE %s OR LOWER(description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY due_at ASC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *requestRepository) ListOpen(ctx context.Context, limit int) ([]domain.MaintenanceRequest, error) {
	if limit <= 0 {
		limit = 500
	}
	query := fmt.Sprintf(`SELECT %s FROM maintenance_requests
        WHERE status NOT IN ('COMPLETED','CANCELLED')
        ORDER BY due_at ASC LIMIT %d`, requestColumns, limit)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRequests(rows)
}

func (r *requestRepository) AssignUser(ctx context.Context, requestID, profileID string) error {
	const query = `
        UPDATE maintenance_requests
        SET assigned_user_id=$2, assigned_vendor_id=NULL, status='ASSIGNED', updated_at=NOW()
        WHERE id=$1 AND status='PENDING' AND assigned_user_id IS NULL AND assigned_vendor_id IS NULL`
	cmd, err := r.pool.Exec(ctx, query, requestID, profileID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) AssignVendor(ctx context.Context, requestID, vendorID string) error {
	const query = `
        UPDATE maintenance_requests
        SET assigned_vendor_id=$2, assigned_user_id=NULL, status='ASSIGNED', updated_at=NOW()
        WHERE id=$1 AND status='PENDING' AND assigned_user_id IS NULL AND assigned_vendor_id IS NULL`
	cmd, err := r.pool.Exec(ctx, query, requestID, vendorID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkPaused flips the request into its paused state and opens the pause
// interval in the same transaction. Only an unpaused IN_PROGRESS row
// qualifies; interval gets its generated id and timestamp filled in.
func (r *requestRepository) MarkPaused(ctx context.Context, interval *domain.PauseInterval) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	cmd, err := tx.Exec(ctx, `
        UPDATE maintenance_requests
        SET is_paused=TRUE, paused_at=$2, updated_at=NOW()
        WHERE id=$1 AND is_paused=FALSE AND status='IN_PROGRESS'`,
		interval.RequestID, interval.StartedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if err := tx.QueryRow(ctx, `
        INSERT INTO pause_intervals (request_id, reason, started_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`,
		interval.RequestID, interval.Reason, interval.StartedAt,
	).Scan(&interval.ID, &interval.CreatedAt); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// MarkResumed closes the open pause interval, pushes due_at out by the time
// spent paused, and clears the paused flag, all in the same transaction. It
// returns the closed interval and the new deadline. pgx.ErrNoRows means the
// request had no open interval or was not paused; nothing is written then.
func (r *requestRepository) MarkResumed(ctx context.Context, requestID string, endedAt time.Time) (*domain.PauseInterval, time.Time, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, time.Time{}, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var interval domain.PauseInterval
	if err := tx.QueryRow(ctx, `
        UPDATE pause_intervals SET ended_at=$2
        WHERE request_id=$1 AND ended_at IS NULL
        RETURNING id, request_id, reason, started_at, ended_at, created_at`,
		requestID, endedAt).Scan(
		&interval.ID,
		&interval.RequestID,
		&interval.Reason,
		&interval.StartedAt,
		&interval.EndedAt,
		&interval.CreatedAt,
	); err != nil {
		return nil, time.Time{}, err
	}

	pausedSeconds := endedAt.Sub(interval.StartedAt).Seconds()
	if pausedSeconds < 0 {
		// Clock skew between pause and resume; the deadline never moves back.
		pausedSeconds = 0
	}

	var newDueAt time.Time
	if err := tx.QueryRow(ctx, `
        UPDATE maintenance_requests
        SET is_paused=FALSE, paused_at=NULL,
            due_at = due_at + make_interval(secs => $2), updated_at=NOW()
        WHERE id=$1 AND is_paused=TRUE
        RETURNING due_at`,
		requestID, pausedSeconds).Scan(&newDueAt); err != nil {
		return nil, time.Time{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, time.Time{}, err
	}
	return &interval, newDueAt, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner, req *domain.MaintenanceRequest) error {
	return row.Scan(
		&req.ID,
		&req.ExternalKey,
		&req.BranchID,
		&req.EquipmentID,
		&req.ReporterID,
		&req.Category,
		&req.Title,
		&req.Description,
		&req.Status,
		&req.Priority,
		&req.SLAHours,
		&req.SLAMode,
		&req.DueAt,
		&req.IsPaused,
		&req.PausedAt,
		&req.AssignedUserID,
		&req.AssignedVendorID,
		&req.CreatedAt,
		&req.UpdatedAt,
		&req.CompletedAt,
	)
}

func scanRequests(rows pgx.Rows) ([]domain.MaintenanceRequest, error) {
	var result []domain.MaintenanceRequest
	for rows.Next() {
		var req domain.MaintenanceRequest
		if err := scanRequest(rows, &req); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}
