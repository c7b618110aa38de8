package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hey-coffee/maintenance-service/internal/domain"
)

// TechnicianFilter defines query params for technician listing.
type TechnicianFilter struct {
	BranchID *string
	Active   *bool
	Limit    int
	Offset   int
}

// TechnicianRepository handles persistence for technician profiles and skills.
type TechnicianRepository interface {
	Create(ctx context.Context, profile *domain.TechnicianProfile) error
	Update(ctx context.Context, profile *domain.TechnicianProfile) error
	GetByID(ctx context.Context, id string) (*domain.TechnicianProfile, error)
	List(ctx context.Context, filter TechnicianFilter) ([]domain.TechnicianProfile, error)
	// ListForBranch returns active technicians that may serve the branch:
	// branch-unrestricted profiles plus those assigned to it.
	ListForBranch(ctx context.Context, branchID string) ([]domain.TechnicianProfile, error)
	ListSkills(ctx context.Context, profileID string) ([]domain.TechnicianSkill, error)
	ReplaceSkills(ctx context.Context, profileID string, skills []domain.TechnicianSkill) error
	// CountActiveAssignments returns the technician's current workload:
	// requests assigned to them that are not yet terminal.
	CountActiveAssignments(ctx context.Context, profileID string) (int, error)
}

type technicianRepository struct {
	pool *pgxpool.Pool
}

// NewTechnicianRepository instantiates the repository.
func NewTechnicianRepository(pool *pgxpool.Pool) TechnicianRepository {
	return &technicianRepository{pool: pool}
}

const technicianColumns = `id, name, email, branch_id, active_flag, on_leave, max_workload, created_at, updated_at`

func (r *technicianRepository) Create(ctx context.Context, profile *domain.TechnicianProfile) error {
	const query = `
        INSERT INTO technician_profiles (name, email, branch_id, active_flag, on_leave, max_workload)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		profile.Name,
		profile.Email,
		profile.BranchID,
		profile.Active,
		profile.OnLeave,
		profile.MaxWorkload,
	).Scan(&profile.ID, &profile.CreatedAt, &profile.UpdatedAt)
}

func (r *technicianRepository) Update(ctx context.Context, profile *domain.TechnicianProfile) error {
	const query = `
        UPDATE technician_profiles
        SET name=$1, email=$2, branch_id=$3, active_flag=$4, on_leave=$5, max_workload=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		profile.Name,
		profile.Email,
		profile.BranchID,
		profile.Active,
		profile.OnLeave,
		profile.MaxWorkload,
		profile.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *technicianRepository) GetByID(ctx context.Context, id string) (*domain.TechnicianProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM technician_profiles WHERE id=$1`, technicianColumns)
	var profile domain.TechnicianProfile
	if err := scanTechnician(r.pool.QueryRow(ctx, query, id), &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *technicianRepository) List(ctx context.Context, filter TechnicianFilter) ([]domain.TechnicianProfile, error) {
	query := fmt.Sprintf(`SELECT %s FROM technician_profiles`, technicianColumns)
	args := []any{}
	clauses := []string{}

	if filter.BranchID != nil {
		args = append(args, *filter.BranchID)
		clauses = append(clauses, fmt.Sprintf("branch_id=$%d", len(args)))
	}
	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active_flag=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at DESC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTechnicians(rows)
}

func (r *technicianRepository) ListForBranch(ctx context.Context, branchID string) ([]domain.TechnicianProfile, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM technician_profiles
        WHERE active_flag=TRUE AND (branch_id IS NULL OR branch_id=$1)
        ORDER BY id ASC`, technicianColumns)
	rows, err := r.pool.Query(ctx, query, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTechnicians(rows)
}

func (r *technicianRepository) ListSkills(ctx context.Context, profileID string) ([]domain.TechnicianSkill, error) {
	const query = `
        SELECT profile_id, category, skill_level
        FROM technician_skills WHERE profile_id=$1 ORDER BY category ASC`
	rows, err := r.pool.Query(ctx, query, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TechnicianSkill
	for rows.Next() {
		var skill domain.TechnicianSkill
		if err := rows.Scan(&skill.ProfileID, &skill.Category, &skill.SkillLevel); err != nil {
			return nil, err
		}
		result = append(result, skill)
	}
	return result, rows.Err()
}

func (r *technicianRepository) ReplaceSkills(ctx context.Context, profileID string, skills []domain.TechnicianSkill) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `DELETE FROM technician_skills WHERE profile_id=$1`, profileID); err != nil {
		return err
	}
	for _, skill := range skills {
		if _, err := tx.Exec(ctx,
			`INSERT INTO technician_skills (profile_id, category, skill_level) VALUES ($1,$2,$3)`,
			profileID, skill.Category, skill.SkillLevel,
		); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *technicianRepository) CountActiveAssignments(ctx context.Context, profileID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM maintenance_requests
        WHERE assigned_user_id=$1 AND status IN ('ASSIGNED','IN_PROGRESS','PENDING_REVIEW')`
	var count int
	if err := r.pool.QueryRow(ctx, query, profileID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanTechnician(row rowScanner, profile *domain.TechnicianProfile) error {
	return row.Scan(
		&profile.ID,
		&profile.Name,
		&profile.Email,
		&profile.BranchID,
		&profile.Active,
		&profile.OnLeave,
		&profile.MaxWorkload,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
}

func scanTechnicians(rows pgx.Rows) ([]domain.TechnicianProfile, error) {
	var result []domain.TechnicianProfile
	for rows.Next() {
		var profile domain.TechnicianProfile
		if err := scanTechnician(rows, &profile); err != nil {
			return nil, err
		}
		result = append(result, profile)
	}
	return result, rows.Err()
}
