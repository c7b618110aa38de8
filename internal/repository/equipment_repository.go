package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hey-coffee/maintenance-service/internal/domain"
)

// EquipmentRepository handles equipment persistence.
type EquipmentRepository interface {
	Create(ctx context.Context, eq *domain.Equipment) error
	Update(ctx context.Context, eq *domain.Equipment) error
	GetByID(ctx context.Context, id string) (*domain.Equipment, error)
	ListByBranch(ctx context.Context, branchID string) ([]domain.Equipment, error)
}

type equipmentRepository struct {
	pool *pgxpool.Pool
}

// NewEquipmentRepository instantiates the repository.
func NewEquipmentRepository(pool *pgxpool.Pool) EquipmentRepository {
	return &equipmentRepository{pool: pool}
}

func (r *equipmentRepository) Create(ctx context.Context, eq *domain.Equipment) error {
	const query = `
        INSERT INTO equipment (branch_id, name, category, serial_number, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		eq.BranchID,
		eq.Name,
		eq.Category,
		eq.SerialNumber,
		eq.IsActive,
	).Scan(&eq.ID, &eq.CreatedAt, &eq.UpdatedAt)
}

func (r *equipmentRepository) Update(ctx context.Context, eq *domain.Equipment) error {
	const query = `
        UPDATE equipment SET branch_id=$1, name=$2, category=$3, serial_number=$4, is_active=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		eq.BranchID,
		eq.Name,
		eq.Category,
		eq.SerialNumber,
		eq.IsActive,
		eq.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *equipmentRepository) GetByID(ctx context.Context, id string) (*domain.Equipment, error) {
	const query = `
        SELECT id, branch_id, name, category, serial_number, is_active, created_at, updated_at
        FROM equipment WHERE id=$1`
	var eq domain.Equipment
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&eq.ID,
		&eq.BranchID,
		&eq.Name,
		&eq.Category,
		&eq.SerialNumber,
		&eq.IsActive,
		&eq.CreatedAt,
		&eq.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &eq, nil
}

func (r *equipmentRepository) ListByBranch(ctx context.Context, branchID string) ([]domain.Equipment, error) {
	const query = `
        SELECT id, branch_id, name, category, serial_number, is_active, created_at, updated_at
        FROM equipment WHERE branch_id=$1 ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query, branchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Equipment
	for rows.Next() {
		var eq domain.Equipment
		if err := rows.Scan(
			&eq.ID,
			&eq.BranchID,
			&eq.Name,
			&eq.Category,
			&eq.SerialNumber,
			&eq.IsActive,
			&eq.CreatedAt,
			&eq.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, eq)
	}
	return result, rows.Err()
}
