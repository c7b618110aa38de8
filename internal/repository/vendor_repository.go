package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hey-coffee/maintenance-service/internal/domain"
)

// VendorRepository handles vendor persistence.
type VendorRepository interface {
	Create(ctx context.Context, vendor *domain.Vendor) error
	Update(ctx context.Context, vendor *domain.Vendor) error
	GetByID(ctx context.Context, id string) (*domain.Vendor, error)
	List(ctx context.Context) ([]domain.Vendor, error)
}

type vendorRepository struct {
	pool *pgxpool.Pool
}

// NewVendorRepository instantiates the repository.
func NewVendorRepository(pool *pgxpool.Pool) VendorRepository {
	return &vendorRepository{pool: pool}
}

func (r *vendorRepository) Create(ctx context.Context, vendor *domain.Vendor) error {
	const query = `
        INSERT INTO vendors (name, phone, email, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		vendor.Name,
		vendor.Phone,
		vendor.Email,
		vendor.IsActive,
	).Scan(&vendor.ID, &vendor.CreatedAt, &vendor.UpdatedAt)
}

func (r *vendorRepository) Update(ctx context.Context, vendor *domain.Vendor) error {
	const query = `
        UPDATE vendors SET name=$1, phone=$2, email=$3, is_active=$4, updated_at=NOW()
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		vendor.Name,
		vendor.Phone,
		vendor.Email,
		vendor.IsActive,
		vendor.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *vendorRepository) GetByID(ctx context.Context, id string) (*domain.Vendor, error) {
	const query = `
        SELECT id, name, phone, email, is_active, created_at, updated_at
        FROM vendors WHERE id=$1`
	var vendor domain.Vendor
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&vendor.ID,
		&vendor.Name,
		&vendor.Phone,
		&vendor.Email,
		&vendor.IsActive,
		&vendor.CreatedAt,
		&vendor.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &vendor, nil
}

func (r *vendorRepository) List(ctx context.Context) ([]domain.Vendor, error) {
	const query = `
        SELECT id, name, phone, email, is_active, created_at, updated_at
        FROM vendors ORDER BY name ASC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Vendor
	for rows.Next() {
		var vendor domain.Vendor
		if err := rows.Scan(
			&vendor.ID,
			&vendor.Name,
			&vendor.Phone,
			&vendor.Email,
			&vendor.IsActive,
			&vendor.CreatedAt,
			&vendor.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, vendor)
	}
	return result, rows.Err()
}
