package directory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgDirectory struct{ pool *pgxpool.Pool }

// NewPGDirectory creates a Directory over the providers and patients tables.
func NewPGDirectory(pool *pgxpool.Pool) Directory {
	return &pgDirectory{pool: pool}
}

func (d *pgDirectory) ProviderExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM providers WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (d *pgDirectory) GetProviderSummary(ctx context.Context, id uuid.UUID) (*ProviderSummary, error) {
	var s ProviderSummary
	err := d.pool.QueryRow(ctx, `
		SELECT id, name, specialty
		FROM providers
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.Specialty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProviderNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (d *pgDirectory) PatientExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := d.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (d *pgDirectory) GetPatientSummary(ctx context.Context, id uuid.UUID) (*PatientSummary, error) {
	var s PatientSummary
	err := d.pool.QueryRow(ctx, `
		SELECT id, name, date_of_birth
		FROM patients
		WHERE id = $1
	`, id).Scan(&s.ID, &s.Name, &s.DateOfBirth)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &s, nil
}
