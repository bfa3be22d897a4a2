package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caresched/caresched/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) db.Queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const availCols = `id, provider_id, start_time, end_time, kind, status, notes, created_at, updated_at`

func scanAvailability(row pgx.Row) (*Availability, error) {
	var a Availability
	err := row.Scan(&a.ID, &a.ProviderID, &a.StartTime, &a.EndTime, &a.Kind, &a.Status,
		&a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Availability) error {
	a.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO availability (id, provider_id, start_time, end_time, kind, status, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		a.ID, a.ProviderID, a.StartTime, a.EndTime, a.Kind, a.Status, a.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Availability, error) {
	return scanAvailability(r.conn(ctx).QueryRow(ctx,
		`SELECT `+availCols+` FROM availability WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Availability) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE availability SET start_time=$2, end_time=$3, kind=$4, status=$5, notes=$6, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.StartTime, a.EndTime, a.Kind, a.Status, a.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE availability SET status=$2, updated_at=NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM availability WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) FindOverlapping(ctx context.Context, providerID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*Availability, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+availCols+` FROM availability
		WHERE provider_id = $1 AND status = 'available'
		  AND start_time < $3 AND end_time > $2
		  AND id <> $4
		ORDER BY start_time ASC`,
		providerID, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*Availability, int, error) {
	return r.list(ctx,
		`FROM availability WHERE provider_id = $1`,
		[]interface{}{providerID}, limit, offset)
}

func (r *repoPG) ListAvailable(ctx context.Context, from time.Time, limit, offset int) ([]*Availability, int, error) {
	return r.list(ctx,
		`FROM availability WHERE status = 'available' AND start_time >= $1`,
		[]interface{}{from}, limit, offset)
}

func (r *repoPG) ListByDateRange(ctx context.Context, providerID uuid.UUID, from, to time.Time, limit, offset int) ([]*Availability, int, error) {
	return r.list(ctx,
		`FROM availability WHERE provider_id = $1 AND start_time < $3 AND end_time > $2`,
		[]interface{}{providerID, from, to}, limit, offset)
}

func (r *repoPG) ListAvailableByDateRange(ctx context.Context, providerID uuid.UUID, from, to time.Time, limit, offset int) ([]*Availability, int, error) {
	return r.list(ctx,
		`FROM availability WHERE provider_id = $1 AND status = 'available' AND start_time < $3 AND end_time > $2`,
		[]interface{}{providerID, from, to}, limit, offset)
}

func (r *repoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Availability, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	n := len(args)
	query := fmt.Sprintf(`SELECT %s %s ORDER BY start_time ASC LIMIT $%d OFFSET $%d`,
		availCols, where, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collect(rows)
	return items, total, err
}

func collect(rows pgx.Rows) ([]*Availability, error) {
	var items []*Availability
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
