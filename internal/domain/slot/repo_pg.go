package slot

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

const slotCols = `id, provider_id, date, start_time, end_time, is_booked, is_available, appointment_id, created_at, updated_at`

func scanSlot(row pgx.Row) (*Slot, error) {
	var s Slot
	err := row.Scan(&s.ID, &s.ProviderID, &s.Date, &s.StartTime, &s.EndTime,
		&s.IsBooked, &s.IsAvailable, &s.AppointmentID, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &s, err
}

func (r *repoPG) Create(ctx context.Context, s *Slot) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO slots (id, provider_id, date, start_time, end_time, is_booked, is_available)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		s.ID, s.ProviderID, s.Date, s.StartTime, s.EndTime, s.IsBooked, s.IsAvailable)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Slot, error) {
	return scanSlot(r.conn(ctx).QueryRow(ctx, `SELECT `+slotCols+` FROM slots WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, s *Slot) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE slots SET provider_id=$2, date=$3, start_time=$4, end_time=$5, is_available=$6, updated_at=NOW()
		WHERE id = $1`,
		s.ID, s.ProviderID, s.Date, s.StartTime, s.EndTime, s.IsAvailable)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM slots WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Book(ctx context.Context, id, appointmentID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE slots SET is_booked = TRUE, appointment_id = $2, updated_at = NOW()
		WHERE id = $1 AND NOT is_booked AND is_available`,
		id, appointmentID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing slot from a lost race.
		if _, err := r.GetByID(ctx, id); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrSlotTaken
	}
	return nil
}

func (r *repoPG) Release(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE slots SET is_booked = FALSE, appointment_id = NULL, updated_at = NOW()
		WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) FindOverlapping(ctx context.Context, providerID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*Slot, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+slotCols+` FROM slots
		WHERE provider_id = $1 AND start_time < $3 AND end_time > $2 AND id <> $4
		ORDER BY start_time ASC`,
		providerID, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*Slot, int, error) {
	return r.list(ctx, `FROM slots WHERE provider_id = $1`, []interface{}{providerID}, limit, offset)
}

func (r *repoPG) ListAvailableByProvider(ctx context.Context, providerID uuid.UUID, from time.Time, limit, offset int) ([]*Slot, int, error) {
	return r.list(ctx,
		`FROM slots WHERE provider_id = $1 AND is_available AND NOT is_booked AND start_time >= $2`,
		[]interface{}{providerID, from}, limit, offset)
}

func (r *repoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Slot, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	n := len(args)
	query := fmt.Sprintf(`SELECT %s %s ORDER BY start_time ASC LIMIT $%d OFFSET $%d`,
		slotCols, where, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collect(rows)
	return items, total, err
}

func collect(rows pgx.Rows) ([]*Slot, error) {
	var items []*Slot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}
