package appointment

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

const apptCols = `id, patient_id, provider_id, scheduled_start, scheduled_time, duration_minutes,
	reason, status, priority, slot_id, availability_id, parent_appointment_id,
	diagnosis, prescription, vitals, cancellation_reason,
	meeting_join_url, meeting_host_url, notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.ProviderID, &a.ScheduledStart, &a.ScheduledTime,
		&a.DurationMinutes, &a.Reason, &a.Status, &a.Priority, &a.SlotID, &a.AvailabilityID,
		&a.ParentAppointmentID, &a.Diagnosis, &a.Prescription, &a.Vitals, &a.CancellationReason,
		&a.MeetingJoinURL, &a.MeetingHostURL, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (id, patient_id, provider_id, scheduled_start, scheduled_time,
			duration_minutes, reason, status, priority, slot_id, availability_id,
			parent_appointment_id, vitals, notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		a.ID, a.PatientID, a.ProviderID, a.ScheduledStart, a.ScheduledTime,
		a.DurationMinutes, a.Reason, a.Status, a.Priority, a.SlotID, a.AvailabilityID,
		a.ParentAppointmentID, a.Vitals, a.Notes)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+apptCols+` FROM appointments WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, a *Appointment) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET scheduled_start=$2, scheduled_time=$3, duration_minutes=$4,
			reason=$5, priority=$6, slot_id=$7, availability_id=$8,
			diagnosis=$9, prescription=$10, vitals=$11, cancellation_reason=$12,
			meeting_join_url=$13, meeting_host_url=$14, notes=$15, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.ScheduledStart, a.ScheduledTime, a.DurationMinutes,
		a.Reason, a.Priority, a.SlotID, a.AvailabilityID,
		a.Diagnosis, a.Prescription, a.Vitals, a.CancellationReason,
		a.MeetingJoinURL, a.MeetingHostURL, a.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, id); errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return ErrInvalidTransition
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// LockProvider takes a transaction-scoped advisory lock keyed on the provider
// id, so two bookings for the same provider never interleave their conflict
// check and insert.
func (r *repoPG) LockProvider(ctx context.Context, providerID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, providerID.String())
	return err
}

func (r *repoPG) FindConflicts(ctx context.Context, providerID uuid.UUID, start, end time.Time, excludeID uuid.UUID) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE provider_id = $1 AND status NOT IN ('cancelled', 'rescheduled')
		  AND scheduled_start < $3
		  AND scheduled_start + make_interval(mins => duration_minutes) > $2
		  AND id <> $4
		ORDER BY scheduled_start ASC`,
		providerID, start, end, excludeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `FROM appointments WHERE provider_id = $1`, []interface{}{providerID}, limit, offset)
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `FROM appointments WHERE patient_id = $1`, []interface{}{patientID}, limit, offset)
}

func (r *repoPG) ListByStatus(ctx context.Context, status Status, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, `FROM appointments WHERE status = $1`, []interface{}{status}, limit, offset)
}

func (r *repoPG) ListByDateRange(ctx context.Context, from, to time.Time, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx,
		`FROM appointments WHERE scheduled_start >= $1 AND scheduled_start < $2`,
		[]interface{}{from, to}, limit, offset)
}

func (r *repoPG) ListActiveInWindow(ctx context.Context, from, to time.Time, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx,
		`FROM appointments WHERE status NOT IN ('cancelled', 'rescheduled') AND scheduled_start >= $1 AND scheduled_start < $2`,
		[]interface{}{from, to}, limit, offset)
}

func (r *repoPG) list(ctx context.Context, where string, args []interface{}, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	n := len(args)
	query := fmt.Sprintf(`SELECT %s %s ORDER BY scheduled_start ASC LIMIT $%d OFFSET $%d`,
		apptCols, where, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items, err := collect(rows)
	return items, total, err
}

func collect(rows pgx.Rows) ([]*Appointment, error) {
	var items []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

// pgTxRunner runs booking work inside a database transaction.
type pgTxRunner struct{ pool *pgxpool.Pool }

func NewPgTxRunner(pool *pgxpool.Pool) TxRunner { return &pgTxRunner{pool: pool} }

func (r *pgTxRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return db.WithTx(ctx, r.pool, fn)
}
