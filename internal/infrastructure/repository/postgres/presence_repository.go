package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kirillkom/attendee-presence/internal/core/domain"
)

type PresenceRepository struct {
	db *sql.DB
}

func NewPresenceRepository(db *sql.DB) *PresenceRepository {
	return &PresenceRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *PresenceRepository) ListPresence(ctx context.Context, eventID string) ([]domain.PresenceRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT event_id, attendee_id, display_name, status, last_updated, checked_in_at
FROM presence_records
WHERE event_id = $1
ORDER BY attendee_id
`, eventID)
	if err != nil {
		return nil, domain.WrapError(domain.ErrStorageUnavailable, "list presence", err)
	}
	defer rows.Close()

	out := make([]domain.PresenceRecord, 0)
	for rows.Next() {
		rec, err := scanPresence(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.WrapError(domain.ErrStorageUnavailable, "iterate presence", err)
	}
	return out, nil
}

// Transition locks the attendee's row for the duration of fn, so concurrent
// writers for the same attendee apply one after the other.
func (r *PresenceRepository) Transition(
	ctx context.Context,
	eventID, attendeeID string,
	fn func(current domain.PresenceRecord) (domain.PresenceRecord, error),
) (domain.PresenceRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.PresenceRecord{}, domain.WrapError(domain.ErrStorageUnavailable, "begin presence tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	row := tx.QueryRowContext(ctx, `
SELECT event_id, attendee_id, display_name, status, last_updated, checked_in_at
FROM presence_records
WHERE event_id = $1 AND attendee_id = $2
FOR UPDATE
`, eventID, attendeeID)
	current, err := scanPresence(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PresenceRecord{}, domain.WrapError(
				domain.ErrAttendeeNotFound, "lock presence", fmt.Errorf("event=%s attendee=%s", eventID, attendeeID),
			)
		}
		return domain.PresenceRecord{}, err
	}

	next, err := fn(current)
	if err != nil {
		return domain.PresenceRecord{}, err
	}

	if _, err := tx.ExecContext(ctx, `
UPDATE presence_records
SET status = $3, last_updated = $4, checked_in_at = $5
WHERE event_id = $1 AND attendee_id = $2
`, eventID, attendeeID, string(next.Status), next.LastUpdated, nullTime(next.CheckedInAt)); err != nil {
		return domain.PresenceRecord{}, domain.WrapError(domain.ErrStorageUnavailable, "update presence", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.PresenceRecord{}, domain.WrapError(domain.ErrStorageUnavailable, "commit presence tx", err)
	}
	return next, nil
}

func (r *PresenceRepository) ResetAll(ctx context.Context, eventID string, now time.Time) (domain.ResetResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.ResetResult{}, domain.WrapError(domain.ErrStorageUnavailable, "begin reset tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	notArrived := string(domain.StatusNotArrived)
	changedRes, err := tx.ExecContext(ctx, `
UPDATE presence_records
SET status = $2, last_updated = $3, checked_in_at = NULL
WHERE event_id = $1 AND status <> $2
`, eventID, notArrived, domain.StoredTime(now))
	if err != nil {
		return domain.ResetResult{}, domain.WrapError(domain.ErrStorageUnavailable, "reset changed presence", err)
	}
	unchangedRes, err := tx.ExecContext(ctx, `
UPDATE presence_records
SET last_updated = $3, checked_in_at = NULL
WHERE event_id = $1 AND status = $2
`, eventID, notArrived, domain.StoredTime(now))
	if err != nil {
		return domain.ResetResult{}, domain.WrapError(domain.ErrStorageUnavailable, "reset unchanged presence", err)
	}

	changed, err := changedRes.RowsAffected()
	if err != nil {
		return domain.ResetResult{}, fmt.Errorf("reset rows affected: %w", err)
	}
	unchanged, err := unchangedRes.RowsAffected()
	if err != nil {
		return domain.ResetResult{}, fmt.Errorf("reset rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return domain.ResetResult{}, domain.WrapError(domain.ErrStorageUnavailable, "commit reset tx", err)
	}
	return domain.ResetResult{
		EventID: eventID,
		Total:   int(changed + unchanged),
		Changed: int(changed),
	}, nil
}

// InsertMissing adds records whose (event, attendee) pair is not stored yet
// and leaves existing rows untouched.
func (r *PresenceRepository) InsertMissing(ctx context.Context, records []domain.PresenceRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, domain.WrapError(domain.ErrStorageUnavailable, "begin seed tx", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	inserted := 0
	for _, rec := range records {
		res, err := tx.ExecContext(ctx, `
INSERT INTO presence_records (event_id, attendee_id, display_name, status, last_updated, checked_in_at)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (event_id, attendee_id) DO NOTHING
`, rec.EventID, rec.AttendeeID, rec.DisplayName, string(rec.Status), rec.LastUpdated, nullTime(rec.CheckedInAt))
		if err != nil {
			return 0, domain.WrapError(domain.ErrStorageUnavailable, "insert presence "+rec.AttendeeID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("seed rows affected: %w", err)
		}
		inserted += int(n)
	}

	if err := tx.Commit(); err != nil {
		return 0, domain.WrapError(domain.ErrStorageUnavailable, "commit seed tx", err)
	}
	return inserted, nil
}

func scanPresence(row rowScanner) (domain.PresenceRecord, error) {
	var rec domain.PresenceRecord
	var status string
	var checkedIn sql.NullTime
	if err := row.Scan(&rec.EventID, &rec.AttendeeID, &rec.DisplayName, &status, &rec.LastUpdated, &checkedIn); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.PresenceRecord{}, err
		}
		return domain.PresenceRecord{}, domain.WrapError(domain.ErrStorageUnavailable, "scan presence", err)
	}
	rec.Status = domain.PresenceStatus(status)
	rec.LastUpdated = rec.LastUpdated.UTC()
	if checkedIn.Valid {
		at := checkedIn.Time.UTC()
		rec.CheckedInAt = &at
	}
	return rec, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
