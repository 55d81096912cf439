package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/alghaibb/kick-back-sub002/internal/domain"
	"github.com/alghaibb/kick-back-sub002/internal/pruner"
	"github.com/alghaibb/kick-back-sub002/internal/runner"
)

// Store implements runner.Store and pruner.Store using PostgreSQL.
type Store struct {
	db *sql.DB
}

// New creates a new PostgreSQL store with the given database connection.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// SelectCandidates returns (event, attendee, user) tuples for events whose
// UTC instant falls within [from, to). Declined attendees are excluded;
// everything else is left to the per-candidate evaluation.
func (s *Store) SelectCandidates(ctx context.Context, from, to time.Time) ([]domain.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, querySelectCandidates, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Candidate
	for rows.Next() {
		var cand domain.Candidate
		var description, location, phone sql.NullString
		var lastSent sql.NullTime
		var reminderType string

		err := rows.Scan(
			&cand.Event.ID,
			&cand.Event.Name,
			&description,
			&location,
			&cand.Event.Date,
			&cand.Attendee.EventID,
			&cand.Attendee.UserID,
			&cand.Attendee.RSVPStatus,
			&lastSent,
			&cand.User.ID,
			&cand.User.Email,
			&phone,
			&reminderType,
			&cand.User.ReminderTime,
			&cand.User.Timezone,
		)
		if err != nil {
			return nil, err
		}
		cand.Event.Description = description.String
		cand.Event.Location = location.String
		cand.User.PhoneNumber = phone.String
		cand.User.ReminderType = domain.ReminderType(reminderType)
		if lastSent.Valid {
			t := lastSent.Time
			cand.Attendee.LastReminderSent = &t
		}
		result = append(result, cand)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// MarkReminderSent sets the attendee's idempotency marker to sentAt.
// The guard lives in the WHERE clause: the write only lands when the
// stored marker is NULL or predates cutoff (the attendee's local
// midnight), so two concurrent invocations cannot both claim the send.
// Returns runner.ErrAlreadyMarked when the guard rejects the write.
func (s *Store) MarkReminderSent(ctx context.Context, eventID, userID uuid.UUID, sentAt, cutoff time.Time) error {
	result, err := s.db.ExecContext(ctx, queryMarkReminderSent, sentAt, eventID, userID, cutoff)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		// Either: (a) attendee row not found, or (b) marker already set
		// for today. Distinguish by checking if the row exists.
		var lastSent sql.NullTime
		err := s.db.QueryRowContext(ctx, queryGetLastReminderSent, eventID, userID).Scan(&lastSent)
		if err == sql.ErrNoRows {
			return sql.ErrNoRows
		}
		if err != nil {
			return err
		}
		return runner.ErrAlreadyMarked
	}

	return nil
}

// InsertReminderLog inserts a per-channel dispatch record.
func (s *Store) InsertReminderLog(ctx context.Context, entry domain.ReminderLog) error {
	_, err := s.db.ExecContext(ctx, queryInsertReminderLog,
		entry.ID,
		entry.EventID,
		entry.UserID,
		entry.Channel,
		entry.Status,
		entry.Error,
		entry.SentAt,
	)
	return err
}

// PruneReminderLog deletes up to maxRows reminder_log entries older than
// olderThan, oldest first, and returns the number deleted.
func (s *Store) PruneReminderLog(ctx context.Context, olderThan time.Time, maxRows int) (int64, error) {
	result, err := s.db.ExecContext(ctx, queryPruneReminderLog, olderThan, maxRows)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Compile-time interface assertions
var (
	_ runner.Store = (*Store)(nil)
	_ pruner.Store = (*Store)(nil)
)
