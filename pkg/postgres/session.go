package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/openvolunteering/postulate/pkg/calendar"
	"github.com/openvolunteering/postulate/pkg/model"
)

const sessionColumns = `id, instance_id, session_date, start_hour, start_minute, week_day, status`

func scanSession(row pgx.Row) (*model.WorkSession, error) {
	var s model.WorkSession
	var day, hour, minute int
	var status string
	err := row.Scan(&s.ID, &s.InstanceID, &s.Date, &hour, &minute, &day, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan work session: %w", err)
	}
	s.Start = calendar.TimeOfDay{Hour: hour, Minute: minute}
	s.WeekDay = calendar.WeekDay(day)
	s.Status = model.SessionStatus(status)
	return &s, nil
}

func (s *Store) querySessions(ctx context.Context, sql string, args ...any) ([]model.WorkSession, error) {
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query work sessions: %w", err)
	}
	defer rows.Close()

	var out []model.WorkSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating work sessions: %w", err)
	}
	return out, nil
}

// GetSession retrieves one work session.
func (s *Store) GetSession(ctx context.Context, id string) (*model.WorkSession, error) {
	row := s.q.QueryRow(ctx, `SELECT `+sessionColumns+` FROM work_session WHERE id = $1`, id)
	return scanSession(row)
}

// InsertSessions inserts a batch of session rows.
func (s *Store) InsertSessions(ctx context.Context, sessions []model.WorkSession) error {
	for _, sess := range sessions {
		_, err := s.q.Exec(ctx, `
			INSERT INTO work_session (id, instance_id, session_date, start_hour, start_minute, week_day, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, sess.ID, sess.InstanceID, sess.Date,
			sess.Start.Hour, sess.Start.Minute, int(sess.WeekDay), string(sess.Status))
		if err != nil {
			return fmt.Errorf("failed to insert work session: %w", err)
		}
	}
	return nil
}

// UpdateSessionStatus sets one session's attendance status.
func (s *Store) UpdateSessionStatus(ctx context.Context, id string, status model.SessionStatus) error {
	_, err := s.q.Exec(ctx, `UPDATE work_session SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	return nil
}

// ListInstanceSessions retrieves one contract's sessions in date order.
func (s *Store) ListInstanceSessions(ctx context.Context, instanceID string) ([]model.WorkSession, error) {
	return s.querySessions(ctx, `
		SELECT `+sessionColumns+`
		FROM work_session
		WHERE instance_id = $1
		ORDER BY session_date, start_hour, start_minute
	`, instanceID)
}

// ListWorkSessionsAt retrieves the sessions of every instance of a work
// on one date and hour block.
func (s *Store) ListWorkSessionsAt(ctx context.Context, workID string, date time.Time, start calendar.TimeOfDay) ([]model.WorkSession, error) {
	return s.querySessions(ctx, `
		SELECT s.id, s.instance_id, s.session_date, s.start_hour, s.start_minute, s.week_day, s.status
		FROM work_session s
		JOIN work_instance i ON i.id = s.instance_id
		WHERE i.work_id = $1 AND s.session_date = $2 AND s.start_hour = $3 AND s.start_minute = $4
		ORDER BY s.id
	`, workID, date, start.Hour, start.Minute)
}

// DeleteWorkSessions deletes every session of a work's instances.
func (s *Store) DeleteWorkSessions(ctx context.Context, workID string) error {
	_, err := s.q.Exec(ctx, `
		DELETE FROM work_session
		WHERE instance_id IN (SELECT id FROM work_instance WHERE work_id = $1)
	`, workID)
	if err != nil {
		return fmt.Errorf("failed to delete work sessions: %w", err)
	}
	return nil
}
