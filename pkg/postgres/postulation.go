package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/openvolunteering/postulate/pkg/model"
)

const postulationColumns = `id, volunteer_id, work_id, start_date, end_date, status, submitted_on`

func scanPostulation(row pgx.Row) (*model.Postulation, error) {
	var p model.Postulation
	var status string
	err := row.Scan(&p.ID, &p.VolunteerID, &p.WorkID,
		&p.StartDate, &p.EndDate, &status, &p.SubmittedOn)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan postulation: %w", err)
	}
	p.Status = model.PostulationStatus(status)
	return &p, nil
}

func (s *Store) queryPostulations(ctx context.Context, sql string, args ...any) ([]model.Postulation, error) {
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query postulations: %w", err)
	}
	defer rows.Close()

	var out []model.Postulation
	for rows.Next() {
		p, err := scanPostulation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating postulations: %w", err)
	}
	return out, nil
}

// GetPostulation retrieves one postulation.
func (s *Store) GetPostulation(ctx context.Context, id string) (*model.Postulation, error) {
	row := s.q.QueryRow(ctx, `SELECT `+postulationColumns+` FROM postulation WHERE id = $1`, id)
	return scanPostulation(row)
}

// FindPostulation retrieves the single postulation row for a
// (volunteer, work) pair, whatever its status.
func (s *Store) FindPostulation(ctx context.Context, volunteerID, workID string) (*model.Postulation, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+postulationColumns+` FROM postulation WHERE volunteer_id = $1 AND work_id = $2`,
		volunteerID, workID)
	return scanPostulation(row)
}

// ListActiveOverlapping retrieves the volunteer's pending and accepted
// postulations whose date range overlaps r.
func (s *Store) ListActiveOverlapping(ctx context.Context, volunteerID string, r model.DateRange) ([]model.Postulation, error) {
	return s.queryPostulations(ctx, `
		SELECT `+postulationColumns+`
		FROM postulation
		WHERE volunteer_id = $1
		  AND status IN ('PENDING', 'ACCEPTED')
		  AND start_date <= $3 AND end_date >= $2
		ORDER BY id
	`, volunteerID, r.Start, r.End)
}

// ListVolunteerPostulations retrieves every postulation of one volunteer.
func (s *Store) ListVolunteerPostulations(ctx context.Context, volunteerID string) ([]model.Postulation, error) {
	return s.queryPostulations(ctx, `
		SELECT `+postulationColumns+`
		FROM postulation
		WHERE volunteer_id = $1
		ORDER BY id
	`, volunteerID)
}

// ListWorkPostulationsByStatus retrieves a work's postulations with one
// status.
func (s *Store) ListWorkPostulationsByStatus(ctx context.Context, workID string, status model.PostulationStatus) ([]model.Postulation, error) {
	return s.queryPostulations(ctx, `
		SELECT `+postulationColumns+`
		FROM postulation
		WHERE work_id = $1 AND status = $2
		ORDER BY id
	`, workID, string(status))
}

// ListExpiredPending retrieves every pending postulation whose end date
// falls strictly before the given date.
func (s *Store) ListExpiredPending(ctx context.Context, before time.Time) ([]model.Postulation, error) {
	return s.queryPostulations(ctx, `
		SELECT `+postulationColumns+`
		FROM postulation
		WHERE status = 'PENDING' AND end_date < $1
		ORDER BY id
	`, before)
}

// InsertPostulation inserts a postulation row.
func (s *Store) InsertPostulation(ctx context.Context, p *model.Postulation) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO postulation (id, volunteer_id, work_id, start_date, end_date, status, submitted_on)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, p.ID, p.VolunteerID, p.WorkID, p.StartDate, p.EndDate, string(p.Status), p.SubmittedOn)
	if err != nil {
		return fmt.Errorf("failed to insert postulation: %w", err)
	}
	return nil
}

// UpdatePostulation replaces a postulation's mutable fields.
func (s *Store) UpdatePostulation(ctx context.Context, p *model.Postulation) error {
	_, err := s.q.Exec(ctx, `
		UPDATE postulation
		SET start_date = $2, end_date = $3, status = $4, submitted_on = $5
		WHERE id = $1
	`, p.ID, p.StartDate, p.EndDate, string(p.Status), p.SubmittedOn)
	if err != nil {
		return fmt.Errorf("failed to update postulation: %w", err)
	}
	return nil
}

// DeletePostulation deletes one postulation row.
func (s *Store) DeletePostulation(ctx context.Context, id string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM postulation WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete postulation: %w", err)
	}
	return nil
}

// DeleteWorkPostulations deletes every postulation on a work.
func (s *Store) DeleteWorkPostulations(ctx context.Context, workID string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM postulation WHERE work_id = $1`, workID); err != nil {
		return fmt.Errorf("failed to delete work postulations: %w", err)
	}
	return nil
}
