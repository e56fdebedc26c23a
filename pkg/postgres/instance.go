package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/openvolunteering/postulate/pkg/model"
)

const instanceColumns = `id, work_id, volunteer_id, start_date, end_date`

func scanInstance(row pgx.Row) (*model.WorkInstance, error) {
	var inst model.WorkInstance
	err := row.Scan(&inst.ID, &inst.WorkID, &inst.VolunteerID, &inst.StartDate, &inst.EndDate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan work instance: %w", err)
	}
	return &inst, nil
}

func (s *Store) queryInstances(ctx context.Context, sql string, args ...any) ([]model.WorkInstance, error) {
	rows, err := s.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query work instances: %w", err)
	}
	defer rows.Close()

	var out []model.WorkInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating work instances: %w", err)
	}
	return out, nil
}

// GetInstance retrieves one work instance.
func (s *Store) GetInstance(ctx context.Context, id string) (*model.WorkInstance, error) {
	row := s.q.QueryRow(ctx, `SELECT `+instanceColumns+` FROM work_instance WHERE id = $1`, id)
	return scanInstance(row)
}

// CountWorkInstances counts the instances of one work.
func (s *Store) CountWorkInstances(ctx context.Context, workID string) (int, error) {
	var count int
	err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM work_instance WHERE work_id = $1`, workID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count work instances: %w", err)
	}
	return count, nil
}

// ListWorkInstances retrieves every instance of one work.
func (s *Store) ListWorkInstances(ctx context.Context, workID string) ([]model.WorkInstance, error) {
	return s.queryInstances(ctx, `
		SELECT `+instanceColumns+` FROM work_instance WHERE work_id = $1 ORDER BY id
	`, workID)
}

// ListVolunteerInstances retrieves every instance held by one volunteer.
func (s *Store) ListVolunteerInstances(ctx context.Context, volunteerID string) ([]model.WorkInstance, error) {
	return s.queryInstances(ctx, `
		SELECT `+instanceColumns+` FROM work_instance WHERE volunteer_id = $1 ORDER BY id
	`, volunteerID)
}

// InsertInstance inserts a work instance row.
func (s *Store) InsertInstance(ctx context.Context, inst *model.WorkInstance) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO work_instance (id, work_id, volunteer_id, start_date, end_date)
		VALUES ($1, $2, $3, $4, $5)
	`, inst.ID, inst.WorkID, inst.VolunteerID, inst.StartDate, inst.EndDate)
	if err != nil {
		return fmt.Errorf("failed to insert work instance: %w", err)
	}
	return nil
}

// DeleteWorkInstances deletes every instance of one work.
func (s *Store) DeleteWorkInstances(ctx context.Context, workID string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM work_instance WHERE work_id = $1`, workID); err != nil {
		return fmt.Errorf("failed to delete work instances: %w", err)
	}
	return nil
}
