package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/openvolunteering/postulate/pkg/calendar"
	"github.com/openvolunteering/postulate/pkg/model"
)

const workColumns = `id, supplier_id, name, description, kind, start_date, end_date, capacity, tags`

func scanWork(row pgx.Row) (*model.Work, error) {
	var w model.Work
	var kind string
	err := row.Scan(&w.ID, &w.SupplierID, &w.Name, &w.Description, &kind,
		&w.StartDate, &w.EndDate, &w.Capacity, &w.Tags)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan work: %w", err)
	}
	w.Kind = model.WorkKind(kind)
	return &w, nil
}

// GetWork retrieves one work with its hour blocks.
func (s *Store) GetWork(ctx context.Context, id string) (*model.Work, error) {
	row := s.q.QueryRow(ctx, `SELECT `+workColumns+` FROM work WHERE id = $1`, id)
	w, err := scanWork(row)
	if err != nil || w == nil {
		return w, err
	}
	w.HourBlocks, err = s.workHourBlocks(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// GetWorkByName retrieves a supplier's work by its name.
func (s *Store) GetWorkByName(ctx context.Context, supplierID, name string) (*model.Work, error) {
	row := s.q.QueryRow(ctx,
		`SELECT `+workColumns+` FROM work WHERE supplier_id = $1 AND name = $2`,
		supplierID, name)
	w, err := scanWork(row)
	if err != nil || w == nil {
		return w, err
	}
	w.HourBlocks, err = s.workHourBlocks(ctx, w.ID)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// ListWorksOverlapping retrieves every work whose window overlaps the
// given range, ordered by id.
func (s *Store) ListWorksOverlapping(ctx context.Context, r model.DateRange) ([]model.Work, error) {
	rows, err := s.q.Query(ctx, `
		SELECT `+workColumns+`
		FROM work
		WHERE start_date <= $2 AND end_date >= $1
		ORDER BY id
	`, r.Start, r.End)
	if err != nil {
		return nil, fmt.Errorf("failed to query works: %w", err)
	}
	defer rows.Close()

	var works []model.Work
	for rows.Next() {
		w, err := scanWork(rows)
		if err != nil {
			return nil, err
		}
		works = append(works, *w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating works: %w", err)
	}

	for i := range works {
		works[i].HourBlocks, err = s.workHourBlocks(ctx, works[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return works, nil
}

// InsertWork inserts a work and its hour blocks.
func (s *Store) InsertWork(ctx context.Context, w *model.Work) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO work (id, supplier_id, name, description, kind, start_date, end_date, capacity, tags)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, w.ID, w.SupplierID, w.Name, w.Description, string(w.Kind),
		w.StartDate, w.EndDate, w.Capacity, w.Tags)
	if err != nil {
		return fmt.Errorf("failed to insert work: %w", err)
	}
	return s.replaceWorkHourBlocks(ctx, w.ID, w.HourBlocks)
}

// UpdateWork replaces a work's row and hour blocks.
func (s *Store) UpdateWork(ctx context.Context, w *model.Work) error {
	_, err := s.q.Exec(ctx, `
		UPDATE work
		SET name = $2, description = $3, kind = $4, start_date = $5,
		    end_date = $6, capacity = $7, tags = $8
		WHERE id = $1
	`, w.ID, w.Name, w.Description, string(w.Kind),
		w.StartDate, w.EndDate, w.Capacity, w.Tags)
	if err != nil {
		return fmt.Errorf("failed to update work: %w", err)
	}
	return s.replaceWorkHourBlocks(ctx, w.ID, w.HourBlocks)
}

// DeleteWork deletes a work row. Hour blocks go with it via the cascade.
func (s *Store) DeleteWork(ctx context.Context, id string) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM work WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete work: %w", err)
	}
	return nil
}

func (s *Store) workHourBlocks(ctx context.Context, workID string) ([]calendar.HourBlock, error) {
	rows, err := s.q.Query(ctx, `
		SELECT week_day, start_hour, start_minute
		FROM work_hour_block
		WHERE work_id = $1
		ORDER BY week_day, start_hour, start_minute
	`, workID)
	if err != nil {
		return nil, fmt.Errorf("failed to query work hour blocks: %w", err)
	}
	defer rows.Close()
	return scanHourBlocks(rows)
}

func (s *Store) replaceWorkHourBlocks(ctx context.Context, workID string, blocks []calendar.HourBlock) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM work_hour_block WHERE work_id = $1`, workID); err != nil {
		return fmt.Errorf("failed to clear work hour blocks: %w", err)
	}
	for _, b := range blocks {
		_, err := s.q.Exec(ctx, `
			INSERT INTO work_hour_block (work_id, week_day, start_hour, start_minute)
			VALUES ($1, $2, $3, $4)
		`, workID, int(b.Day), b.Start.Hour, b.Start.Minute)
		if err != nil {
			return fmt.Errorf("failed to insert work hour block: %w", err)
		}
	}
	return nil
}

func scanHourBlocks(rows pgx.Rows) ([]calendar.HourBlock, error) {
	var blocks []calendar.HourBlock
	for rows.Next() {
		var day, hour, minute int
		if err := rows.Scan(&day, &hour, &minute); err != nil {
			return nil, fmt.Errorf("failed to scan hour block: %w", err)
		}
		blocks = append(blocks, calendar.HourBlock{
			Day:   calendar.WeekDay(day),
			Start: calendar.TimeOfDay{Hour: hour, Minute: minute},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hour blocks: %w", err)
	}
	return blocks, nil
}
