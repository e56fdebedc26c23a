package postgres

import (
	"context"
	"fmt"

	"github.com/openvolunteering/postulate/pkg/calendar"
)

// GetPreferences retrieves a volunteer's hour block preferences.
func (s *Store) GetPreferences(ctx context.Context, volunteerID string) ([]calendar.HourBlock, error) {
	rows, err := s.q.Query(ctx, `
		SELECT week_day, start_hour, start_minute
		FROM volunteer_hour_block
		WHERE volunteer_id = $1
		ORDER BY week_day, start_hour, start_minute
	`, volunteerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query volunteer hour blocks: %w", err)
	}
	defer rows.Close()
	return scanHourBlocks(rows)
}

// ReplacePreferences replaces a volunteer's hour block set wholesale.
func (s *Store) ReplacePreferences(ctx context.Context, volunteerID string, blocks []calendar.HourBlock) error {
	if _, err := s.q.Exec(ctx, `DELETE FROM volunteer_hour_block WHERE volunteer_id = $1`, volunteerID); err != nil {
		return fmt.Errorf("failed to clear volunteer hour blocks: %w", err)
	}
	for _, b := range blocks {
		_, err := s.q.Exec(ctx, `
			INSERT INTO volunteer_hour_block (volunteer_id, week_day, start_hour, start_minute)
			VALUES ($1, $2, $3, $4)
		`, volunteerID, int(b.Day), b.Start.Hour, b.Start.Minute)
		if err != nil {
			return fmt.Errorf("failed to insert volunteer hour block: %w", err)
		}
	}
	return nil
}
