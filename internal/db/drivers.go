package db

import (
	"context"
	"time"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
)

func (s *Store) ListAvailableDrivers(ctx context.Context, hubID string) ([]models.Driver, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, name, hub_id, remaining_hours, max_weight_kg, max_volume_m3, available
		FROM drivers
		WHERE hub_id = $1 AND available = TRUE AND remaining_hours > 0
		ORDER BY remaining_hours DESC, id ASC`, hubID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Driver
	for rows.Next() {
		var d models.Driver
		if err := rows.Scan(&d.ID, &d.Name, &d.HubID, &d.RemainingHours, &d.MaxWeightKg, &d.MaxVolumeM3, &d.Available); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Store) GetDriver(ctx context.Context, id string) (models.Driver, error) {
	var d models.Driver
	err := s.Pool.QueryRow(ctx, `
		SELECT id, name, hub_id, remaining_hours, max_weight_kg, max_volume_m3, available
		FROM drivers WHERE id = $1`, id).
		Scan(&d.ID, &d.Name, &d.HubID, &d.RemainingHours, &d.MaxWeightKg, &d.MaxVolumeM3, &d.Available)
	return d, err
}

// MarkOverdueShifts flags assigned or active shifts from past days that
// were never completed. Runs once daily from the scheduler.
func (s *Store) MarkOverdueShifts(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE shifts SET status = 'overdue'
		WHERE day < $1 AND status IN ('assigned', 'active')`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
