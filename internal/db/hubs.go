package db

import (
	"context"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
)

func (s *Store) ListHubs(ctx context.Context) ([]models.Hub, error) {
	rows, err := s.Pool.Query(ctx, `SELECT id, name, lat, lon FROM hubs ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Hub
	for rows.Next() {
		h, err := scanHub(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) GetHub(ctx context.Context, id string) (models.Hub, error) {
	return scanHub(s.Pool.QueryRow(ctx, `SELECT id, name, lat, lon FROM hubs WHERE id = $1`, id))
}

func scanHub(row interface{ Scan(...any) error }) (models.Hub, error) {
	var h models.Hub
	var lat, lon *float64
	if err := row.Scan(&h.ID, &h.Name, &lat, &lon); err != nil {
		return models.Hub{}, err
	}
	if lat != nil && lon != nil {
		h.Location = &models.Coordinate{Lat: *lat, Lon: *lon}
	}
	return h, nil
}
