package db

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
)

func (s *Store) CreateRun(ctx context.Context, status string) (string, error) {
	id := uuid.NewString()
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO runs (id, status, started_at) VALUES ($1, $2, NOW())`, id, status)
	return id, err
}

func (s *Store) FinishRun(ctx context.Context, runID, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx,
		`UPDATE runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3`,
		status, summary, runID)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context) (models.Run, error) {
	var r models.Run
	var finished *time.Time
	err := s.Pool.QueryRow(ctx,
		`SELECT id, started_at, finished_at, status, summary FROM runs ORDER BY started_at DESC LIMIT 1`).
		Scan(&r.ID, &r.StartedAt, &finished, &r.Status, &r.Summary)
	if err != nil {
		return models.Run{}, err
	}
	r.FinishedAt = finished
	return r, nil
}
