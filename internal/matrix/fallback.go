package matrix

import (
	"context"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/utils"
)

// FallbackSpeedKmh is the assumed driving speed used whenever the routing
// service has no answer for a pair of points.
const FallbackSpeedKmh = 50.0

// FallbackProvider derives every cell from great-circle distance at the
// assumed speed. It needs no network access and is fully deterministic.
type FallbackProvider struct{}

func (FallbackProvider) Compute(_ context.Context, depot models.Coordinate, stops []models.Coordinate) (Matrices, error) {
	points := append([]models.Coordinate{depot}, stops...)
	m := newMatrices(len(points))
	fillUnfilled(&m, points)
	return m, nil
}

// FallbackCell returns the great-circle travel estimate for one pair.
func FallbackCell(from, to models.Coordinate) (seconds int64, km float64) {
	km = utils.HaversineKm(from.Lat, from.Lon, to.Lat, to.Lon)
	seconds = int64(km * 3600 / FallbackSpeedKmh)
	return seconds, km
}

// fillUnfilled replaces every cell the primary source left empty.
func fillUnfilled(m *Matrices, points []models.Coordinate) {
	for i := range points {
		for j := range points {
			if i == j || m.TimeSec[i][j] != unfilled {
				continue
			}
			sec, km := FallbackCell(points[i], points[j])
			m.TimeSec[i][j] = sec
			m.DistKm[i][j] = km
		}
	}
}
