package matrix

import (
	"context"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
)

// Matrices are square (n+1)x(n+1) travel tables with the depot at index 0.
type Matrices struct {
	TimeSec [][]int64
	DistKm  [][]float64
}

// Provider computes travel time and distance matrices for a depot and a
// list of stops. Implementations must always return complete matrices:
// cells the primary source cannot fill are derived from great-circle
// distance instead of failing the computation.
type Provider interface {
	Compute(ctx context.Context, depot models.Coordinate, stops []models.Coordinate) (Matrices, error)
}

// unfilled marks a cell not yet populated by the primary source.
const unfilled = int64(-1)

func newMatrices(n int) Matrices {
	m := Matrices{
		TimeSec: make([][]int64, n),
		DistKm:  make([][]float64, n),
	}
	for i := 0; i < n; i++ {
		m.TimeSec[i] = make([]int64, n)
		m.DistKm[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			if i != j {
				m.TimeSec[i][j] = unfilled
				m.DistKm[i][j] = -1
			}
		}
	}
	return m
}
