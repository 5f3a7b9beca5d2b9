package matrix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
)

// batchSize caps one routing-service call at batchSize x batchSize elements.
const batchSize = 10

// RoutingProvider queries an external distance-matrix HTTP API in bounded
// batches and falls back to great-circle estimates for any cell the service
// does not answer. A batch failure is logged and degrades only that batch.
type RoutingProvider struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
	Cache   *PairCache
	Logger  zerolog.Logger
}

type matrixResponse struct {
	Status string      `json:"status"`
	Rows   []matrixRow `json:"rows"`
}

type matrixRow struct {
	Elements []matrixElement `json:"elements"`
}

type matrixElement struct {
	Status   string       `json:"status"`
	Duration *matrixValue `json:"duration"`
	Traffic  *matrixValue `json:"duration_in_traffic"`
	Distance *matrixValue `json:"distance"`
}

type matrixValue struct {
	Value int64 `json:"value"`
}

func (p *RoutingProvider) Compute(ctx context.Context, depot models.Coordinate, stops []models.Coordinate) (Matrices, error) {
	if p.Client == nil {
		p.Client = &http.Client{Timeout: 15 * time.Second}
	}

	points := append([]models.Coordinate{depot}, stops...)
	m := newMatrices(len(points))

	if p.Cache != nil {
		hits := p.Cache.Fill(ctx, &m, points)
		if hits > 0 {
			p.Logger.Debug().Int("cells", hits).Msg("distance cache hits")
		}
	}

	fresh := map[[2]int]struct{}{}
	for oStart := 0; oStart < len(points); oStart += batchSize {
		oEnd := min(oStart+batchSize, len(points))
		for dStart := 0; dStart < len(points); dStart += batchSize {
			dEnd := min(dStart+batchSize, len(points))
			if !needsFetch(m, oStart, oEnd, dStart, dEnd) {
				continue
			}
			if err := p.fetchBatch(ctx, &m, points, oStart, oEnd, dStart, dEnd, fresh); err != nil {
				// Degrade this batch only: the haversine fill below covers it.
				p.Logger.Warn().Err(err).
					Int("origins", oEnd-oStart).
					Int("destinations", dEnd-dStart).
					Msg("matrix batch failed, using great-circle fallback")
			}
		}
	}

	if p.Cache != nil && len(fresh) > 0 {
		p.Cache.Store(ctx, m, points, fresh)
	}

	fillUnfilled(&m, points)
	return m, nil
}

func needsFetch(m Matrices, oStart, oEnd, dStart, dEnd int) bool {
	for i := oStart; i < oEnd; i++ {
		for j := dStart; j < dEnd; j++ {
			if i != j && m.TimeSec[i][j] == unfilled {
				return true
			}
		}
	}
	return false
}

func (p *RoutingProvider) fetchBatch(ctx context.Context, m *Matrices, points []models.Coordinate, oStart, oEnd, dStart, dEnd int, fresh map[[2]int]struct{}) error {
	resp, err := p.doWithRetry(ctx, func() (*http.Request, error) {
		q := url.Values{}
		q.Set("origins", coordList(points[oStart:oEnd]))
		q.Set("destinations", coordList(points[dStart:dEnd]))
		q.Set("mode", "driving")
		q.Set("departure_time", "now")
		q.Set("key", p.APIKey)
		return http.NewRequestWithContext(ctx, http.MethodGet, p.BaseURL+"?"+q.Encode(), nil)
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return fmt.Errorf("decode matrix response: %w", err)
	}
	if mr.Status != "OK" {
		return fmt.Errorf("matrix service status %q", mr.Status)
	}
	if len(mr.Rows) != oEnd-oStart {
		return fmt.Errorf("matrix rows mismatch: got %d want %d", len(mr.Rows), oEnd-oStart)
	}

	for ri, row := range mr.Rows {
		if len(row.Elements) != dEnd-dStart {
			return fmt.Errorf("matrix elements mismatch: got %d want %d", len(row.Elements), dEnd-dStart)
		}
		for ei, el := range row.Elements {
			i, j := oStart+ri, dStart+ei
			if i == j {
				continue
			}
			// Zero-result cells stay unfilled and take the fallback.
			if el.Status != "OK" || el.Duration == nil || el.Distance == nil {
				continue
			}
			sec := el.Duration.Value
			if el.Traffic != nil && el.Traffic.Value > 0 {
				sec = el.Traffic.Value
			}
			m.TimeSec[i][j] = sec
			m.DistKm[i][j] = float64(el.Distance.Value) / 1000.0
			fresh[[2]int{i, j}] = struct{}{}
		}
	}
	return nil
}

func coordList(points []models.Coordinate) string {
	parts := make([]string, 0, len(points))
	for _, p := range points {
		parts = append(parts, fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lon))
	}
	return strings.Join(parts, "|")
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
