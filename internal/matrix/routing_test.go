package matrix

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
)

func serveMatrix(t *testing.T, fn func(origins, destinations []string) matrixResponse) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origins := strings.Split(r.URL.Query().Get("origins"), "|")
		destinations := strings.Split(r.URL.Query().Get("destinations"), "|")
		if err := json.NewEncoder(w).Encode(fn(origins, destinations)); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
}

func okElement(sec, traffic, meters int64) matrixElement {
	el := matrixElement{
		Status:   "OK",
		Duration: &matrixValue{Value: sec},
		Distance: &matrixValue{Value: meters},
	}
	if traffic > 0 {
		el.Traffic = &matrixValue{Value: traffic}
	}
	return el
}

func TestRoutingProviderFillsFromService(t *testing.T) {
	srv := serveMatrix(t, func(origins, destinations []string) matrixResponse {
		rows := make([]matrixRow, len(origins))
		for i := range rows {
			rows[i].Elements = make([]matrixElement, len(destinations))
			for j := range rows[i].Elements {
				rows[i].Elements[j] = okElement(600, 720, 5000)
			}
		}
		return matrixResponse{Status: "OK", Rows: rows}
	})
	defer srv.Close()

	p := &RoutingProvider{
		APIKey:  "test",
		BaseURL: srv.URL,
		Client:  srv.Client(),
		Logger:  zerolog.Nop(),
	}
	m, err := p.Compute(context.Background(), models.Coordinate{Lat: 51, Lon: 71}, []models.Coordinate{{Lat: 51.1, Lon: 71.1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The traffic-adjusted duration wins over the plain one.
	if m.TimeSec[0][1] != 720 {
		t.Fatalf("expected traffic duration 720, got %d", m.TimeSec[0][1])
	}
	if m.DistKm[0][1] != 5.0 {
		t.Fatalf("expected 5 km, got %f", m.DistKm[0][1])
	}
	if m.TimeSec[0][0] != 0 || m.TimeSec[1][1] != 0 {
		t.Fatalf("diagonal must stay zero")
	}
}

func TestRoutingProviderFallsBackOnMissingElements(t *testing.T) {
	srv := serveMatrix(t, func(origins, destinations []string) matrixResponse {
		rows := make([]matrixRow, len(origins))
		for i := range rows {
			rows[i].Elements = make([]matrixElement, len(destinations))
			for j := range rows[i].Elements {
				rows[i].Elements[j] = matrixElement{Status: "ZERO_RESULTS"}
			}
		}
		return matrixResponse{Status: "OK", Rows: rows}
	})
	defer srv.Close()

	p := &RoutingProvider{
		APIKey:  "test",
		BaseURL: srv.URL,
		Client:  srv.Client(),
		Logger:  zerolog.Nop(),
	}
	depot := models.Coordinate{Lat: 51.1605, Lon: 71.4704}
	stop := models.Coordinate{Lat: 51.18, Lon: 71.44}
	m, err := p.Compute(context.Background(), depot, []models.Coordinate{stop})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantSec, wantKm := FallbackCell(depot, stop)
	if m.TimeSec[0][1] != wantSec || m.DistKm[0][1] != wantKm {
		t.Fatalf("expected great-circle fallback (%d, %f), got (%d, %f)",
			wantSec, wantKm, m.TimeSec[0][1], m.DistKm[0][1])
	}
}

func TestRoutingProviderDegradesOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadRequest)
	}))
	defer srv.Close()

	p := &RoutingProvider{
		APIKey:  "test",
		BaseURL: srv.URL,
		Client:  srv.Client(),
		Logger:  zerolog.Nop(),
	}
	depot := models.Coordinate{Lat: 51.1605, Lon: 71.4704}
	stop := models.Coordinate{Lat: 51.18, Lon: 71.44}
	m, err := p.Compute(context.Background(), depot, []models.Coordinate{stop})
	if err != nil {
		t.Fatalf("batch failure must degrade, not fail: %v", err)
	}
	wantSec, _ := FallbackCell(depot, stop)
	if m.TimeSec[0][1] != wantSec {
		t.Fatalf("expected fallback seconds %d, got %d", wantSec, m.TimeSec[0][1])
	}
}

func TestRoutingProviderRetriesTransientFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "try later", http.StatusServiceUnavailable)
			return
		}
		origins := strings.Split(r.URL.Query().Get("origins"), "|")
		destinations := strings.Split(r.URL.Query().Get("destinations"), "|")
		rows := make([]matrixRow, len(origins))
		for i := range rows {
			rows[i].Elements = make([]matrixElement, len(destinations))
			for j := range rows[i].Elements {
				rows[i].Elements[j] = okElement(400, 0, 3000)
			}
		}
		_ = json.NewEncoder(w).Encode(matrixResponse{Status: "OK", Rows: rows})
	}))
	defer srv.Close()

	p := &RoutingProvider{
		APIKey:  "test",
		BaseURL: srv.URL,
		Client:  srv.Client(),
		Logger:  zerolog.Nop(),
	}
	m, err := p.Compute(context.Background(), models.Coordinate{Lat: 51, Lon: 71}, []models.Coordinate{{Lat: 51.1, Lon: 71.1}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected one retry, got %d attempts", attempts)
	}
	if m.TimeSec[0][1] != 400 {
		t.Fatalf("expected retried answer, got %d", m.TimeSec[0][1])
	}
}

func TestRoutingProviderBatchesLargeRequests(t *testing.T) {
	var maxOrigins, maxDestinations, calls int
	srv := serveMatrix(t, func(origins, destinations []string) matrixResponse {
		calls++
		if len(origins) > maxOrigins {
			maxOrigins = len(origins)
		}
		if len(destinations) > maxDestinations {
			maxDestinations = len(destinations)
		}
		rows := make([]matrixRow, len(origins))
		for i := range rows {
			rows[i].Elements = make([]matrixElement, len(destinations))
			for j := range rows[i].Elements {
				rows[i].Elements[j] = okElement(int64(100*(i+j+1)), 0, 1000)
			}
		}
		return matrixResponse{Status: "OK", Rows: rows}
	})
	defer srv.Close()

	stops := make([]models.Coordinate, 14)
	for i := range stops {
		stops[i] = models.Coordinate{Lat: 51 + float64(i)*0.01, Lon: 71 + float64(i)*0.01}
	}

	p := &RoutingProvider{
		APIKey:  "test",
		BaseURL: srv.URL,
		Client:  srv.Client(),
		Logger:  zerolog.Nop(),
	}
	m, err := p.Compute(context.Background(), models.Coordinate{Lat: 51, Lon: 71}, stops)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if maxOrigins > batchSize || maxDestinations > batchSize {
		t.Fatalf("batch exceeded limit: %dx%d", maxOrigins, maxDestinations)
	}
	if calls != 4 {
		t.Fatalf("expected 4 batches for a 15x15 matrix, got %d", calls)
	}
	for i := range m.TimeSec {
		for j := range m.TimeSec[i] {
			if i != j && m.TimeSec[i][j] <= 0 {
				t.Fatalf("cell (%d,%d) unfilled", i, j)
			}
		}
	}
}

func TestCoordListFormat(t *testing.T) {
	got := coordList([]models.Coordinate{{Lat: 51.1605, Lon: 71.4704}, {Lat: 43.238, Lon: 76.889}})
	want := fmt.Sprintf("%.6f,%.6f|%.6f,%.6f", 51.1605, 71.4704, 43.238, 76.889)
	if got != want {
		t.Fatalf("unexpected coord list %q", got)
	}
}
