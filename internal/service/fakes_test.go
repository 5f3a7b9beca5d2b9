package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/db"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
)

// fakeStore implements Store in memory. CommitRoute mimics the real
// store's candidate exclusion: once a booking lands in a route it stops
// being a route candidate.
type fakeStore struct {
	hubs       []models.Hub
	candidates map[string][]models.Booking
	drivers    []models.Driver
	bookings   map[string]models.Booking

	hubAssignCandidates []models.Booking
	assignedHubs        map[string]string

	commits   []db.CommitRouteRequest
	commitErr error

	overdueMarked int64
	runsStarted   int
	runsFinished  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		candidates:   map[string][]models.Booking{},
		bookings:     map[string]models.Booking{},
		assignedHubs: map[string]string{},
	}
}

func candKey(hubID string, leg models.LegType) string {
	return hubID + "/" + string(leg)
}

func (f *fakeStore) ListHubs(context.Context) ([]models.Hub, error) { return f.hubs, nil }

func (f *fakeStore) GetHub(_ context.Context, id string) (models.Hub, error) {
	for _, h := range f.hubs {
		if h.ID == id {
			return h, nil
		}
	}
	return models.Hub{}, fmt.Errorf("hub %s not found", id)
}

func (f *fakeStore) ListRouteCandidates(_ context.Context, hubID string, leg models.LegType) ([]models.Booking, error) {
	return f.candidates[candKey(hubID, leg)], nil
}

func (f *fakeStore) GetBookingsByIDs(_ context.Context, ids []string) ([]models.Booking, error) {
	out := make([]models.Booking, 0, len(ids))
	for _, id := range ids {
		if b, ok := f.bookings[id]; ok {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeStore) ListHubAssignmentCandidates(context.Context, bool) ([]models.Booking, error) {
	return f.hubAssignCandidates, nil
}

func (f *fakeStore) SetBookingHub(_ context.Context, bookingID, hubID string) error {
	f.assignedHubs[bookingID] = hubID
	return nil
}

func (f *fakeStore) ListAvailableDrivers(context.Context, string) ([]models.Driver, error) {
	return f.drivers, nil
}

func (f *fakeStore) GetDriver(_ context.Context, id string) (models.Driver, error) {
	for _, d := range f.drivers {
		if d.ID == id {
			return d, nil
		}
	}
	return models.Driver{}, fmt.Errorf("driver %s not found", id)
}

func (f *fakeStore) CommitRoute(_ context.Context, req db.CommitRouteRequest) (string, error) {
	if f.commitErr != nil {
		return "", f.commitErr
	}
	f.commits = append(f.commits, req)

	// Committed bookings leave every candidate pool.
	inRoute := map[string]bool{}
	for _, s := range req.Stops {
		inRoute[s.BookingID] = true
	}
	for key, list := range f.candidates {
		kept := list[:0]
		for _, b := range list {
			if !inRoute[b.ID] {
				kept = append(kept, b)
			}
		}
		f.candidates[key] = kept
	}
	return fmt.Sprintf("route-%d", len(f.commits)), nil
}

func (f *fakeStore) MarkOverdueShifts(context.Context, time.Time) (int64, error) {
	return f.overdueMarked, nil
}

func (f *fakeStore) CreateRun(context.Context, string) (string, error) {
	f.runsStarted++
	return fmt.Sprintf("run-%d", f.runsStarted), nil
}

func (f *fakeStore) FinishRun(context.Context, string, string, []byte) error {
	f.runsFinished++
	return nil
}
