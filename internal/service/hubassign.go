package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/utils"
)

// HubResolver assigns bookings to their nearest hub by great-circle
// distance from the pickup address. The pickup address is used even for
// delivery-leg bookings; that is a fixed policy, not a knob.
type HubResolver struct {
	Store  Store
	Logger zerolog.Logger
}

// NearestHub returns the closest hub with known coordinates and its
// distance in km. ok is false when no hub has coordinates.
func NearestHub(pickup models.Coordinate, hubs []models.Hub) (hubID string, km float64, ok bool) {
	for _, h := range hubs {
		if h.Location == nil {
			continue
		}
		d := utils.HaversineKm(pickup.Lat, pickup.Lon, h.Location.Lat, h.Location.Lon)
		if !ok || d < km {
			hubID = h.ID
			km = d
			ok = true
		}
	}
	return hubID, km, ok
}

// AssignNearestHub resolves hubs for all candidate bookings and persists
// the hub reference, the only mutation this component performs. Bookings
// whose nearest hub is farther than maxDistanceKm stay unassigned.
func (r *HubResolver) AssignNearestHub(ctx context.Context, force bool, maxDistanceKm float64) (int, error) {
	hubs, err := r.Store.ListHubs(ctx)
	if err != nil {
		return 0, fmt.Errorf("assign hubs: list hubs: %w", err)
	}
	bookings, err := r.Store.ListHubAssignmentCandidates(ctx, force)
	if err != nil {
		return 0, fmt.Errorf("assign hubs: list candidates: %w", err)
	}

	assigned := 0
	for _, b := range bookings {
		if b.Pickup == nil {
			continue
		}
		hubID, km, ok := NearestHub(*b.Pickup, hubs)
		if !ok {
			continue
		}
		if km > maxDistanceKm {
			r.Logger.Debug().
				Str("booking_id", b.ID).
				Float64("distance_km", km).
				Msg("nearest hub beyond cutoff, booking left unassigned")
			continue
		}
		if err := r.Store.SetBookingHub(ctx, b.ID, hubID); err != nil {
			return assigned, fmt.Errorf("assign hubs: booking %s: %w", b.ID, err)
		}
		assigned++
	}
	return assigned, nil
}
