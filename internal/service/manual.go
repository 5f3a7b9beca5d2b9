package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
)

// ManualRouteRequest is an admin-initiated single-route creation: an
// explicit booking selection instead of the full sweep. Validation
// failures surface directly to the caller.
type ManualRouteRequest struct {
	BookingIDs []string
	Leg        models.LegType
	HubID      string // optional override; defaults to the bookings' hub
	DriverID   string // optional; empty means let the optimizer decide
}

var ErrNoEligibleBookings = errors.New("no bookings eligible for the requested leg")

// CreateManualRoute optimizes and commits one route for the selected
// bookings.
func (o *Orchestrator) CreateManualRoute(ctx context.Context, req ManualRouteRequest) (string, error) {
	bookings, err := o.Store.GetBookingsByIDs(ctx, req.BookingIDs)
	if err != nil {
		return "", fmt.Errorf("manual route: load bookings: %w", err)
	}
	if len(bookings) == 0 {
		return "", ErrNoEligibleBookings
	}

	eligible := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Routable(req.Leg) {
			eligible = append(eligible, b)
		} else {
			o.Logger.Info().
				Str("booking_id", b.ID).
				Str("status", string(b.Status)).
				Msg("booking skipped: not routable for requested leg")
		}
	}
	if len(eligible) == 0 {
		return "", ErrNoEligibleBookings
	}

	hubID := req.HubID
	if hubID == "" {
		byHub := PartitionByHub(eligible)
		if len(byHub) == 0 {
			return "", errors.New("manual route: bookings have no hub and no hub override given")
		}
		if len(byHub) > 1 {
			return "", errors.New("manual route: bookings span multiple hubs, hub override required")
		}
		for id := range byHub {
			hubID = id
		}
	}
	hub, err := o.Store.GetHub(ctx, hubID)
	if err != nil {
		return "", fmt.Errorf("manual route: load hub: %w", err)
	}
	if hub.Location == nil {
		return "", fmt.Errorf("manual route: hub %s has no coordinates", hubID)
	}

	var drivers []models.Driver
	if req.DriverID != "" {
		d, err := o.Store.GetDriver(ctx, req.DriverID)
		if err != nil {
			return "", fmt.Errorf("manual route: load driver: %w", err)
		}
		drivers = []models.Driver{d}
	} else {
		drivers, err = o.Store.ListAvailableDrivers(ctx, hubID)
		if err != nil {
			return "", fmt.Errorf("manual route: list drivers: %w", err)
		}
	}

	stops := make([]models.Coordinate, len(eligible))
	for i, b := range eligible {
		stops[i] = *b.StopCoordinate(resolveStopLeg(req.Leg, b))
	}
	matrices, err := o.Matrix.Compute(ctx, *hub.Location, stops)
	if err != nil {
		return "", fmt.Errorf("manual route: matrices: %w", err)
	}

	now := o.now()
	routes, _ := o.Optimizer.OptimizeRoutes(eligible, drivers, matrices, req.Leg, now)
	if len(routes) == 0 {
		return "", errors.New("manual route: optimizer produced no route")
	}

	// One route was asked for; commit the largest one the solver built.
	best := routes[0]
	for _, r := range routes[1:] {
		if len(r.Bookings) > len(best.Bookings) {
			best = r
		}
	}
	return o.Committer.Commit(ctx, best, hubID, req.Leg)
}
