package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/db"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
)

const (
	// MinRouteHours rejects routes too short to be worth dispatching.
	MinRouteHours = 2.0
	// MaxDailyHours caps a driver's committed shift load per day.
	MaxDailyHours = 10.0
)

// ErrRouteTooShort is a business-rule rejection, not a fault: the
// bookings stay in their pre-route state for the next cycle.
var ErrRouteTooShort = errors.New("route below minimum duration")

// Committer turns a candidate route into persisted state: shift load,
// route record and booking updates, in one atomic store commit.
type Committer struct {
	Store  Store
	Logger zerolog.Logger
	Now    func() time.Time
}

func (c *Committer) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now().UTC()
}

// Commit persists one candidate route. A nil driver produces a pending
// route whose bookings are reset to their pre-route state so the next
// sweep retries them once a driver frees up.
func (c *Committer) Commit(ctx context.Context, cand CandidateRoute, hubID string, leg models.LegType) (string, error) {
	if cand.Hours < MinRouteHours {
		c.Logger.Info().
			Float64("hours", cand.Hours).
			Int("stops", len(cand.Bookings)).
			Msg("route rejected: below minimum duration")
		return "", ErrRouteTooShort
	}

	stops := make([]models.RouteStop, 0, len(cand.Bookings))
	updates := make(map[string]db.BookingUpdate, len(cand.Bookings))
	for i, b := range cand.Bookings {
		stopLeg := resolveStopLeg(leg, b)
		coord := b.StopCoordinate(stopLeg)
		if coord == nil {
			return "", fmt.Errorf("commit route: booking %s has no %s coordinate", b.ID, stopLeg)
		}
		stop := models.RouteStop{
			BookingID:  b.ID,
			Coordinate: *coord,
			ETA:        cand.ETAs[i],
		}
		if leg == models.LegMixed {
			stop.Type = stopLeg
		}
		stops = append(stops, stop)

		upd := db.BookingUpdate{Expect: stopLeg.PreRouteStatus()}
		if cand.Driver != nil {
			upd.NewStatus = stopLeg.RoutedStatus()
			upd.SetDriver = true
		} else {
			// Pending route: keep the booking retryable but record the hub.
			upd.NewStatus = stopLeg.PreRouteStatus()
		}
		updates[b.ID] = upd
	}

	now := c.now()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	routeID, err := c.Store.CommitRoute(ctx, db.CommitRouteRequest{
		HubID:         hubID,
		Leg:           leg,
		Driver:        cand.Driver,
		Hours:         cand.Hours,
		Km:            cand.Km,
		Stops:         stops,
		Updates:       updates,
		MaxDailyHours: MaxDailyHours,
		Day:           day,
	})
	if err != nil {
		if errors.Is(err, db.ErrDailyHoursExceeded) {
			c.Logger.Info().
				Str("driver_id", cand.Driver.ID).
				Float64("hours", cand.Hours).
				Msg("route rejected: daily hours cap")
		}
		return "", err
	}

	event := c.Logger.Info().
		Str("route_id", routeID).
		Str("hub_id", hubID).
		Str("leg", string(leg)).
		Int("stops", len(stops)).
		Float64("hours", cand.Hours).
		Float64("km", cand.Km)
	if cand.Driver != nil {
		event = event.Str("driver_id", cand.Driver.ID)
	}
	event.Msg("route committed")
	return routeID, nil
}
