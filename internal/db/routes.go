package db

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
)

var (
	// ErrDailyHoursExceeded means the driver's shift cannot absorb the
	// route without breaking the daily working-hours cap.
	ErrDailyHoursExceeded = errors.New("projected shift hours exceed daily maximum")
	// ErrBookingStateChanged means a booking left its expected pre-route
	// state between candidate selection and commit, typically because a
	// concurrent run routed it first.
	ErrBookingStateChanged = errors.New("booking no longer in expected pre-route state")
)

// BookingUpdate describes the per-booking writes of one route commit.
type BookingUpdate struct {
	// Expect is the pre-route status the booking must still hold at
	// commit time; the whole commit fails otherwise.
	Expect    models.BookingStatus
	NewStatus models.BookingStatus
	SetDriver bool
}

// CommitRouteRequest carries everything one route commit writes. The
// commit is a single transaction: shift load, route record, stop payload
// and booking updates land together or not at all.
type CommitRouteRequest struct {
	HubID         string
	Leg           models.LegType
	Driver        *models.Driver
	Hours         float64
	Km            float64
	Stops         []models.RouteStop
	Updates       map[string]BookingUpdate
	MaxDailyHours float64
	Day           time.Time
}

func (s *Store) CommitRoute(ctx context.Context, req CommitRouteRequest) (string, error) {
	routeID := uuid.NewString()

	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		// Re-check candidate state under lock: a concurrent commit may
		// have routed one of these bookings since selection.
		for bookingID, upd := range req.Updates {
			var status models.BookingStatus
			err := tx.QueryRow(ctx,
				`SELECT status FROM bookings WHERE id = $1 FOR UPDATE`, bookingID).Scan(&status)
			if err != nil {
				return err
			}
			if status != upd.Expect {
				return ErrBookingStateChanged
			}
		}

		shiftID, err := s.prepareShift(ctx, tx, req)
		if err != nil {
			return err
		}

		if req.Driver != nil {
			// Keep the driver's day budget in step with the shift load so
			// later buckets in the same sweep see the reduced budget.
			if _, err := tx.Exec(ctx, `
				UPDATE drivers SET remaining_hours = GREATEST(remaining_hours - $1, 0)
				WHERE id = $2`, req.Hours, req.Driver.ID); err != nil {
				return err
			}
		}

		status := models.RouteAssigned
		if req.Driver == nil {
			status = models.RoutePending
		}
		stops, err := json.Marshal(req.Stops)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO routes (id, leg, stops, total_time_hours, total_distance_km, status, hub_id, shift_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			routeID, string(req.Leg), stops, req.Hours, req.Km, string(status), req.HubID, shiftID)
		if err != nil {
			return err
		}

		for _, stop := range req.Stops {
			if _, err := tx.Exec(ctx,
				`INSERT INTO route_bookings (route_id, booking_id) VALUES ($1, $2)`,
				routeID, stop.BookingID); err != nil {
				return err
			}
		}

		for bookingID, upd := range req.Updates {
			var driverID *string
			if upd.SetDriver && req.Driver != nil {
				driverID = &req.Driver.ID
			}
			if _, err := tx.Exec(ctx, `
				UPDATE bookings SET status = $1, hub_id = $2, driver_id = COALESCE($3, driver_id)
				WHERE id = $4`,
				string(upd.NewStatus), req.HubID, driverID, bookingID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return routeID, nil
}

// prepareShift locks and updates the driver's shift for the day, or
// creates a placeholder pending shift for a driverless route. The daily
// maximum is enforced here, inside the transaction, so two concurrent
// commits cannot both pass the check.
func (s *Store) prepareShift(ctx context.Context, tx pgx.Tx, req CommitRouteRequest) (string, error) {
	if req.Driver == nil {
		shiftID := uuid.NewString()
		_, err := tx.Exec(ctx, `
			INSERT INTO shifts (id, driver_id, day, load_hours, status)
			VALUES ($1, NULL, $2, 0, 'pending')`, shiftID, req.Day)
		return shiftID, err
	}

	var shiftID string
	var loadHours float64
	err := tx.QueryRow(ctx, `
		SELECT id, load_hours FROM shifts
		WHERE driver_id = $1 AND day = $2 FOR UPDATE`,
		req.Driver.ID, req.Day).Scan(&shiftID, &loadHours)
	if errors.Is(err, pgx.ErrNoRows) {
		shiftID = uuid.NewString()
		loadHours = 0
		if _, err := tx.Exec(ctx, `
			INSERT INTO shifts (id, driver_id, day, load_hours, status)
			VALUES ($1, $2, $3, 0, 'pending')`, shiftID, req.Driver.ID, req.Day); err != nil {
			return "", err
		}
	} else if err != nil {
		return "", err
	}

	projected := loadHours + req.Hours
	if req.MaxDailyHours > 0 && projected > req.MaxDailyHours {
		return "", ErrDailyHoursExceeded
	}

	_, err = tx.Exec(ctx, `
		UPDATE shifts SET load_hours = $1, status = 'assigned' WHERE id = $2`,
		projected, shiftID)
	return shiftID, err
}

func (s *Store) ListRoutes(ctx context.Context, status string, limit int) ([]models.Route, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `
		SELECT r.id, r.leg, r.stops, r.total_time_hours, r.total_distance_km,
			r.status, r.hub_id, r.shift_id, sh.driver_id, r.created_at
		FROM routes r
		JOIN shifts sh ON sh.id = r.shift_id`
	var args []any
	if status != "" {
		args = append(args, status)
		query += ` WHERE r.status = $1`
	}
	query += ` ORDER BY r.created_at DESC LIMIT ` + strconv.Itoa(limit)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Route
	for rows.Next() {
		var r models.Route
		var stops []byte
		if err := rows.Scan(&r.ID, &r.Leg, &stops, &r.TotalTimeHours, &r.TotalDistanceKm,
			&r.Status, &r.HubID, &r.ShiftID, &r.DriverID, &r.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(stops, &r.Stops); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
