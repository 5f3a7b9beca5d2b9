package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
)

const bookingColumns = `id, service_type, status, pickup_lat, pickup_lon, dropoff_lat, dropoff_lon,
	weight_kg, volume_m3, hub_id, driver_id, scheduled_at, created_at`

func scanBooking(row interface{ Scan(...any) error }) (models.Booking, error) {
	var b models.Booking
	var pLat, pLon, dLat, dLon *float64
	err := row.Scan(&b.ID, &b.ServiceType, &b.Status, &pLat, &pLon, &dLat, &dLon,
		&b.WeightKg, &b.VolumeM3, &b.HubID, &b.DriverID, &b.ScheduledAt, &b.CreatedAt)
	if err != nil {
		return models.Booking{}, err
	}
	if pLat != nil && pLon != nil {
		b.Pickup = &models.Coordinate{Lat: *pLat, Lon: *pLon}
	}
	if dLat != nil && dLon != nil {
		b.Dropoff = &models.Coordinate{Lat: *dLat, Lon: *dLon}
	}
	return b, nil
}

// ListRouteCandidates selects bookings eligible for a new route of the
// given leg at the hub. Bookings already inside a live route of a
// matching leg are excluded here, which is what makes repeated sweeps
// idempotent.
func (s *Store) ListRouteCandidates(ctx context.Context, hubID string, leg models.LegType) ([]models.Booking, error) {
	var statusCond string
	switch leg {
	case models.LegMixed:
		statusCond = `b.status IN ('scheduled', 'at_hub')`
	case models.LegDelivery:
		statusCond = `b.status = 'at_hub'`
	default:
		statusCond = `b.status = 'scheduled'`
	}

	query := fmt.Sprintf(`
		SELECT %s FROM bookings b
		WHERE b.hub_id = $1
		  AND %s
		  AND b.pickup_lat IS NOT NULL AND b.pickup_lon IS NOT NULL
		  AND b.dropoff_lat IS NOT NULL AND b.dropoff_lon IS NOT NULL
		  AND NOT EXISTS (
			SELECT 1 FROM route_bookings rb
			JOIN routes r ON r.id = rb.route_id
			WHERE rb.booking_id = b.id
			  AND r.status NOT IN ('completed', 'cancelled')
			  AND (r.leg = $2 OR r.leg = 'mixed' OR $2 = 'mixed')
		  )
		ORDER BY b.created_at ASC`, prefixColumns("b"), statusCond)

	rows, err := s.Pool.Query(ctx, query, hubID, string(leg))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func prefixColumns(alias string) string {
	cols := strings.Split(bookingColumns, ",")
	for i, c := range cols {
		cols[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(cols, ", ")
}

func (s *Store) GetBookingsByIDs(ctx context.Context, ids []string) ([]models.Booking, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.Pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM bookings WHERE id = ANY($1) ORDER BY created_at ASC`, bookingColumns), ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// ListHubAssignmentCandidates returns bookings with pickup coordinates
// and, unless force is set, no hub yet.
func (s *Store) ListHubAssignmentCandidates(ctx context.Context, force bool) ([]models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings
		WHERE pickup_lat IS NOT NULL AND pickup_lon IS NOT NULL
		  AND status NOT IN ('delivered', 'cancelled', 'failed')`, bookingColumns)
	if !force {
		query += ` AND hub_id IS NULL`
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) SetBookingHub(ctx context.Context, bookingID, hubID string) error {
	_, err := s.Pool.Exec(ctx, `UPDATE bookings SET hub_id = $1 WHERE id = $2`, hubID, bookingID)
	return err
}

func (s *Store) ListBookings(ctx context.Context, status string, limit int) ([]models.Booking, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT %s FROM bookings`, bookingColumns)
	var args []any
	if status != "" {
		args = append(args, status)
		query += ` WHERE status = $1`
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT %d`, limit)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
