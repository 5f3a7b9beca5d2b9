package db

import "context"

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS hubs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		lat DOUBLE PRECISION,
		lon DOUBLE PRECISION
	)`,
	`CREATE TABLE IF NOT EXISTS drivers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		hub_id TEXT NOT NULL REFERENCES hubs(id),
		remaining_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
		max_weight_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
		max_volume_m3 DOUBLE PRECISION NOT NULL DEFAULT 0,
		available BOOLEAN NOT NULL DEFAULT TRUE
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		service_type TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		pickup_lat DOUBLE PRECISION,
		pickup_lon DOUBLE PRECISION,
		dropoff_lat DOUBLE PRECISION,
		dropoff_lon DOUBLE PRECISION,
		weight_kg DOUBLE PRECISION NOT NULL DEFAULT 0,
		volume_m3 DOUBLE PRECISION NOT NULL DEFAULT 0,
		hub_id TEXT REFERENCES hubs(id),
		driver_id TEXT REFERENCES drivers(id),
		scheduled_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		driver_id TEXT REFERENCES drivers(id),
		day DATE NOT NULL,
		load_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending',
		UNIQUE (driver_id, day)
	)`,
	`CREATE TABLE IF NOT EXISTS routes (
		id TEXT PRIMARY KEY,
		leg TEXT NOT NULL,
		stops JSONB NOT NULL,
		total_time_hours DOUBLE PRECISION NOT NULL,
		total_distance_km DOUBLE PRECISION NOT NULL,
		status TEXT NOT NULL,
		hub_id TEXT NOT NULL REFERENCES hubs(id),
		shift_id TEXT NOT NULL REFERENCES shifts(id),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS route_bookings (
		route_id TEXT NOT NULL REFERENCES routes(id),
		booking_id TEXT NOT NULL REFERENCES bookings(id),
		PRIMARY KEY (route_id, booking_id)
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		started_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		finished_at TIMESTAMPTZ,
		status TEXT NOT NULL,
		summary JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_status_hub ON bookings(status, hub_id)`,
	`CREATE INDEX IF NOT EXISTS idx_route_bookings_booking ON route_bookings(booking_id)`,
}

// EnsureSchema creates all tables on startup if they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := s.Pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
