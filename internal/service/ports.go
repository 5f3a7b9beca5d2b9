package service

import (
	"context"
	"time"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/db"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
)

// Store is the persistence boundary the optimization services run
// against. internal/db implements it on Postgres; tests use fakes.
type Store interface {
	ListHubs(ctx context.Context) ([]models.Hub, error)
	GetHub(ctx context.Context, id string) (models.Hub, error)

	// ListRouteCandidates returns bookings eligible for a route of the
	// given leg at the hub: correct pre-route status, both coordinates
	// present, and not already inside a route of a matching leg.
	ListRouteCandidates(ctx context.Context, hubID string, leg models.LegType) ([]models.Booking, error)
	GetBookingsByIDs(ctx context.Context, ids []string) ([]models.Booking, error)

	// ListHubAssignmentCandidates returns bookings with pickup
	// coordinates and, unless force is set, no hub assignment yet.
	ListHubAssignmentCandidates(ctx context.Context, force bool) ([]models.Booking, error)
	SetBookingHub(ctx context.Context, bookingID, hubID string) error

	ListAvailableDrivers(ctx context.Context, hubID string) ([]models.Driver, error)
	GetDriver(ctx context.Context, id string) (models.Driver, error)

	// CommitRoute persists one route atomically: shift load, route
	// record, stop payload and booking updates land together or not at
	// all.
	CommitRoute(ctx context.Context, req db.CommitRouteRequest) (string, error)

	MarkOverdueShifts(ctx context.Context, before time.Time) (int64, error)

	CreateRun(ctx context.Context, status string) (string, error)
	FinishRun(ctx context.Context, runID, status string, summary []byte) error
}
