package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/matrix"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/solver"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/utils"
)

const (
	// ServiceTimeSec is the fixed handling time charged at every stop.
	ServiceTimeSec = 300
	// ShortRouteWarnHours flags commercially thin routes; the committer
	// decides whether to discard, not the optimizer.
	ShortRouteWarnHours = 4.0
	// DefaultWindowHours is the visit window for stops with no scheduled
	// timestamp.
	DefaultWindowHours = 72
	// WindowSlackHours is the half-width of the window around a stop's
	// scheduled timestamp.
	WindowSlackHours = 4
	// MaxFallbackClusters bounds the clustering fallback.
	MaxFallbackClusters = 5

	dropPenalty       = 1_000_000.0
	activationCostSec = 1800.0
)

// CandidateRoute is one solved route before commit: bookings in visiting
// order, totals including the return leg, and per-stop ETAs taken from
// the solver's own cumulative-time variable.
type CandidateRoute struct {
	Bookings   []models.Booking
	Driver     *models.Driver
	Hours      float64
	Km         float64
	ETAs       []time.Time
	ShortRoute bool
}

// Optimizer turns a hub's candidate bookings and available drivers into
// candidate routes via the multi-vehicle solver, with a clustering
// fallback when the solver yields nothing.
type Optimizer struct {
	TimeLimit time.Duration
	IterCap   int
	Seed      int64
	Logger    zerolog.Logger
}

// OptimizeRoutes solves one hub/bucket instance. Matrices must be
// (n+1)x(n+1) with the depot at index 0 and stop i at index i+1, aligned
// with the booking slice. Dropped bookings are returned so the caller
// never loses track of a candidate.
func (o *Optimizer) OptimizeRoutes(bookings []models.Booking, drivers []models.Driver, m matrix.Matrices, leg models.LegType, now time.Time) ([]CandidateRoute, []models.Booking) {
	if len(bookings) == 0 {
		return nil, nil
	}

	prob := o.buildProblem(bookings, drivers, m, now)
	sol := prob.Solve()

	routes := o.extractRoutes(prob, sol, bookings, drivers, now)
	if len(routes) == 0 && len(bookings) > 0 {
		o.Logger.Warn().
			Int("bookings", len(bookings)).
			Str("leg", string(leg)).
			Msg("solver returned no routes, using clustering fallback")
		return o.fallbackRoutes(prob, bookings, drivers, leg, now)
	}

	dropped := make([]models.Booking, 0, len(sol.Dropped))
	for _, ni := range sol.Dropped {
		dropped = append(dropped, bookings[ni])
	}
	return routes, dropped
}

func (o *Optimizer) buildProblem(bookings []models.Booking, drivers []models.Driver, m matrix.Matrices, now time.Time) *solver.Problem {
	nodes := make([]solver.Node, len(bookings))
	for i, b := range bookings {
		nodes[i] = solver.Node{
			Weight:     b.WeightKg,
			Volume:     b.VolumeM3,
			ServiceSec: ServiceTimeSec,
			Window:     visitWindow(b, now),
		}
	}

	vehicles := make([]solver.Vehicle, 0, len(drivers))
	for _, d := range drivers {
		vehicles = append(vehicles, solver.Vehicle{
			BudgetSec: int64(d.RemainingHours * 3600),
			CapWeight: d.MaxWeightKg,
			CapVolume: d.MaxVolumeM3,
		})
	}
	// No driver free: solve as a single unconstrained vehicle so the
	// result can still become a pending (driverless) route.
	if len(vehicles) == 0 {
		vehicles = append(vehicles, solver.Vehicle{})
	}

	return &solver.Problem{
		TimeSec:        m.TimeSec,
		DistKm:         m.DistKm,
		Nodes:          nodes,
		Vehicles:       vehicles,
		DropPenalty:    dropPenalty,
		ActivationCost: activationCostSec,
		Seed:           o.instanceSeed(bookings),
		TimeLimit:      o.TimeLimit,
		IterationLimit: o.IterCap,
	}
}

// instanceSeed decorrelates the random streams of distinct hub/bucket
// instances while staying reproducible: the same booking set always
// yields the same seed. XOR keeps it independent of candidate order.
func (o *Optimizer) instanceSeed(bookings []models.Booking) int64 {
	var h uint64
	for _, b := range bookings {
		h ^= utils.HashStringToUint64(b.ID)
	}
	seed := o.Seed ^ int64(h&0x7fffffffffffffff)
	if seed == 0 {
		seed = 1
	}
	return seed
}

// visitWindow centers a window on the booking's scheduled timestamp when
// one exists, clipped to start no earlier than departure; otherwise a
// wide default window applies.
func visitWindow(b models.Booking, now time.Time) *solver.Window {
	if b.ScheduledAt == nil {
		return &solver.Window{StartSec: 0, EndSec: DefaultWindowHours * 3600}
	}
	center := b.ScheduledAt.Sub(now).Seconds()
	start := int64(center) - WindowSlackHours*3600
	if start < 0 {
		start = 0
	}
	end := int64(center) + WindowSlackHours*3600
	if end <= start {
		end = start + WindowSlackHours*3600
	}
	return &solver.Window{StartSec: start, EndSec: end}
}

func (o *Optimizer) extractRoutes(prob *solver.Problem, sol solver.Solution, bookings []models.Booking, drivers []models.Driver, now time.Time) []CandidateRoute {
	var routes []CandidateRoute
	for _, plan := range sol.Plans {
		if len(plan.Order) == 0 {
			continue
		}
		sched := prob.SchedulePlan(plan.Order, prob.Vehicles[plan.Vehicle])
		route := CandidateRoute{
			Bookings: make([]models.Booking, 0, len(plan.Order)),
			ETAs:     make([]time.Time, 0, len(plan.Order)),
			Hours:    float64(sched.TotalSec) / 3600.0,
			Km:       sched.TotalKm,
		}
		for si, ni := range plan.Order {
			route.Bookings = append(route.Bookings, bookings[ni])
			route.ETAs = append(route.ETAs, now.Add(time.Duration(sched.ArrivalSec[si])*time.Second))
		}
		if plan.Vehicle < len(drivers) {
			d := drivers[plan.Vehicle]
			route.Driver = &d
		}
		if route.Hours < ShortRouteWarnHours {
			route.ShortRoute = true
			o.Logger.Warn().
				Float64("hours", route.Hours).
				Int("stops", len(route.Bookings)).
				Msg("short route below utilization threshold")
		}
		routes = append(routes, route)
	}
	return routes
}

// fallbackRoutes partitions the stops into geographic clusters and solves
// each as an independent single-vehicle tour. Joint capacity and window
// optimality are sacrificed for guaranteed output.
func (o *Optimizer) fallbackRoutes(prob *solver.Problem, bookings []models.Booking, drivers []models.Driver, leg models.LegType, now time.Time) ([]CandidateRoute, []models.Booking) {
	points := make([]solver.Point, len(bookings))
	for i, b := range bookings {
		c := b.StopCoordinate(resolveStopLeg(leg, b))
		points[i] = solver.Point{Lat: c.Lat, Lon: c.Lon}
	}

	k := MaxFallbackClusters
	if len(drivers) > 0 && len(drivers) < k {
		k = len(drivers)
	}
	clusters := solver.KMeansClusters(points, k, o.instanceSeed(bookings))

	var routes []CandidateRoute
	for ci, cluster := range clusters {
		order, sched := prob.NearestNeighborPath(cluster)
		route := CandidateRoute{
			Bookings: make([]models.Booking, 0, len(order)),
			ETAs:     make([]time.Time, 0, len(order)),
			Hours:    float64(sched.TotalSec) / 3600.0,
			Km:       sched.TotalKm,
		}
		for si, ni := range order {
			route.Bookings = append(route.Bookings, bookings[ni])
			route.ETAs = append(route.ETAs, now.Add(time.Duration(sched.ArrivalSec[si])*time.Second))
		}
		if len(drivers) > 0 {
			d := drivers[ci%len(drivers)]
			route.Driver = &d
		}
		if route.Hours < ShortRouteWarnHours {
			route.ShortRoute = true
		}
		routes = append(routes, route)
	}
	return routes, nil
}

// resolveStopLeg picks the effective leg for a single stop; on mixed
// routes it is derived from the booking's pre-route state.
func resolveStopLeg(leg models.LegType, b models.Booking) models.LegType {
	if leg == models.LegMixed {
		return b.StopLeg()
	}
	return leg
}
