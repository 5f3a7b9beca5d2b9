package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/db"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/matrix"
	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
)

// Orchestrator drives the periodic optimization sweep: for every hub,
// every priority bucket in fixed order, and every leg type, it computes
// matrices, solves routes and commits them. Failures are isolated per
// hub/bucket so one bad instance never aborts the rest of the sweep.
type Orchestrator struct {
	Store     Store
	Matrix    matrix.Provider
	Bucketer  *Bucketer
	Optimizer *Optimizer
	Committer *Committer
	Logger    zerolog.Logger

	// MixedRoutes pools pickup and delivery candidates of one bucket
	// into a single solver call with per-stop type tags.
	MixedRoutes bool
	// RetryDropped gives stops dropped by the solver one extra pass at
	// the end of the same hub/bucket iteration.
	RetryDropped bool

	Now func() time.Time
}

type RunSummary struct {
	Events []map[string]any `json:"events"`
	Counts map[string]int   `json:"counts"`
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now().UTC()
}

func (o *Orchestrator) legs() []models.LegType {
	if o.MixedRoutes {
		return []models.LegType{models.LegMixed}
	}
	return []models.LegType{models.LegPickup, models.LegDelivery}
}

// Run executes one full sweep and records a run summary.
func (o *Orchestrator) Run(ctx context.Context) (RunSummary, error) {
	summary := RunSummary{Counts: map[string]int{}}

	runID, err := o.Store.CreateRun(ctx, "running")
	if err != nil {
		o.Logger.Warn().Err(err).Msg("run record not created")
		runID = ""
	}

	hubs, err := o.Store.ListHubs(ctx)
	if err != nil {
		o.finishRun(ctx, runID, "error", summary)
		return summary, err
	}

	summary.Events = append(summary.Events, map[string]any{
		"type": "sweep_started",
		"hubs": len(hubs),
		"time": o.now(),
	})

	for _, hub := range hubs {
		if hub.Location == nil {
			o.Logger.Warn().Str("hub_id", hub.ID).Msg("hub has no coordinates, skipped")
			summary.Counts["hubs_skipped"]++
			continue
		}
		for _, bucket := range models.BucketOrder {
			for _, leg := range o.legs() {
				if err := o.processInstance(ctx, hub, bucket, leg, &summary); err != nil {
					// Isolated: log and move to the next hub/bucket.
					o.Logger.Error().Err(err).
						Str("hub_id", hub.ID).
						Str("bucket", string(bucket)).
						Str("leg", string(leg)).
						Msg("hub/bucket iteration failed")
					summary.Counts["instances_failed"]++
				}
			}
		}
	}

	summary.Events = append(summary.Events, map[string]any{
		"type":   "sweep_finished",
		"counts": summary.Counts,
		"time":   o.now(),
	})
	o.finishRun(ctx, runID, "done", summary)
	return summary, nil
}

// RunWithRetry retries a failed sweep up to 3 times with a fixed backoff.
func (o *Orchestrator) RunWithRetry(ctx context.Context) (RunSummary, error) {
	const attempts = 3
	backoff := 5 * time.Second

	var summary RunSummary
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		summary, err = o.Run(ctx)
		if err == nil {
			return summary, nil
		}
		o.Logger.Error().Err(err).Int("attempt", attempt).Msg("sweep failed")
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		case <-time.After(backoff):
		}
	}
	return summary, err
}

// processInstance solves and commits one hub/bucket/leg batch.
func (o *Orchestrator) processInstance(ctx context.Context, hub models.Hub, bucket models.Bucket, leg models.LegType, summary *RunSummary) error {
	candidates, err := o.Store.ListRouteCandidates(ctx, hub.ID, leg)
	if err != nil {
		return err
	}
	batch := o.Bucketer.PartitionByBucket(candidates)[bucket]
	if len(batch) == 0 {
		return nil
	}
	// A mixed route needs enough combined stops to be worth solving.
	if leg == models.LegMixed && len(batch) < 2 {
		return nil
	}

	drivers, err := o.Store.ListAvailableDrivers(ctx, hub.ID)
	if err != nil {
		return err
	}

	dropped, err := o.optimizeAndCommit(ctx, hub, bucket, leg, batch, drivers, summary)
	if err != nil {
		return err
	}

	if o.RetryDropped && len(dropped) > 0 {
		o.Logger.Info().
			Int("bookings", len(dropped)).
			Msg("retrying dropped stops")
		if _, err := o.optimizeAndCommit(ctx, hub, bucket, leg, dropped, drivers, summary); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) optimizeAndCommit(ctx context.Context, hub models.Hub, bucket models.Bucket, leg models.LegType, batch []models.Booking, drivers []models.Driver, summary *RunSummary) ([]models.Booking, error) {
	stops := make([]models.Coordinate, len(batch))
	for i, b := range batch {
		stops[i] = *b.StopCoordinate(resolveStopLeg(leg, b))
	}

	matrices, err := o.Matrix.Compute(ctx, *hub.Location, stops)
	if err != nil {
		return nil, err
	}

	now := o.now()
	routes, dropped := o.Optimizer.OptimizeRoutes(batch, drivers, matrices, leg, now)

	committed := 0
	for _, route := range routes {
		routeID, err := o.Committer.Commit(ctx, route, hub.ID, leg)
		switch {
		case errors.Is(err, ErrRouteTooShort):
			summary.Counts["rejected_short"] += 1
		case errors.Is(err, db.ErrDailyHoursExceeded):
			summary.Counts["rejected_daily_hours"] += 1
		case errors.Is(err, db.ErrBookingStateChanged):
			summary.Counts["commit_conflicts"] += 1
		case err != nil:
			o.Logger.Error().Err(err).Str("hub_id", hub.ID).Msg("route commit failed")
			summary.Counts["commit_errors"] += 1
		default:
			committed++
			if route.Driver == nil {
				summary.Counts["routes_pending"] += 1
			} else {
				summary.Counts["routes_assigned"] += 1
			}
			_ = routeID
		}
	}
	summary.Counts["dropped_stops"] += len(dropped)

	summary.Events = append(summary.Events, map[string]any{
		"type":       "instance",
		"hub_id":     hub.ID,
		"bucket":     string(bucket),
		"leg":        string(leg),
		"candidates": len(batch),
		"drivers":    len(drivers),
		"routes":     len(routes),
		"committed":  committed,
		"dropped":    len(dropped),
		"time":       o.now(),
	})
	return dropped, nil
}

func (o *Orchestrator) finishRun(ctx context.Context, runID, status string, summary RunSummary) {
	if runID == "" {
		return
	}
	payload, err := json.Marshal(summary)
	if err != nil {
		payload = nil
	}
	if err := o.Store.FinishRun(ctx, runID, status, payload); err != nil {
		o.Logger.Warn().Err(err).Msg("run record not finished")
	}
}

// MarkOverdueShifts flags yesterday's unfinished shifts; invoked once
// daily by the scheduler.
func (o *Orchestrator) MarkOverdueShifts(ctx context.Context) (int64, error) {
	now := o.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return o.Store.MarkOverdueShifts(ctx, today)
}
