package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingScheduled BookingStatus = "scheduled"
	BookingAssigned  BookingStatus = "assigned"
	BookingAtHub     BookingStatus = "at_hub"
	BookingPickedUp  BookingStatus = "picked_up"
	BookingInTransit BookingStatus = "in_transit"
	BookingDelivered BookingStatus = "delivered"
	BookingCancelled BookingStatus = "cancelled"
	BookingFailed    BookingStatus = "failed"
)

type LegType string

const (
	LegPickup   LegType = "pickup"
	LegDelivery LegType = "delivery"
	LegMixed    LegType = "mixed"
)

// PreRouteStatus is the status a booking must hold to be a candidate for
// the given leg, and the status it is reset to when placed into a
// driverless pending route.
func (l LegType) PreRouteStatus() BookingStatus {
	if l == LegDelivery {
		return BookingAtHub
	}
	return BookingScheduled
}

// RoutedStatus is the status a booking moves to once committed into an
// assigned route of the given leg.
func (l LegType) RoutedStatus() BookingStatus {
	if l == LegDelivery {
		return BookingInTransit
	}
	return BookingAssigned
}

type Bucket string

const (
	BucketSameDay  Bucket = "same_day"
	BucketNextDay  Bucket = "next_day"
	BucketThreeDay Bucket = "three_day"
)

// BucketOrder is the fixed processing order of the orchestrator sweep.
var BucketOrder = []Bucket{BucketSameDay, BucketNextDay, BucketThreeDay}

type ShiftStatus string

const (
	ShiftPending   ShiftStatus = "pending"
	ShiftAssigned  ShiftStatus = "assigned"
	ShiftActive    ShiftStatus = "active"
	ShiftCompleted ShiftStatus = "completed"
	ShiftOverdue   ShiftStatus = "overdue"
)

type RouteStatus string

const (
	RoutePending    RouteStatus = "pending"
	RouteAssigned   RouteStatus = "assigned"
	RouteInProgress RouteStatus = "in_progress"
	RouteCompleted  RouteStatus = "completed"
	RouteCancelled  RouteStatus = "cancelled"
)

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type Booking struct {
	ID          string        `json:"id"`
	ServiceType string        `json:"service_type"`
	Status      BookingStatus `json:"status"`
	Pickup      *Coordinate   `json:"pickup,omitempty"`
	Dropoff     *Coordinate   `json:"dropoff,omitempty"`
	WeightKg    float64       `json:"weight_kg"`
	VolumeM3    float64       `json:"volume_m3"`
	HubID       *string       `json:"hub_id,omitempty"`
	DriverID    *string       `json:"driver_id,omitempty"`
	ScheduledAt *time.Time    `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// StopCoordinate returns the coordinate visited on a route of the given
// leg: the pickup address for hub-bound legs, the dropoff for deliveries.
func (b Booking) StopCoordinate(leg LegType) *Coordinate {
	if leg == LegDelivery {
		return b.Dropoff
	}
	return b.Pickup
}

// Routable reports whether the booking can enter a route of the given leg:
// both endpoints present and status in the expected pre-route state.
func (b Booking) Routable(leg LegType) bool {
	if b.Pickup == nil || b.Dropoff == nil {
		return false
	}
	if leg == LegMixed {
		return b.Status == BookingScheduled || b.Status == BookingAtHub
	}
	return b.Status == leg.PreRouteStatus()
}

// StopLeg resolves the per-stop leg kind on a mixed route from the
// booking's pre-route state.
func (b Booking) StopLeg() LegType {
	if b.Status == BookingAtHub || b.Status == BookingInTransit {
		return LegDelivery
	}
	return LegPickup
}

type Driver struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	HubID          string  `json:"hub_id"`
	RemainingHours float64 `json:"remaining_hours"`
	MaxWeightKg    float64 `json:"max_weight_kg"`
	MaxVolumeM3    float64 `json:"max_volume_m3"`
	Available      bool    `json:"available"`
}

type Hub struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Location *Coordinate `json:"location,omitempty"`
}

type Shift struct {
	ID        string      `json:"id"`
	DriverID  *string     `json:"driver_id,omitempty"`
	Day       time.Time   `json:"day"`
	LoadHours float64     `json:"load_hours"`
	Status    ShiftStatus `json:"status"`
}

// RouteStop is one entry of a route's ordered-stops payload. Type is only
// meaningful on mixed routes, where one route carries both leg kinds.
type RouteStop struct {
	BookingID  string     `json:"booking_id"`
	Coordinate Coordinate `json:"coordinate"`
	ETA        time.Time  `json:"eta"`
	Type       LegType    `json:"type,omitempty"`
}

type Route struct {
	ID              string      `json:"id"`
	Leg             LegType     `json:"leg"`
	Stops           []RouteStop `json:"stops"`
	TotalTimeHours  float64     `json:"total_time_hours"`
	TotalDistanceKm float64     `json:"total_distance_km"`
	Status          RouteStatus `json:"status"`
	HubID           string      `json:"hub_id"`
	ShiftID         string      `json:"shift_id"`
	DriverID        *string     `json:"driver_id,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
}

type Run struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Status     string     `json:"status"`
	Summary    []byte     `json:"summary"`
}
