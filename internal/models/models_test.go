package models

import "testing"

func TestLegStatusTransitions(t *testing.T) {
	if LegPickup.PreRouteStatus() != BookingScheduled || LegPickup.RoutedStatus() != BookingAssigned {
		t.Fatalf("unexpected pickup statuses")
	}
	if LegDelivery.PreRouteStatus() != BookingAtHub || LegDelivery.RoutedStatus() != BookingInTransit {
		t.Fatalf("unexpected delivery statuses")
	}
}

func TestStopCoordinatePerLeg(t *testing.T) {
	b := Booking{
		Pickup:  &Coordinate{Lat: 1, Lon: 2},
		Dropoff: &Coordinate{Lat: 3, Lon: 4},
	}
	if *b.StopCoordinate(LegPickup) != (Coordinate{Lat: 1, Lon: 2}) {
		t.Fatalf("pickup leg must visit the pickup address")
	}
	if *b.StopCoordinate(LegDelivery) != (Coordinate{Lat: 3, Lon: 4}) {
		t.Fatalf("delivery leg must visit the dropoff address")
	}
}

func TestRoutable(t *testing.T) {
	b := Booking{
		Status:  BookingScheduled,
		Pickup:  &Coordinate{Lat: 1, Lon: 2},
		Dropoff: &Coordinate{Lat: 3, Lon: 4},
	}
	if !b.Routable(LegPickup) {
		t.Fatalf("scheduled booking must be routable for pickup")
	}
	if b.Routable(LegDelivery) {
		t.Fatalf("scheduled booking must not be routable for delivery")
	}
	if !b.Routable(LegMixed) {
		t.Fatalf("scheduled booking must be routable for mixed")
	}

	b.Status = BookingDelivered
	if b.Routable(LegPickup) || b.Routable(LegMixed) {
		t.Fatalf("delivered booking must not be routable")
	}

	b.Status = BookingScheduled
	b.Dropoff = nil
	if b.Routable(LegPickup) {
		t.Fatalf("booking without both endpoints must not be routable")
	}
}

func TestStopLeg(t *testing.T) {
	if (Booking{Status: BookingAtHub}).StopLeg() != LegDelivery {
		t.Fatalf("at_hub booking is a delivery stop")
	}
	if (Booking{Status: BookingScheduled}).StopLeg() != LegPickup {
		t.Fatalf("scheduled booking is a pickup stop")
	}
}
