package service

import (
	"testing"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
)

func TestBucketOfMapsKnownServiceTypes(t *testing.T) {
	b := NewBucketer(nil)
	cases := map[string]models.Bucket{
		"express":   models.BucketSameDay,
		"Express":   models.BucketSameDay,
		"SAME DAY":  models.BucketSameDay,
		"standard":  models.BucketNextDay,
		"Next Day":  models.BucketNextDay,
		"economy":   models.BucketThreeDay,
		"three day": models.BucketThreeDay,
	}
	for name, want := range cases {
		got := b.BucketOf(models.Booking{ServiceType: name})
		if got != want {
			t.Fatalf("service type %q: got %s, want %s", name, got, want)
		}
	}
}

func TestBucketOfDefaultsUnknownToThreeDay(t *testing.T) {
	b := NewBucketer(nil)
	if got := b.BucketOf(models.Booking{ServiceType: "Platinum"}); got != models.BucketThreeDay {
		t.Fatalf("unknown service type must fall to three_day, got %s", got)
	}
}

func TestBucketerOverrides(t *testing.T) {
	b := NewBucketer(map[string]models.Bucket{"Platinum ": models.BucketSameDay})
	if got := b.BucketOf(models.Booking{ServiceType: "platinum"}); got != models.BucketSameDay {
		t.Fatalf("override not applied, got %s", got)
	}
}

func TestPartitionByBucket(t *testing.T) {
	b := NewBucketer(nil)
	bookings := []models.Booking{
		{ID: "b1", ServiceType: "express"},
		{ID: "b2", ServiceType: "standard"},
		{ID: "b3", ServiceType: "express"},
	}
	parts := b.PartitionByBucket(bookings)
	if len(parts[models.BucketSameDay]) != 2 || len(parts[models.BucketNextDay]) != 1 {
		t.Fatalf("unexpected partition: %+v", parts)
	}
	if len(parts[models.BucketThreeDay]) != 0 {
		t.Fatalf("three_day must be empty")
	}
}

func TestPartitionByHubSkipsUnassigned(t *testing.T) {
	h1 := "h1"
	bookings := []models.Booking{
		{ID: "b1", HubID: &h1},
		{ID: "b2"},
		{ID: "b3", HubID: &h1},
	}
	parts := PartitionByHub(bookings)
	if len(parts) != 1 || len(parts["h1"]) != 2 {
		t.Fatalf("unexpected partition: %+v", parts)
	}
}
