package service

import (
	"strings"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
)

// Bucketer maps a booking's service-type name to its priority bucket.
// Lookups are case-insensitive; unrecognized names fall to three_day.
type Bucketer struct {
	table map[string]models.Bucket
}

func defaultBucketTable() map[string]models.Bucket {
	return map[string]models.Bucket{
		"express":   models.BucketSameDay,
		"same day":  models.BucketSameDay,
		"standard":  models.BucketNextDay,
		"next day":  models.BucketNextDay,
		"economy":   models.BucketThreeDay,
		"three day": models.BucketThreeDay,
	}
}

// NewBucketer builds a bucketer from the default service-type table plus
// any configured overrides.
func NewBucketer(overrides map[string]models.Bucket) *Bucketer {
	table := defaultBucketTable()
	for name, bucket := range overrides {
		table[strings.ToLower(strings.TrimSpace(name))] = bucket
	}
	return &Bucketer{table: table}
}

func (b *Bucketer) BucketOf(booking models.Booking) models.Bucket {
	if bucket, ok := b.table[strings.ToLower(strings.TrimSpace(booking.ServiceType))]; ok {
		return bucket
	}
	return models.BucketThreeDay
}

// PartitionByBucket splits bookings by priority bucket. Order within a
// bucket is not meaningful; visiting order is the optimizer's job.
func (b *Bucketer) PartitionByBucket(bookings []models.Booking) map[models.Bucket][]models.Booking {
	out := make(map[models.Bucket][]models.Booking)
	for _, bk := range bookings {
		bucket := b.BucketOf(bk)
		out[bucket] = append(out[bucket], bk)
	}
	return out
}

// PartitionByHub splits bookings by their assigned hub; bookings without
// a hub are left out.
func PartitionByHub(bookings []models.Booking) map[string][]models.Booking {
	out := make(map[string][]models.Booking)
	for _, bk := range bookings {
		if bk.HubID == nil {
			continue
		}
		out[*bk.HubID] = append(out[*bk.HubID], bk)
	}
	return out
}
