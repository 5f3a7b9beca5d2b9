package matrix

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Mesh-254/drop-and-roll-backend-sub000/internal/models"
)

// PairCache keeps routing-service answers per coordinate pair so repeated
// sweeps over the same hub do not re-query the external API. Cache errors
// are swallowed: a cold or unreachable cache only costs extra API calls.
type PairCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewPairCache(client *redis.Client, ttl time.Duration) *PairCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &PairCache{Client: client, TTL: ttl}
}

func pairKey(from, to models.Coordinate) string {
	// 5 decimal places (~1m) keeps keys stable across float noise.
	return fmt.Sprintf("dm:%.5f,%.5f|%.5f,%.5f", from.Lat, from.Lon, to.Lat, to.Lon)
}

// Fill populates every cached cell of m and returns the number of hits.
func (c *PairCache) Fill(ctx context.Context, m *Matrices, points []models.Coordinate) int {
	keys := make([]string, 0, len(points)*len(points))
	idx := make([][2]int, 0, len(points)*len(points))
	for i := range points {
		for j := range points {
			if i == j || m.TimeSec[i][j] != unfilled {
				continue
			}
			keys = append(keys, pairKey(points[i], points[j]))
			idx = append(idx, [2]int{i, j})
		}
	}
	if len(keys) == 0 {
		return 0
	}

	vals, err := c.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return 0
	}

	hits := 0
	for k, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var sec int64
		var km float64
		if _, err := fmt.Sscanf(s, "%d|%f", &sec, &km); err != nil {
			continue
		}
		i, j := idx[k][0], idx[k][1]
		m.TimeSec[i][j] = sec
		m.DistKm[i][j] = km
		hits++
	}
	return hits
}

// Store writes freshly fetched cells back to the cache.
func (c *PairCache) Store(ctx context.Context, m Matrices, points []models.Coordinate, fresh map[[2]int]struct{}) {
	pipe := c.Client.Pipeline()
	for cell := range fresh {
		i, j := cell[0], cell[1]
		val := fmt.Sprintf("%d|%f", m.TimeSec[i][j], m.DistKm[i][j])
		pipe.Set(ctx, pairKey(points[i], points[j]), val, c.TTL)
	}
	_, _ = pipe.Exec(ctx)
}
