package solver

import (
	"math"
	"math/rand"
)

// Point is a planar stand-in for a geographic coordinate; at city scale
// lat/lon behave close enough to euclidean for clustering purposes.
type Point struct {
	Lat float64
	Lon float64
}

// KMeansClusters partitions points into at most k geographic clusters and
// returns, per cluster, the indices of its members. Empty clusters are
// omitted. A fixed seed makes the partition reproducible.
func KMeansClusters(points []Point, k int, seed int64) [][]int {
	if len(points) == 0 || k <= 0 {
		return nil
	}
	if k > len(points) {
		k = len(points)
	}
	if seed == 0 {
		seed = 1
	}
	rng := rand.New(rand.NewSource(seed))

	centroids := make([]Point, k)
	perm := rng.Perm(len(points))
	for i := 0; i < k; i++ {
		centroids[i] = points[perm[i]]
	}

	assign := make([]int, len(points))
	const maxRounds = 50
	for round := 0; round < maxRounds; round++ {
		changed := false
		for i, pt := range points {
			best := 0
			bestDist := math.MaxFloat64
			for ci, c := range centroids {
				d := sqDist(pt, c)
				if d < bestDist {
					bestDist = d
					best = ci
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && round > 0 {
			break
		}

		sums := make([]Point, k)
		counts := make([]int, k)
		for i, pt := range points {
			ci := assign[i]
			sums[ci].Lat += pt.Lat
			sums[ci].Lon += pt.Lon
			counts[ci]++
		}
		for ci := range centroids {
			if counts[ci] == 0 {
				continue
			}
			centroids[ci] = Point{
				Lat: sums[ci].Lat / float64(counts[ci]),
				Lon: sums[ci].Lon / float64(counts[ci]),
			}
		}
	}

	clusters := make([][]int, k)
	for i, ci := range assign {
		clusters[ci] = append(clusters[ci], i)
	}
	out := make([][]int, 0, k)
	for _, c := range clusters {
		if len(c) > 0 {
			out = append(out, c)
		}
	}
	return out
}

func sqDist(a, b Point) float64 {
	dLat := a.Lat - b.Lat
	dLon := a.Lon - b.Lon
	return dLat*dLat + dLon*dLon
}
