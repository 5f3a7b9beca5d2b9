package solver

// NearestNeighborPath orders the given node indices as a single-vehicle
// tour depot -> stops -> depot, always driving to the closest remaining
// stop next. Ties break on the lower node index so the result is
// deterministic. Returned arrivals are cumulative offsets from departure,
// and the totals include the return leg.
func (p *Problem) NearestNeighborPath(nodes []int) (order []int, sched Schedule) {
	remaining := make(map[int]bool, len(nodes))
	for _, n := range nodes {
		remaining[n] = true
	}

	order = make([]int, 0, len(nodes))
	prev := 0 // depot matrix index
	for len(remaining) > 0 {
		best := -1
		var bestSec int64
		for ni := range remaining {
			sec := p.travelSec(prev, ni+1)
			if best < 0 || sec < bestSec || (sec == bestSec && ni < best) {
				best = ni
				bestSec = sec
			}
		}
		order = append(order, best)
		delete(remaining, best)
		prev = best + 1
	}

	sched = p.SchedulePlan(order, Vehicle{})
	return order, sched
}
