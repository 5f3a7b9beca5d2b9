package solver

import (
	"math"
	"math/rand"
	"sort"
)

// removeRandom pulls up to k random nodes out of the solution and returns
// their indices.
func removeRandom(sol *Solution, k int, rng *rand.Rand) []int {
	assigned := assignedNodes(sol)
	if len(assigned) == 0 {
		return nil
	}
	rng.Shuffle(len(assigned), func(i, j int) {
		assigned[i], assigned[j] = assigned[j], assigned[i]
	})
	if k > len(assigned) {
		k = len(assigned)
	}
	removed := assigned[:k]
	eraseNodes(sol, removed)
	return append([]int(nil), removed...)
}

// removeRelated picks a random seed stop and removes it together with the
// stops closest to it by travel time (Shaw-style relatedness).
func (p *Problem) removeRelated(sol *Solution, k int, rng *rand.Rand) []int {
	assigned := assignedNodes(sol)
	if len(assigned) == 0 {
		return nil
	}
	seed := assigned[rng.Intn(len(assigned))]

	sort.Slice(assigned, func(a, b int) bool {
		da := p.travelSec(seed+1, assigned[a]+1)
		db := p.travelSec(seed+1, assigned[b]+1)
		if da == db {
			return assigned[a] < assigned[b]
		}
		return da < db
	})
	if k > len(assigned) {
		k = len(assigned)
	}
	removed := assigned[:k]
	eraseNodes(sol, removed)
	return append([]int(nil), removed...)
}

func assignedNodes(sol *Solution) []int {
	var out []int
	for _, pl := range sol.Plans {
		out = append(out, pl.Order...)
	}
	return out
}

func eraseNodes(sol *Solution, removed []int) {
	rm := make(map[int]bool, len(removed))
	for _, n := range removed {
		rm[n] = true
	}
	for i := range sol.Plans {
		kept := sol.Plans[i].Order[:0]
		for _, n := range sol.Plans[i].Order {
			if !rm[n] {
				kept = append(kept, n)
			}
		}
		sol.Plans[i].Order = kept
	}
}

type insertion struct {
	plan int
	pos  int
	cost float64
}

// bestInsertions returns the cheapest and second-cheapest feasible
// insertion of node ni across all plans and positions.
func (p *Problem) bestInsertions(sol *Solution, ni int) (best, second insertion) {
	best = insertion{plan: -1, cost: math.MaxFloat64}
	second = insertion{plan: -1, cost: math.MaxFloat64}
	for vi := range sol.Plans {
		order := sol.Plans[vi].Order
		for pos := 0; pos <= len(order); pos++ {
			cand := make([]int, 0, len(order)+1)
			cand = append(cand, order[:pos]...)
			cand = append(cand, ni)
			cand = append(cand, order[pos:]...)
			s := p.SchedulePlan(cand, p.Vehicles[vi])
			if !s.Feasible {
				continue
			}
			c := float64(s.TotalSec)
			if len(order) == 0 {
				c += p.ActivationCost
			}
			if c < best.cost {
				second = best
				best = insertion{plan: vi, pos: pos, cost: c}
			} else if c < second.cost {
				second = insertion{plan: vi, pos: pos, cost: c}
			}
		}
	}
	return best, second
}

func applyInsertion(sol *Solution, ni int, ins insertion) {
	order := sol.Plans[ins.plan].Order
	order = append(order, 0)
	copy(order[ins.pos+1:], order[ins.pos:])
	order[ins.pos] = ni
	sol.Plans[ins.plan].Order = order
}

// insertGreedy inserts nodes by cheapest feasible insertion; whatever
// cannot be placed anywhere is dropped.
func (p *Problem) insertGreedy(sol *Solution, nodes []int) {
	pending := append([]int(nil), nodes...)
	for len(pending) > 0 {
		bestNode := -1
		var bestIns insertion
		bestIns.cost = math.MaxFloat64
		for i, ni := range pending {
			ins, _ := p.bestInsertions(sol, ni)
			if ins.plan >= 0 && ins.cost < bestIns.cost {
				bestIns = ins
				bestNode = i
			}
		}
		if bestNode < 0 {
			sol.Dropped = append(sol.Dropped, pending...)
			return
		}
		applyInsertion(sol, pending[bestNode], bestIns)
		pending = append(pending[:bestNode], pending[bestNode+1:]...)
	}
}

// insertRegret places first the node that loses most if denied its best
// slot (regret-2), which keeps awkward stops from being squeezed out.
func (p *Problem) insertRegret(sol *Solution, nodes []int) {
	pending := append([]int(nil), nodes...)
	for len(pending) > 0 {
		bestNode := -1
		bestRegret := -1.0
		var bestIns insertion
		for i, ni := range pending {
			ins, second := p.bestInsertions(sol, ni)
			if ins.plan < 0 {
				continue
			}
			regret := 0.0
			if second.plan >= 0 {
				regret = second.cost - ins.cost
			} else {
				regret = math.MaxFloat64 / 2 // only one slot left: place it now
			}
			if regret > bestRegret {
				bestRegret = regret
				bestNode = i
				bestIns = ins
			}
		}
		if bestNode < 0 {
			sol.Dropped = append(sol.Dropped, pending...)
			return
		}
		applyInsertion(sol, pending[bestNode], bestIns)
		pending = append(pending[:bestNode], pending[bestNode+1:]...)
	}
}

// twoOptImprove applies intra-route 2-opt segment reversals while they
// shorten the schedule and stay feasible.
func (p *Problem) twoOptImprove(sol *Solution) {
	for vi := range sol.Plans {
		order := sol.Plans[vi].Order
		n := len(order)
		if n < 3 {
			continue
		}
		v := p.Vehicles[sol.Plans[vi].Vehicle]
		base := p.SchedulePlan(order, v)
		improved := true
		for improved {
			improved = false
			for i := 0; i < n-1; i++ {
				for j := i + 1; j < n; j++ {
					cand := append([]int(nil), order...)
					for a, b := i, j; a < b; a, b = a+1, b-1 {
						cand[a], cand[b] = cand[b], cand[a]
					}
					s := p.SchedulePlan(cand, v)
					if s.Feasible && s.TotalSec < base.TotalSec {
						order = cand
						base = s
						improved = true
					}
				}
			}
		}
		sol.Plans[vi].Order = order
	}
}
