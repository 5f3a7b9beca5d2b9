// Package solver implements a capacitated multi-vehicle routing search
// over precomputed travel matrices: a cheapest-insertion construction
// followed by a simulated-annealing improvement phase with removal and
// reinsertion operators. Stops that fit no vehicle are dropped at a
// penalty instead of making the instance infeasible.
package solver

import (
	"math"
	"math/rand"
	"time"
)

// outOfRangeSec is charged for any matrix index pair outside the matrix,
// so a matrix/index mismatch degrades the solution instead of panicking.
const outOfRangeSec = int64(10_000_000)

// Window constrains a node's visit time, in seconds from route departure.
type Window struct {
	StartSec int64
	EndSec   int64
}

// Node is one stop. Nodes[i] corresponds to matrix index i+1; the depot
// is matrix index 0.
type Node struct {
	Weight     float64
	Volume     float64
	ServiceSec int64
	Window     *Window
}

type Vehicle struct {
	BudgetSec int64
	CapWeight float64
	CapVolume float64
}

type Problem struct {
	TimeSec [][]int64
	DistKm  [][]float64

	Nodes    []Node
	Vehicles []Vehicle

	// DropPenalty is the cost of leaving a node out of the solution.
	DropPenalty float64
	// ActivationCost is charged per vehicle with at least one stop, so
	// the search prefers packing fewer vehicles densely.
	ActivationCost float64

	Seed           int64
	TimeLimit      time.Duration
	IterationLimit int
}

// RoutePlan is an ordered visiting sequence of node indices for one vehicle.
type RoutePlan struct {
	Vehicle int
	Order   []int
}

type Solution struct {
	Plans   []RoutePlan
	Dropped []int
	Cost    float64
}

// Schedule is the timing of one plan as walked by the solver itself:
// per-stop arrival offsets plus the totals including the return leg.
type Schedule struct {
	ArrivalSec []int64
	TotalSec   int64
	TotalKm    float64
	Feasible   bool
}

func (p *Problem) travelSec(i, j int) int64 {
	if i < 0 || j < 0 || i >= len(p.TimeSec) || j >= len(p.TimeSec[i]) {
		return outOfRangeSec
	}
	return p.TimeSec[i][j]
}

func (p *Problem) travelKm(i, j int) float64 {
	if i < 0 || j < 0 || i >= len(p.DistKm) || j >= len(p.DistKm[i]) {
		return 0
	}
	return p.DistKm[i][j]
}

// SchedulePlan walks order (node indices) from the depot and back,
// accumulating travel, window waits and service time. It is the single
// source of truth for feasibility, totals and per-stop arrival offsets.
func (p *Problem) SchedulePlan(order []int, v Vehicle) Schedule {
	s := Schedule{ArrivalSec: make([]int64, 0, len(order)), Feasible: true}
	if len(order) == 0 {
		return s
	}

	var weight, volume float64
	var t int64
	prev := 0 // depot
	for _, ni := range order {
		nd := p.Nodes[ni]
		weight += nd.Weight
		volume += nd.Volume
		if v.CapWeight > 0 && weight > v.CapWeight {
			s.Feasible = false
		}
		if v.CapVolume > 0 && volume > v.CapVolume {
			s.Feasible = false
		}

		mi := ni + 1
		t += p.travelSec(prev, mi)
		s.TotalKm += p.travelKm(prev, mi)
		if nd.Window != nil {
			if t < nd.Window.StartSec {
				t = nd.Window.StartSec
			}
			if t > nd.Window.EndSec {
				s.Feasible = false
			}
		}
		s.ArrivalSec = append(s.ArrivalSec, t)
		t += nd.ServiceSec
		prev = mi
	}

	t += p.travelSec(prev, 0)
	s.TotalKm += p.travelKm(prev, 0)
	s.TotalSec = t

	if v.BudgetSec > 0 && t > v.BudgetSec {
		s.Feasible = false
	}
	return s
}

func (p *Problem) cost(sol Solution) float64 {
	total := 0.0
	for _, pl := range sol.Plans {
		if len(pl.Order) == 0 {
			continue
		}
		s := p.SchedulePlan(pl.Order, p.Vehicles[pl.Vehicle])
		total += float64(s.TotalSec) + p.ActivationCost
	}
	total += p.DropPenalty * float64(len(sol.Dropped))
	return total
}

// Solve runs the search. With the same problem and seed the result is
// reproducible run to run.
func (p *Problem) Solve() Solution {
	seed := p.Seed
	if seed == 0 {
		seed = 1
	}
	rng := rand.New(rand.NewSource(seed))

	if p.DropPenalty <= 0 {
		p.DropPenalty = 1_000_000
	}

	curr := p.constructSolution()
	curr.Cost = p.cost(curr)
	best := cloneSolution(curr)

	iterLimit := p.IterationLimit
	if iterLimit <= 0 {
		iterLimit = 20000
	}
	deadline := time.Now().Add(p.TimeLimit)
	if p.TimeLimit <= 0 {
		deadline = time.Now().Add(30 * time.Second)
	}

	temp := float64(len(p.Nodes)) * 600.0
	const cooling = 0.999

	for iter := 0; iter < iterLimit && time.Now().Before(deadline); iter++ {
		cand := cloneSolution(curr)

		k := 1 + rng.Intn(3)
		var removed []int
		if rng.Intn(2) == 0 {
			removed = removeRandom(&cand, k, rng)
		} else {
			removed = p.removeRelated(&cand, k, rng)
		}
		// Dropped nodes compete for reinsertion every iteration.
		removed = append(removed, cand.Dropped...)
		cand.Dropped = nil

		if rng.Intn(2) == 0 {
			p.insertGreedy(&cand, removed)
		} else {
			p.insertRegret(&cand, removed)
		}
		if iter%20 == 0 {
			p.twoOptImprove(&cand)
		}
		cand.Cost = p.cost(cand)

		delta := cand.Cost - curr.Cost
		if delta < 0 || rng.Float64() < math.Exp(-delta/(temp+1e-9)) {
			curr = cand
			if curr.Cost < best.Cost {
				best = cloneSolution(curr)
			}
		}
		temp *= cooling
	}

	p.twoOptImprove(&best)
	best.Cost = p.cost(best)
	return best
}

// constructSolution builds the initial solution by cheapest feasible
// insertion in deterministic node order. Unplaceable nodes are dropped.
func (p *Problem) constructSolution() Solution {
	sol := Solution{Plans: make([]RoutePlan, len(p.Vehicles))}
	for vi := range p.Vehicles {
		sol.Plans[vi] = RoutePlan{Vehicle: vi}
	}
	pending := make([]int, len(p.Nodes))
	for i := range p.Nodes {
		pending[i] = i
	}
	p.insertGreedy(&sol, pending)
	return sol
}

func cloneSolution(s Solution) Solution {
	out := Solution{
		Plans:   make([]RoutePlan, len(s.Plans)),
		Dropped: append([]int(nil), s.Dropped...),
		Cost:    s.Cost,
	}
	for i, pl := range s.Plans {
		out.Plans[i] = RoutePlan{Vehicle: pl.Vehicle, Order: append([]int(nil), pl.Order...)}
	}
	return out
}
