package mockengine

import (
	"math/rand/v2"
)

const (
	maxGridSize     = 200
	obstacleDensity = 0.08
	resourceUnits   = 5
)

type point struct {
	row, col int
}

func (p point) add(d point) point {
	return point{row: p.row + d.row, col: p.col + d.col}
}

func (p point) distance(o point) int {
	return abs(p.row-o.row) + abs(p.col-o.col)
}

var directions = []point{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

type resourceKind int

const (
	crystal resourceKind = iota
	energy
)

type resource struct {
	kind  resourceKind
	units int
}

type gatherer struct {
	at       point
	carrying *resourceKind
}

// world is a small deterministic colony: scouts wander, gatherers walk to
// the nearest resource, carry one unit back to the base and drop it there.
type world struct {
	params    worldParams
	rng       *rand.Rand
	obstacles map[point]bool
	resources map[point]*resource
	base      point
	scouts    []point
	gatherers []*gatherer
	crystals  int
	energy    int
	age       int
}

type worldParams struct {
	columns, rows                    int
	seed                             uint64
	gatherers, scouts, resources     int
	empty, obstacle, base            string
	scout, gatherer, crystal, energy string
}

func (r startRequest) params() worldParams {
	return worldParams{
		columns:   clamp(r.Columns, 15, maxGridSize),
		rows:      clamp(r.Rows, 15, maxGridSize),
		seed:      uint64(r.Seed),
		gatherers: clamp(r.Gatherers, 0, 15),
		scouts:    clamp(r.Scouts, 1, 15),
		resources: clamp(r.Resources, 1, 50),
		empty:     orDefault(r.EmptyDisplay, " "),
		obstacle:  orDefault(r.ObstacleDisplay, "8"),
		base:      orDefault(r.BaseDisplay, "#"),
		scout:     orDefault(r.ScoutDisplay, "S"),
		gatherer:  orDefault(r.GathererDisplay, "G"),
		crystal:   orDefault(r.CrystalDisplay, "C"),
		energy:    orDefault(r.EnergyDisplay, "E"),
	}
}

func newWorld(p worldParams) *world {
	w := &world{
		params:    p,
		rng:       rand.New(rand.NewPCG(p.seed, p.seed^0x9e3779b97f4a7c15)),
		obstacles: make(map[point]bool),
		resources: make(map[point]*resource),
		base:      point{row: p.rows / 2, col: p.columns / 2},
	}

	for row := 0; row < p.rows; row++ {
		for col := 0; col < p.columns; col++ {
			at := point{row: row, col: col}
			if at.distance(w.base) > 2 && w.rng.Float64() < obstacleDensity {
				w.obstacles[at] = true
			}
		}
	}

	for i := 0; i < p.resources; i++ {
		at, ok := w.freeCell()
		if !ok {
			break
		}
		kind := crystal
		if i%2 == 1 {
			kind = energy
		}
		w.resources[at] = &resource{kind: kind, units: resourceUnits}
	}

	for i := 0; i < p.scouts; i++ {
		w.scouts = append(w.scouts, w.base)
	}
	for i := 0; i < p.gatherers; i++ {
		w.gatherers = append(w.gatherers, &gatherer{at: w.base})
	}
	return w
}

func (w *world) freeCell() (point, bool) {
	for attempt := 0; attempt < 1000; attempt++ {
		at := point{row: w.rng.IntN(w.params.rows), col: w.rng.IntN(w.params.columns)}
		if at == w.base || w.obstacles[at] || w.resources[at] != nil {
			continue
		}
		return at, true
	}
	return point{}, false
}

func (w *world) inside(p point) bool {
	return p.row >= 0 && p.row < w.params.rows && p.col >= 0 && p.col < w.params.columns
}

func (w *world) walkable(p point) bool {
	return w.inside(p) && !w.obstacles[p]
}

func (w *world) wander(from point) point {
	start := w.rng.IntN(len(directions))
	for i := range directions {
		next := from.add(directions[(start+i)%len(directions)])
		if w.walkable(next) {
			return next
		}
	}
	return from
}

// toward moves one cell closer to target, or wanders when blocked.
func (w *world) toward(from, target point) point {
	best, bestDistance := from, from.distance(target)
	for _, d := range directions {
		next := from.add(d)
		if w.walkable(next) && next.distance(target) < bestDistance {
			best, bestDistance = next, next.distance(target)
		}
	}
	if best == from && from != target {
		return w.wander(from)
	}
	return best
}

func (w *world) nearestResource(from point) (point, bool) {
	var (
		found bool
		best  point
	)
	for at := range w.resources {
		if !found || from.distance(at) < from.distance(best) ||
			(from.distance(at) == from.distance(best) && less(at, best)) {
			best, found = at, true
		}
	}
	return best, found
}

func (w *world) step() {
	w.age++

	for i, at := range w.scouts {
		w.scouts[i] = w.wander(at)
	}

	for _, g := range w.gatherers {
		if g.carrying != nil {
			g.at = w.toward(g.at, w.base)
			if g.at == w.base {
				if *g.carrying == crystal {
					w.crystals++
				} else {
					w.energy++
				}
				g.carrying = nil
			}
			continue
		}

		target, ok := w.nearestResource(g.at)
		if !ok {
			g.at = w.wander(g.at)
			continue
		}
		g.at = w.toward(g.at, target)
		if res := w.resources[g.at]; res != nil {
			kind := res.kind
			g.carrying = &kind
			res.units--
			if res.units == 0 {
				delete(w.resources, g.at)
			}
		}
	}
}

func (w *world) render() stateResponse {
	p := w.params
	grid := make([][]string, p.rows)
	for row := range grid {
		grid[row] = make([]string, p.columns)
		for col := range grid[row] {
			grid[row][col] = p.empty
		}
	}
	for at := range w.obstacles {
		grid[at.row][at.col] = p.obstacle
	}
	for at, res := range w.resources {
		if res.kind == crystal {
			grid[at.row][at.col] = p.crystal
		} else {
			grid[at.row][at.col] = p.energy
		}
	}
	for _, at := range w.scouts {
		grid[at.row][at.col] = p.scout
	}
	for _, g := range w.gatherers {
		grid[g.at.row][g.at.col] = p.gatherer
	}
	grid[w.base.row][w.base.col] = p.base

	return stateResponse{Map: grid, CrystalCount: w.crystals, EnergyCount: w.energy}
}

func less(a, b point) bool {
	if a.row != b.row {
		return a.row < b.row
	}
	return a.col < b.col
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
