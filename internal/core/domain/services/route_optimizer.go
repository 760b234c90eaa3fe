package services

import (
	"errors"
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
)

const (
	// defaultAverageSpeedKmh converts effective distance into travel time
	// when no mapping service supplies real travel-time estimates.
	defaultAverageSpeedKmh = 30.0

	// defaultImprovementBudget caps the number of 2-opt reversal tests.
	// The local search is CPU-bound; a fixed iteration cap keeps behavior
	// deterministic for testing, unlike a wall-clock timeout.
	defaultImprovementBudget = 10000
)

// Route optimization errors.
var (
	// ErrNoPickupStops is returned when optimizing an empty stop list.
	ErrNoPickupStops = errs.NewValueIsRequiredError("pickup stops")
	// ErrImprovementBudgetExceeded signals the 2-opt iteration cap was hit
	// before reaching a local optimum. The returned plan is still the best
	// tour found so far; callers treat this as a warning, not a failure.
	ErrImprovementBudgetExceeded = errors.New("route improvement budget exceeded before convergence")
)

// DistanceFunc returns the raw geodesic distance in kilometers between two
// points. The route optimizer accepts one so a mapping service can supply
// road distances; when nil, straight-line haversine distance is used.
type DistanceFunc func(from kernel.GeoPoint, to kernel.GeoPoint) (float64, error)

// RoutePlan is the output of a route optimization run: the visiting
// sequence with per-leg metrics, plus route totals. It is immutable
// planning data and contains no side effects.
type RoutePlan struct {
	// Stops is the planned sequence: pickups in visiting order, delivery last.
	Stops []assignment.RouteStop
	// TotalDistanceKm is the sum of effective (condition-scaled) leg distances.
	TotalDistanceKm float64
	// TotalDuration is the estimated travel time for the whole route.
	TotalDuration time.Duration
}

// RouteOptimizer computes a near-optimal multi-stop pickup-and-delivery
// route. Given the driver's starting position, the merchant pickup points
// and the single delivery destination, it finds a visiting order for the
// pickups that approximately minimizes total effective travel cost. The
// delivery stop is always fixed last.
//
// The optimizer is a stateless pure computation and is safe to invoke
// concurrently.
//
// Algorithm (two phases):
//  1. Build a symmetric cost matrix with
//     cost[i][j] = distance(i, j) * (1 + traffic + weather).
//  2. Construct an initial tour over the pickups with nearest-neighbor
//     greedy selection from the start position, then improve it with 2-opt
//     local search until no improving reversal exists or the iteration
//     budget runs out.
type RouteOptimizer struct {
	distance          DistanceFunc
	averageSpeedKmh   float64
	improvementBudget int
}

// RouteOptimizerOption configures a RouteOptimizer.
type RouteOptimizerOption func(*RouteOptimizer)

// WithDistanceFunc supplies road distances from a mapping service instead
// of the straight-line haversine fallback.
func WithDistanceFunc(distance DistanceFunc) RouteOptimizerOption {
	return func(o *RouteOptimizer) {
		o.distance = distance
	}
}

// WithAverageSpeed overrides the speed used to turn effective distance
// into travel time.
func WithAverageSpeed(kmh float64) RouteOptimizerOption {
	return func(o *RouteOptimizer) {
		if kmh > 0 {
			o.averageSpeedKmh = kmh
		}
	}
}

// WithImprovementBudget overrides the 2-opt iteration cap.
func WithImprovementBudget(budget int) RouteOptimizerOption {
	return func(o *RouteOptimizer) {
		if budget > 0 {
			o.improvementBudget = budget
		}
	}
}

// NewRouteOptimizer creates a route optimizer with the haversine distance
// fallback, the default average speed and the default improvement budget.
func NewRouteOptimizer(opts ...RouteOptimizerOption) *RouteOptimizer {
	o := &RouteOptimizer{
		distance:          haversineDistance,
		averageSpeedKmh:   defaultAverageSpeedKmh,
		improvementBudget: defaultImprovementBudget,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.distance == nil {
		o.distance = haversineDistance
	}
	return o
}

func haversineDistance(from kernel.GeoPoint, to kernel.GeoPoint) (float64, error) {
	return from.DistanceTo(to)
}

// Optimize computes the visiting order for the pickups and the resulting
// route metrics, starting from the driver's position and ending at the
// delivery point. departAt anchors the per-stop ETAs.
//
// A single pickup short-circuits to the trivial route. Identical
// coordinates yield zero-cost edges and are handled without error.
//
// Returns a validation error for an empty pickup list or unconstructed
// inputs. If the 2-opt budget is exhausted after at least one completed
// improvement pass, the best plan found so far is returned together with
// ErrImprovementBudgetExceeded; callers should use the plan and log a
// warning. If the budget is exhausted before any pass completes, only the
// error is returned.
func (o *RouteOptimizer) Optimize(
	start kernel.GeoPoint,
	pickups []kernel.GeoPoint,
	delivery kernel.GeoPoint,
	conditions ConditionFactors,
	departAt time.Time,
) (RoutePlan, error) {
	if len(pickups) == 0 {
		return RoutePlan{}, ErrNoPickupStops
	}
	if err := errors.Join(start.Validate(), delivery.Validate(), conditions.Validate()); err != nil {
		return RoutePlan{}, err
	}
	for _, p := range pickups {
		if err := p.Validate(); err != nil {
			return RoutePlan{}, err
		}
	}

	// Node layout: 0 = start, 1..n = pickups, n+1 = delivery.
	points := make([]kernel.GeoPoint, 0, len(pickups)+2)
	points = append(points, start)
	points = append(points, pickups...)
	points = append(points, delivery)

	cost, err := o.buildCostMatrix(points, conditions)
	if err != nil {
		return RoutePlan{}, err
	}

	order := nearestNeighborOrder(cost, len(pickups))

	var budgetErr error
	if len(pickups) > 1 {
		order, budgetErr = o.twoOptImprove(cost, order)
		if budgetErr != nil && order == nil {
			return RoutePlan{}, budgetErr
		}
	}

	plan := o.buildPlan(points, cost, order, departAt)
	return plan, budgetErr
}

// buildCostMatrix computes the symmetric effective-cost matrix over all
// nodes. Effective cost is raw distance scaled by the condition multiplier.
func (o *RouteOptimizer) buildCostMatrix(points []kernel.GeoPoint, conditions ConditionFactors) ([][]float64, error) {
	multiplier := conditions.CostMultiplier()
	n := len(points)

	cost := make([][]float64, n)
	for i := range cost {
		cost[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			km, err := o.distance(points[i], points[j])
			if err != nil {
				return nil, err
			}
			cost[i][j] = km * multiplier
			cost[j][i] = cost[i][j]
		}
	}
	return cost, nil
}

// nearestNeighborOrder builds the initial pickup visiting order greedily:
// from the current node, always move to the cheapest unvisited pickup.
// Ties break on the lower node index for determinism.
func nearestNeighborOrder(cost [][]float64, pickupCount int) []int {
	remaining := make(map[int]struct{}, pickupCount)
	for i := 1; i <= pickupCount; i++ {
		remaining[i] = struct{}{}
	}

	order := make([]int, 0, pickupCount)
	current := 0
	for len(remaining) > 0 {
		best := -1
		for candidate := 1; candidate <= pickupCount; candidate++ {
			if _, ok := remaining[candidate]; !ok {
				continue
			}
			if best == -1 || cost[current][candidate] < cost[current][best] {
				best = candidate
			}
		}
		order = append(order, best)
		delete(remaining, best)
		current = best
	}
	return order
}

// tourCost computes the total effective cost of visiting the pickups in
// the given order: start -> pickups -> delivery (last node).
func tourCost(cost [][]float64, order []int) float64 {
	deliveryNode := len(cost) - 1
	total := 0.0
	current := 0
	for _, node := range order {
		total += cost[current][node]
		current = node
	}
	total += cost[current][deliveryNode]
	return total
}

// twoOptImprove applies 2-opt local search to the pickup visiting order.
// It tests segment reversals order[i:j] for all 1 <= i < j < len(order)+1
// (the fixed delivery terminus is never moved) and applies any reversal
// that strictly reduces total tour cost, repeating until a full pass finds
// no improvement or the iteration budget is exhausted.
//
// Each accepted reversal strictly reduces tour cost, so the search cannot
// cycle and terminates at a local optimum when the budget allows.
//
// Returns the improved order. If the budget runs out mid-search, the best
// order found so far is returned with ErrImprovementBudgetExceeded; if the
// budget runs out before the first pass completes, nil is returned with
// the error.
func (o *RouteOptimizer) twoOptImprove(cost [][]float64, order []int) ([]int, error) {
	best := make([]int, len(order))
	copy(best, order)
	bestCost := tourCost(cost, best)

	iterations := 0
	completedPasses := 0
	for {
		improved := false
		for i := 0; i < len(best)-1; i++ {
			for j := i + 1; j < len(best); j++ {
				iterations++
				if iterations > o.improvementBudget {
					if completedPasses == 0 {
						return nil, ErrImprovementBudgetExceeded
					}
					return best, ErrImprovementBudgetExceeded
				}

				candidate := reverseSegment(best, i, j)
				candidateCost := tourCost(cost, candidate)
				if candidateCost < bestCost {
					best = candidate
					bestCost = candidateCost
					improved = true
				}
			}
		}
		completedPasses++
		if !improved {
			return best, nil
		}
	}
}

// reverseSegment returns a copy of order with order[i..j] reversed.
func reverseSegment(order []int, i int, j int) []int {
	result := make([]int, len(order))
	copy(result, order)
	for left, right := i, j; left < right; left, right = left+1, right-1 {
		result[left], result[right] = result[right], result[left]
	}
	return result
}

// buildPlan materializes the route stops with per-leg metrics and ETAs.
func (o *RouteOptimizer) buildPlan(
	points []kernel.GeoPoint,
	cost [][]float64,
	order []int,
	departAt time.Time,
) RoutePlan {
	deliveryNode := len(points) - 1
	nodes := make([]int, 0, len(order)+1)
	nodes = append(nodes, order...)
	nodes = append(nodes, deliveryNode)

	stops := make([]assignment.RouteStop, 0, len(nodes))
	totalDistance := 0.0
	totalDuration := time.Duration(0)
	eta := departAt

	current := 0
	for seq, node := range nodes {
		legKm := cost[current][node]
		legDuration := o.travelTime(legKm)

		kind := assignment.StopKindPickup
		if node == deliveryNode {
			kind = assignment.StopKindDelivery
		}

		totalDistance += legKm
		totalDuration += legDuration
		eta = eta.Add(legDuration)

		// Leg metrics are validated non-negative by construction.
		stop, _ := assignment.NewRouteStop(seq, kind, points[node], legKm, legDuration, eta)
		stops = append(stops, stop)
		current = node
	}

	return RoutePlan{
		Stops:           stops,
		TotalDistanceKm: totalDistance,
		TotalDuration:   totalDuration,
	}
}

// travelTime converts effective distance into estimated travel time at the
// configured average speed.
func (o *RouteOptimizer) travelTime(distanceKm float64) time.Duration {
	hours := distanceKm / o.averageSpeedKmh
	return time.Duration(hours * float64(time.Hour))
}
