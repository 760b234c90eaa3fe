package services

import (
	"errors"
	"sync"
	"time"

	"dispatch/internal/core/domain/model/assignment"
	"dispatch/internal/core/domain/model/driver"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
)

// ErrNoDriverAvailable is returned when no suitable driver exists for an
// order: either no candidates were provided, or none of them is available
// and capable of serving the order. The retry policy for this condition
// belongs to the orchestrator, never to this engine.
var ErrNoDriverAvailable = errors.New("no driver available")

// ScoreWeights configures the composite score used to rank candidates.
// Lower composite scores win.
type ScoreWeights struct {
	// DurationPerMinute weighs the estimated route duration.
	DurationPerMinute float64
	// InversePerformance weighs 1/performanceScore, preferring drivers
	// with a better rolling score.
	InversePerformance float64
	// ProximityPerKm weighs the distance from the driver to the first
	// pickup stop of their route.
	ProximityPerKm float64
}

// DefaultScoreWeights returns the production weighting.
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		DurationPerMinute:  1.0,
		InversePerformance: 5.0,
		ProximityPerKm:     0.5,
	}
}

// AssignmentEngine selects the best driver for an order and produces the
// immutable DriverAssignment record.
//
// The engine is a pure function of its inputs: it mutates no shared state
// and calls no external services. Candidate scoring runs concurrently
// since each candidate's route optimization is independent; the final
// selection is deterministic regardless of scheduling, with ties broken
// by the lexicographically lowest driver id.
type AssignmentEngine struct {
	optimizer *RouteOptimizer
	weights   ScoreWeights
}

// NewAssignmentEngine creates an engine scoring candidates with the given
// route optimizer and weights.
func NewAssignmentEngine(optimizer *RouteOptimizer, weights ScoreWeights) AssignmentEngine {
	return AssignmentEngine{
		optimizer: optimizer,
		weights:   weights,
	}
}

// candidateScore is the scored outcome of one candidate evaluation.
type candidateScore struct {
	driver driver.Driver
	plan   RoutePlan
	score  float64
	err    error
}

// Assign scores the candidate drivers for the order and returns a new
// DriverAssignment for the best one.
//
// Candidates that are unavailable or cannot serve the order's required
// vehicle are filtered out before scoring. If the filtered set is empty,
// ErrNoDriverAvailable is returned. A malformed order fails fast with a
// validation error before any candidate is scored.
//
// If the order already carries an assignment, the new record references it
// through the supersedes chain; the prior record is retained for audit.
func (e AssignmentEngine) Assign(
	o *order.Order,
	candidates []driver.Driver,
	conditions ConditionFactors,
	departAt time.Time,
) (*assignment.DriverAssignment, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := conditions.Validate(); err != nil {
		return nil, err
	}

	eligible := make([]driver.Driver, 0, len(candidates))
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if c.IsAvailable() && c.CanServe(o.RequiredVehicle()) {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		return nil, ErrNoDriverAvailable
	}

	scores := e.scoreCandidates(o, eligible, conditions, departAt)

	best, err := pickBest(scores)
	if err != nil {
		return nil, err
	}

	return assignment.NewDriverAssignment(
		kernel.NewUUID(),
		o.ID(),
		best.driver.ID(),
		best.plan.Stops,
		best.plan.TotalDistanceKm,
		best.plan.TotalDuration,
		o.AssignmentID(),
	)
}

// scoreCandidates optimizes a route for every eligible driver in parallel
// and computes each composite score. Results land in a fixed slice slot per
// candidate, so the outcome is independent of goroutine scheduling.
func (e AssignmentEngine) scoreCandidates(
	o *order.Order,
	eligible []driver.Driver,
	conditions ConditionFactors,
	departAt time.Time,
) []candidateScore {
	scores := make([]candidateScore, len(eligible))

	var wg sync.WaitGroup
	for i, c := range eligible {
		wg.Add(1)
		go func(i int, c driver.Driver) {
			defer wg.Done()
			scores[i] = e.scoreCandidate(o, c, conditions, departAt)
		}(i, c)
	}
	wg.Wait()

	return scores
}

// scoreCandidate runs the route optimizer for one driver and computes the
// composite score. An exhausted improvement budget still yields a usable
// plan and is not treated as a failure here.
func (e AssignmentEngine) scoreCandidate(
	o *order.Order,
	c driver.Driver,
	conditions ConditionFactors,
	departAt time.Time,
) candidateScore {
	plan, err := e.optimizer.Optimize(c.Location(), o.PickupPoints(), o.DeliveryPoint(), conditions, departAt)
	if err != nil && !errors.Is(err, ErrImprovementBudgetExceeded) {
		return candidateScore{driver: c, err: err}
	}
	if len(plan.Stops) == 0 {
		return candidateScore{driver: c, err: err}
	}

	durationMinutes := plan.TotalDuration.Minutes()
	inversePerformance := 1 / c.PerformanceScore()
	distanceToFirstPickup := plan.Stops[0].LegDistanceKm()

	score := e.weights.DurationPerMinute*durationMinutes +
		e.weights.InversePerformance*inversePerformance +
		e.weights.ProximityPerKm*distanceToFirstPickup

	return candidateScore{driver: c, plan: plan, score: score}
}

// pickBest selects the lowest composite score; ties break by the
// lexicographically lowest driver id for reproducible selection.
func pickBest(scores []candidateScore) (candidateScore, error) {
	var best *candidateScore
	var firstErr error

	for i := range scores {
		s := &scores[i]
		if s.err != nil {
			if firstErr == nil {
				firstErr = s.err
			}
			continue
		}
		if best == nil ||
			s.score < best.score ||
			(s.score == best.score && s.driver.ID().String() < best.driver.ID().String()) {
			best = s
		}
	}

	if best == nil {
		if firstErr != nil {
			return candidateScore{}, firstErr
		}
		return candidateScore{}, ErrNoDriverAvailable
	}
	return *best, nil
}
