// Package geo provides the straight-line distance estimator used when no
// mapping service is configured.
package geo

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// HaversineEstimator estimates travel distance as the great-circle distance
// between two points. It is the bottom of the estimator chain; callers that
// need road distances wrap it or replace it with a mapping service client.
type HaversineEstimator struct{}

// NewHaversineEstimator creates a straight-line distance estimator.
func NewHaversineEstimator() HaversineEstimator {
	return HaversineEstimator{}
}

// EstimateKm returns the great-circle distance in kilometers.
func (HaversineEstimator) EstimateKm(
	_ context.Context,
	from kernel.GeoPoint,
	to kernel.GeoPoint,
) (float64, error) {
	return from.DistanceTo(to)
}
