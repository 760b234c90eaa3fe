package ports

import (
	"context"

	"dispatch/internal/core/domain/model/kernel"
)

// DistanceEstimator supplies travel distances in kilometers between two
// points. The straight-line haversine distance is the fallback; adapters
// may call a mapping service for road distances and cache the result.
type DistanceEstimator interface {
	EstimateKm(ctx context.Context, from kernel.GeoPoint, to kernel.GeoPoint) (float64, error)
}
