// Package services contains the pure domain services of the dispatch core.
//
// RouteOptimizer computes near-optimal multi-stop pickup-and-delivery
// routes (nearest-neighbor construction plus 2-opt local search over a
// condition-scaled cost matrix). AssignmentEngine ranks candidate drivers
// by a composite score built on those routes and produces immutable
// DriverAssignment records.
//
// Both services are stateless pure computations: no shared mutable state,
// no external calls, safe for concurrent use across orders. Effectful
// orchestration (registry snapshots, persistence, notifications, retries)
// lives in the application layer.
package services
