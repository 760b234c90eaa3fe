package services

import (
	"errors"

	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

// minConditionFactor is the lowest legal value for traffic and weather
// factors. Factors inflate geographic distance into an effective travel
// cost and must never deflate it.
const minConditionFactor = 1.0

// ErrConditionFactorsAreNotConstructed is returned when using improperly
// initialized ConditionFactors.
var ErrConditionFactorsAreNotConstructed = errs.NewValueIsRequiredError(
	"condition factors must be created via NewConditionFactors constructor")

// ConditionFactors is an immutable value object carrying the traffic and
// weather multipliers for a single optimization run. Both factors must be
// >= 1.0; raw geodesic distance is scaled by (1 + traffic + weather) when
// building the route cost matrix. The factors are read-only inputs and are
// not persisted by this core.
type ConditionFactors struct { //nolint:recvcheck //using for validation
	traffic float64
	weather float64
	guard   guard.ConstructorGuard
}

// NewConditionFactors creates condition factors with validation.
// Values of 0, negative values or anything below 1.0 are rejected:
// factors represent cost inflation only.
func NewConditionFactors(traffic float64, weather float64) (ConditionFactors, error) {
	f := ConditionFactors{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(f.setTraffic(traffic), f.setWeather(weather)); err != nil {
		return ConditionFactors{}, err
	}

	return f, nil
}

// NeutralConditionFactors returns factors with both multipliers at the
// minimum legal value, for callers without live traffic/weather data.
func NeutralConditionFactors() ConditionFactors {
	f, _ := NewConditionFactors(minConditionFactor, minConditionFactor)
	return f
}

// Validate checks the factors were created via NewConditionFactors.
func (f ConditionFactors) Validate() error {
	return f.guard.Validate(ErrConditionFactorsAreNotConstructed)
}

// Traffic returns the traffic multiplier.
func (f ConditionFactors) Traffic() float64 {
	return f.traffic
}

// Weather returns the weather multiplier.
func (f ConditionFactors) Weather() float64 {
	return f.weather
}

// CostMultiplier returns the factor applied to raw geodesic distance:
// 1 + traffic + weather.
func (f ConditionFactors) CostMultiplier() float64 {
	return 1 + f.traffic + f.weather
}

func (f *ConditionFactors) setTraffic(traffic float64) error {
	if traffic < minConditionFactor {
		return errs.NewValueIsOutOfRangeError("traffic factor", traffic, minConditionFactor, "unbounded")
	}
	f.traffic = traffic
	return nil
}

func (f *ConditionFactors) setWeather(weather float64) error {
	if weather < minConditionFactor {
		return errs.NewValueIsOutOfRangeError("weather factor", weather, minConditionFactor, "unbounded")
	}
	f.weather = weather
	return nil
}
