// Package guard provides the constructor guard pattern used by domain
// value objects and commands to ensure instances are only created through
// their designated constructor functions.
package guard

import "errors"

// ErrDefaultConstructorGuard is returned by Validate when the guarded object
// was not constructed properly and no specific error was supplied.
var ErrDefaultConstructorGuard = errors.New("object must be created via its constructor")

// ConstructorGuard detects zero-value instances of structs that must be
// created through a constructor. Embedding a guard and calling
// NewConstructorGuard inside the constructor lets Validate distinguish
// properly built objects from zero values.
//
// Example:
//
//	type Stop struct {
//	    point kernel.GeoPoint
//	    guard guard.ConstructorGuard
//	}
//
//	func NewStop(point kernel.GeoPoint) (Stop, error) {
//	    if err := point.Validate(); err != nil {
//	        return Stop{}, err
//	    }
//	    return Stop{point: point, guard: guard.NewConstructorGuard()}, nil
//	}
//
//	func (s Stop) Validate() error {
//	    return s.guard.Validate(ErrStopIsNotConstructed)
//	}
type ConstructorGuard struct {
	isConstructed bool
}

// NewConstructorGuard creates a guard marking the owning object as
// properly constructed. Call it only from the object's constructor.
func NewConstructorGuard() ConstructorGuard {
	return ConstructorGuard{isConstructed: true}
}

// Validate returns nil if the guarded object was properly constructed.
// Otherwise it returns validationError, or ErrDefaultConstructorGuard
// when validationError is nil.
func (g ConstructorGuard) Validate(validationError error) error {
	if validationError == nil {
		validationError = ErrDefaultConstructorGuard
	}
	if !g.isConstructed {
		return validationError
	}
	return nil
}
