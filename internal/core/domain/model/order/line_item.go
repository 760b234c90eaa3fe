package order

import (
	"errors"
	"fmt"

	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/pkg/errs"
	"dispatch/internal/pkg/guard"
)

var (
	// ErrLineItemIsNotConstructed is returned when using an improperly
	// initialized LineItem.
	ErrLineItemIsNotConstructed = errs.NewValueIsRequiredError(
		"line item must be created via NewLineItem constructor")
	// ErrPickupIsNotConstructed is returned when using an improperly
	// initialized Pickup.
	ErrPickupIsNotConstructed = errs.NewValueIsRequiredError(
		"pickup must be created via NewPickup constructor")
	// ErrItemNameIsRequired is returned for empty line item names.
	ErrItemNameIsRequired = errs.NewValueIsRequiredError("item name")
)

// LineItem is an immutable value object representing a single ordered item.
type LineItem struct { //nolint:recvcheck //using for validation
	name     string
	quantity int
	guard    guard.ConstructorGuard
}

// NewLineItem creates a line item with a non-empty name and positive quantity.
func NewLineItem(name string, quantity int) (LineItem, error) {
	item := LineItem{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(item.setName(name), item.setQuantity(quantity)); err != nil {
		return LineItem{}, err
	}

	return item, nil
}

// Validate checks the LineItem was created via NewLineItem.
func (i LineItem) Validate() error {
	return i.guard.Validate(ErrLineItemIsNotConstructed)
}

// Name returns the item name.
func (i LineItem) Name() string {
	return i.name
}

// Quantity returns the ordered quantity.
func (i LineItem) Quantity() int {
	return i.quantity
}

func (i *LineItem) setName(name string) error {
	if name == "" {
		return ErrItemNameIsRequired
	}
	i.name = name
	return nil
}

func (i *LineItem) setQuantity(quantity int) error {
	if quantity <= 0 {
		return errs.NewValueIsInvalidErrorWithCause("quantity",
			fmt.Errorf("%d is not greater than 0", quantity))
	}
	i.quantity = quantity
	return nil
}

// Pickup is an immutable value object representing a merchant pickup stop:
// the merchant to collect from and its geographic point.
type Pickup struct { //nolint:recvcheck //using for validation
	merchantID kernel.UUID
	point      kernel.GeoPoint
	guard      guard.ConstructorGuard
}

// NewPickup creates a pickup stop for a merchant at a geographic point.
func NewPickup(merchantID kernel.UUID, point kernel.GeoPoint) (Pickup, error) {
	pickup := Pickup{
		guard: guard.NewConstructorGuard(),
	}

	if err := errors.Join(pickup.setMerchantID(merchantID), pickup.setPoint(point)); err != nil {
		return Pickup{}, err
	}

	return pickup, nil
}

// Validate checks the Pickup was created via NewPickup.
func (p Pickup) Validate() error {
	return p.guard.Validate(ErrPickupIsNotConstructed)
}

// MerchantID returns the merchant to collect from.
func (p Pickup) MerchantID() kernel.UUID {
	return p.merchantID
}

// Point returns the geographic pickup point.
func (p Pickup) Point() kernel.GeoPoint {
	return p.point
}

func (p *Pickup) setMerchantID(merchantID kernel.UUID) error {
	if err := merchantID.Validate(); err != nil {
		return errs.NewValueIsRequiredErrorWithCause("merchant id", err)
	}
	p.merchantID = merchantID
	return nil
}

func (p *Pickup) setPoint(point kernel.GeoPoint) error {
	if err := point.Validate(); err != nil {
		return err
	}
	p.point = point
	return nil
}
