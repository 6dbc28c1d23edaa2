package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer  Role = "customer"
	RoleTherapist Role = "therapist"
)

type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityUnavailable Availability = "unavailable"
)

// Location is the single active address record of a therapist. Latitude and
// longitude may be unset; such a record is skipped by the locator.
type Location struct {
	TherapistID     string
	Address         string
	ServiceRadiusKm decimal.Decimal
	Latitude        decimal.NullDecimal
	Longitude       decimal.NullDecimal
	UpdatedAt       time.Time
}

func (l Location) HasCoordinates() bool {
	return l.Latitude.Valid && l.Longitude.Valid
}

// PriceList maps a catalog service to its unit price.
type PriceList map[ServiceKey]decimal.Decimal

// HasAny reports whether the price list carries at least one of the given keys.
func (p PriceList) HasAny(keys []ServiceKey) bool {
	for _, k := range keys {
		if _, ok := p[k]; ok {
			return true
		}
	}
	return false
}

// TherapistProfile is the locator's read model: one available therapist with
// its location and current price list.
type TherapistProfile struct {
	ID       string
	Name     string
	Email    string
	Location Location
	Services PriceList
}
