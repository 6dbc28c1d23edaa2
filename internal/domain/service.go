package domain

import "strings"

// ServiceKey identifies one entry of the fixed service catalog.
type ServiceKey string

const (
	ServiceFoot         ServiceKey = "foot"
	ServiceThai         ServiceKey = "thai"
	ServiceOil          ServiceKey = "oil"
	ServiceAroma        ServiceKey = "aroma"
	ServiceFourHandsOil ServiceKey = "4_hands_oil"
	ServicePedicure     ServiceKey = "pedicure"
	ServiceNails        ServiceKey = "nails"
	ServiceHair         ServiceKey = "hair"
)

var serviceCatalog = map[ServiceKey]struct{}{
	ServiceFoot:         {},
	ServiceThai:         {},
	ServiceOil:          {},
	ServiceAroma:        {},
	ServiceFourHandsOil: {},
	ServicePedicure:     {},
	ServiceNails:        {},
	ServiceHair:         {},
}

// NormalizeServiceKey maps a raw client-supplied key onto its catalog form:
// lower-cased, trimmed, spaces collapsed to underscores.
func NormalizeServiceKey(raw string) ServiceKey {
	return ServiceKey(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_"))
}

func (k ServiceKey) InCatalog() bool {
	_, ok := serviceCatalog[k]
	return ok
}

// Basket maps a requested service to its quantity. A zero quantity is read
// as one unit of interest at pricing time.
type Basket map[ServiceKey]int

// NormalizeBasket converts raw client keys into catalog form. Unknown keys
// are kept; they simply price to zero.
func NormalizeBasket(raw map[string]int) Basket {
	basket := make(Basket, len(raw))
	for key, qty := range raw {
		basket[NormalizeServiceKey(key)] = qty
	}
	return basket
}
