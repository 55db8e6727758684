package domain

import (
	"fmt"
	"time"
)

// SalesObservation is one cleaned sales record handed over by the upstream
// data validator. Uniqueness key is (date, company, product); quantity and
// unit price are guaranteed non-negative by the validator contract.
type SalesObservation struct {
	Date         time.Time // calendar day, truncated to midnight UTC
	Company      string
	Product      string
	QuantitySold float64
	UnitPrice    float64
}

// Revenue returns quantity * unit price for this observation.
func (o *SalesObservation) Revenue() float64 {
	return o.QuantitySold * o.UnitPrice
}

// SeriesKey identifies one forecastable demand series.
type SeriesKey struct {
	Company string
	Product string
}

// String renders the key in the persisted-entry form "{company}_{product}".
func (k SeriesKey) String() string {
	return fmt.Sprintf("%s_%s", k.Company, k.Product)
}

// Less orders keys by company, then product. Used for deterministic
// iteration wherever keys are ranged over.
func (k SeriesKey) Less(other SeriesKey) bool {
	if k.Company != other.Company {
		return k.Company < other.Company
	}
	return k.Product < other.Product
}

// SeriesPoint is one (date, value) sample of a prepared demand series.
// This is the shape handed to the time-series model for fitting.
type SeriesPoint struct {
	Date  time.Time
	Value float64
}
