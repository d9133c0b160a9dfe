// Package domain provides core domain models and types.
package domain

import "time"

// AssetID identifies an asset (a ticker symbol such as "SPY").
type AssetID string

// PricePoint is one observation of an asset price.
type PricePoint struct {
	Time  time.Time `json:"time" msgpack:"t"`
	Price float64   `json:"price" msgpack:"p"`
}

// PriceSeries is the ordered price history of one asset.
// Timestamps are strictly increasing and prices positive; the engine never mutates it.
type PriceSeries struct {
	Asset  AssetID      `json:"asset" msgpack:"a"`
	Points []PricePoint `json:"points" msgpack:"pts"`
}

// Len returns the number of observations.
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// Last returns the most recent observation, or false for an empty series.
func (s PriceSeries) Last() (PricePoint, bool) {
	if len(s.Points) == 0 {
		return PricePoint{}, false
	}
	return s.Points[len(s.Points)-1], true
}

// Closes returns the prices in observation order.
func (s PriceSeries) Closes() []float64 {
	closes := make([]float64, len(s.Points))
	for i, p := range s.Points {
		closes[i] = p.Price
	}
	return closes
}

// IsIncreasing reports whether timestamps are strictly increasing.
func (s PriceSeries) IsIncreasing() bool {
	for i := 1; i < len(s.Points); i++ {
		if !s.Points[i].Time.After(s.Points[i-1].Time) {
			return false
		}
	}
	return true
}
