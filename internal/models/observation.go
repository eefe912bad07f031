package models

import "time"

// Observation is a single recorded price reading for a tracked product.
// Rows are append-only.
type Observation struct {
	ID         int64     `json:"id"`
	ProductID  int64     `json:"productId"`
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observedAt"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PriceChange describes a significant movement between two consecutive
// observations of the same product.
type PriceChange struct {
	Product   string    `json:"product"`
	URL       string    `json:"url"`
	OldPrice  float64   `json:"oldPrice"`
	NewPrice  float64   `json:"newPrice"`
	Delta     float64   `json:"delta"`
	Percent   float64   `json:"percent"`
	Direction string    `json:"direction"` // "increased" or "decreased"
	At        time.Time `json:"at"`
}
