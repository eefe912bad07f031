package models

import "time"

type Product struct {
	ID            int64      `json:"id"`
	Name          string     `json:"name"`
	URL           string     `json:"url"`
	Selector      string     `json:"selector"`
	CurrentPrice  *float64   `json:"currentPrice,omitempty"`
	PreviousPrice *float64   `json:"previousPrice,omitempty"`
	AddedAt       time.Time  `json:"addedAt"`
	LastCheckedAt *time.Time `json:"lastCheckedAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}
