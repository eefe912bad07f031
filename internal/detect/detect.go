// Package detect decides whether a price movement is significant enough
// to alert on.
package detect

import (
	"math"
	"time"

	"github.com/yksanjo/competitor-price-tracker/internal/models"
)

// Thresholds holds the change-detection limits from config.
// A zero value for MinPercent disables the percent check; Epsilon falls
// back to the float tolerance default.
type Thresholds struct {
	Epsilon    float64 // absolute difference that counts as a change
	MinPercent float64 // minimum |change| in percent, 0 = disabled
}

const defaultEpsilon = 0.01

type Detector struct {
	thresholds Thresholds
}

func NewDetector(t Thresholds) *Detector {
	if t.Epsilon <= 0 {
		t.Epsilon = defaultEpsilon
	}
	return &Detector{thresholds: t}
}

// Evaluate compares a new reading against the previous one. The returned
// PriceChange is only meaningful when significant is true.
func (d *Detector) Evaluate(product, url string, oldPrice, newPrice float64, at time.Time) (models.PriceChange, bool) {
	delta := newPrice - oldPrice
	if math.Abs(delta) <= d.thresholds.Epsilon {
		return models.PriceChange{}, false
	}

	percent := 0.0
	if oldPrice != 0 {
		percent = delta / oldPrice * 100
	}
	if d.thresholds.MinPercent > 0 && math.Abs(percent) < d.thresholds.MinPercent {
		return models.PriceChange{}, false
	}

	direction := "increased"
	if delta < 0 {
		direction = "decreased"
	}

	return models.PriceChange{
		Product:   product,
		URL:       url,
		OldPrice:  oldPrice,
		NewPrice:  newPrice,
		Delta:     delta,
		Percent:   percent,
		Direction: direction,
		At:        at,
	}, true
}
