// Package tracker implements the check pipeline: fetch page, extract
// price, compare to the last known value, append an observation, alert
// on change.
package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/yksanjo/competitor-price-tracker/internal/detect"
	"github.com/yksanjo/competitor-price-tracker/internal/models"
	"go.uber.org/ratelimit"
	"go.uber.org/zap"
)

type ProductStore interface {
	Create(ctx context.Context, name, url, selector string) (*models.Product, error)
	GetByName(ctx context.Context, name string) (*models.Product, error)
	List(ctx context.Context) ([]models.Product, error)
	Delete(ctx context.Context, name string) error
	UpdatePrices(ctx context.Context, id int64, current float64, previous *float64, checkedAt time.Time) error
	TouchChecked(ctx context.Context, id int64, checkedAt time.Time) error
}

type ObservationStore interface {
	Record(ctx context.Context, productID int64, price float64, observedAt time.Time) (*models.Observation, error)
	GetByProduct(ctx context.Context, productID int64, limit int) ([]models.Observation, error)
}

type PriceSource interface {
	Price(ctx context.Context, url, selector string) (float64, error)
}

type Alerter interface {
	PriceChange(change models.PriceChange)
}

type Config struct {
	ChecksPerMinute int // pacing between product checks in CheckAll
}

type Tracker struct {
	products     ProductStore
	observations ObservationStore
	source       PriceSource
	detector     *detect.Detector
	notify       Alerter
	limiter      ratelimit.Limiter
	log          *zap.SugaredLogger
}

func New(
	products ProductStore,
	observations ObservationStore,
	source PriceSource,
	detector *detect.Detector,
	notify Alerter,
	cfg Config,
	log *zap.SugaredLogger,
) *Tracker {
	cpm := cfg.ChecksPerMinute
	if cpm <= 0 {
		cpm = 30
	}
	return &Tracker{
		products:     products,
		observations: observations,
		source:       source,
		detector:     detector,
		notify:       notify,
		limiter:      ratelimit.New(cpm, ratelimit.Per(time.Minute)),
		log:          log,
	}
}

// CheckResult reports the outcome of checking one product.
type CheckResult struct {
	Product string
	Price   float64
	Changed bool
	Change  models.PriceChange // valid only when Changed
	Err     error
}

// Add registers a product and performs an initial check. A failed initial
// check still registers the product, the price just stays unknown until
// the next check succeeds.
func (t *Tracker) Add(ctx context.Context, name, url, selector string) (*models.Product, error) {
	p, err := t.products.Create(ctx, name, url, selector)
	if err != nil {
		return nil, err
	}

	price, err := t.source.Price(ctx, url, selector)
	if err != nil {
		t.log.Warnf("initial check for %s: %s", name, err)
		return p, nil
	}

	now := time.Now().UTC()
	if _, err := t.observations.Record(ctx, p.ID, price, now); err != nil {
		return nil, fmt.Errorf("record initial observation: %w", err)
	}
	if err := t.products.UpdatePrices(ctx, p.ID, price, nil, now); err != nil {
		return nil, fmt.Errorf("store initial price: %w", err)
	}

	p.CurrentPrice = &price
	p.LastCheckedAt = &now
	return p, nil
}

func (t *Tracker) Remove(ctx context.Context, name string) error {
	return t.products.Delete(ctx, name)
}

func (t *Tracker) List(ctx context.Context) ([]models.Product, error) {
	return t.products.List(ctx)
}

// History returns observations for a product in chronological order.
// A limit <= 0 returns everything.
func (t *Tracker) History(ctx context.Context, name string, limit int) ([]models.Observation, error) {
	p, err := t.products.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	return t.observations.GetByProduct(ctx, p.ID, limit)
}

// CheckProduct runs one pass of the pipeline for a single product. An
// observation is appended on every successful extraction; product state
// is untouched when the price could not be retrieved.
func (t *Tracker) CheckProduct(ctx context.Context, p *models.Product) (CheckResult, error) {
	price, err := t.source.Price(ctx, p.URL, p.Selector)
	if err != nil {
		return CheckResult{Product: p.Name}, fmt.Errorf("could not retrieve price for %s: %w", p.Name, err)
	}

	now := time.Now().UTC()
	if _, err := t.observations.Record(ctx, p.ID, price, now); err != nil {
		return CheckResult{Product: p.Name}, fmt.Errorf("record observation: %w", err)
	}

	res := CheckResult{Product: p.Name, Price: price}

	// First-ever reading: store it, never alert.
	if p.CurrentPrice == nil {
		if err := t.products.UpdatePrices(ctx, p.ID, price, nil, now); err != nil {
			return res, fmt.Errorf("store first price: %w", err)
		}
		return res, nil
	}

	change, significant := t.detector.Evaluate(p.Name, p.URL, *p.CurrentPrice, price, now)
	if !significant {
		if err := t.products.TouchChecked(ctx, p.ID, now); err != nil {
			return res, fmt.Errorf("touch product: %w", err)
		}
		return res, nil
	}

	if err := t.products.UpdatePrices(ctx, p.ID, price, p.CurrentPrice, now); err != nil {
		return res, fmt.Errorf("rotate prices: %w", err)
	}
	if t.notify != nil {
		t.notify.PriceChange(change)
	}

	res.Changed = true
	res.Change = change
	return res, nil
}

// CheckAll checks every tracked product sequentially, rate-limited between
// products. A failing product is reported in its result and does not stop
// the remaining checks.
func (t *Tracker) CheckAll(ctx context.Context) ([]CheckResult, error) {
	products, err := t.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	if len(products) == 0 {
		return nil, nil
	}

	t.log.Infof("checking %d product(s)", len(products))

	results := make([]CheckResult, 0, len(products))
	for i := range products {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if i > 0 {
			t.limiter.Take()
		}

		p := &products[i]
		res, err := t.CheckProduct(ctx, p)
		if err != nil {
			t.log.Warnf("check %s: %s", p.Name, err)
			res.Err = err
			results = append(results, res)
			continue
		}

		if res.Changed {
			t.log.Infof("%s: $%.2f -> $%.2f", p.Name, res.Change.OldPrice, res.Change.NewPrice)
		} else {
			t.log.Debugf("%s: $%.2f (no change)", p.Name, res.Price)
		}
		results = append(results, res)
	}

	return results, nil
}
