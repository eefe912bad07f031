package tracker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/yksanjo/competitor-price-tracker/internal/detect"
	"github.com/yksanjo/competitor-price-tracker/internal/models"
	"go.uber.org/zap"
)

// ---------- fakes ----------

type fakeProducts struct {
	mu     sync.Mutex
	items  map[string]*models.Product
	nextID int64
}

func newFakeProducts() *fakeProducts {
	return &fakeProducts{items: map[string]*models.Product{}}
}

func (f *fakeProducts) Create(ctx context.Context, name, url, selector string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[name]; ok {
		return nil, errors.New("product already tracked")
	}
	f.nextID++
	p := &models.Product{ID: f.nextID, Name: name, URL: url, Selector: selector, AddedAt: time.Now()}
	f.items[name] = p
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) GetByName(ctx context.Context, name string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.items[name]
	if !ok {
		return nil, errors.New("product not found")
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProducts) List(ctx context.Context) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.items {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeProducts) Delete(ctx context.Context, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[name]; !ok {
		return errors.New("product not found")
	}
	delete(f.items, name)
	return nil
}

func (f *fakeProducts) UpdatePrices(ctx context.Context, id int64, current float64, previous *float64, checkedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.ID == id {
			p.CurrentPrice = &current
			p.PreviousPrice = previous
			p.LastCheckedAt = &checkedAt
			return nil
		}
	}
	return errors.New("product not found")
}

func (f *fakeProducts) TouchChecked(ctx context.Context, id int64, checkedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.items {
		if p.ID == id {
			p.LastCheckedAt = &checkedAt
			return nil
		}
	}
	return errors.New("product not found")
}

func (f *fakeProducts) seed(name, url string, currentPrice *float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.items[name] = &models.Product{
		ID: f.nextID, Name: name, URL: url, Selector: ".price",
		CurrentPrice: currentPrice, AddedAt: time.Now(),
	}
}

type fakeObservations struct {
	mu   sync.Mutex
	rows []models.Observation
}

func (f *fakeObservations) Record(ctx context.Context, productID int64, price float64, observedAt time.Time) (*models.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o := models.Observation{ID: int64(len(f.rows) + 1), ProductID: productID, Price: price, ObservedAt: observedAt}
	f.rows = append(f.rows, o)
	return &o, nil
}

func (f *fakeObservations) GetByProduct(ctx context.Context, productID int64, limit int) ([]models.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Observation
	for _, o := range f.rows {
		if o.ProductID == productID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ObservedAt.Before(out[j].ObservedAt) })
	return out, nil
}

// fakeSource serves prices keyed by URL; missing URLs fail like a fetch error.
type fakeSource struct {
	mu     sync.Mutex
	prices map[string]float64
}

func (f *fakeSource) Price(ctx context.Context, url, selector string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.prices[url]
	if !ok {
		return 0, fmt.Errorf("fetch %s: connection refused", url)
	}
	return p, nil
}

func (f *fakeSource) set(url string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[url] = price
}

type fakeAlerter struct {
	mu      sync.Mutex
	changes []models.PriceChange
}

func (f *fakeAlerter) PriceChange(c models.PriceChange) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, c)
}

func (f *fakeAlerter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.changes)
}

// ---------- harness ----------

type harness struct {
	products     *fakeProducts
	observations *fakeObservations
	source       *fakeSource
	alerts       *fakeAlerter
	trk          *Tracker
}

func newHarness() *harness {
	h := &harness{
		products:     newFakeProducts(),
		observations: &fakeObservations{},
		source:       &fakeSource{prices: map[string]float64{}},
		alerts:       &fakeAlerter{},
	}
	h.trk = New(h.products, h.observations, h.source,
		detect.NewDetector(detect.Thresholds{Epsilon: 0.01}),
		h.alerts,
		// high pacing so tests never sleep on the limiter
		Config{ChecksPerMinute: 60000},
		zap.NewNop().Sugar(),
	)
	return h
}

// ---------- tests ----------

func TestAdd_InitialCheck(t *testing.T) {
	h := newHarness()
	h.source.set("http://shop/widget", 99.99)

	p, err := h.trk.Add(context.Background(), "widget", "http://shop/widget", ".price")
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if p.CurrentPrice == nil || *p.CurrentPrice != 99.99 {
		t.Fatalf("expected initial price 99.99, got %v", p.CurrentPrice)
	}
	if len(h.observations.rows) != 1 {
		t.Fatalf("expected one initial observation, got %d", len(h.observations.rows))
	}
	if h.alerts.count() != 0 {
		t.Fatal("initial price must not alert")
	}

	products, _ := h.trk.List(context.Background())
	if len(products) != 1 || products[0].Name != "widget" {
		t.Fatalf("added product should appear in list, got %+v", products)
	}
}

func TestAdd_InitialCheckFails(t *testing.T) {
	h := newHarness()
	// no price registered for the URL: fetch fails

	p, err := h.trk.Add(context.Background(), "widget", "http://shop/widget", ".price")
	if err != nil {
		t.Fatalf("Add should tolerate a failed initial check: %v", err)
	}
	if p.CurrentPrice != nil {
		t.Fatal("price should stay unknown after failed initial check")
	}
	if len(h.observations.rows) != 0 {
		t.Fatal("no observation should be recorded on failure")
	}
}

func TestCheckAll_UnchangedRecordsNoAlert(t *testing.T) {
	h := newHarness()
	h.source.set("http://shop/widget", 49.90)
	price := 49.90
	h.products.seed("widget", "http://shop/widget", &price)

	for i := 0; i < 2; i++ {
		results, err := h.trk.CheckAll(context.Background())
		if err != nil {
			t.Fatalf("CheckAll #%d: %v", i+1, err)
		}
		if len(results) != 1 || results[0].Changed {
			t.Fatalf("CheckAll #%d: unexpected results %+v", i+1, results)
		}
	}

	if len(h.observations.rows) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(h.observations.rows))
	}
	if h.observations.rows[0].Price != h.observations.rows[1].Price {
		t.Fatal("unchanged price should record equal observations")
	}
	if h.alerts.count() != 0 {
		t.Fatalf("unchanged price must not alert, got %d alerts", h.alerts.count())
	}
}

func TestCheckAll_ChangeAlertsExactlyOnce(t *testing.T) {
	h := newHarness()
	old := 100.00
	h.products.seed("widget", "http://shop/widget", &old)
	h.source.set("http://shop/widget", 110.00)

	results, err := h.trk.CheckAll(context.Background())
	if err != nil {
		t.Fatalf("CheckAll: %v", err)
	}
	if !results[0].Changed {
		t.Fatal("expected change to be detected")
	}
	if h.alerts.count() != 1 {
		t.Fatalf("expected exactly one alert, got %d", h.alerts.count())
	}

	c := h.alerts.changes[0]
	if c.OldPrice != 100.00 || c.NewPrice != 110.00 || c.Direction != "increased" {
		t.Fatalf("alert payload wrong: %+v", c)
	}

	// Same price again: no further alerts.
	if _, err := h.trk.CheckAll(context.Background()); err != nil {
		t.Fatalf("second CheckAll: %v", err)
	}
	if h.alerts.count() != 1 {
		t.Fatalf("repeat check must not re-alert, got %d", h.alerts.count())
	}
	if len(h.observations.rows) != 2 {
		t.Fatalf("each successful check appends one observation, got %d", len(h.observations.rows))
	}
}

func TestCheckAll_FailureDoesNotStopOthers(t *testing.T) {
	h := newHarness()
	h.products.seed("broken", "http://shop/broken", nil)
	ok := 10.00
	h.products.seed("working", "http://shop/working", &ok)
	h.source.set("http://shop/working", 10.00)

	results, err := h.trk.CheckAll(context.Background())
	if err != nil {
		t.Fatalf("CheckAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Err == nil {
		t.Fatal("broken product should report an error")
	}
	if results[1].Err != nil {
		t.Fatalf("working product should succeed: %v", results[1].Err)
	}
	if len(h.observations.rows) != 1 {
		t.Fatal("failed fetch must record nothing")
	}
}

func TestCheckProduct_FirstReadingStoredWithoutAlert(t *testing.T) {
	h := newHarness()
	h.products.seed("widget", "http://shop/widget", nil)
	h.source.set("http://shop/widget", 25.00)

	p, _ := h.products.GetByName(context.Background(), "widget")
	res, err := h.trk.CheckProduct(context.Background(), p)
	if err != nil {
		t.Fatalf("CheckProduct: %v", err)
	}
	if res.Changed {
		t.Fatal("first reading is not a change")
	}
	if h.alerts.count() != 0 {
		t.Fatal("first reading must not alert")
	}

	stored, _ := h.products.GetByName(context.Background(), "widget")
	if stored.CurrentPrice == nil || *stored.CurrentPrice != 25.00 {
		t.Fatalf("first price should be stored, got %v", stored.CurrentPrice)
	}
}

func TestHistory_ChronologicalOrder(t *testing.T) {
	h := newHarness()
	h.products.seed("widget", "http://shop/widget", nil)
	p, _ := h.products.GetByName(context.Background(), "widget")

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		// Insert out of order on purpose.
		at := base.Add(time.Duration((i*3)%5) * time.Minute)
		h.observations.Record(context.Background(), p.ID, float64(10+i), at)
	}

	obs, err := h.trk.History(context.Background(), "widget", 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(obs) != 5 {
		t.Fatalf("expected 5 observations, got %d", len(obs))
	}
	for i := 1; i < len(obs); i++ {
		if obs[i].ObservedAt.Before(obs[i-1].ObservedAt) {
			t.Fatal("history must be chronological")
		}
	}
}

func TestRemove(t *testing.T) {
	h := newHarness()
	h.products.seed("widget", "http://shop/widget", nil)

	if err := h.trk.Remove(context.Background(), "widget"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	products, _ := h.trk.List(context.Background())
	if len(products) != 0 {
		t.Fatal("removed product should not be listed")
	}

	if err := h.trk.Remove(context.Background(), "widget"); err == nil {
		t.Fatal("removing an unknown product should fail")
	}
}
