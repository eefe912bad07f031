package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/yksanjo/competitor-price-tracker/internal/models"
	"github.com/yksanjo/competitor-price-tracker/internal/tracker"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	return t
}

func renderProducts(products []models.Product) {
	if len(products) == 0 {
		fmt.Println("No products tracked")
		return
	}

	t := newTable()
	t.AppendHeader(table.Row{"Name", "URL", "Current Price", "Last Checked"})
	for _, p := range products {
		t.AppendRow(table.Row{p.Name, p.URL, fmtPrice(p.CurrentPrice), fmtTime(p.LastCheckedAt)})
	}
	t.Render()
}

func renderHistory(name string, obs []models.Observation) {
	if len(obs) == 0 {
		fmt.Printf("No price history for %s\n", name)
		return
	}

	fmt.Printf("Price history for %s\n", name)
	t := newTable()
	t.AppendHeader(table.Row{"Time", "Price"})
	for _, o := range obs {
		t.AppendRow(table.Row{
			o.ObservedAt.Local().Format("2006-01-02 15:04"),
			fmt.Sprintf("$%.2f", o.Price),
		})
	}
	t.Render()
}

func renderResults(results []tracker.CheckResult) {
	t := newTable()
	t.AppendHeader(table.Row{"Name", "Price", "Status"})
	for _, r := range results {
		switch {
		case r.Err != nil:
			t.AppendRow(table.Row{r.Product, "-", fmt.Sprintf("failed: %s", r.Err)})
		case r.Changed:
			t.AppendRow(table.Row{
				r.Product,
				fmt.Sprintf("$%.2f", r.Price),
				fmt.Sprintf("changed from $%.2f (%+.1f%%)", r.Change.OldPrice, r.Change.Percent),
			})
		default:
			t.AppendRow(table.Row{r.Product, fmt.Sprintf("$%.2f", r.Price), "no change"})
		}
	}
	t.Render()
}

func fmtPrice(p *float64) string {
	if p == nil {
		return "unknown"
	}
	return fmt.Sprintf("$%.2f", *p)
}

func fmtTime(ts *time.Time) string {
	if ts == nil {
		return "never"
	}
	return ts.Local().Format("2006-01-02 15:04")
}
