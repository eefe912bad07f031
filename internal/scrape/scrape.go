// Package scrape fetches product pages and extracts prices from the DOM
// using CSS selectors.
package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

var (
	ErrSelectorMiss = errors.New("selector matched no element")
	ErrNoPrice      = errors.New("no price found in element text")
)

type Options struct {
	UserAgent   string
	Timeout     time.Duration
	MaxAttempts int
}

type Client struct {
	http *resty.Client
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}

	c := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.MaxAttempts - 1).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(10 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})
	if opts.UserAgent != "" {
		c.SetHeader("User-Agent", opts.UserAgent)
	}

	return &Client{http: c}
}

// Price fetches pageURL and extracts the price from the first element
// matching selector. Any failure along the way (network, non-2xx status,
// selector miss, unparsable text) surfaces as an error and nothing is
// recorded by callers.
func (c *Client) Price(ctx context.Context, pageURL, selector string) (float64, error) {
	res, err := c.http.R().
		SetContext(ctx).
		Get(pageURL)
	if err != nil {
		return 0, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	if res.IsError() {
		return 0, fmt.Errorf("fetch %s: HTTP %d", pageURL, res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	return Extract(doc, selector)
}

// Extract applies selector to an already-parsed document and parses the
// matched element's text as a price.
func Extract(doc *goquery.Document, selector string) (float64, error) {
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return 0, fmt.Errorf("%w: %q", ErrSelectorMiss, selector)
	}
	return ParsePrice(sel.Text())
}
