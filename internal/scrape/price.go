package scrape

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Matches the numeric part of a price after thousands separators are
// stripped: digits with an optional decimal fraction.
var priceRe = regexp.MustCompile(`\d+\.?\d*`)

// ParsePrice extracts a numeric price from element text such as
// "$1,299.99", "EUR 42", or "Price: 19.90 USD". Currency symbols and
// surrounding text are ignored; the first number wins.
func ParsePrice(text string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(text), ",", "")
	match := priceRe.FindString(cleaned)
	if match == "" {
		return 0, fmt.Errorf("%w: %q", ErrNoPrice, strings.TrimSpace(text))
	}

	price, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, fmt.Errorf("parse price %q: %w", match, err)
	}
	return price, nil
}
