// Package extract pulls a price signal out of raw retailer responses.
package extract

import (
	"bytes"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
)

// Patterns are tried in priority order. The first pattern that matches at
// all supplies the candidate: its first match in document order. Retail
// pages list the selling price before strike-through and accessory prices,
// so first occurrence wins over smallest or largest.
var patterns = []*regexp.Regexp{
	// $349 or $349.99
	regexp.MustCompile(`\$(\d{3}(?:\.\d{2})?)`),
	// 349 USD
	regexp.MustCompile(`(\d{3}(?:\.\d{2})?)\s*USD`),
}

// Extractor turns response bytes into a price, constrained to a plausible
// range so shipping costs and unrelated amounts are rejected.
type Extractor struct {
	min decimal.Decimal
	max decimal.Decimal
}

// New constructs an extractor accepting prices in [min, max] inclusive.
func New(min, max decimal.Decimal) *Extractor {
	return &Extractor{min: min, max: max}
}

// Extract returns the price found in raw, or false when there is no usable
// signal. A candidate outside the plausible range yields no signal rather
// than falling through to later matches or patterns: on a page with several
// dollar amounts the first price-looking token decides, full stop.
func (e *Extractor) Extract(raw []byte) (decimal.Decimal, bool) {
	text := visibleText(raw)
	if text == "" {
		return decimal.Decimal{}, false
	}

	for _, pattern := range patterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		price, err := decimal.NewFromString(match[1])
		if err != nil {
			return decimal.Decimal{}, false
		}
		if price.LessThan(e.min) || price.GreaterThan(e.max) {
			return decimal.Decimal{}, false
		}
		return price, true
	}
	return decimal.Decimal{}, false
}

// visibleText strips markup down to the text a shopper would see. Script
// and style bodies are dropped. Non-HTML input passes through as-is; input
// that is not valid UTF-8 yields no text.
func visibleText(raw []byte) string {
	if !utf8.Valid(raw) {
		return ""
	}

	var (
		builder strings.Builder
		skip    int
	)
	tokenizer := html.NewTokenizer(bytes.NewReader(raw))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return builder.String()
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isInvisible(string(name)) {
				skip++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isInvisible(string(name)) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				builder.Write(tokenizer.Text())
				builder.WriteByte(' ')
			}
		}
	}
}

func isInvisible(tag string) bool {
	return tag == "script" || tag == "style" || tag == "noscript"
}
