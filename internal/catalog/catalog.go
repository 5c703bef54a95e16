// Package catalog holds the static registry of pollable retailer targets.
package catalog

import (
	"fmt"

	"github.com/samber/lo"

	"ringwatch/internal/tracking"
)

// Source describes one retailer and the variants it can be polled for.
// Immutable after load; adding a retailer or variant only extends this data.
type Source struct {
	ID          tracking.SourceID
	Name        string
	VariantURLs map[tracking.VariantID]string
}

// Target is one resolved (source, variant, URL) fetch target.
type Target struct {
	Source     tracking.SourceID
	SourceName string
	Variant    tracking.VariantID
	URL        string
}

// Catalog is an ordered, read-only collection of sources.
type Catalog struct {
	sources []Source
}

// New builds a catalog, validating that every variant belongs to the known
// enumeration.
func New(sources []Source) (*Catalog, error) {
	for _, src := range sources {
		if src.ID == "" {
			return nil, fmt.Errorf("catalog source with empty id")
		}
		for variant := range src.VariantURLs {
			if !tracking.IsKnownVariant(variant) {
				return nil, fmt.Errorf("source %s: unknown variant %q", src.ID, variant)
			}
		}
	}
	return &Catalog{sources: sources}, nil
}

// Default returns the built-in retailer registry.
func Default() *Catalog {
	c, err := New(defaultSources())
	if err != nil {
		panic(err)
	}
	return c
}

// Sources returns the registered sources in registration order.
func (c *Catalog) Sources() []Source {
	return c.sources
}

// ResolveTargets yields one target per (source, variant) pair where the
// source supports a tracked variant. Output order is deterministic:
// source-registration order, then the canonical variant order, so sweep
// results are reproducible.
func (c *Catalog) ResolveTargets(tracked []tracking.VariantID) []Target {
	targets := make([]Target, 0, len(c.sources)*len(tracked))
	for _, src := range c.sources {
		for _, variant := range tracking.KnownVariants {
			if !lo.Contains(tracked, variant) {
				continue
			}
			url, ok := src.VariantURLs[variant]
			if !ok {
				continue
			}
			targets = append(targets, Target{
				Source:     src.ID,
				SourceName: src.Name,
				Variant:    variant,
				URL:        url,
			})
		}
	}
	return targets
}

func defaultSources() []Source {
	const (
		amazonURL = "https://www.amazon.com/dp/B0DJCX5KQG"
		targetURL = "https://www.target.com/p/oura-ring-4/-/A-93747936"
	)

	return []Source{
		{
			ID:   "amazon",
			Name: "Amazon",
			VariantURLs: map[tracking.VariantID]string{
				tracking.Silver: amazonURL,
				tracking.Black:  amazonURL,
				tracking.Gold:   amazonURL,
			},
		},
		{
			ID:   "target",
			Name: "Target",
			VariantURLs: map[tracking.VariantID]string{
				tracking.Black: targetURL,
			},
		},
		{
			ID:   "oura",
			Name: "Oura Official",
			VariantURLs: map[tracking.VariantID]string{
				tracking.Silver:   "https://ouraring.com/store/rings/oura-ring-4/silver",
				tracking.Black:    "https://ouraring.com/store/rings/oura-ring-4/stealth",
				tracking.Gold:     "https://ouraring.com/store/rings/oura-ring-4/gold",
				tracking.RoseGold: "https://ouraring.com/store/rings/oura-ring-4/rose-gold",
			},
		},
	}
}
