package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringwatch/internal/tracking"
)

func threeSources(t *testing.T) *Catalog {
	t.Helper()
	c, err := New([]Source{
		{ID: "alpha", Name: "Alpha", VariantURLs: map[tracking.VariantID]string{
			tracking.Silver: "https://alpha.example/ring",
			tracking.Black:  "https://alpha.example/ring",
		}},
		{ID: "bravo", Name: "Bravo", VariantURLs: map[tracking.VariantID]string{
			tracking.Black: "https://bravo.example/ring-black",
		}},
		{ID: "charlie", Name: "Charlie", VariantURLs: map[tracking.VariantID]string{
			tracking.Silver: "https://charlie.example/ring-silver",
		}},
	})
	require.NoError(t, err)
	return c
}

func TestResolveTargetsSubset(t *testing.T) {
	c := threeSources(t)

	// Two of three sources support silver; resolution follows
	// source-registration order.
	targets := c.ResolveTargets([]tracking.VariantID{tracking.Silver})
	require.Len(t, targets, 2)
	assert.Equal(t, tracking.SourceID("alpha"), targets[0].Source)
	assert.Equal(t, tracking.SourceID("charlie"), targets[1].Source)
	for _, target := range targets {
		assert.Equal(t, tracking.Silver, target.Variant)
		assert.NotEmpty(t, target.URL)
	}
}

func TestResolveTargetsDeterministic(t *testing.T) {
	c := threeSources(t)
	tracked := []tracking.VariantID{tracking.Black, tracking.Silver}

	first := c.ResolveTargets(tracked)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, c.ResolveTargets(tracked))
	}

	// Variant order within a source follows the canonical enumeration, not
	// the order the operator listed them in.
	require.Len(t, first, 4)
	assert.Equal(t, tracking.Silver, first[0].Variant)
	assert.Equal(t, tracking.Black, first[1].Variant)
}

func TestResolveTargetsNoMatches(t *testing.T) {
	c := threeSources(t)
	assert.Empty(t, c.ResolveTargets([]tracking.VariantID{tracking.RoseGold}))
	assert.Empty(t, c.ResolveTargets(nil))
}

func TestNewRejectsUnknownVariant(t *testing.T) {
	_, err := New([]Source{
		{ID: "alpha", VariantURLs: map[tracking.VariantID]string{"chartreuse": "https://x"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chartreuse")
}

func TestDefaultCatalog(t *testing.T) {
	c := Default()
	require.Len(t, c.Sources(), 3)

	// Every known variant resolves to at least one target via the official
	// store except stealth, which is only an operator alias.
	targets := c.ResolveTargets(tracking.KnownVariants)
	seen := map[tracking.VariantID]bool{}
	for _, target := range targets {
		seen[target.Variant] = true
	}
	for _, v := range []tracking.VariantID{tracking.Silver, tracking.Black, tracking.Gold, tracking.RoseGold} {
		assert.True(t, seen[v], "variant %s should resolve", v)
	}
	assert.False(t, seen[tracking.Stealth])
}
