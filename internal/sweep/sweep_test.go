package sweep

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringwatch/internal/catalog"
	"ringwatch/internal/extract"
	"ringwatch/internal/fetcher"
	"ringwatch/internal/tracking"
)

type fetchFunc func(ctx context.Context, url string) ([]byte, error)

func (f fetchFunc) Fetch(ctx context.Context, url string) ([]byte, error) {
	return f(ctx, url)
}

func testRunner(fetch fetcher.Fetcher) *Runner {
	ex := extract.New(decimal.NewFromInt(200), decimal.NewFromInt(600))
	return New(fetch, ex, 0, zerolog.Nop())
}

func targetsFor(urls ...string) []catalog.Target {
	targets := make([]catalog.Target, len(urls))
	for i, url := range urls {
		targets[i] = catalog.Target{
			Source:  tracking.SourceID("src"),
			Variant: tracking.Silver,
			URL:     url,
		}
	}
	return targets
}

func TestRunCollectsObservationsInTargetOrder(t *testing.T) {
	pages := map[string]string{
		"a": "<html>Silver edition $287.50</html>",
		"b": "<html>287.50 USD</html>",
	}
	fetch := fetchFunc(func(_ context.Context, url string) ([]byte, error) {
		return []byte(pages[url]), nil
	})

	obs := testRunner(fetch).Run(context.Background(), []catalog.Target{
		{Source: "alpha", Variant: tracking.Silver, URL: "a"},
		{Source: "charlie", Variant: tracking.Silver, URL: "b"},
	})

	require.Len(t, obs, 2)
	assert.Equal(t, tracking.SourceID("alpha"), obs[0].Source)
	assert.Equal(t, tracking.SourceID("charlie"), obs[1].Source)
	for _, o := range obs {
		assert.True(t, o.Price.Equal(decimal.NewFromFloat(287.50)), "got %s", o.Price)
		assert.False(t, o.Timestamp.IsZero())
		assert.NotEmpty(t, o.TargetURL)
	}
}

func TestRunSkipsFailuresWithoutAborting(t *testing.T) {
	// One target times out, one 404s, one returns an out-of-range price:
	// the sweep succeeds with an empty result.
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slow.Close()
	missing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer missing.Close()
	tooDear := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>$999.00</html>"))
	}))
	defer tooDear.Close()

	page := fetcher.NewPage(fetcher.PageOptions{Timeout: 30 * time.Millisecond}, zerolog.Nop())
	ex := extract.New(decimal.NewFromInt(200), decimal.NewFromInt(600))
	runner := New(page, ex, 0, zerolog.Nop())

	obs := runner.Run(context.Background(), targetsFor(slow.URL, missing.URL, tooDear.URL))
	assert.Empty(t, obs)
}

func TestRunPacesBetweenFetches(t *testing.T) {
	var calls []time.Time
	fetch := fetchFunc(func(_ context.Context, _ string) ([]byte, error) {
		calls = append(calls, time.Now())
		return []byte("$299.00"), nil
	})

	ex := extract.New(decimal.NewFromInt(200), decimal.NewFromInt(600))
	runner := New(fetch, ex, 50*time.Millisecond, zerolog.Nop())

	start := time.Now()
	obs := runner.Run(context.Background(), targetsFor("a", "b", "c"))
	require.Len(t, obs, 3)
	require.Len(t, calls, 3)

	// Two inter-fetch waits, no trailing wait.
	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.GreaterOrEqual(t, calls[1].Sub(calls[0]), 50*time.Millisecond)
	assert.GreaterOrEqual(t, calls[2].Sub(calls[1]), 50*time.Millisecond)
}

func TestRunCancelledContextStopsEarly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var fetches int
	fetch := fetchFunc(func(_ context.Context, _ string) ([]byte, error) {
		fetches++
		cancel()
		return []byte("$299.00"), nil
	})

	ex := extract.New(decimal.NewFromInt(200), decimal.NewFromInt(600))
	runner := New(fetch, ex, time.Hour, zerolog.Nop())

	obs := runner.Run(ctx, targetsFor("a", "b", "c"))
	assert.Equal(t, 1, fetches)
	assert.Len(t, obs, 1)
}

func TestRunFetchErrorsSkipped(t *testing.T) {
	fetch := fetchFunc(func(_ context.Context, url string) ([]byte, error) {
		if url == "bad" {
			return nil, errors.New("connection refused")
		}
		return []byte("$250.00"), nil
	})

	obs := testRunner(fetch).Run(context.Background(), targetsFor("bad", "good"))
	require.Len(t, obs, 1)
	assert.Equal(t, "good", obs[0].TargetURL)
}
