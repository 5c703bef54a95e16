package fetcher

import "context"

// Fetcher retrieves the raw bytes behind a target URL. Implementations are
// expected to bound each request with a timeout so one unresponsive source
// cannot stall a whole sweep.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
