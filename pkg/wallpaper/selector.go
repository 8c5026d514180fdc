package wallpaper

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/dixieflatline76/rngpaper/pkg/errkind"
	"github.com/dixieflatline76/rngpaper/pkg/wallhaven"
	"github.com/dixieflatline76/rngpaper/util/log"
)

// Selector picks one random item for a query: a random page first, then a random item on it.
type Selector struct {
	Searcher Searcher

	// MaxRetries caps the extra page-1 fetches made while the server reports zero pages.
	MaxRetries int
	// Backoff is the wait between those fetches.
	Backoff time.Duration
	// IncludeLastPage makes the last page eligible. By default pages are drawn from [1, last).
	IncludeLastPage bool
	// Intn returns a uniform value in [0, n). Defaults to math/rand/v2.
	Intn func(n int) int
}

// NewSelector returns a selector with default retry settings.
func NewSelector(s Searcher) *Selector {
	return &Selector{Searcher: s, MaxRetries: DefaultMaxRetries, Backoff: EmptyPagesBackoff}
}

// Select returns a random item for q. Search errors are returned as is; an empty result set
// yields errkind.ErrExhausted.
func (s *Selector) Select(ctx context.Context, q wallhaven.Query) (wallhaven.Item, error) {
	first, err := s.firstPage(ctx, q)
	if err != nil {
		return wallhaven.Item{}, err
	}

	total := first.TotalPages
	if total == 1 {
		return s.pick(first, q, 1)
	}

	span := total - 1
	if s.IncludeLastPage {
		span = total
	}
	page := 1 + s.intn(span)
	log.Debugf("Selected page %d of %d for %s", page, total, q)
	if page == 1 {
		return s.pick(first, q, 1)
	}

	result, err := s.Searcher.Search(ctx, q, page)
	if err != nil {
		return wallhaven.Item{}, err
	}
	return s.pick(result, q, page)
}

// firstPage fetches the implicit first page, retrying while the server reports zero pages.
// A zero-page answer is always retried at least once.
func (s *Selector) firstPage(ctx context.Context, q wallhaven.Query) (wallhaven.Page, error) {
	retries := s.MaxRetries
	if retries < 1 {
		retries = DefaultMaxRetries
	}
	attempts := retries + 1

	for attempt := 1; ; attempt++ {
		page, err := s.Searcher.Search(ctx, q, 0)
		if err != nil {
			return wallhaven.Page{}, err
		}
		if page.TotalPages > 0 {
			return page, nil
		}
		if attempt >= attempts {
			return wallhaven.Page{}, fmt.Errorf("%w: no pages for %s after %d attempts", errkind.ErrExhausted, q, attempts)
		}

		log.Printf("Search for %s returned no pages, retrying (%d/%d)", q, attempt, attempts)
		if err := sleepCtx(ctx, s.Backoff); err != nil {
			return wallhaven.Page{}, fmt.Errorf("%w: %w", errkind.ErrNetwork, err)
		}
	}
}

func (s *Selector) pick(p wallhaven.Page, q wallhaven.Query, page int) (wallhaven.Item, error) {
	if len(p.Items) == 0 {
		return wallhaven.Item{}, fmt.Errorf("%w: page %d of %s has no items", errkind.ErrExhausted, page, q)
	}
	return p.Items[s.intn(len(p.Items))], nil
}

func (s *Selector) intn(n int) int {
	if s.Intn != nil {
		return s.Intn(n)
	}
	return rand.IntN(n)
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
