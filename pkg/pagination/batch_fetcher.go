package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Sternrassler/admin-datatable/pkg/query"
	"github.com/Sternrassler/admin-datatable/pkg/table"
	"github.com/rs/zerolog/log"
)

// ErrPartial is wrapped by FetchAll when some pages could not be fetched.
var ErrPartial = errors.New("partial results")

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel requests
	MaxConcurrency int
	// PageSize is the limit sent with every page request
	PageSize int
	// Timeout per page fetch
	Timeout time.Duration
}

// DefaultConfig returns safe default configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 5,
		PageSize:       100,
		Timeout:        15 * time.Second,
	}
}

// pageResult is the outcome of fetching one page
type pageResult[T any] struct {
	index int
	items []T
	err   error
}

// BatchFetcher handles parallel fetching of every page of a listing
type BatchFetcher[T any] struct {
	search table.SearchFunc[T]
	config Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher[T any](search table.SearchFunc[T], config Config) *BatchFetcher[T] {
	defaults := DefaultConfig()
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = defaults.MaxConcurrency
	}
	if config.PageSize <= 0 {
		config.PageSize = defaults.PageSize
	}
	if config.Timeout <= 0 {
		config.Timeout = defaults.Timeout
	}

	return &BatchFetcher[T]{
		search: search,
		config: config,
	}
}

// FetchAll returns every item matching base's filter and sort. Limit and
// offset of base are ignored. On page failures the items of the pages that
// succeeded are returned, in order, together with an error wrapping ErrPartial.
func (bf *BatchFetcher[T]) FetchAll(ctx context.Context, base query.State) ([]T, error) {
	start := time.Now()
	pageSize := bf.config.PageSize

	// Fetch first page to learn the count
	first, err := bf.fetchPage(ctx, base, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch first page: %w", err)
	}

	totalPages := query.PageResult[T]{Count: first.Count}.Pages(pageSize)
	log.Info().
		Int("count", first.Count).
		Int("total_pages", totalPages).
		Str("like", base.Like).
		Str("sort", base.Sort).
		Msg("Starting parallel page fetch")

	if totalPages <= 1 {
		log.Info().
			Int("pages", 1).
			Dur("duration", time.Since(start)).
			Msg("Fetch complete (single page)")
		return first.Results, nil
	}

	pages := make([][]T, totalPages)
	pages[0] = first.Results

	queue := make(chan int, totalPages-1)
	for i := 1; i < totalPages; i++ {
		queue <- i
	}
	close(queue)

	results := make(chan pageResult[T], totalPages-1)

	var wg sync.WaitGroup
	for i := 0; i < min(bf.config.MaxConcurrency, totalPages-1); i++ {
		wg.Add(1)
		go bf.worker(ctx, base, queue, results, &wg, i)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	fetched := 1
	var errs []error
	for result := range results {
		if result.err != nil {
			errs = append(errs, fmt.Errorf("page %d: %w", result.index, result.err))
			continue
		}
		pages[result.index] = result.items
		fetched++

		if fetched%50 == 0 {
			log.Info().
				Int("fetched", fetched).
				Int("total", totalPages).
				Float64("progress_pct", float64(fetched)/float64(totalPages)*100).
				Msg("Fetch progress")
		}
	}

	items := make([]T, 0, first.Count)
	for _, page := range pages {
		items = append(items, page...)
	}

	if err := ctx.Err(); err != nil && fetched < totalPages {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		log.Warn().
			Int("fetched_pages", fetched).
			Int("total_pages", totalPages).
			Msg("Returning partial results")
		return items, fmt.Errorf("%w (%d/%d pages): %w", ErrPartial, fetched, totalPages, errors.Join(errs...))
	}

	log.Info().
		Int("pages", fetched).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Fetch complete")

	return items, nil
}

// FetchAll is a shortcut for NewBatchFetcher(search, config).FetchAll(ctx, base).
func FetchAll[T any](ctx context.Context, search table.SearchFunc[T], base query.State, config Config) ([]T, error) {
	return NewBatchFetcher(search, config).FetchAll(ctx, base)
}

func (bf *BatchFetcher[T]) fetchPage(ctx context.Context, base query.State, index int) (query.PageResult[T], error) {
	q := base
	q.Limit = bf.config.PageSize
	q.Offset = query.OffsetFor(index, bf.config.PageSize)

	pageCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
	defer cancel()
	return bf.search(pageCtx, q)
}

// worker processes page indexes from the queue
func (bf *BatchFetcher[T]) worker(ctx context.Context, base query.State, queue <-chan int, results chan<- pageResult[T], wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	processed := 0

	for index := range queue {
		if ctx.Err() != nil {
			log.Debug().
				Int("worker_id", workerID).
				Int("pages_processed", processed).
				Msg("Worker stopping (context cancelled)")
			return
		}

		page, err := bf.fetchPage(ctx, base, index)
		if err != nil {
			log.Warn().
				Err(err).
				Int("worker_id", workerID).
				Int("page", index).
				Msg("Page fetch failed")
		}
		results <- pageResult[T]{index: index, items: page.Results, err: err}
		processed++
	}

	if processed > 0 {
		log.Debug().
			Int("worker_id", workerID).
			Int("pages_processed", processed).
			Msg("Worker completed")
	}
}
