// Package pagination walks every page of a limit/offset listing in parallel.
//
// The first page is fetched alone to learn the total count; the remaining
// offsets are distributed over a bounded worker pool. Results are returned
// in listing order.
//
// Example usage:
//
//	search := client.Searcher[admin.Cohort](c, admin.CohortResource)
//	fetcher := pagination.NewBatchFetcher(search, pagination.DefaultConfig())
//	cohorts, err := fetcher.FetchAll(ctx, query.State{Sort: "-kickoff_date"})
//
// The batch fetcher:
//   - Fetches the first page to determine the page count
//   - Spawns a worker pool (default 5 workers)
//   - Distributes remaining offsets across workers
//   - Collects results with progress logging
//   - Handles errors gracefully (returns partial data)
package pagination
