package table

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Sternrassler/admin-datatable/pkg/logging"
	"github.com/Sternrassler/admin-datatable/pkg/query"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// RowsPerPageOptions are the page sizes offered to the rendering surface.
var RowsPerPageOptions = []int{10, 20, 40, 80, 100}

// Fetch triggers, used for logging and metrics.
const (
	triggerMount  = "mount"
	triggerReload = "reload"
	triggerPage   = "page"
	triggerRows   = "rows_per_page"
	triggerSort   = "sort"
	triggerSearch = "search"
	triggerFilter = "filter"
)

const (
	tracerName     = "github.com/Sternrassler/admin-datatable/pkg/table"
	fetchSpanName  = "table.fetch"
	componentField = "table"
)

// SearchFunc fetches one page of items for a query.
type SearchFunc[T any] func(ctx context.Context, q query.State) (query.PageResult[T], error)

// Navigator receives the URL after a user-driven fetch succeeds.
// Implementations must not call back into the controller.
type Navigator interface {
	Replace(path, rawQuery string)
}

// Location is the URL the view was opened at.
type Location interface {
	Path() string
	RawQuery() string
}

// Config holds the controller configuration.
type Config[T any] struct {
	// Search fetches a page (REQUIRED).
	Search SearchFunc[T]

	// Navigator receives URL replacements. Nil disables URL sync.
	Navigator Navigator

	// Location seeds the query at construction. Nil means defaults.
	Location Location

	// BasePath is the path written on URL replace.
	// Defaults to Location.Path().
	BasePath string

	// Ordering picks between overlapping responses (default LatestIssued).
	Ordering Ordering

	// RowsPerPageOptions are offered to the rendering surface.
	// Defaults to RowsPerPageOptions.
	RowsPerPageOptions []int

	// Logger defaults to the global logger with component=table.
	Logger *zerolog.Logger

	// OnChange is called with a fresh snapshot after every state change.
	OnChange func(View[T])
}

// View is the snapshot handed to the rendering surface.
type View[T any] struct {
	Items              []T
	Count              int
	Page               int
	RowsPerPage        int
	RowsPerPageOptions []int

	// Query is the most recently requested query. It runs ahead of Page and
	// RowsPerPage while a fetch is outstanding or after one failed.
	Query query.State

	Status Status

	// Err is the error of the last applied fetch, nil after a success.
	Err error
}

// Loading reports whether a fetch is outstanding.
func (v View[T]) Loading() bool {
	return v.Status == StatusLoading
}

// Controller owns the query state, the fetched page and the URL sync of one
// table view. It is safe for concurrent use.
type Controller[T any] struct {
	search   SearchFunc[T]
	nav      Navigator
	basePath string
	ordering Ordering
	options  []int
	logger   zerolog.Logger
	onChange func(View[T])
	tracer   trace.Tracer

	mu       sync.Mutex
	query    query.State // requested
	shown    query.State // backing the current items
	items    []T
	count    int
	status   Status
	err      error
	alive    bool
	seq      uint64
	inflight map[uint64]context.CancelFunc
}

// New creates a controller and seeds its query from the location.
func New[T any](cfg Config[T]) (*Controller[T], error) {
	if cfg.Search == nil {
		return nil, ErrNoSearch
	}

	initial := query.Default()
	basePath := cfg.BasePath
	if cfg.Location != nil {
		parsed, err := query.ParseRawQuery(cfg.Location.RawQuery())
		if err != nil {
			return nil, fmt.Errorf("seed query from location: %w", err)
		}
		initial = parsed
		if basePath == "" {
			basePath = cfg.Location.Path()
		}
	}

	ordering := cfg.Ordering
	if ordering == "" {
		ordering = LatestIssued
	}

	options := cfg.RowsPerPageOptions
	if len(options) == 0 {
		options = RowsPerPageOptions
	}

	logger := log.With().Str("component", componentField).Logger()
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Controller[T]{
		search:   cfg.Search,
		nav:      cfg.Navigator,
		basePath: basePath,
		ordering: ordering,
		options:  options,
		logger:   logger,
		onChange: cfg.OnChange,
		tracer:   otel.Tracer(tracerName),
		query:    initial,
		shown:    initial,
		status:   StatusIdle,
		alive:    true,
		inflight: make(map[uint64]context.CancelFunc),
	}, nil
}

// Mount issues the initial fetch with the seeded query. The URL is left alone.
func (c *Controller[T]) Mount(ctx context.Context) error {
	return c.fetch(ctx, triggerMount, query.Update{}, false)
}

// Reload refetches the current query without touching the URL.
func (c *Controller[T]) Reload(ctx context.Context) error {
	return c.fetch(ctx, triggerReload, query.Update{}, false)
}

// ChangePage moves to a zero-based page with the given page size.
func (c *Controller[T]) ChangePage(ctx context.Context, page, rowsPerPage int) error {
	return c.fetch(ctx, triggerPage, pageUpdate(page, rowsPerPage), true)
}

// ChangeRowsPerPage changes the page size; the offset is recomputed from page.
func (c *Controller[T]) ChangeRowsPerPage(ctx context.Context, page, rowsPerPage int) error {
	return c.fetch(ctx, triggerRows, pageUpdate(page, rowsPerPage), true)
}

// SortColumn sorts by column in the given direction, keeping the page.
func (c *Controller[T]) SortColumn(ctx context.Context, column string, dir query.Direction) error {
	return c.fetch(ctx, triggerSort, query.SetSort(query.SortFor(column, dir)), true)
}

// Search sets the free-text filter and returns to the first page.
func (c *Controller[T]) Search(ctx context.Context, like string) error {
	return c.fetch(ctx, triggerSearch, query.Merge(query.SetLike(like), query.SetOffset(0)), true)
}

// FilterChange sets one query field by name. Changing the text filter
// returns to the first page.
func (c *Controller[T]) FilterChange(ctx context.Context, field, value string) error {
	var u query.Update
	switch field {
	case query.ParamLike:
		u = query.Merge(query.SetLike(value), query.SetOffset(0))
	case query.ParamSort:
		u = query.SetSort(value)
	case query.ParamLimit, query.ParamOffset:
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidValue, field, value)
		}
		if field == query.ParamLimit {
			u = query.SetLimit(n)
		} else {
			u = query.SetOffset(n)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return c.fetch(ctx, triggerFilter, u, true)
}

// Unmount tears the view down. In-flight requests are cancelled and any
// response arriving afterwards is dropped.
func (c *Controller[T]) Unmount() {
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		return
	}
	c.alive = false
	c.status = StatusUnmounted
	for seq, cancel := range c.inflight {
		cancel()
		delete(c.inflight, seq)
	}
	view := c.viewLocked()
	c.mu.Unlock()

	c.logger.Debug().Msg("Table view unmounted")
	c.notify(view)
}

// Query returns the most recently requested query.
func (c *Controller[T]) Query() query.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Status returns the lifecycle state.
func (c *Controller[T]) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// View returns a snapshot for rendering.
func (c *Controller[T]) View() View[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// fetch applies u to the query atomically, runs the search outside the lock
// and applies the response if it is still current.
func (c *Controller[T]) fetch(ctx context.Context, trigger string, u query.Update, syncURL bool) error {
	// Step 1: Issue
	c.mu.Lock()
	if !c.alive {
		c.mu.Unlock()
		tableFetchesTotal.WithLabelValues(trigger, outcomeUnmounted).Inc()
		return ErrUnmounted
	}

	c.seq++
	seq := c.seq
	c.query = c.query.Apply(u)
	next := c.query
	c.status = StatusLoading

	if c.ordering == LatestIssued {
		for old, cancel := range c.inflight {
			cancel()
			delete(c.inflight, old)
		}
	}
	if trigger == triggerReload {
		ctx = withRevalidate(ctx)
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.inflight[seq] = cancel

	issued := c.viewLocked()
	c.mu.Unlock()
	defer cancel()

	c.notify(issued)

	logger := logging.WithQuery(c.logger.With().
		Str("trigger", trigger).
		Uint64("seq", seq), next).
		Logger()

	fetchCtx, span := c.tracer.Start(fetchCtx, fetchSpanName, trace.WithAttributes(
		attribute.String("table.trigger", trigger),
		attribute.Int64("table.seq", int64(seq)),
		attribute.String("table.query", next.Encode()),
	))
	defer span.End()

	logger.Debug().Msg("Fetching page")

	// Step 2: Search
	start := time.Now()
	result, err := c.search(fetchCtx, next)
	duration := time.Since(start)
	tableFetchDuration.WithLabelValues(trigger).Observe(duration.Seconds())

	// Step 3: Apply
	c.mu.Lock()
	delete(c.inflight, seq)

	if !c.alive {
		c.mu.Unlock()
		tableFetchesTotal.WithLabelValues(trigger, outcomeUnmounted).Inc()
		logger.Debug().Msg("Dropping response for unmounted view")
		return ErrUnmounted
	}

	if c.ordering == LatestIssued && seq != c.seq {
		latest := c.seq
		c.mu.Unlock()
		tableFetchesTotal.WithLabelValues(trigger, outcomeStale).Inc()
		logger.Debug().Uint64("latest_seq", latest).Msg("Dropping superseded response")
		return ErrStale
	}

	if err != nil {
		c.err = err
		c.status = c.settledStatus(StatusFailed)
		view := c.viewLocked()
		c.mu.Unlock()

		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		tableFetchesTotal.WithLabelValues(trigger, outcomeFailed).Inc()
		logger.Error().Err(err).Dur("duration", duration).Msg("Table fetch failed")
		c.notify(view)
		return fmt.Errorf("search: %w", err)
	}

	c.items = result.Results
	c.count = result.Count
	c.shown = next
	// The query follows the page on screen. Under LatestResolved an older
	// response can land last and must pull the query back with it.
	c.query = next
	c.err = nil
	c.status = c.settledStatus(StatusIdle)
	if syncURL && c.nav != nil {
		c.nav.Replace(c.basePath, next.Encode())
		tableURLReplacesTotal.Inc()
	}
	view := c.viewLocked()
	c.mu.Unlock()

	tableFetchesTotal.WithLabelValues(trigger, outcomeApplied).Inc()
	logger.Debug().
		Int("count", result.Count).
		Int("results", len(result.Results)).
		Dur("duration", duration).
		Msg("Table page applied")
	c.notify(view)
	return nil
}

// settledStatus keeps the view loading while other responses are still
// expected under LatestResolved.
func (c *Controller[T]) settledStatus(s Status) Status {
	if c.ordering == LatestResolved && len(c.inflight) > 0 {
		return StatusLoading
	}
	return s
}

func (c *Controller[T]) viewLocked() View[T] {
	return View[T]{
		Items:              c.items,
		Count:              c.count,
		Page:               c.shown.Page(),
		RowsPerPage:        c.shown.Limit,
		RowsPerPageOptions: c.options,
		Query:              c.query,
		Status:             c.status,
		Err:                c.err,
	}
}

func (c *Controller[T]) notify(v View[T]) {
	if c.onChange != nil {
		c.onChange(v)
	}
}

func pageUpdate(page, rowsPerPage int) query.Update {
	return query.Merge(
		query.SetLimit(rowsPerPage),
		query.SetOffset(query.OffsetFor(page, rowsPerPage)),
	)
}
