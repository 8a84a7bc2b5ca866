//go:build integration

package integration

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/Sternrassler/admin-datatable/internal/testutil"
	"github.com/Sternrassler/admin-datatable/pkg/admin"
	"github.com/Sternrassler/admin-datatable/pkg/client"
	"github.com/Sternrassler/admin-datatable/pkg/navigator"
	"github.com/Sternrassler/admin-datatable/pkg/pagination"
	"github.com/Sternrassler/admin-datatable/pkg/query"
	"github.com/Sternrassler/admin-datatable/pkg/table"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

// stack wires a controller over a real client, Redis and the mock backend.
type stack struct {
	backend *testutil.MockBackend
	client  *client.Client
	ctrl    *table.Controller[admin.Cohort]
	history *navigator.History
}

func newStack(t *testing.T, redisClient *redis.Client, rawURL string) *stack {
	t.Helper()

	backend := testutil.NewMockBackend()
	t.Cleanup(backend.Close)

	logger := zerolog.Nop()
	cfg := client.DefaultConfig(redisClient, backend.URL(), "admin-table-integration/1.0")
	cfg.MaxRetries = 0
	cfg.Logger = &logger

	c, err := client.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	history := navigator.NewHistory(rawURL)
	ctrl, err := table.New(table.Config[admin.Cohort]{
		Search:    client.Searcher[admin.Cohort](c, admin.CohortResource),
		Navigator: history,
		Location:  history,
		Logger:    &logger,
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Unmount)

	return &stack{backend: backend, client: c, ctrl: ctrl, history: history}
}

func TestIntegration_PagingWithCache(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	s := newStack(t, redisClient, "/admin/cohorts?limit=10")
	s.backend.SetMaxAge(60)
	ctx := context.Background()

	require.NoError(t, s.ctrl.Mount(ctx))
	assert.Equal(t, 1, s.backend.GetRequestCount())
	assert.Equal(t, 45, s.ctrl.View().Count)
	assert.Equal(t, "limit=10", s.history.RawQuery(), "mount keeps the URL")

	require.NoError(t, s.ctrl.ChangePage(ctx, 1, 10))
	assert.Equal(t, 2, s.backend.GetRequestCount())
	assert.Equal(t, "limit=10&offset=10&like=&sort=+", s.history.RawQuery())
	assert.Equal(t, "santiago-11", s.ctrl.View().Items[0].Slug)

	// Back to the first page: fresh in Redis, no network call.
	require.NoError(t, s.ctrl.ChangePage(ctx, 0, 10))
	assert.Equal(t, 2, s.backend.GetRequestCount())
	assert.Equal(t, "miami-01", s.ctrl.View().Items[0].Slug)
	assert.Equal(t, "limit=10&offset=0&like=&sort=+", s.history.RawQuery())

	// Reload revalidates with the cached ETag and gets a 304.
	require.NoError(t, s.ctrl.Reload(ctx))
	assert.Equal(t, 3, s.backend.GetRequestCount())
	assert.Equal(t, 1, s.backend.GetConditionalCount())
	assert.Len(t, s.ctrl.View().Items, 10)
}

func TestIntegration_ExpiredPageIsRevalidated(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	s := newStack(t, redisClient, "/admin/cohorts")
	ctx := context.Background()

	require.NoError(t, s.ctrl.Mount(ctx))
	require.NoError(t, s.ctrl.ChangePage(ctx, 0, 10))

	assert.Equal(t, 2, s.backend.GetRequestCount())
	assert.Equal(t, 1, s.backend.GetConditionalCount(), "no-cache page is revalidated, not refetched")
	assert.Len(t, s.ctrl.View().Items, 10)
}

func TestIntegration_SupersededSearchIsDropped(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	s := newStack(t, redisClient, "/admin/cohorts")
	s.backend.SetDelay(func(r *http.Request) time.Duration {
		if r.URL.Query().Get("like") == "miami" {
			return 500 * time.Millisecond
		}
		return 0
	})
	ctx := context.Background()
	require.NoError(t, s.ctrl.Mount(ctx))
	before := s.backend.GetRequestCount()

	var wg sync.WaitGroup
	var slowErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		slowErr = s.ctrl.Search(ctx, "miami")
	}()

	require.Eventually(t, func() bool {
		return s.backend.GetRequestCount() > before
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.ctrl.Search(ctx, "madrid"))
	wg.Wait()

	assert.True(t, errors.Is(slowErr, table.ErrStale), "got %v", slowErr)

	view := s.ctrl.View()
	assert.Equal(t, table.StatusIdle, view.Status)
	assert.Equal(t, 6, view.Count)
	for _, c := range view.Items {
		assert.Contains(t, c.Slug, "madrid")
	}
	assert.Equal(t, "limit=10&offset=0&like=madrid&sort=+", s.history.RawQuery())
}

func TestIntegration_DeleteThenReload(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	s := newStack(t, redisClient, "/admin/cohorts?limit=5")
	s.backend.SetMaxAge(300)
	ctx := context.Background()

	require.NoError(t, s.ctrl.Mount(ctx))
	first := s.ctrl.View().Items[:2]

	require.NoError(t, s.client.Delete(ctx, admin.CohortResource, admin.Cohorts.IDs(first)))
	require.NoError(t, s.ctrl.Reload(ctx))

	view := s.ctrl.View()
	assert.Equal(t, 43, view.Count)
	assert.Equal(t, "santiago-03", view.Items[0].Slug)
}

func TestIntegration_QuotaExhaustedKeepsResults(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	s := newStack(t, redisClient, "/admin/cohorts")
	s.backend.SetQuotaRemaining(2)
	ctx := context.Background()

	require.NoError(t, s.ctrl.Mount(ctx))
	requests := s.backend.GetRequestCount()

	err := s.ctrl.ChangePage(ctx, 1, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, client.ErrQuotaExhausted), "got %v", err)
	assert.Equal(t, requests, s.backend.GetRequestCount(), "blocked before the network")

	view := s.ctrl.View()
	assert.Equal(t, table.StatusFailed, view.Status)
	assert.Equal(t, "miami-01", view.Items[0].Slug, "previous page stays visible")
	assert.Equal(t, "/admin/cohorts", s.history.Current().String(), "failed fetch leaves the URL")
}

func TestIntegration_FetchAll(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	s := newStack(t, redisClient, "/admin/cohorts")
	cfg := pagination.DefaultConfig()
	cfg.PageSize = 7

	base := query.Default().Apply(query.SetSort("-slug"))
	items, err := pagination.FetchAll(context.Background(), client.Searcher[admin.Cohort](s.client, admin.CohortResource), base, cfg)
	require.NoError(t, err)

	require.Len(t, items, 45)
	for i := 1; i < len(items); i++ {
		assert.GreaterOrEqual(t, items[i-1].Slug, items[i].Slug)
	}
	assert.Equal(t, 7, s.backend.GetRequestCount())
}
