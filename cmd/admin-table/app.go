package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/Sternrassler/admin-datatable/internal/config"
	"github.com/Sternrassler/admin-datatable/pkg/admin"
	"github.com/Sternrassler/admin-datatable/pkg/client"
	"github.com/Sternrassler/admin-datatable/pkg/logging"
	"github.com/Sternrassler/admin-datatable/pkg/query"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisPingTimeout = 2 * time.Second

// Resource names accepted on the command line.
var resourceNames = []string{admin.Cohorts.Name, admin.StaffMembers.Name}

// app bundles the dependencies shared by the list and browse commands.
type app struct {
	cfg    *config.Config
	client *client.Client
	redis  *redis.Client
	logger zerolog.Logger
}

// newApp loads the configuration and connects the backend client. Redis is
// optional: when it cannot be reached the client runs without cache.
func newApp(ctx context.Context, flags *globalFlags, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Log.Level
	if flags.logLevel != "" {
		level = flags.logLevel
	}
	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(level),
		Pretty: cfg.Log.Pretty,
		Output: logOut,
	})

	a := &app{cfg: cfg, logger: logger}

	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("Redis unavailable, running without cache")
			_ = rdb.Close()
		} else {
			logger.Debug().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
			a.redis = rdb
		}
	}

	clientCfg := client.DefaultConfig(a.redis, cfg.API.BaseURL, cfg.API.UserAgent)
	clientCfg.Timeout = cfg.API.Timeout
	clientCfg.MaxRetries = cfg.API.MaxRetries
	clientCfg.InitialBackoff = cfg.API.InitialBackoff
	clientLogger := logger.With().Str("component", "admin-client").Logger()
	clientCfg.Logger = &clientLogger

	c, err := client.New(clientCfg)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create client: %w", err)
	}
	a.client = c

	return a, nil
}

// Close releases the client and the Redis connection.
func (a *app) Close() {
	if a.client != nil {
		_ = a.client.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// basePath is the URL path of a resource's table view.
func (a *app) basePath(resource string) string {
	p, err := url.JoinPath(a.cfg.Table.BasePath, resource)
	if err != nil {
		return a.cfg.Table.BasePath + "/" + resource
	}
	return p
}

// initialQuery parses a --url value. A missing limit falls back to the
// configured default page size.
func (a *app) initialQuery(raw string) (query.State, error) {
	q, err := query.ParseRawQuery(raw)
	if err != nil {
		return q, err
	}
	values, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	if !values.Has(query.ParamLimit) {
		q.Limit = a.cfg.Table.DefaultLimit
	}
	if err := q.Validate(); err != nil {
		return q, err
	}
	return q, nil
}

func unknownResource(name string) error {
	return fmt.Errorf("unknown resource %q (want one of %v)", name, resourceNames)
}
