package config

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Sternrassler/gathercontent-resolver/pkg/gateway"
	"github.com/Sternrassler/gathercontent-resolver/pkg/gathercontent"
	"github.com/Sternrassler/gathercontent-resolver/pkg/logging"
	"github.com/Sternrassler/gathercontent-resolver/pkg/ratelimit"
	"github.com/Sternrassler/gathercontent-resolver/pkg/registry"
	"github.com/redis/go-redis/v9"
)

// Services is everything built from one Config. It is read-only after
// Build returns.
type Services struct {
	Gateway  *gateway.Gateway
	Registry *registry.Registry

	// Clients holds the published client of each source.
	Clients map[string]*gathercontent.Client

	redis *redis.Client
}

// Build validates cfg and wires one gateway shared by every client. When
// a Redis address is configured the throttle window is kept in Redis,
// which must be reachable.
func Build(ctx context.Context, cfg *Config) (*Services, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := logging.NewLogger("config")

	svc := &Services{
		Registry: registry.New(),
		Clients:  make(map[string]*gathercontent.Client),
	}

	gwCfg := gateway.Config{
		Policy: cfg.Throttle.Policy,
		Retry:  cfg.Retry,
	}
	if cfg.Throttle.RedisAddr != "" {
		svc.redis = redis.NewClient(&redis.Options{Addr: cfg.Throttle.RedisAddr})
		if err := svc.redis.Ping(ctx).Err(); err != nil {
			_ = svc.redis.Close()
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.Throttle.RedisAddr, err)
		}
		gwCfg.Store = ratelimit.NewRedisWindow(svc.redis, cfg.Throttle.RedisKey)
		logger.Info().Str("redis_addr", cfg.Throttle.RedisAddr).Msg("Using shared Redis throttle window")
	}

	gw, err := gateway.New(gwCfg)
	if err != nil {
		svc.Close()
		return nil, fmt.Errorf("create gateway: %w", err)
	}
	svc.Gateway = gw

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	newClient := func(source string, cr Credentials) (*gathercontent.Client, error) {
		client, err := gathercontent.New(gathercontent.Config{
			APIUsername:    cr.APIUsername,
			APIKey:         cr.APIKey,
			ProjectID:      cr.ProjectID,
			APIHost:        cr.APIHost,
			Gateway:        gw,
			HTTPClient:     httpClient,
			MaxConcurrency: cfg.MaxConcurrency,
			Pagination:     cfg.Pagination,
		})
		if err != nil {
			return nil, &gathercontent.ConfigurationError{Source: source, Err: err}
		}
		return client, nil
	}

	for _, src := range cfg.Sources {
		key := sourceKey(src.Key)

		published, err := newClient(key, src.Credentials)
		if err != nil {
			svc.Close()
			return nil, err
		}
		reg := registry.Registration{Source: key, Client: published}

		if previewCreds, ok := src.previewCredentials(); ok {
			preview, err := newClient(key, previewCreds)
			if err != nil {
				svc.Close()
				return nil, err
			}
			reg.PreviewClient = preview
		}

		if err := svc.Registry.AddClient(reg); err != nil {
			svc.Close()
			return nil, err
		}
		svc.Clients[key] = published

		logger.Info().
			Str("source", key).
			Str("project_id", src.ProjectID).
			Bool("preview_client", src.Preview != nil).
			Msg("Registered GatherContent source")
	}

	return svc, nil
}

// Close releases the Redis connection, if any.
func (s *Services) Close() error {
	if s.redis == nil {
		return nil
	}
	return s.redis.Close()
}
