package cache

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/neurobridge-bff/internal/observability"
	"github.com/yungbote/neurobridge-bff/internal/platform/logger"
)

type RedisOptions struct {
	URL             string
	MonitorInterval time.Duration
	Log             *logger.Logger
	Metrics         *observability.Metrics

	// Client overrides the client built from URL (tests).
	Client *goredis.Client
}

// RedisStore is a Store backed by go-redis. A failed initial connection is not
// fatal: the store starts disconnected and the monitor flips it on once the
// server answers PING.
type RedisStore struct {
	log      *logger.Logger
	metrics  *observability.Metrics
	rdb      *goredis.Client
	interval time.Duration

	connected atomic.Bool
}

func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	log := opts.Log
	if log == nil {
		log = logger.NewNop()
	}
	rdb := opts.Client
	if rdb == nil {
		ropts, err := goredis.ParseURL(opts.URL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		if ropts.DialTimeout == 0 {
			ropts.DialTimeout = 5 * time.Second
		}
		rdb = goredis.NewClient(ropts)
	}
	interval := opts.MonitorInterval
	if interval <= 0 {
		interval = 5 * time.Second
	}
	s := &RedisStore{
		log:      log.With("service", "RedisCache"),
		metrics:  opts.Metrics,
		rdb:      rdb,
		interval: interval,
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.ping(pingCtx); err != nil {
		s.log.Warn("failed to connect to redis, continuing without cache", "error", err)
	} else {
		s.log.Info("connected to redis")
	}
	return s, nil
}

func (s *RedisStore) ping(ctx context.Context) error {
	start := time.Now()
	err := s.rdb.Ping(ctx).Err()
	s.connected.Store(err == nil)
	s.metrics.SetCacheBackendUp(err == nil, time.Since(start))
	return err
}

// StartMonitor re-checks connectivity every interval until ctx is done.
func (s *RedisStore) StartMonitor(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				was := s.connected.Load()
				pingCtx, cancel := context.WithTimeout(ctx, s.interval)
				err := s.ping(pingCtx)
				cancel()
				switch {
				case err != nil && was:
					s.log.Warn("redis connection lost", "error", err)
				case err == nil && !was:
					s.log.Info("redis connection restored")
				}
			}
		}
	}()
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		s.observeFailure(err)
		return "", false, err
	}
	return val, true, nil
}

func (s *RedisStore) SetEx(ctx context.Context, key string, value string, ttl time.Duration) error {
	err := s.rdb.SetEx(ctx, key, value, ttl).Err()
	if err != nil {
		s.observeFailure(err)
	}
	return err
}

// observeFailure marks the store disconnected when a command fails below the
// protocol level, so requests bypass the cache until the monitor's next
// successful PING instead of waiting on a dead connection.
func (s *RedisStore) observeFailure(err error) {
	if errors.Is(err, context.Canceled) {
		return
	}
	var reply goredis.Error
	if errors.As(err, &reply) {
		return
	}
	if s.connected.CompareAndSwap(true, false) {
		s.metrics.SetCacheBackendUp(false, 0)
		s.log.Warn("redis connection lost", "error", err)
	}
}

func (s *RedisStore) Connected() bool {
	return s.connected.Load()
}

func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
