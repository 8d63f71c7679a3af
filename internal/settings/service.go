package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

var ErrKeyRequired = errors.New("setting key is required")

type Service interface {
	// Get reads through the cache. Concurrent misses for one key share a
	// single database query.
	Get(ctx context.Context, key string) (string, error)
	// Set stores the value and drops the cached copy.
	Set(ctx context.Context, key, value string) (*Setting, error)
}

type service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	group singleflight.Group

	// mu orders cache fills against writes. writes counts stored updates per
	// key; a load that saw the counter move does not fill the cache.
	mu     sync.Mutex
	writes map[string]uint64
}

func NewService(repo Repository, cache Cache, ttl time.Duration) Service {
	return &service{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		writes: make(map[string]uint64),
	}
}

func (s *service) writeCount(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes[key]
}

func (s *service) Get(ctx context.Context, key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrKeyRequired
	}

	value, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("service: settings cache read failed, falling back to database")
	} else if ok {
		return value, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		// The load is shared by every waiting caller, so one caller giving up
		// must not fail the rest.
		loadCtx := context.WithoutCancel(ctx)
		seen := s.writeCount(key)

		setting, err := s.repo.Get(loadCtx, key)
		if err != nil {
			return "", err
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.writes[key] != seen {
			log.Debug().Str("key", key).Msg("service: setting changed during load, cache left empty")
			return setting.Value, nil
		}
		if err := s.cache.Set(loadCtx, key, setting.Value, s.ttl); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("service: failed to cache setting")
		}
		return setting.Value, nil
	})
	if err != nil {
		if errors.Is(err, ErrSettingNotFound) {
			return "", ErrSettingNotFound
		}
		log.Error().Err(err).Str("key", key).Msg("service: failed to load setting")
		return "", fmt.Errorf("service: failed to load setting: %w", err)
	}

	return v.(string), nil
}

func (s *service) Set(ctx context.Context, key, value string) (*Setting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrKeyRequired
	}

	setting := &Setting{Key: key, Value: value}
	if err := s.repo.Set(ctx, setting); err != nil {
		log.Error().Err(err).Str("key", key).Msg("service: failed to store setting")
		return nil, fmt.Errorf("service: failed to store setting: %w", err)
	}

	s.mu.Lock()
	s.writes[key]++
	s.mu.Unlock()
	s.group.Forget(key)

	if err := s.cache.Delete(ctx, key); err != nil {
		// A stale entry lives at most one TTL.
		log.Warn().Err(err).Str("key", key).Msg("service: failed to invalidate cached setting")
	}

	log.Info().Str("key", key).Msg("service: setting updated")
	return setting, nil
}
