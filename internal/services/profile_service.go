package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"ticket-marketplace/internal/store"
	"ticket-marketplace/models"
)

// ProfileService reads profiles with a best-effort Redis snapshot cache
// in front of the authoritative store. The snapshot only smooths over a
// slow or briefly unavailable store read; it is never written back.
type ProfileService struct {
	Redis *redis.Client
	store store.Store
	ttl   time.Duration
}

func NewProfileService(redisClient *redis.Client, st store.Store, ttl time.Duration) *ProfileService {
	return &ProfileService{
		Redis: redisClient,
		store: st,
		ttl:   ttl,
	}
}

// Get returns the authoritative profile and refreshes the snapshot. If
// the store read fails, the last snapshot is served instead.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	profile, err := s.store.Profile(ctx, userID)
	if err != nil {
		if cached := s.Cached(ctx, userID); cached != nil {
			log.Printf("profile %s: store read failed, serving snapshot: %v", userID, err)
			return cached, nil
		}
		return nil, err
	}

	data, merr := json.Marshal(profile)
	if merr == nil {
		s.Redis.Set(ctx, profileCacheKey(userID), data, s.ttl)
	}

	return profile, nil
}

// Cached returns the snapshot, or nil when there is none. A snapshot
// that fails to decode is deleted.
func (s *ProfileService) Cached(ctx context.Context, userID string) *models.Profile {
	data, err := s.Redis.Get(ctx, profileCacheKey(userID)).Result()
	if err != nil {
		return nil
	}

	var profile models.Profile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		s.Redis.Del(ctx, profileCacheKey(userID))
		return nil
	}
	return &profile
}

// ClearCache drops the snapshot, called on logout.
func (s *ProfileService) ClearCache(ctx context.Context, userID string) error {
	return s.Redis.Del(ctx, profileCacheKey(userID)).Err()
}

func profileCacheKey(userID string) string {
	return fmt.Sprintf("profile:cache:%s", userID)
}
