package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	fallbackFollowersKeyPrefix = "follow:fallback:event:"
	hotEventScoresKey          = "follow:hotevent:scores"
)

// FallbackStore is the local follow counter consulted while the
// authoritative store cannot answer. Each event keeps the set of its
// follower keys so the count is always a distinct-follower count.
type FallbackStore interface {
	CountFollowers(ctx context.Context, eventID int64) (int64, error)
	IsFollower(ctx context.Context, eventID int64, followerKey string) (bool, error)
	AddFollower(ctx context.Context, eventID int64, followerKey string) error
	RemoveFollower(ctx context.Context, eventID int64, followerKey string) error
	ReplaceFollowers(ctx context.Context, eventID int64, followerKeys []string) error
	RecordAccess(ctx context.Context, eventID int64) error
	GetTopHotEvents(ctx context.Context, n int64) ([]int64, error)
	ResetHotEventScores(ctx context.Context) error
	Close() error
}

// RedisFallbackStore implements FallbackStore backed by Redis.
type RedisFallbackStore struct {
	client *redis.Client
}

// NewRedisFallbackStore creates a new Redis-backed fallback store.
func NewRedisFallbackStore(address, password string, db int) (*RedisFallbackStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisFallbackStore{client: client}, nil
}

func followersKey(eventID int64) string {
	return fallbackFollowersKeyPrefix + strconv.FormatInt(eventID, 10)
}

// CountFollowers returns the number of distinct follower keys recorded for
// eventID. An unknown event counts zero.
func (s *RedisFallbackStore) CountFollowers(ctx context.Context, eventID int64) (int64, error) {
	n, err := s.client.SCard(ctx, followersKey(eventID)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis count followers: %w", err)
	}
	return n, nil
}

// IsFollower reports whether followerKey is recorded for eventID.
func (s *RedisFallbackStore) IsFollower(ctx context.Context, eventID int64, followerKey string) (bool, error) {
	ok, err := s.client.SIsMember(ctx, followersKey(eventID), followerKey).Result()
	if err != nil {
		return false, fmt.Errorf("redis is follower: %w", err)
	}
	return ok, nil
}

// AddFollower records followerKey for eventID.
func (s *RedisFallbackStore) AddFollower(ctx context.Context, eventID int64, followerKey string) error {
	if err := s.client.SAdd(ctx, followersKey(eventID), followerKey).Err(); err != nil {
		return fmt.Errorf("redis add follower: %w", err)
	}
	return nil
}

// RemoveFollower forgets followerKey for eventID.
func (s *RedisFallbackStore) RemoveFollower(ctx context.Context, eventID int64, followerKey string) error {
	if err := s.client.SRem(ctx, followersKey(eventID), followerKey).Err(); err != nil {
		return fmt.Errorf("redis remove follower: %w", err)
	}
	return nil
}

// ReplaceFollowers atomically swaps the recorded follower set of eventID.
func (s *RedisFallbackStore) ReplaceFollowers(ctx context.Context, eventID int64, followerKeys []string) error {
	key := followersKey(eventID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(followerKeys) > 0 {
			members := make([]interface{}, len(followerKeys))
			for i, k := range followerKeys {
				members[i] = k
			}
			pipe.SAdd(ctx, key, members...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis replace followers: %w", err)
	}
	return nil
}

// RecordAccess increments the access score of eventID in the hot event sorted set.
func (s *RedisFallbackStore) RecordAccess(ctx context.Context, eventID int64) error {
	err := s.client.ZIncrBy(ctx, hotEventScoresKey, 1, strconv.FormatInt(eventID, 10)).Err()
	if err != nil {
		return fmt.Errorf("redis record access: %w", err)
	}
	return nil
}

// GetTopHotEvents returns the top-n most accessed event ids.
func (s *RedisFallbackStore) GetTopHotEvents(ctx context.Context, n int64) ([]int64, error) {
	members, err := s.client.ZRevRange(ctx, hotEventScoresKey, 0, n-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get top hot events: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// ResetHotEventScores deletes the hot event sorted set.
func (s *RedisFallbackStore) ResetHotEventScores(ctx context.Context) error {
	if err := s.client.Del(ctx, hotEventScoresKey).Err(); err != nil {
		return fmt.Errorf("redis reset hot event scores: %w", err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisFallbackStore) Close() error {
	return s.client.Close()
}

// Ensure interface is satisfied at compile time.
var _ FallbackStore = (*RedisFallbackStore)(nil)
