package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"voter-canvass-backend/internal/config"
	"voter-canvass-backend/internal/logger"
	"voter-canvass-backend/internal/model"
	apperrors "voter-canvass-backend/pkg/errors"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	sessionKeyPrefix  = "import:session:"
	consumedKeyPrefix = "import:consumed:"
	lockKeyPrefix     = "import:lock:"
	uploadsZSet       = "import:uploads"
)

// Store keeps uploaded-but-not-yet-committed import sessions in Redis.
// Expiry is the key TTL; consume is a GETDEL so at most one commit ever
// succeeds per session.
type Store struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
	log     zerolog.Logger
}

func NewStore(redisClient *RedisClient, cfg *config.Config) *Store {
	return &Store{
		client:  redisClient.Client(),
		ttl:     cfg.Import.SessionTTL,
		lockTTL: cfg.Import.CommitTimeout,
		log:     logger.Get(),
	}
}

func (s *Store) Create(ctx context.Context, meta model.SessionMeta) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	meta.CreatedAt = time.Now().UTC()

	data, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := s.client.Set(ctx, sessionKeyPrefix+meta.ID, data, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	// Register the backing object so the janitor can clean it up if the
	// session expires uncommitted.
	deadline := float64(meta.CreatedAt.Add(s.ttl).Unix())
	if err := s.client.ZAdd(ctx, uploadsZSet, &redis.Z{
		Score:  deadline,
		Member: meta.ID + "|" + meta.ObjectKey,
	}).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", meta.ID).Msg("Failed to register upload for cleanup")
	}

	return meta.ID, nil
}

func (s *Store) Get(ctx context.Context, id string) (*model.SessionMeta, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, s.missing(ctx, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	var meta model.SessionMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &meta, nil
}

// Acquire takes the per-session commit lock so two racing commits cannot
// both write. The lock expires with the commit timeout, so a crashed commit
// does not wedge the session forever.
func (s *Store) Acquire(ctx context.Context, id string) error {
	ok, err := s.client.SetNX(ctx, lockKeyPrefix+id, 1, s.lockTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to acquire commit lock: %w", err)
	}
	if !ok {
		return apperrors.ErrSessionConsumed
	}
	return nil
}

func (s *Store) Release(ctx context.Context, id string) {
	if err := s.client.Del(ctx, lockKeyPrefix+id).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", id).Msg("Failed to release commit lock")
	}
}

// Consume atomically removes the session. The consumed marker outlives the
// session key so a late retry gets "already consumed" instead of "not found".
func (s *Store) Consume(ctx context.Context, id string) error {
	if _, err := s.client.GetDel(ctx, sessionKeyPrefix+id).Result(); err != nil {
		if err == redis.Nil {
			return s.missing(ctx, id)
		}
		return fmt.Errorf("failed to consume session: %w", err)
	}

	if err := s.client.Set(ctx, consumedKeyPrefix+id, 1, s.ttl).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", id).Msg("Failed to set consumed marker")
	}
	return nil
}

// Deregister removes the janitor entry once the backing object is gone.
func (s *Store) Deregister(ctx context.Context, id, objectKey string) {
	if err := s.client.ZRem(ctx, uploadsZSet, id+"|"+objectKey).Err(); err != nil {
		s.log.Warn().Err(err).Str("session_id", id).Msg("Failed to deregister upload")
	}
}

// ExpiredUploads returns janitor entries whose deadline has passed and whose
// session no longer exists. Each entry is "sessionID|objectKey".
func (s *Store) ExpiredUploads(ctx context.Context, now time.Time) ([]string, error) {
	members, err := s.client.ZRangeByScore(ctx, uploadsZSet, &redis.ZRangeBy{
		Min: "-inf",
		Max: fmt.Sprintf("%d", now.Unix()),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list expired uploads: %w", err)
	}
	return members, nil
}

func (s *Store) missing(ctx context.Context, id string) error {
	consumed, err := s.client.Exists(ctx, consumedKeyPrefix+id).Result()
	if err == nil && consumed > 0 {
		return apperrors.ErrSessionConsumed
	}
	return apperrors.ErrSessionNotFound
}
