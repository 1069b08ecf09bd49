package refreshtokens

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/workly/internal/common"
	"github.com/dmitrijs2005/workly/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisRetention keeps expired records around long enough for a late
// refresh attempt to be told the token expired rather than unknown.
const DefaultRedisRetention = 24 * time.Hour

// RedisRepository stores each token under refresh:<hash> as JSON and keeps
// a per-user index set refresh_user:<user id> for bulk revocation.
// Consume relies on GETDEL for atomicity.
type RedisRepository struct {
	client    redis.Cmdable
	retention time.Duration
}

func NewRedisRepository(client redis.Cmdable, retention time.Duration) *RedisRepository {
	return &RedisRepository{client: client, retention: retention}
}

type redisRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func tokenKey(hash string) string       { return fmt.Sprintf("refresh:%s", hash) }
func userIndexKey(userID string) string { return fmt.Sprintf("refresh_user:%s", userID) }

func (r *RedisRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	data, err := json.Marshal(redisRecord{
		ID:        token.ID,
		UserID:    token.UserID,
		ExpiresAt: token.ExpiresAt,
		CreatedAt: token.CreatedAt,
	})
	if err != nil {
		return common.StorageError("refresh_tokens.create", err)
	}

	ttl := token.ExpiresAt.Sub(token.CreatedAt) + r.retention
	if ttl <= 0 {
		return common.StorageError("refresh_tokens.create", errors.New("non-positive ttl"))
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, tokenKey(token.TokenHash), data, ttl)
		pipe.SAdd(ctx, userIndexKey(token.UserID), token.TokenHash)
		pipe.Expire(ctx, userIndexKey(token.UserID), ttl)
		return nil
	})
	if err != nil {
		return common.StorageError("refresh_tokens.create", err)
	}
	return nil
}

func (r *RedisRepository) Consume(ctx context.Context, tokenHash string) (*models.RefreshToken, error) {
	val, err := r.client.GetDel(ctx, tokenKey(tokenHash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, common.StorageError("refresh_tokens.consume", err)
	}

	var rec redisRecord
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, common.StorageError("refresh_tokens.consume", err)
	}

	if err := r.client.SRem(ctx, userIndexKey(rec.UserID), tokenHash).Err(); err != nil {
		return nil, common.StorageError("refresh_tokens.consume", err)
	}

	return &models.RefreshToken{
		ID:        rec.ID,
		UserID:    rec.UserID,
		TokenHash: tokenHash,
		ExpiresAt: rec.ExpiresAt,
		CreatedAt: rec.CreatedAt,
	}, nil
}

func (r *RedisRepository) Delete(ctx context.Context, tokenHash string) error {
	_, err := r.Consume(ctx, tokenHash)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return err
	}
	return nil
}

func (r *RedisRepository) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	hashes, err := r.client.SMembers(ctx, userIndexKey(userID)).Result()
	if err != nil {
		return 0, common.StorageError("refresh_tokens.delete_all", err)
	}

	keys := make([]string, 0, len(hashes))
	for _, h := range hashes {
		keys = append(keys, tokenKey(h))
	}

	var del *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(keys) > 0 {
			del = pipe.Del(ctx, keys...)
		}
		pipe.Del(ctx, userIndexKey(userID))
		return nil
	})
	if err != nil {
		return 0, common.StorageError("refresh_tokens.delete_all", err)
	}
	if del == nil {
		return 0, nil
	}
	return del.Val(), nil
}
