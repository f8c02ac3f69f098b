package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// resetCodePrefix はパスワードリセットコードのRedisキー接頭辞。
const resetCodePrefix = "pwdreset:"

// RedisResetCodeStore はRedisを使用したパスワードリセットコードストア。
type RedisResetCodeStore struct {
	client *redis.Client
}

// NewRedisResetCodeStore はRedisResetCodeStoreを生成する。
func NewRedisResetCodeStore(client *redis.Client) *RedisResetCodeStore {
	return &RedisResetCodeStore{client: client}
}

// Set はコードと対象メールアドレスの対応をTTL付きで保存する。
func (s *RedisResetCodeStore) Set(ctx context.Context, code, email string, ttl time.Duration) error {
	if err := s.client.Set(ctx, resetCodePrefix+code, email, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store reset code: %w", err)
	}
	return nil
}

// Get はコードに対応するメールアドレスを返す。存在しない場合は空文字を返す。
func (s *RedisResetCodeStore) Get(ctx context.Context, code string) (string, error) {
	email, err := s.client.Get(ctx, resetCodePrefix+code).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get reset code: %w", err)
	}
	return email, nil
}

// Delete はコードを削除する。
func (s *RedisResetCodeStore) Delete(ctx context.Context, code string) error {
	if err := s.client.Del(ctx, resetCodePrefix+code).Err(); err != nil {
		return fmt.Errorf("failed to delete reset code: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ResetCodeStore = (*RedisResetCodeStore)(nil)
