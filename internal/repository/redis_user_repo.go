package repository

import (
	"context"
	"fmt"
	"strconv"

	"github.com/quocanhngo/gotalk-relay/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	fieldFCMToken             = "fcmToken"
	fieldNotificationsEnabled = "notificationsEnabled"
)

// RedisUserRepository stores user records as hashes under <prefix>:<id>
type RedisUserRepository struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisUserRepository(rdb *redis.Client, prefix string) *RedisUserRepository {
	return &RedisUserRepository{rdb: rdb, prefix: prefix}
}

func (r *RedisUserRepository) key(userID string) string {
	return r.prefix + ":" + userID
}

// FindByID reads the user hash; an empty hash means the user does not exist
func (r *RedisUserRepository) FindByID(ctx context.Context, userID string) (*model.UserRecord, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	fields, err := r.rdb.HGetAll(ctx, r.key(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	if len(fields) == 0 {
		return nil, ErrUserNotFound
	}
	return recordFromHash(userID, fields), nil
}

// ClearFCMToken removes the token field only
func (r *RedisUserRepository) ClearFCMToken(ctx context.Context, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	return r.rdb.HDel(ctx, r.key(userID), fieldFCMToken).Err()
}

func (r *RedisUserRepository) Upsert(ctx context.Context, rec *model.UserRecord) error {
	if err := validateUserID(rec.UserID); err != nil {
		return err
	}
	values := map[string]interface{}{}
	if rec.FCMToken != "" {
		values[fieldFCMToken] = rec.FCMToken
	}
	if rec.NotificationsEnabled != nil {
		values[fieldNotificationsEnabled] = strconv.FormatBool(*rec.NotificationsEnabled)
	}
	if len(values) == 0 {
		return nil
	}
	return r.rdb.HSet(ctx, r.key(rec.UserID), values).Err()
}

func recordFromHash(userID string, fields map[string]string) *model.UserRecord {
	rec := &model.UserRecord{
		UserID:   userID,
		FCMToken: fields[fieldFCMToken],
	}
	if raw, ok := fields[fieldNotificationsEnabled]; ok {
		if enabled, err := strconv.ParseBool(raw); err == nil {
			rec.NotificationsEnabled = &enabled
		}
	}
	return rec
}
