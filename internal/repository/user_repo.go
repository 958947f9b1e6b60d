package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quocanhngo/gotalk-relay/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UserRepository reads user records from PostgreSQL
type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID finds a user record by id
func (r *UserRepository) FindByID(ctx context.Context, userID string) (*model.UserRecord, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	var row model.UserRecordRow
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return row.ToRecord(), nil
}

// ClearFCMToken sets fcm_token to NULL
func (r *UserRepository) ClearFCMToken(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Model(&model.UserRecordRow{}).
		Where("user_id = ?", userID).
		Update("fcm_token", nil).Error
}

// Upsert inserts a record or updates token and flag on conflict
func (r *UserRepository) Upsert(ctx context.Context, rec *model.UserRecord) error {
	if err := validateUserID(rec.UserID); err != nil {
		return err
	}
	row := model.UserRecordRow{
		UserID:               rec.UserID,
		NotificationsEnabled: rec.NotificationsEnabled,
	}
	if rec.FCMToken != "" {
		token := rec.FCMToken
		row.FCMToken = &token
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"fcm_token":             row.FCMToken,
			"notifications_enabled": row.NotificationsEnabled,
			"updated_at":            time.Now(),
		}),
	}).Create(&row).Error
}
