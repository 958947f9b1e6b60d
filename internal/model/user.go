package model

import (
	"strings"
	"time"
)

// UserRecord is the directory entry used to resolve a recipient to a device
type UserRecord struct {
	UserID               string `json:"-"`
	FCMToken             string `json:"fcmToken,omitempty"`
	NotificationsEnabled *bool  `json:"notificationsEnabled,omitempty"`
}

// HasToken reports whether a device push token is on file
func (u *UserRecord) HasToken() bool {
	return u != nil && strings.TrimSpace(u.FCMToken) != ""
}

// NotificationsAllowed treats an absent flag as disabled
func (u *UserRecord) NotificationsAllowed() bool {
	return u != nil && u.NotificationsEnabled != nil && *u.NotificationsEnabled
}

// UserRecordRow is the PostgreSQL representation of a UserRecord
type UserRecordRow struct {
	UserID               string  `gorm:"primaryKey;size:128"`
	FCMToken             *string `gorm:"size:512"`
	NotificationsEnabled *bool   `gorm:"default:null"`
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

func (UserRecordRow) TableName() string {
	return "user_records"
}

// ToRecord converts a database row into a UserRecord
func (r *UserRecordRow) ToRecord() *UserRecord {
	rec := &UserRecord{
		UserID:               r.UserID,
		NotificationsEnabled: r.NotificationsEnabled,
	}
	if r.FCMToken != nil {
		rec.FCMToken = *r.FCMToken
	}
	return rec
}
