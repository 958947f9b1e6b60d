package repository

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/db"
	"github.com/quocanhngo/gotalk-relay/internal/model"
)

// FirebaseUserRepository reads user records from the Firebase Realtime Database
type FirebaseUserRepository struct {
	client *db.Client
	path   string
}

func NewFirebaseUserRepository(client *db.Client, usersPath string) *FirebaseUserRepository {
	return &FirebaseUserRepository{client: client, path: usersPath}
}

func (r *FirebaseUserRepository) ref(userID string) *db.Ref {
	return r.client.NewRef(r.path).Child(userID)
}

// FindByID loads users/<id>; a null node means the user does not exist
func (r *FirebaseUserRepository) FindByID(ctx context.Context, userID string) (*model.UserRecord, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	var rec *model.UserRecord
	if err := r.ref(userID).Get(ctx, &rec); err != nil {
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	if rec == nil {
		return nil, ErrUserNotFound
	}
	rec.UserID = userID
	return rec, nil
}

// ClearFCMToken deletes users/<id>/fcmToken
func (r *FirebaseUserRepository) ClearFCMToken(ctx context.Context, userID string) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	if err := r.ref(userID).Child("fcmToken").Delete(ctx); err != nil {
		return fmt.Errorf("clear fcm token for %s: %w", userID, err)
	}
	return nil
}

// Upsert merges the record fields into users/<id>
func (r *FirebaseUserRepository) Upsert(ctx context.Context, rec *model.UserRecord) error {
	if err := validateUserID(rec.UserID); err != nil {
		return err
	}
	updates := map[string]interface{}{}
	if rec.FCMToken != "" {
		updates["fcmToken"] = rec.FCMToken
	}
	if rec.NotificationsEnabled != nil {
		updates["notificationsEnabled"] = *rec.NotificationsEnabled
	}
	if len(updates) == 0 {
		return nil
	}
	return r.ref(rec.UserID).Update(ctx, updates)
}
