package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/quocanhngo/gotalk-relay/internal/model"
)

var (
	// ErrUserNotFound is returned when the directory has no record for the id
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidUserID is returned for ids that cannot be used as a directory key
	ErrInvalidUserID = errors.New("invalid user id")
)

// UserDirectory resolves user ids to push-notification records
type UserDirectory interface {
	FindByID(ctx context.Context, userID string) (*model.UserRecord, error)
	// ClearFCMToken removes the stored device token, leaving the rest of the record intact
	ClearFCMToken(ctx context.Context, userID string) error
}

// UserWriter is implemented by directories that can be seeded
type UserWriter interface {
	Upsert(ctx context.Context, rec *model.UserRecord) error
}

// Realtime Database keys may not contain these characters; the other drivers share the rule
// so ids behave the same whatever backend is configured.
const forbiddenKeyChars = ".#$[]/"

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" || strings.ContainsAny(userID, forbiddenKeyChars) {
		return ErrInvalidUserID
	}
	return nil
}
