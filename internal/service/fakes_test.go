package service

import (
	"context"
	"sync"

	"firebase.google.com/go/v4/messaging"
	"github.com/quocanhngo/gotalk-relay/internal/model"
	"github.com/quocanhngo/gotalk-relay/internal/repository"
)

// =============================================================================
// FAKE DIRECTORY
// =============================================================================

type fakeDirectory struct {
	mu      sync.Mutex
	users   map[string]*model.UserRecord
	findErr map[string]error

	lookups    []string
	clearCalls []string
}

func newFakeDirectory(users ...*model.UserRecord) *fakeDirectory {
	d := &fakeDirectory{
		users:   make(map[string]*model.UserRecord),
		findErr: make(map[string]error),
	}
	for _, u := range users {
		d.users[u.UserID] = u
	}
	return d
}

func (d *fakeDirectory) FindByID(ctx context.Context, userID string) (*model.UserRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lookups = append(d.lookups, userID)
	if err, ok := d.findErr[userID]; ok {
		return nil, err
	}
	u, ok := d.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (d *fakeDirectory) ClearFCMToken(ctx context.Context, userID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clearCalls = append(d.clearCalls, userID)
	if u, ok := d.users[userID]; ok {
		u.FCMToken = ""
	}
	return nil
}

// =============================================================================
// FAKE PUSH SENDER
// =============================================================================

type fakeSender struct {
	sendFn      func(ctx context.Context, msg *messaging.Message) (string, error)
	multicastFn func(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error)

	sent       []*messaging.Message
	multicasts []*messaging.MulticastMessage
}

func (f *fakeSender) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	f.sent = append(f.sent, msg)
	if f.sendFn != nil {
		return f.sendFn(ctx, msg)
	}
	return "projects/gotalk/messages/1", nil
}

func (f *fakeSender) SendMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.multicasts = append(f.multicasts, msg)
	if f.multicastFn != nil {
		return f.multicastFn(ctx, msg)
	}
	return &messaging.BatchResponse{SuccessCount: len(msg.Tokens)}, nil
}

func enabled(v bool) *bool {
	return &v
}

func user(id, token string, notificationsOn bool) *model.UserRecord {
	return &model.UserRecord{UserID: id, FCMToken: token, NotificationsEnabled: enabled(notificationsOn)}
}
