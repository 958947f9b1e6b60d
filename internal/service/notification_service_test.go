package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/quocanhngo/gotalk-relay/internal/config"
	"github.com/quocanhngo/gotalk-relay/internal/model"
	"github.com/quocanhngo/gotalk-relay/pkg/notification"
)

var defaultNotifyConfig = config.NotifyConfig{
	RequireOptIn:      true,
	PayloadStyle:      config.PayloadMobile,
	LookupConcurrency: 4,
}

func newTestNotificationService(dir *fakeDirectory, sender *fakeSender, cfg config.NotifyConfig) *NotificationService {
	svc := NewNotificationService(dir, sender, cfg)
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc
}

// =============================================================================
// NOTIFY ONE
// =============================================================================

func TestNotifyOne_Success(t *testing.T) {
	dir := newFakeDirectory(user("u1", "tok1", true))
	sender := &fakeSender{}
	svc := newTestNotificationService(dir, sender, defaultNotifyConfig)

	res, err := svc.NotifyOne(context.Background(), model.SendNotificationRequest{
		ReceiverID:     "u1",
		SenderName:     "Bob",
		MessagePreview: "hi",
		MessageID:      "m1",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if res.MessageID == "" {
		t.Error("expected a delivery id")
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}

	msg := sender.sent[0]
	if msg.Token != "tok1" {
		t.Errorf("token = %q, want tok1", msg.Token)
	}
	if msg.Notification.Title != "Bob" || msg.Notification.Body != "hi" {
		t.Errorf("notification = %+v", msg.Notification)
	}
	if msg.Data["messageId"] != "m1" || msg.Data["senderName"] != "Bob" {
		t.Errorf("data = %v", msg.Data)
	}
	if msg.Data["timestamp"] != "2026-01-02T03:04:05Z" {
		t.Errorf("timestamp = %q", msg.Data["timestamp"])
	}
}

func TestNotifyOne_Validation(t *testing.T) {
	svc := newTestNotificationService(newFakeDirectory(), &fakeSender{}, defaultNotifyConfig)

	for _, req := range []model.SendNotificationRequest{
		{MessagePreview: "hi"},
		{ReceiverID: "u1"},
		{ReceiverID: "  ", MessagePreview: "hi"},
	} {
		_, err := svc.NotifyOne(context.Background(), req)
		if model.KindOf(err) != model.KindValidation {
			t.Errorf("req %+v: kind = %q, want validation", req, model.KindOf(err))
		}
	}
}

func TestNotifyOne_UserNotFound(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestNotificationService(newFakeDirectory(), sender, defaultNotifyConfig)

	_, err := svc.NotifyOne(context.Background(), model.SendNotificationRequest{ReceiverID: "u1", SenderName: "Bob", MessagePreview: "hi"})
	if model.KindOf(err) != model.KindNotFound {
		t.Fatalf("kind = %q, want not_found", model.KindOf(err))
	}
	if err.Error() != "User u1 not found" {
		t.Errorf("message = %q", err.Error())
	}
	if len(sender.sent) != 0 {
		t.Error("transport should not be called")
	}
}

func TestNotifyOne_NoToken(t *testing.T) {
	dir := newFakeDirectory(user("u1", "", true))
	sender := &fakeSender{}
	svc := newTestNotificationService(dir, sender, defaultNotifyConfig)

	_, err := svc.NotifyOne(context.Background(), model.SendNotificationRequest{ReceiverID: "u1", MessagePreview: "hi"})
	if model.KindOf(err) != model.KindValidation {
		t.Fatalf("kind = %q, want validation", model.KindOf(err))
	}
	if len(sender.sent) != 0 {
		t.Error("transport should not be called")
	}
}

func TestNotifyOne_WhitespaceTokenCountsAsMissing(t *testing.T) {
	dir := newFakeDirectory(user("u1", "   ", true))
	sender := &fakeSender{}
	svc := newTestNotificationService(dir, sender, defaultNotifyConfig)

	_, err := svc.NotifyOne(context.Background(), model.SendNotificationRequest{ReceiverID: "u1", MessagePreview: "hi"})
	if model.KindOf(err) != model.KindValidation {
		t.Fatalf("kind = %q, want validation", model.KindOf(err))
	}
	if len(sender.sent) != 0 {
		t.Error("transport should not be called")
	}
}

func TestNotifyOne_OptInGate(t *testing.T) {
	disabled := user("u1", "tok1", false)
	absent := &model.UserRecord{UserID: "u2", FCMToken: "tok2"}

	t.Run("gate on", func(t *testing.T) {
		sender := &fakeSender{}
		svc := newTestNotificationService(newFakeDirectory(disabled, absent), sender, defaultNotifyConfig)
		for _, id := range []string{"u1", "u2"} {
			_, err := svc.NotifyOne(context.Background(), model.SendNotificationRequest{ReceiverID: id, MessagePreview: "hi"})
			if model.KindOf(err) != model.KindValidation {
				t.Errorf("%s: kind = %q, want validation", id, model.KindOf(err))
			}
		}
		if len(sender.sent) != 0 {
			t.Error("opted-out users must not be notified")
		}
	})

	t.Run("gate off", func(t *testing.T) {
		cfg := defaultNotifyConfig
		cfg.RequireOptIn = false
		sender := &fakeSender{}
		svc := newTestNotificationService(newFakeDirectory(disabled, absent), sender, cfg)
		for _, id := range []string{"u1", "u2"} {
			if _, err := svc.NotifyOne(context.Background(), model.SendNotificationRequest{ReceiverID: id, MessagePreview: "hi"}); err != nil {
				t.Errorf("%s: expected no error, got: %v", id, err)
			}
		}
		if len(sender.sent) != 2 {
			t.Errorf("sent = %d, want 2", len(sender.sent))
		}
	})
}

func TestNotifyOne_UnregisteredTokenIsPurged(t *testing.T) {
	dir := newFakeDirectory(user("u1", "tok1", true))
	sender := &fakeSender{
		sendFn: func(ctx context.Context, msg *messaging.Message) (string, error) {
			return "", fmt.Errorf("%w: requested entity was not found", notification.ErrUnregisteredToken)
		},
	}
	svc := newTestNotificationService(dir, sender, defaultNotifyConfig)
	req := model.SendNotificationRequest{ReceiverID: "u1", SenderName: "Bob", MessagePreview: "hi"}

	_, err := svc.NotifyOne(context.Background(), req)
	if model.KindOf(err) != model.KindInvalidToken {
		t.Fatalf("kind = %q, want invalid_token", model.KindOf(err))
	}
	if len(dir.clearCalls) != 1 || dir.clearCalls[0] != "u1" {
		t.Errorf("clear calls = %v, want [u1]", dir.clearCalls)
	}

	// The next attempt sees no token on file.
	_, err = svc.NotifyOne(context.Background(), req)
	if model.KindOf(err) != model.KindValidation {
		t.Errorf("second attempt kind = %q, want validation", model.KindOf(err))
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent = %d, want 1", len(sender.sent))
	}
}

func TestNotifyOne_DeliveryError(t *testing.T) {
	dir := newFakeDirectory(user("u1", "tok1", true))
	sender := &fakeSender{
		sendFn: func(ctx context.Context, msg *messaging.Message) (string, error) {
			return "", errors.New("quota exceeded")
		},
	}
	svc := newTestNotificationService(dir, sender, defaultNotifyConfig)

	_, err := svc.NotifyOne(context.Background(), model.SendNotificationRequest{ReceiverID: "u1", MessagePreview: "hi"})
	var appErr *model.AppError
	if !errors.As(err, &appErr) || appErr.Kind != model.KindDelivery {
		t.Fatalf("err = %v, want delivery error", err)
	}
	if appErr.Details != "quota exceeded" {
		t.Errorf("details = %q, want transport message", appErr.Details)
	}
	if len(dir.clearCalls) != 0 {
		t.Error("token must not be cleared on ordinary delivery failure")
	}
}

func TestNotifyOne_WebpushStyle(t *testing.T) {
	cfg := defaultNotifyConfig
	cfg.PayloadStyle = config.PayloadWebpush
	cfg.DeepLinkBase = "https://app.gotalk.local/messages/"
	sender := &fakeSender{}
	svc := newTestNotificationService(newFakeDirectory(user("u1", "tok1", true)), sender, cfg)

	if _, err := svc.NotifyOne(context.Background(), model.SendNotificationRequest{ReceiverID: "u1", SenderName: "Bob", MessagePreview: "hi", MessageID: "m9"}); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	msg := sender.sent[0]
	if msg.Notification.Title != "New Message" {
		t.Errorf("title = %q, want New Message", msg.Notification.Title)
	}
	if msg.Webpush == nil || msg.Webpush.FCMOptions == nil || msg.Webpush.FCMOptions.Link != "https://app.gotalk.local/messages/m9" {
		t.Errorf("webpush = %+v", msg.Webpush)
	}
}

func TestNotifyOne_NotConfigured(t *testing.T) {
	svc := NewNotificationService(newFakeDirectory(), nil, defaultNotifyConfig)

	_, err := svc.NotifyOne(context.Background(), model.SendNotificationRequest{ReceiverID: "u1", MessagePreview: "hi"})
	if model.KindOf(err) != model.KindConfiguration {
		t.Errorf("kind = %q, want configuration", model.KindOf(err))
	}
}

// =============================================================================
// NOTIFY MANY
// =============================================================================

func TestNotifyMany_SkipsReceiversWithoutToken(t *testing.T) {
	dir := newFakeDirectory(user("A", "tokA", true), user("B", "", true), user("C", "tokC", true))
	sender := &fakeSender{}
	svc := newTestNotificationService(dir, sender, defaultNotifyConfig)

	res, err := svc.NotifyMany(context.Background(), model.BatchNotificationRequest{
		ReceiverIDs:    []string{"A", "B", "C"},
		SenderName:     "Bob",
		MessagePreview: "hi",
	})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(sender.multicasts) != 1 {
		t.Fatalf("multicasts = %d, want 1", len(sender.multicasts))
	}

	got := append([]string(nil), sender.multicasts[0].Tokens...)
	sort.Strings(got)
	if len(got) != 2 || got[0] != "tokA" || got[1] != "tokC" {
		t.Errorf("tokens = %v, want [tokA tokC]", got)
	}
	if res.SuccessCount != 2 || res.FailureCount != 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestNotifyMany_ReportsPartialFailure(t *testing.T) {
	dir := newFakeDirectory(user("u1", "tok1", true), user("u2", "tok2", true))
	sender := &fakeSender{
		multicastFn: func(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
			return &messaging.BatchResponse{SuccessCount: 1, FailureCount: 1}, nil
		},
	}
	svc := newTestNotificationService(dir, sender, defaultNotifyConfig)

	res, err := svc.NotifyMany(context.Background(), model.BatchNotificationRequest{ReceiverIDs: []string{"u1", "u2"}, SenderName: "Bob", MessagePreview: "hi"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if res.SuccessCount != 1 || res.FailureCount != 1 {
		t.Errorf("result = %+v, want 1/1", res)
	}
}

func TestNotifyMany_NoTokens(t *testing.T) {
	dir := newFakeDirectory(user("A", "", true))
	sender := &fakeSender{}
	svc := newTestNotificationService(dir, sender, defaultNotifyConfig)

	_, err := svc.NotifyMany(context.Background(), model.BatchNotificationRequest{ReceiverIDs: []string{"A", "missing"}, SenderName: "Bob", MessagePreview: "hi"})
	if model.KindOf(err) != model.KindNotFound {
		t.Fatalf("kind = %q, want not_found", model.KindOf(err))
	}
	if len(sender.multicasts) != 0 {
		t.Error("transport should not be called")
	}
}

func TestNotifyMany_Validation(t *testing.T) {
	svc := newTestNotificationService(newFakeDirectory(), &fakeSender{}, defaultNotifyConfig)

	for _, req := range []model.BatchNotificationRequest{
		{SenderName: "Bob", MessagePreview: "hi"},
		{ReceiverIDs: []string{"u1"}, MessagePreview: "hi"},
	} {
		_, err := svc.NotifyMany(context.Background(), req)
		if model.KindOf(err) != model.KindValidation {
			t.Errorf("req %+v: kind = %q, want validation", req, model.KindOf(err))
		}
	}
}

func TestNotifyMany_DirectoryErrorSkipsReceiver(t *testing.T) {
	dir := newFakeDirectory(user("u1", "tok1", true), user("u2", "tok2", true))
	dir.findErr["u2"] = errors.New("connection reset")
	sender := &fakeSender{}
	svc := newTestNotificationService(dir, sender, defaultNotifyConfig)

	res, err := svc.NotifyMany(context.Background(), model.BatchNotificationRequest{ReceiverIDs: []string{"u1", "u2"}, SenderName: "Bob", MessagePreview: "hi"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if res.SuccessCount != 1 {
		t.Errorf("success = %d, want 1", res.SuccessCount)
	}
}

func TestNotifyMany_DedupesAndChunks(t *testing.T) {
	var users []*model.UserRecord
	var ids []string
	for i := 0; i < 1200; i++ {
		id := fmt.Sprintf("u%d", i)
		users = append(users, user(id, "tok-"+id, true))
		ids = append(ids, id)
	}
	ids = append(ids, "u0", "u1")

	dir := newFakeDirectory(users...)
	sender := &fakeSender{}
	svc := newTestNotificationService(dir, sender, defaultNotifyConfig)

	res, err := svc.NotifyMany(context.Background(), model.BatchNotificationRequest{ReceiverIDs: ids, SenderName: "Bob", MessagePreview: "hi"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(dir.lookups) != 1200 {
		t.Errorf("lookups = %d, want 1200", len(dir.lookups))
	}
	if len(sender.multicasts) != 3 {
		t.Fatalf("multicasts = %d, want 3", len(sender.multicasts))
	}
	for _, m := range sender.multicasts {
		if len(m.Tokens) > notification.MaxMulticastTokens {
			t.Errorf("chunk size = %d, exceeds limit", len(m.Tokens))
		}
	}
	if res.SuccessCount != 1200 {
		t.Errorf("success = %d, want 1200", res.SuccessCount)
	}
}

func TestNotifyMany_DeliveryError(t *testing.T) {
	dir := newFakeDirectory(user("u1", "tok1", true))
	sender := &fakeSender{
		multicastFn: func(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
			return nil, errors.New("unavailable")
		},
	}
	svc := newTestNotificationService(dir, sender, defaultNotifyConfig)

	_, err := svc.NotifyMany(context.Background(), model.BatchNotificationRequest{ReceiverIDs: []string{"u1"}, SenderName: "Bob", MessagePreview: "hi"})
	if model.KindOf(err) != model.KindDelivery {
		t.Errorf("kind = %q, want delivery", model.KindOf(err))
	}
}

func TestNotifyMany_LaterChunkFailureKeepsDeliveredCounts(t *testing.T) {
	users := make([]*model.UserRecord, 0, 700)
	ids := make([]string, 0, 700)
	for i := 0; i < 700; i++ {
		id := fmt.Sprintf("u%d", i)
		users = append(users, user(id, "tok-"+id, true))
		ids = append(ids, id)
	}
	calls := 0
	sender := &fakeSender{
		multicastFn: func(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
			calls++
			if calls == 2 {
				return nil, errors.New("unavailable")
			}
			return &messaging.BatchResponse{SuccessCount: len(msg.Tokens)}, nil
		},
	}
	svc := newTestNotificationService(newFakeDirectory(users...), sender, defaultNotifyConfig)

	res, err := svc.NotifyMany(context.Background(), model.BatchNotificationRequest{ReceiverIDs: ids, SenderName: "Bob", MessagePreview: "hi"})
	if err != nil {
		t.Fatalf("expected partial result, got: %v", err)
	}
	if res.SuccessCount != 500 || res.FailureCount != 200 {
		t.Errorf("counts = %d/%d, want 500/200", res.SuccessCount, res.FailureCount)
	}
}

func TestNotifyMany_WhitespaceTokenSkipped(t *testing.T) {
	dir := newFakeDirectory(user("u1", " ", true), user("u2", "tok2", true))
	sender := &fakeSender{}
	svc := newTestNotificationService(dir, sender, defaultNotifyConfig)

	res, err := svc.NotifyMany(context.Background(), model.BatchNotificationRequest{ReceiverIDs: []string{"u1", "u2"}, SenderName: "Bob", MessagePreview: "hi"})
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if res.SuccessCount != 1 || len(sender.multicasts[0].Tokens) != 1 || sender.multicasts[0].Tokens[0] != "tok2" {
		t.Errorf("tokens = %v", sender.multicasts[0].Tokens)
	}
}

// =============================================================================
// NOTIFY TOKEN
// =============================================================================

func TestNotifyToken(t *testing.T) {
	sender := &fakeSender{}
	svc := newTestNotificationService(newFakeDirectory(), sender, defaultNotifyConfig)

	res, err := svc.NotifyToken(context.Background(), "raw-token", "ping")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if res.MessageID == "" {
		t.Error("expected a delivery id")
	}
	if sender.sent[0].Token != "raw-token" || sender.sent[0].Notification.Body != "ping" {
		t.Errorf("message = %+v", sender.sent[0])
	}

	if _, err := svc.NotifyToken(context.Background(), "", "ping"); model.KindOf(err) != model.KindValidation {
		t.Errorf("missing token: kind = %q, want validation", model.KindOf(err))
	}
}

func TestNotifyToken_WorksWithoutDirectory(t *testing.T) {
	sender := &fakeSender{}
	svc := NewNotificationService(nil, sender, defaultNotifyConfig)

	if _, err := svc.NotifyToken(context.Background(), "raw-token", "ping"); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Errorf("sent = %d, want 1", len(sender.sent))
	}
}

func TestNotifyToken_NoSender(t *testing.T) {
	svc := NewNotificationService(newFakeDirectory(), nil, defaultNotifyConfig)

	_, err := svc.NotifyToken(context.Background(), "raw-token", "ping")
	if model.KindOf(err) != model.KindConfiguration {
		t.Errorf("kind = %q, want configuration", model.KindOf(err))
	}
}

func TestChunkTokens(t *testing.T) {
	chunks := chunkTokens([]string{"a", "b", "c", "d", "e"}, 2)
	if len(chunks) != 3 || len(chunks[2]) != 1 {
		t.Errorf("chunks = %v", chunks)
	}
}
