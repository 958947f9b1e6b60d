package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/quocanhngo/gotalk-relay/internal/config"
	"github.com/quocanhngo/gotalk-relay/internal/model"
	"github.com/quocanhngo/gotalk-relay/internal/repository"
	"github.com/quocanhngo/gotalk-relay/pkg/notification"
	"golang.org/x/sync/errgroup"
)

const (
	defaultTitle               = "New Message"
	defaultLookupConcurrency   = 8
	notificationTypeNewMessage = "new_message"
)

// PushSender delivers messages to the push transport
type PushSender interface {
	Send(ctx context.Context, msg *messaging.Message) (string, error)
	SendMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

// NotificationService resolves recipients through the user directory and
// forwards chat notifications to the push transport
type NotificationService struct {
	directory repository.UserDirectory
	sender    PushSender
	cfg       config.NotifyConfig
	now       func() time.Time
}

func NewNotificationService(directory repository.UserDirectory, sender PushSender, cfg config.NotifyConfig) *NotificationService {
	if cfg.LookupConcurrency <= 0 {
		cfg.LookupConcurrency = defaultLookupConcurrency
	}
	return &NotificationService{
		directory: directory,
		sender:    sender,
		cfg:       cfg,
		now:       time.Now,
	}
}

// ==================== Single recipient ====================

// NotifyOne sends a message notification to one user's registered device
func (s *NotificationService) NotifyOne(ctx context.Context, req model.SendNotificationRequest) (*model.SingleResult, error) {
	if strings.TrimSpace(req.ReceiverID) == "" || strings.TrimSpace(req.MessagePreview) == "" {
		return nil, model.NewValidationError("receiverId and messagePreview are required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	user, err := s.directory.FindByID(ctx, req.ReceiverID)
	if err != nil {
		return nil, lookupError(req.ReceiverID, err)
	}
	if !user.HasToken() {
		return nil, model.NewValidationError(fmt.Sprintf("No FCM token on file for user %s", req.ReceiverID))
	}
	if s.cfg.RequireOptIn && !user.NotificationsAllowed() {
		return nil, model.NewValidationError(fmt.Sprintf("Notifications disabled for user %s", req.ReceiverID))
	}

	msg := notification.BuildMessage(strings.TrimSpace(user.FCMToken), s.payload(req.SenderName, req.MessagePreview, req.MessageID))
	id, err := s.sender.Send(ctx, msg)
	if err != nil {
		if errors.Is(err, notification.ErrUnregisteredToken) {
			if clearErr := s.directory.ClearFCMToken(ctx, user.UserID); clearErr != nil {
				log.Printf("⚠️ Failed to clear stale FCM token for user %s: %v", user.UserID, clearErr)
			} else {
				log.Printf("🧹 Cleared stale FCM token for user %s", user.UserID)
			}
			return nil, model.NewInvalidTokenError("FCM token is no longer valid, client must re-register", err)
		}
		return nil, model.NewDeliveryError("Failed to send notification", err)
	}

	log.Printf("[FCM] Notification %s sent to user %s", id, user.UserID)
	return &model.SingleResult{MessageID: id}, nil
}

// ==================== Batch ====================

// NotifyMany sends one multicast notification to every receiver that has a token on file.
// Receivers without a token, opted out, or missing from the directory are skipped.
func (s *NotificationService) NotifyMany(ctx context.Context, req model.BatchNotificationRequest) (*model.BatchResult, error) {
	if len(req.ReceiverIDs) == 0 || strings.TrimSpace(req.SenderName) == "" {
		return nil, model.NewValidationError("receiverIds must be a non-empty array and senderName is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}

	tokens := s.resolveTokens(ctx, uniqueIDs(req.ReceiverIDs))
	if len(tokens) == 0 {
		return nil, model.NewNotFoundError("No valid FCM tokens found among receivers")
	}

	p := s.payload(req.SenderName, req.MessagePreview, req.MessageID)
	result := &model.BatchResult{}
	var lastErr error
	for _, chunk := range chunkTokens(tokens, notification.MaxMulticastTokens) {
		br, err := s.sender.SendMulticast(ctx, notification.BuildMulticast(chunk, p))
		if err != nil {
			// every token in a rejected chunk counts as a failure
			log.Printf("⚠️ [FCM] Multicast chunk of %d tokens failed: %v", len(chunk), err)
			result.FailureCount += len(chunk)
			lastErr = err
			continue
		}
		result.SuccessCount += br.SuccessCount
		result.FailureCount += br.FailureCount
	}
	if lastErr != nil && result.SuccessCount == 0 {
		return nil, model.NewDeliveryError("Failed to send batch notification", lastErr)
	}
	return result, nil
}

// resolveTokens looks receivers up concurrently. Slot i holds the token for ids[i]
// so no locking is needed; the returned order is not significant.
func (s *NotificationService) resolveTokens(ctx context.Context, ids []string) []string {
	slots := make([]string, len(ids))

	var g errgroup.Group
	g.SetLimit(s.cfg.LookupConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			user, err := s.directory.FindByID(ctx, id)
			if err != nil {
				if !errors.Is(err, repository.ErrUserNotFound) {
					log.Printf("⚠️ [Directory] Lookup failed for %s: %v", id, err)
				}
				return nil
			}
			if !user.HasToken() {
				return nil
			}
			if s.cfg.RequireOptIn && !user.NotificationsAllowed() {
				return nil
			}
			slots[i] = strings.TrimSpace(user.FCMToken)
			return nil
		})
	}
	_ = g.Wait()

	tokens := make([]string, 0, len(slots))
	for _, t := range slots {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// ==================== Raw token ====================

// NotifyToken sends a plain notification straight to a device token
func (s *NotificationService) NotifyToken(ctx context.Context, token, message string) (*model.SingleResult, error) {
	if strings.TrimSpace(token) == "" || strings.TrimSpace(message) == "" {
		return nil, model.NewValidationError("token and message are required")
	}
	// No directory involved, so only the transport has to be up.
	if s.sender == nil {
		return nil, errPushNotConfigured()
	}

	p := notification.Payload{
		Title: defaultTitle,
		Body:  message,
		Style: notification.Style(s.cfg.PayloadStyle),
		Data: map[string]string{
			"type":      notificationTypeNewMessage,
			"timestamp": s.now().UTC().Format(time.RFC3339),
		},
	}
	id, err := s.sender.Send(ctx, notification.BuildMessage(token, p))
	if err != nil {
		return nil, model.NewDeliveryError("Failed to send notification", err)
	}
	return &model.SingleResult{MessageID: id}, nil
}

// ==================== Helpers ====================

func (s *NotificationService) ready() error {
	if s.sender == nil || s.directory == nil {
		return errPushNotConfigured()
	}
	return nil
}

func errPushNotConfigured() error {
	return model.NewConfigurationError("push notifications are not configured")
}

func (s *NotificationService) payload(senderName, preview, messageID string) notification.Payload {
	style := notification.Style(s.cfg.PayloadStyle)

	title := senderName
	if style == notification.StyleWebpush || title == "" {
		title = defaultTitle
	}

	data := map[string]string{
		"type":       notificationTypeNewMessage,
		"senderName": senderName,
		"timestamp":  s.now().UTC().Format(time.RFC3339),
	}
	if messageID != "" {
		data["messageId"] = messageID
	}

	var link string
	if s.cfg.DeepLinkBase != "" && messageID != "" {
		link = strings.TrimRight(s.cfg.DeepLinkBase, "/") + "/" + messageID
		data["link"] = link
	}

	return notification.Payload{
		Title: title,
		Body:  preview,
		Data:  data,
		Style: style,
		Link:  link,
	}
}

func lookupError(userID string, err error) error {
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return model.NewNotFoundError(fmt.Sprintf("User %s not found", userID))
	case errors.Is(err, repository.ErrInvalidUserID):
		return model.NewValidationError("receiverId is not a valid user id")
	default:
		return fmt.Errorf("lookup user %s: %w", userID, err)
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func chunkTokens(tokens []string, size int) [][]string {
	var chunks [][]string
	for size < len(tokens) {
		tokens, chunks = tokens[size:], append(chunks, tokens[:size])
	}
	return append(chunks, tokens)
}
