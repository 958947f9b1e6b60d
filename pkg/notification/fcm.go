package notification

import (
	"context"
	"errors"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
)

// MaxMulticastTokens is the FCM limit for a single multicast request
const MaxMulticastTokens = 500

// ErrUnregisteredToken means FCM rejected the device token as no longer valid.
// Callers use errors.Is to decide whether to purge the stored token.
var ErrUnregisteredToken = errors.New("registration token is not registered")

// FCMSender sends push notifications through Firebase Cloud Messaging
type FCMSender struct {
	client *messaging.Client
}

// NewFCMSender creates a sender from an initialized Firebase app
func NewFCMSender(ctx context.Context, app *firebase.App) (*FCMSender, error) {
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}

	log.Println("✅ Firebase FCM initialized")
	return &FCMSender{client: client}, nil
}

// Send delivers a single-token message and returns the FCM message id
func (s *FCMSender) Send(ctx context.Context, msg *messaging.Message) (string, error) {
	id, err := s.client.Send(ctx, msg)
	if err != nil {
		if messaging.IsUnregistered(err) {
			return "", fmt.Errorf("%w: %v", ErrUnregisteredToken, err)
		}
		return "", fmt.Errorf("send message: %w", err)
	}
	return id, nil
}

// SendMulticast fans one message out to msg.Tokens in a single call
func (s *FCMSender) SendMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	br, err := s.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("error sending multicast message: %w", err)
	}

	log.Printf("[FCM] Sent to %d tokens: %d success, %d failure", len(msg.Tokens), br.SuccessCount, br.FailureCount)
	if br.FailureCount > 0 {
		for idx, resp := range br.Responses {
			if !resp.Success {
				log.Printf("⚠️ FCM failure for token %s: %v", shortToken(msg.Tokens[idx]), resp.Error)
			}
		}
	}
	return br, nil
}

func shortToken(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12] + "..."
}
