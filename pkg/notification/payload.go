package notification

import "firebase.google.com/go/v4/messaging"

// Style selects platform hints attached to a message
type Style string

const (
	StyleMobile  Style = "mobile"
	StyleWebpush Style = "webpush"
)

const clickAction = "FLUTTER_NOTIFICATION_CLICK"

// Payload is the transport-neutral content of a push notification
type Payload struct {
	Title string
	Body  string
	Data  map[string]string
	Style Style
	// Link is the deep link opened when the notification is tapped
	Link string
}

// BuildMessage targets a single device token
func BuildMessage(token string, p Payload) *messaging.Message {
	msg := &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data: p.Data,
	}
	if p.Style == StyleWebpush {
		msg.Webpush = webpushConfig(p)
	} else {
		msg.Android = androidConfig()
		msg.APNS = apnsConfig()
	}
	return msg
}

// BuildMulticast targets every token in tokens with identical hints
func BuildMulticast(tokens []string, p Payload) *messaging.MulticastMessage {
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: p.Title,
			Body:  p.Body,
		},
		Data:    p.Data,
		Android: androidConfig(),
		APNS:    apnsConfig(),
	}
	// FCM only accepts https links in webpush options, so mobile deep links
	// travel in Data alone.
	if p.Style == StyleWebpush {
		msg.Webpush = webpushConfig(p)
	}
	return msg
}

func androidConfig() *messaging.AndroidConfig {
	return &messaging.AndroidConfig{
		Priority: "high",
		Notification: &messaging.AndroidNotification{
			Sound:       "default",
			ClickAction: clickAction,
		},
	}
}

func apnsConfig() *messaging.APNSConfig {
	return &messaging.APNSConfig{
		Payload: &messaging.APNSPayload{
			Aps: &messaging.Aps{
				Sound: "default",
			},
		},
	}
}

func webpushConfig(p Payload) *messaging.WebpushConfig {
	cfg := &messaging.WebpushConfig{
		Notification: &messaging.WebpushNotification{
			Title: p.Title,
			Body:  p.Body,
			Icon:  "/icon-192.png",
		},
	}
	if p.Link != "" {
		cfg.FCMOptions = &messaging.WebpushFCMOptions{Link: p.Link}
	}
	return cfg
}
