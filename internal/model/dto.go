package model

// ========== Token DTOs ==========

type TokenRequest struct {
	ChannelName string `form:"channelName"`
	UID         string `form:"uid"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	UID       uint32 `json:"uid"`
	ExpiresAt int64  `json:"expiresAt"`
}

// ========== Notification DTOs ==========

type SendNotificationRequest struct {
	ReceiverID     string `json:"receiverId"`
	SenderName     string `json:"senderName"`
	MessagePreview string `json:"messagePreview"`
	MessageID      string `json:"messageId,omitempty"`
}

type BatchNotificationRequest struct {
	ReceiverIDs    []string `json:"receiverIds"`
	SenderName     string   `json:"senderName"`
	MessagePreview string   `json:"messagePreview"`
	MessageID      string   `json:"messageId,omitempty"`
}

type TokenNotificationRequest struct {
	Token   string `form:"token"`
	Message string `form:"message"`
}

// SingleResult is the outcome of a single-recipient dispatch
type SingleResult struct {
	MessageID string
}

// BatchResult is the aggregate outcome of a multicast dispatch
type BatchResult struct {
	SuccessCount int
	FailureCount int
}

type SendNotificationResponse struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

type BatchNotificationResponse struct {
	Success      bool `json:"success"`
	SuccessCount int  `json:"successCount"`
	FailureCount int  `json:"failureCount"`
}

// ========== Common ==========

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
