package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quocanhngo/gotalk-relay/internal/model"
)

// Dispatcher forwards notifications to recipients' devices
type Dispatcher interface {
	NotifyOne(ctx context.Context, req model.SendNotificationRequest) (*model.SingleResult, error)
	NotifyMany(ctx context.Context, req model.BatchNotificationRequest) (*model.BatchResult, error)
	NotifyToken(ctx context.Context, token, message string) (*model.SingleResult, error)
}

// NotificationHandler handles push notification endpoints
type NotificationHandler struct {
	dispatcher Dispatcher
}

func NewNotificationHandler(dispatcher Dispatcher) *NotificationHandler {
	return &NotificationHandler{dispatcher: dispatcher}
}

// SendNotification godoc
// @Summary Send a message notification to one user
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.SendNotificationRequest true "Notification"
// @Success 200 {object} model.SendNotificationResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 410 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /send-notification [post]
func (h *NotificationHandler) SendNotification(c *gin.Context) {
	var req model.SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Details: err.Error()})
		return
	}

	res, err := h.dispatcher.NotifyOne(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SendNotificationResponse{Success: true, MessageID: res.MessageID})
}

// SendBatchNotification godoc
// @Summary Send one message notification to many users
// @Description Receivers without a registered device are skipped. Partial delivery failures are reported in failureCount.
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body model.BatchNotificationRequest true "Batch notification"
// @Success 200 {object} model.BatchNotificationResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /send-notification-batch [post]
func (h *NotificationHandler) SendBatchNotification(c *gin.Context) {
	var req model.BatchNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Details: err.Error()})
		return
	}

	res, err := h.dispatcher.NotifyMany(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.BatchNotificationResponse{
		Success:      true,
		SuccessCount: res.SuccessCount,
		FailureCount: res.FailureCount,
	})
}

// SendNotificationByToken godoc
// @Summary Send a notification directly to a device token
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Param token query string true "FCM device token"
// @Param message query string true "Notification body"
// @Success 200 {object} model.SendNotificationResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /send-notification-by-token [get]
func (h *NotificationHandler) SendNotificationByToken(c *gin.Context) {
	var req model.TokenNotificationRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Details: err.Error()})
		return
	}

	res, err := h.dispatcher.NotifyToken(c.Request.Context(), req.Token, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, model.SendNotificationResponse{Success: true, MessageID: res.MessageID})
}
