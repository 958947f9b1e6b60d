package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quocanhngo/gotalk-relay/internal/model"
)

// TokenIssuer signs RTC channel tokens
type TokenIssuer interface {
	IssueToken(channelName string, uid uint32) (*model.TokenResponse, error)
}

// TokenHandler serves RTC channel tokens
type TokenHandler struct {
	issuer TokenIssuer
}

func NewTokenHandler(issuer TokenIssuer) *TokenHandler {
	return &TokenHandler{issuer: issuer}
}

// GetToken godoc
// @Summary Issue an RTC publisher token
// @Description Returns a token valid for one hour for joining channelName as a publisher. uid defaults to 0.
// @Tags Token
// @Produce json
// @Param channelName query string true "Channel name"
// @Param uid query int false "Numeric user id (0 = assigned on join)"
// @Success 200 {object} model.TokenResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /token [get]
func (h *TokenHandler) GetToken(c *gin.Context) {
	var req model.TokenRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Details: err.Error()})
		return
	}

	uid, err := parseUID(req.UID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.issuer.IssueToken(req.ChannelName, uid)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func parseUID(raw string) (uint32, error) {
	if raw == "" {
		return 0, nil
	}
	uid, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, model.NewValidationError("uid must be a non-negative integer")
	}
	return uint32(uid), nil
}
