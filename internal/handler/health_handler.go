package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health godoc
// @Summary Liveness probe
// @Tags Health
// @Produce plain
// @Success 200 {string} string "GoTalk relay is running"
// @Router /health [get]
func Health(c *gin.Context) {
	c.String(http.StatusOK, "GoTalk relay is running")
}
