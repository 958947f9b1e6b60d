package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quocanhngo/gotalk-relay/internal/model"
)

var statusByKind = map[model.ErrorKind]int{
	model.KindValidation:    http.StatusBadRequest,
	model.KindConfiguration: http.StatusInternalServerError,
	model.KindNotFound:      http.StatusNotFound,
	model.KindInvalidToken:  http.StatusGone,
	model.KindDelivery:      http.StatusInternalServerError,
}

// respondError is the only place service errors become HTTP status codes
func respondError(c *gin.Context, err error) {
	var appErr *model.AppError
	if errors.As(err, &appErr) {
		status, ok := statusByKind[appErr.Kind]
		if !ok {
			status = http.StatusInternalServerError
		}
		c.JSON(status, model.ErrorResponse{Error: appErr.Message, Details: appErr.Details})
		return
	}

	log.Printf("❌ Unhandled error on %s %s: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Internal server error"})
}

// Recovery converts panics into a structured 500 response
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.Printf("❌ Panic on %s %s: %v", c.Request.Method, c.Request.URL.Path, recovered)
		c.AbortWithStatusJSON(http.StatusInternalServerError, model.ErrorResponse{Error: "Internal server error"})
	})
}
