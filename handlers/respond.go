package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quizio/errs"
	"quizio/logger"
)

// respondError maps a service error's code to an HTTP status and a
// {"error": message} body. Internal failures get a generic message and a
// log entry for operators.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch errs.CodeOf(err) {
	case errs.CodeInvalid:
		status = http.StatusBadRequest
	case errs.CodeUnauthorized:
		status = http.StatusUnauthorized
	case errs.CodeNotFound:
		status = http.StatusNotFound
	case errs.CodeConflict:
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logger.L().Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}

	c.JSON(status, gin.H{"error": errs.MessageOf(err, "Something went wrong")})
}

func currentUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := v.(string)
	return id, ok && id != ""
}
