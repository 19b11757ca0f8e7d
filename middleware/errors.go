package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/photocard-archive/api-go/config"
	"github.com/photocard-archive/api-go/utils"
)

// ErrorHandler renders the last error a handler attached with c.Error.
// Operational errors keep their message; anything else becomes a generic
// 500. The raw error is only echoed in development.
func ErrorHandler(cfg *config.AppConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		status := http.StatusInternalServerError
		body := gin.H{"success": false, "message": "Something went wrong!"}
		if appErr, ok := utils.AsAppError(err); ok && appErr.Kind != utils.KindInternal {
			status = appErr.Status()
			body["message"] = appErr.Message
			if appErr.Details != nil {
				body["details"] = appErr.Details
			}
		} else {
			log.Printf("ERROR %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
			if appErr, ok := utils.AsAppError(err); ok && appErr.Message != "" {
				body["message"] = appErr.Message
			}
		}

		if cfg.IsDevelopment() {
			body["error"] = err.Error()
		}
		c.JSON(status, body)
	}
}
