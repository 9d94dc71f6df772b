package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-bff/internal/http/response"
	"github.com/yungbote/neurobridge-bff/internal/platform/ctxutil"
	"github.com/yungbote/neurobridge-bff/internal/platform/logger"
)

// Recovery turns a handler panic into the generic 500 body.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(nil, func(c *gin.Context, recovered any) {
		if log != nil {
			fields := append([]interface{}{"panic", fmt.Sprint(recovered), "path", c.Request.URL.Path},
				ctxutil.LogFields(c.Request.Context())...)
			log.Error("handler panic", fields...)
		}
		response.RespondError(c, http.StatusInternalServerError, response.InternalErrorMessage)
		c.Abort()
	})
}
