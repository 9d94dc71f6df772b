package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/neurobridge-bff/internal/platform/apierr"
	"github.com/yungbote/neurobridge-bff/internal/upstream"
)

const InternalErrorMessage = "Internal server error"

// StatusFor maps a handler error to the status and message sent to the client.
// Upstream failures that carry an HTTP status are mirrored; everything else
// without an explicit status is a 500.
func StatusFor(err error) (int, string) {
	if ae, ok := apierr.As(err); ok && ae.Status > 0 {
		return ae.Status, ae.Error()
	}
	if ue, ok := upstream.AsError(err); ok && ue.HasStatus() {
		return ue.StatusCode, ue.ClientMessage()
	}
	return http.StatusInternalServerError, InternalErrorMessage
}

func RespondErr(c *gin.Context, err error) {
	status, msg := StatusFor(err)
	RespondError(c, status, msg)
}
