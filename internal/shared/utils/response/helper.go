package response

import "github.com/gin-gonic/gin"

// ContextKeyRequestID is where the request logger stashes the per-request ID.
const ContextKeyRequestID = "request_id"

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, Envelope{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
		RequestID:  c.GetString(ContextKeyRequestID),
	})
}
