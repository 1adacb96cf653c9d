package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope used by listing endpoints.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data"`
	Message string      `json:"message,omitempty"`
}

// Success sends a 200 enveloped response.
func Success(c *gin.Context, data interface{}, message string) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// Fail sends an enveloped failure response without data.
func Fail(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"success": false,
		"message": message,
	})
}

// Message sends {"message": message} merged with the extra fields.
// Extra fields never overwrite the message.
func Message(c *gin.Context, statusCode int, message string, extra gin.H) {
	body := make(gin.H, len(extra)+1)
	for k, v := range extra {
		body[k] = v
	}
	body["message"] = message
	c.JSON(statusCode, body)
}

// Error sends {"error": message}.
func Error(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{"error": message})
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, message)
}
