package response

import "github.com/gin-gonic/gin"

// Body builds the wire error shape shared by every endpoint. The
// description is optional and omitted when empty.
func Body(code, description string) gin.H {
	body := gin.H{"error": code}
	if description != "" {
		body["error_description"] = description
	}
	return body
}

// Error writes an error response with the given status.
func Error(c *gin.Context, statusCode int, code, description string) {
	c.JSON(statusCode, Body(code, description))
}

// OAuthError writes an error response carrying a Bearer challenge in the
// WWW-Authenticate header, as the OAuth2 endpoints answer failures.
func OAuthError(c *gin.Context, statusCode int, code, description string) {
	c.Header("WWW-Authenticate", "Bearer")
	Error(c, statusCode, code, description)
}
