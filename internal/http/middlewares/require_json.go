package middlewares

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireJSON rejects write requests whose body is not JSON. PATCH also accepts
// application/merge-patch+json since updates are partial.
func RequireJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
			// allow "application/json; charset=utf-8"
			mediaType, _, err := mime.ParseMediaType(c.GetHeader("Content-Type"))
			if err != nil || !acceptedMediaType(c.Request.Method, mediaType) {
				abortError(c, http.StatusUnsupportedMediaType, "unsupported_media_type", "Content-Type must be application/json")
				return
			}
		}
		c.Next()
	}
}

func acceptedMediaType(method, mediaType string) bool {
	switch mediaType {
	case "application/json":
		return true
	case "application/merge-patch+json":
		return method == http.MethodPatch
	}
	return false
}
