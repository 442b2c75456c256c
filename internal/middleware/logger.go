package middleware

import (
	"log"
	"net/http"
	"runtime/debug"
	"time"

	"authservice/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequestLogger writes one line per request and turns panics into a JSON
// 500 so no handler failure ever produces an empty reply.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Printf("panic method=%s path=%s client_ip=%s err=%v stack=%s",
					c.Request.Method, c.Request.URL.Path, c.ClientIP(), recovered, debug.Stack())
				response.Error(c, http.StatusInternalServerError, "server_error", "")
				c.Abort()
				return
			}
			log.Printf("request method=%s path=%s status=%d client_ip=%s latency=%s",
				c.Request.Method, c.Request.URL.Path, c.Writer.Status(), c.ClientIP(), time.Since(start))
		}()

		c.Next()
	}
}
