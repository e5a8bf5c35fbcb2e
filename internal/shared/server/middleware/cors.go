package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

var (
	corsMethods = []string{http.MethodGet, http.MethodPost, http.MethodOptions}
	// X-Api-Key carries the per-request Anthropic credential.
	corsRequestHeaders = []string{"Content-Type", "X-Api-Key", requestIDHeader}
	// Retry-After comes from the rate limiter, Content-Disposition from exports.
	corsExposedHeaders = []string{requestIDHeader, "Retry-After", "Content-Disposition"}
)

// CORS answers browsers calling the recommendation API from allowedOrigins. A "*" entry
// allows any origin. Preflight requests end here with 204.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	origins := make(map[string]struct{})
	for _, o := range allowedOrigins {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			origins[trimmed] = struct{}{}
		}
	}
	_, allowAll := origins["*"]
	allowed := func(origin string) bool {
		if origin == "" {
			return false
		}
		_, ok := origins[origin]
		return ok || allowAll
	}

	methods := strings.Join(corsMethods, ",")
	requestHeaders := strings.Join(corsRequestHeaders, ", ")
	exposed := strings.Join(corsExposedHeaders, ", ")

	return func(c *gin.Context) {
		if origin := c.GetHeader("Origin"); allowed(origin) {
			h := c.Writer.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", methods)
			h.Set("Access-Control-Allow-Headers", requestHeaders)
			h.Set("Access-Control-Expose-Headers", exposed)
			h.Set("Access-Control-Max-Age", "600")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
