package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillsenselab/scribe/util"
)

// Audio uploads dominate this API, so the fallback limit is generous.
const defaultMaxBodySize = 500 * 1024 * 1024

// BodySizeLimit returns middleware that restricts the request body to the
// given size string (e.g. "500MB", "1GB").
func BodySizeLimit(maxSize string) gin.HandlerFunc {
	size := util.ParseSize(maxSize, defaultMaxBodySize)
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, size)
		c.Next()
	}
}
