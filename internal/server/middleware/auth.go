package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/model-selector/internal/core/domain"
)

// AdminAuth guards registry maintenance routes with static bearer keys.
// With no keys configured every request passes.
func AdminAuth(keys []string) gin.HandlerFunc {
	hashes := make([][32]byte, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			hashes = append(hashes, sha256.Sum256([]byte(k)))
		}
	}

	return func(c *gin.Context) {
		if len(hashes) == 0 {
			c.Next()
			return
		}

		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || token == "" {
			abort(c, domain.New(http.StatusUnauthorized, "Unauthorized", "Missing or malformed Authorization header"))
			return
		}

		sum := sha256.Sum256([]byte(token))
		for _, h := range hashes {
			if subtle.ConstantTimeCompare(sum[:], h[:]) == 1 {
				c.Next()
				return
			}
		}
		abort(c, domain.New(http.StatusUnauthorized, "Unauthorized", "Invalid API key"))
	}
}

func abort(c *gin.Context, p *domain.Problem) {
	c.Header("Content-Type", "application/problem+json")
	c.AbortWithStatusJSON(p.Status, p)
}
