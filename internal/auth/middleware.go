package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const bearerPrefix = "Bearer "

// GinMiddleware resolves the Authorization header into a verified handle
// stored in the request context under contextKey.
func (issuer *TokenIssuer) GinMiddleware(contextKey string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			abortUnauthorized(ctx, "missing bearer token")
			return
		}
		handle, err := issuer.Parse(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			abortUnauthorized(ctx, "invalid token")
			return
		}
		ctx.Set(contextKey, handle)
		ctx.Next()
	}
}

func abortUnauthorized(ctx *gin.Context, message string) {
	ctx.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error": gin.H{
			"code":    "unauthorized",
			"message": message,
		},
	})
}
