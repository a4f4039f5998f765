package middleware

import (
	"net/http"
	"strings"

	"kantinku-be/internal/order"
	"kantinku-be/internal/user"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// RequireAuth validates the bearer token and stores the decoded actor on the
// request. Identity itself comes from the external provider; this only
// decodes what it issued.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c.Request)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		claims, err := user.ParseJWT(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		actor := order.Actor{
			ID:          claims.UserID,
			Role:        order.ActorRole(strings.ToUpper(claims.Role)),
			CafeteriaID: claims.CafeteriaID,
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the authenticated actor, or false when the request was
// not authenticated.
func ActorFrom(c *gin.Context) (order.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return order.Actor{}, false
	}
	actor, ok := v.(order.Actor)
	return actor, ok
}

func extractToken(r *http.Request) string {
	// Cookie first, Authorization header as fallback.
	if cookie, err := r.Cookie("access_token"); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}

	return ""
}
