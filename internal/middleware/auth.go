package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/asadi-yousef/personal-trainer-app-sub001/internal/model"
	"github.com/asadi-yousef/personal-trainer-app-sub001/pkg/auth"
)

const ContextActor = "actor"

type AuthMiddleware struct {
	tokens *auth.TokenService
}

func NewAuthMiddleware(tokens *auth.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Authenticate verifies the bearer token and sets the acting party in
// the request context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthorized(c, "invalid authorization format")
			return
		}

		claims, err := m.tokens.ValidateToken(parts[1])
		if err != nil {
			abortUnauthorized(c, "invalid token")
			return
		}

		c.Set(ContextActor, model.Actor{ID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

// RequireRole restricts a route to callers holding the given role.
// Must run after Authenticate.
func (m *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok || actor.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error": gin.H{
					"code":    http.StatusForbidden,
					"message": "insufficient role",
				},
			})
			return
		}
		c.Next()
	}
}

// ActorFromContext returns the authenticated party set by Authenticate.
func ActorFromContext(c *gin.Context) (model.Actor, bool) {
	v, exists := c.Get(ContextActor)
	if !exists {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    http.StatusUnauthorized,
			"message": msg,
		},
	})
}
