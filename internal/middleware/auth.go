package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/clinicore/patient-registry/internal/authz"
	"github.com/clinicore/patient-registry/internal/model"
	"github.com/clinicore/patient-registry/pkg/auth"
	apperrors "github.com/clinicore/patient-registry/pkg/errors"
	"github.com/clinicore/patient-registry/pkg/httputil"
)

const contextActor = "actor"

type AuthMiddleware struct {
	validator auth.TokenValidator
}

func NewAuthMiddleware(validator auth.TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Authenticate verifies the bearer token and attaches the acting user to
// the request context. Authentication itself (credentials, token
// issuance) lives in the external identity service.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.ErrorResponse("unauthorized", "missing authorization header"))
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.ErrorResponse("unauthorized", "invalid authorization format"))
			return
		}

		actor, err := m.validator.ValidateToken(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.ErrorResponse("unauthorized", "invalid token"))
			return
		}

		c.Set(contextActor, actor)
		c.Next()
	}
}

// Authorize gates the operation against the authorization policy table.
// Every route names its operation; no role checks live in handlers.
func (m *AuthMiddleware) Authorize(op authz.Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httputil.ErrorResponse("unauthorized", "missing actor"))
			return
		}

		if !authz.Allowed(op, actor.Role) {
			// Denied attempts produce no audit entry and no data effect.
			c.AbortWithStatusJSON(http.StatusForbidden, httputil.ErrorResponse(string(apperrors.CodeForbidden), "insufficient role"))
			return
		}

		c.Next()
	}
}

// GetActor returns the authenticated actor, or nil outside an
// authenticated route.
func GetActor(c *gin.Context) *model.Actor {
	if v, ok := c.Get(contextActor); ok {
		if actor, ok := v.(*model.Actor); ok {
			return actor
		}
	}
	return nil
}

// GetOrigin extracts the request origin once, at the transport boundary.
// Services and the audit recorder receive it explicitly and never read
// ambient request state.
func GetOrigin(c *gin.Context) model.RequestOrigin {
	return model.RequestOrigin{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
