package server

import (
	"context"
	"errors"
	"time"

	"auction-backend/internal/auctionerrors"
	model "auction-backend/internal/models"
	"auction-backend/services/helpers"
	"auction-backend/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// IdentityResolver turns the user ID stored in a session into the caller's identity
type IdentityResolver interface {
	Resolve(ctx context.Context, userID string) (model.Identity, error)
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// RequireLogin rejects requests without a valid session and stores the caller's identity in the context
func RequireLogin(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		userID, _ := session.Get(helpers.SessionKeyUserID).(string)

		identity, err := resolver.Resolve(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, auctionerrors.ErrUnauthenticated) && userID != "" {
				// the account behind this session is gone
				session.Clear()
				_ = session.Save()
			}
			helpers.RespondError(c, "RequireLogin", err, map[string]any{"path": c.Request.URL.Path})
			c.Abort()
			return
		}

		c.Set(helpers.ContextIdentityKey, identity)
		c.Next()
	}
}
