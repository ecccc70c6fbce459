package helpers

import (
	model "auction-backend/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	SessionCookieName = "auction_session"
	SessionKeyUserID  = "user_id"

	// ContextIdentityKey holds the model.Identity of a logged-in caller
	ContextIdentityKey = "auth.identity"
)

// CurrentIdentity returns the identity stored by the login middleware
func CurrentIdentity(c *gin.Context) (model.Identity, bool) {
	v, ok := c.Get(ContextIdentityKey)
	if !ok {
		return model.Identity{}, false
	}
	identity, ok := v.(model.Identity)
	return identity, ok && identity.UserID != ""
}
