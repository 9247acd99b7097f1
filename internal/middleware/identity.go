package middleware

// identity.go holds the context keys JWTAuth writes and the accessors
// handlers and other middleware use to read them back.

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventhub/internal/utils"
)

// Context keys populated by JWTAuth.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
	CtxEmail  = "email"
	CtxName   = "name"
)

// CurrentIdentity returns the authenticated identity, or ok=false when the
// request carried no valid token.
func CurrentIdentity(c echo.Context) (utils.Identity, bool) {
	uid, _ := c.Get(CtxUserID).(string)
	if uid == "" {
		return utils.Identity{}, false
	}
	role, _ := c.Get(CtxRole).(string)
	email, _ := c.Get(CtxEmail).(string)
	name, _ := c.Get(CtxName).(string)
	return utils.Identity{UserID: uid, Email: email, Name: name, Role: role}, true
}

// currentUserID returns the user id for keying, or "anon".
func currentUserID(c echo.Context) string {
	if s, ok := c.Get(CtxUserID).(string); ok && s != "" {
		return s
	}
	return "anon"
}

func setIdentity(c echo.Context, id utils.Identity) {
	c.Set(CtxUserID, id.UserID)
	c.Set(CtxRole, id.Role)
	c.Set(CtxEmail, id.Email)
	c.Set(CtxName, id.Name)
}
