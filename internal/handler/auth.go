package handler

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/eventhub/internal/middleware"
	"github.com/iliyamo/eventhub/internal/model"
	"github.com/iliyamo/eventhub/internal/service"
)

// SocialBridgeHeader carries the shared secret of the sign-in bridge that
// completes the provider OAuth dance and forwards the verified identity.
const SocialBridgeHeader = "X-Social-Bridge-Secret"

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth         *service.AuthService
	BridgeSecret string
}

func NewAuthHandler(auth *service.AuthService, bridgeSecret string) *AuthHandler {
	return &AuthHandler{Auth: auth, BridgeSecret: bridgeSecret}
}

// ----- DTOs -----

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"` // user | organizer
}
type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
type socialReq struct {
	Provider string `json:"provider"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	Image    string `json:"image"`
}
type refreshReq struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// UserResponse is the public shape of an account.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Image     string    `json:"image,omitempty"`
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResp struct {
	User    UserResponse `json:"user"`
	Access  tokenPart    `json:"access"`
	Refresh tokenPart    `json:"refresh"`
}

func toUserResponse(u model.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		Image:     u.Image,
		Provider:  u.Provider,
		CreatedAt: u.CreatedAt.UTC(),
	}
}

func toAuthResp(s service.Session) authResp {
	return authResp{
		User:    toUserResponse(s.User),
		Access:  tokenPart{Token: s.Access.Token, Expires: s.Access.Exp},
		Refresh: tokenPart{Token: s.Refresh.Raw, Expires: s.Refresh.Exp}, // raw back to client
	}
}

// Register: create user and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Auth.Register(ctx, service.RegisterInput{
		Name: req.Name, Email: req.Email, Password: req.Password, Role: req.Role,
	})
	if err != nil {
		return fromError(c, err)
	}
	return okMsg(c, http.StatusCreated, toAuthResp(s), "User registered successfully")
}

// Login: verify credentials and return a new pair.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Auth.Authenticate(ctx, service.CredentialsSignIn{Email: req.Email, Password: req.Password})
	if err != nil {
		return fromError(c, err)
	}
	return ok(c, http.StatusOK, toAuthResp(s))
}

// Social: accept an identity verified by the sign-in bridge.  Without a
// configured secret the endpoint is closed.
func (h *AuthHandler) Social(c echo.Context) error {
	got := c.Request().Header.Get(SocialBridgeHeader)
	if h.BridgeSecret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(h.BridgeSecret)) != 1 {
		return fail(c, http.StatusUnauthorized, "invalid bridge secret")
	}
	var req socialReq
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Auth.Authenticate(ctx, service.SocialSignIn{
		Provider: req.Provider, Email: req.Email, Name: req.Name, Image: req.Image,
	})
	if err != nil {
		return fromError(c, err)
	}
	return ok(c, http.StatusOK, toAuthResp(s))
}

// Providers lists the enabled social providers.
func (h *AuthHandler) Providers(c echo.Context) error {
	return ok(c, http.StatusOK, echo.Map{"providers": h.Auth.Providers()})
}

// Refresh: validate by hash, revoke old, issue new.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return fail(c, http.StatusBadRequest, "refreshToken required")
	}
	ctx, cancel := reqCtx(c)
	defer cancel()
	s, err := h.Auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return fromError(c, err)
	}
	return ok(c, http.StatusOK, toAuthResp(s))
}

// Logout revokes the refresh token in the body, or every session of the
// bearer when the body carries none.
func (h *AuthHandler) Logout(c echo.Context) error {
	var req refreshReq
	_ = c.Bind(&req)
	id, _ := middleware.CurrentIdentity(c)

	ctx, cancel := reqCtx(c)
	defer cancel()
	if err := h.Auth.Logout(ctx, id.UserID, req.RefreshToken); err != nil {
		return fromError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the identity carried by the access token.
func (h *AuthHandler) Me(c echo.Context) error {
	id, _ := middleware.CurrentIdentity(c)
	return ok(c, http.StatusOK, echo.Map{
		"id":    id.UserID,
		"email": id.Email,
		"name":  id.Name,
		"role":  id.Role,
	})
}

// User returns a public profile; the email is only shown to its owner and
// to admins.
func (h *AuthHandler) User(c echo.Context) error {
	viewer, _ := middleware.CurrentIdentity(c)
	ctx, cancel := reqCtx(c)
	defer cancel()
	u, err := h.Auth.User(ctx, c.Param("id"))
	if err != nil {
		return fromError(c, err)
	}
	out := toUserResponse(u)
	if viewer.UserID != u.ID && viewer.Role != model.RoleAdmin {
		out.Email = ""
		out.Provider = ""
	}
	return ok(c, http.StatusOK, out)
}
