package auth

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/firstindallas/backend/pkg/response"
)

// Revoker records signed-out tokens.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CookieSettings controls the session cookie.
type CookieSettings struct {
	Name   string
	Secure bool
	MaxAge time.Duration
}

// Handler handles auth HTTP endpoints.
type Handler struct {
	svc      *Service
	revoker  Revoker
	google   IdentityProvider
	states   *StateCookies
	cookie   CookieSettings
	loginURL string
	logger   *zap.Logger
}

// NewHandler creates an auth handler. google may be nil when Google sign-in is not configured.
// loginURL is the hub's sign-in page that OAuth failures are sent back to.
func NewHandler(svc *Service, revoker Revoker, google IdentityProvider, states *StateCookies, cookie CookieSettings, loginURL string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, revoker: revoker, google: google, states: states, cookie: cookie, loginURL: loginURL, logger: logger}
}

func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{Name: h.cookie.Name, Value: "", Path: "/", MaxAge: -1, HttpOnly: true, Secure: h.cookie.Secure})
}

// Signup handles POST /auth/signup.
func (h *Handler) Signup(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	out, err := h.svc.SignUp(c.Request.Context(), req)
	if errors.Is(err, ErrEmailTaken) {
		response.Conflict(c, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("signup failed", zap.Error(err))
		response.Internal(c, "failed to create account")
		return
	}
	h.setSessionCookie(c, out.Token)
	response.Created(c, out)
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	out, err := h.svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, ErrInvalidCredentials) {
		response.Unauthorized(c, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		response.Internal(c, "failed to sign in")
		return
	}
	h.setSessionCookie(c, out.Token)
	response.OK(c, out)
}

// Logout handles POST /auth/logout. It revokes the current token when there is one.
func (h *Handler) Logout(c *gin.Context) {
	if sess, ok := FromContext(c.Request.Context()); ok && h.revoker != nil {
		if err := h.revoker.Revoke(c.Request.Context(), sess.TokenID, sess.ExpiresAt); err != nil {
			h.logger.Warn("revoke token failed", zap.String("user_id", sess.UserID.String()), zap.Error(err))
		}
	}
	h.clearSessionCookie(c)
	response.NoContent(c)
}

// Me handles GET /auth/me.
func (h *Handler) Me(c *gin.Context) {
	sess, ok := FromContext(c.Request.Context())
	if !ok {
		response.Unauthorized(c, "not signed in")
		return
	}
	u, err := h.svc.Me(c.Request.Context(), sess)
	if errors.Is(err, ErrUserNotFound) {
		response.Unauthorized(c, "not signed in")
		return
	}
	if err != nil {
		response.Internal(c, "failed to load user")
		return
	}
	response.OK(c, u.ToPublic())
}

// GoogleStart handles GET /auth/google?redirect_to=.
func (h *Handler) GoogleStart(c *gin.Context) {
	if h.google == nil {
		response.ServiceUnavailable(c, ErrOAuthDisabled.Error())
		return
	}
	state, err := h.states.Issue(c.Writer, c.Query("redirect_to"))
	if err != nil {
		h.logger.Error("issue oauth state failed", zap.Error(err))
		response.Internal(c, "failed to start sign-in")
		return
	}
	c.Redirect(http.StatusFound, h.google.AuthCodeURL(state))
}

func (h *Handler) backToLogin(c *gin.Context, reason string) {
	c.Redirect(http.StatusFound, LoginLocation(h.loginURL, url.Values{"error": {reason}}))
}

// GoogleCallback handles GET /auth/callback?code=&state=. Failures land back on the login page.
func (h *Handler) GoogleCallback(c *gin.Context) {
	if h.google == nil {
		response.ServiceUnavailable(c, ErrOAuthDisabled.Error())
		return
	}
	redirectTo, err := h.states.Consume(c.Writer, c.Request, c.Query("state"))
	if err != nil {
		h.backToLogin(c, "invalid_state")
		return
	}
	code := c.Query("code")
	if code == "" {
		h.backToLogin(c, "missing_code")
		return
	}
	g, err := h.google.Exchange(c.Request.Context(), code)
	if err != nil {
		h.logger.Warn("google exchange failed", zap.Error(err))
		h.backToLogin(c, "exchange_failed")
		return
	}
	out, err := h.svc.SignInGoogle(c.Request.Context(), g)
	if err != nil {
		h.logger.Error("google sign-in failed", zap.String("email", g.Email), zap.Error(err))
		h.backToLogin(c, "signin_failed")
		return
	}
	h.setSessionCookie(c, out.Token)
	c.Redirect(http.StatusFound, redirectTo)
}
