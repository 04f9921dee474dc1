package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/firstindallas/backend/internal/auth"
	"github.com/firstindallas/backend/pkg/response"
)

// ContextSession is the gin context key holding the caller's auth.Session.
const ContextSession = "session"

// TokenValidator validates session tokens.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// RevocationChecker reports signed-out tokens.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Session resolves the caller from a Bearer token or the session cookie and stores
// the result on both the gin and request contexts. Anonymous requests pass through.
func Session(tokens TokenValidator, revoked RevocationChecker, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" && cookieName != "" {
			raw, _ = c.Cookie(cookieName)
		}
		if raw == "" {
			c.Next()
			return
		}
		claims, err := tokens.Validate(raw)
		if err != nil {
			c.Next()
			return
		}
		if revoked != nil {
			if gone, err := revoked.IsRevoked(c.Request.Context(), claims.ID); err != nil || gone {
				c.Next()
				return
			}
		}
		sess := auth.SessionFromClaims(claims)
		c.Set(ContextSession, sess)
		c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), sess))
		c.Next()
	}
}

func bearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// GetSession returns the session resolved by Session.
func GetSession(c *gin.Context) (auth.Session, bool) {
	v, ok := c.Get(ContextSession)
	if !ok {
		return auth.Session{}, false
	}
	s, ok := v.(auth.Session)
	return s, ok
}

// RequireSession rejects anonymous callers. Browsers asking for HTML are sent to
// loginPath with the original path as redirect_to; API callers get 401.
func RequireSession(loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := GetSession(c); ok {
			c.Next()
			return
		}
		if wantsHTML(c.GetHeader("Accept")) {
			c.Redirect(http.StatusFound, auth.LoginLocation(loginPath, url.Values{"redirect_to": {c.Request.URL.RequestURI()}}))
			c.Abort()
			return
		}
		response.Unauthorized(c, "sign in required")
		c.Abort()
	}
}

func wantsHTML(accept string) bool {
	return strings.Contains(accept, "text/html")
}
