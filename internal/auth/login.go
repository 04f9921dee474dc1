package auth

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
)

// LoginLocation returns loginURL with params merged into its query string.
func LoginLocation(loginURL string, params url.Values) string {
	u, err := url.Parse(loginURL)
	if err != nil {
		return loginURL
	}
	q := u.Query()
	for k, vs := range params {
		for _, v := range vs {
			if strings.TrimSpace(v) != "" {
				q.Set(k, v)
			}
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// LoginPage handles GET /auth/login by sending the browser to the hub's
// sign-in page. redirect_to and error are carried over.
func LoginPage(loginURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Redirect(http.StatusFound, LoginLocation(loginURL, url.Values{
			"redirect_to": {c.Query("redirect_to")},
			"error":       {c.Query("error")},
		}))
	}
}
