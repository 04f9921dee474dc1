package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
)

const (
	stateCookieName = "fid_oauth_state"
	stateTTL        = 10 * time.Minute
	// DefaultLanding is where a signed-in organizer lands without an explicit target.
	DefaultLanding = "/dashboard"
)

// ErrInvalidState is returned when the OAuth state does not match the cookie.
var ErrInvalidState = errors.New("invalid oauth state")

type oauthState struct {
	State      string    `json:"s"`
	RedirectTo string    `json:"r"`
	IssuedAt   time.Time `json:"t"`
}

// StateCookies signs the OAuth round-trip state into a short-lived cookie.
type StateCookies struct {
	codec  *securecookie.SecureCookie
	secure bool
	now    func() time.Time
}

// NewStateCookies creates the codec. blockKey may be empty to sign without encrypting.
func NewStateCookies(hashKey, blockKey string, secure bool) *StateCookies {
	var block []byte
	if blockKey != "" {
		block = []byte(blockKey)
	}
	codec := securecookie.New([]byte(hashKey), block)
	codec.MaxAge(int(stateTTL.Seconds()))
	codec.SetSerializer(securecookie.JSONEncoder{})
	return &StateCookies{codec: codec, secure: secure, now: time.Now}
}

// Issue generates a fresh state, stores it with redirectTo in a cookie and returns it.
func (s *StateCookies) Issue(w http.ResponseWriter, redirectTo string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	st := oauthState{
		State:      base64.RawURLEncoding.EncodeToString(buf),
		RedirectTo: SafeRedirect(redirectTo),
		IssuedAt:   s.now().UTC(),
	}
	encoded, err := s.codec.Encode(stateCookieName, st)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookieName,
		Value:    encoded,
		Path:     "/auth",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return st.State, nil
}

// Consume checks state against the cookie, clears the cookie and returns the redirect target.
func (s *StateCookies) Consume(w http.ResponseWriter, r *http.Request, state string) (string, error) {
	http.SetCookie(w, &http.Cookie{Name: stateCookieName, Value: "", Path: "/auth", MaxAge: -1, HttpOnly: true, Secure: s.secure})
	c, err := r.Cookie(stateCookieName)
	if err != nil || state == "" {
		return "", ErrInvalidState
	}
	var st oauthState
	if err := s.codec.Decode(stateCookieName, c.Value, &st); err != nil {
		return "", ErrInvalidState
	}
	if st.State != state || s.now().Sub(st.IssuedAt) > stateTTL {
		return "", ErrInvalidState
	}
	return st.RedirectTo, nil
}

// SafeRedirect keeps only same-site absolute paths. Anything else lands on DefaultLanding.
func SafeRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return DefaultLanding
	}
	return target
}
