package web

import (
	"crypto/rsa"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// loginCookieName carries the pending-login token between the SSO
// request and the credential POST.
const loginCookieName = "saml_login"

// LoginCookieCodec binds a browser to its pending authentication with
// a short-lived RS256 JWT carrying the correlator session key. Tokens
// are signed with the IdP's own key and are stateless.
type LoginCookieCodec struct {
	privateKey *rsa.PrivateKey
	ttl        time.Duration
}

type loginClaims struct {
	jwt.RegisteredClaims
}

// NewLoginCookieCodec creates a codec with the given key and lifetime.
func NewLoginCookieCodec(privateKey *rsa.PrivateKey, ttl time.Duration) *LoginCookieCodec {
	return &LoginCookieCodec{privateKey: privateKey, ttl: ttl}
}

// Issue signs a token for the session key.
func (c *LoginCookieCodec) Issue(sessionKey string) (string, error) {
	now := time.Now()
	claims := loginClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionKey,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(c.privateKey)
}

// Decode validates a token and returns the session key.
func (c *LoginCookieCodec) Decode(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &loginClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return &c.privateKey.PublicKey, nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(*loginClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", errors.New("invalid login token")
	}
	return claims.Subject, nil
}

// setLoginCookie writes the login cookie on the response.
func (c *LoginCookieCodec) setLoginCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     loginCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// clearLoginCookie removes the login cookie.
func clearLoginCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     loginCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
