package sessionkit

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// accessTokenExpiry peeks at the exp claim of an access token without
// verifying its signature. Tokens are opaque by contract, so a token that
// is not a JWT (or carries no expiry) is not an error; the caller falls
// back to the configured advisory TTL.
func accessTokenExpiry(token string) (time.Time, bool) {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}

// advisoryExpiry resolves the expiry recorded in the Session: the exact
// value when the backend reported expires_in, a token peek when it did
// not, and the configured default as the last resort.
func (m *Manager) advisoryExpiry(access string, expiresIn int64) time.Time {
	if expiresIn > 0 {
		return time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	if exp, ok := accessTokenExpiry(access); ok {
		return exp
	}
	return time.Now().Add(m.config.Session.DefaultTTL)
}
