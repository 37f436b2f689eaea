package apiclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenPair holds the device tokens issued by the backend.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	AccessExp    time.Time
}

// expiryOf reads the exp claim without verifying the signature. The kiosk does
// not hold the signing key; it only needs to know when to re-register.
func expiryOf(token string) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// valid reports whether the access token is usable, with a minute of leeway
// so a token never expires mid-request.
func (t TokenPair) valid(now time.Time) bool {
	if t.AccessToken == "" {
		return false
	}
	if t.AccessExp.IsZero() {
		return true
	}
	return now.Add(time.Minute).Before(t.AccessExp)
}
