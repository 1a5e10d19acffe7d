package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is what the status command shows about a token. The token is opaque
// to the client; these fields are read without verifying the signature and
// never gate any request.
type Claims struct {
	Subject   string
	Email     string
	ExpiresAt *time.Time
}

// Inspect decodes token as a JWT without verification. ok is false for
// tokens that are not JWTs.
func Inspect(token string) (Claims, bool) {
	var mc jwt.MapClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &mc); err != nil {
		return Claims{}, false
	}

	var c Claims
	c.Subject, _ = mc.GetSubject()
	if email, ok := mc["email"].(string); ok {
		c.Email = email
	}
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		c.ExpiresAt = &t
	}
	return c, true
}
