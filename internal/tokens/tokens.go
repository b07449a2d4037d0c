package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for every verification failure: bad signature,
// malformed token, missing subject, or expiry. Callers cannot tell these apart.
var ErrInvalidToken = errors.New("invalid token")

const defaultTTL = 15 * time.Minute

// Issuer mints and verifies signed access tokens (HS256, symmetric secret).
// The zero value is unusable; construct with a non-empty secret.
type Issuer struct {
	Secret     string
	DefaultTTL time.Duration
}

// Issue creates a signed JWT carrying the given claims plus an expiration of
// now+ttl. When ttl <= 0 the issuer default (then 15 minutes) is used.
func (i Issuer) Issue(claims map[string]interface{}, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = i.DefaultTTL
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	mc := jwt.MapClaims{}
	for k, v := range claims {
		mc[k] = v
	}
	now := time.Now()
	mc["iat"] = now.Unix()
	mc["exp"] = now.Add(ttl).Unix()
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, mc)
	return jt.SignedString([]byte(i.Secret))
}

// Verify checks signature and expiry and returns the subject claim.
func (i Issuer) Verify(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(i.Secret), nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}
