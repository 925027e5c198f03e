package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type staticClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// StaticVerifier validates HS256 tokens signed with a shared secret. It is
// the development and test mode; production deployments point OIDC_ISSUER
// at the real provider instead.
type StaticVerifier struct {
	secret []byte
}

func NewStaticVerifier(secret string) *StaticVerifier {
	return &StaticVerifier{secret: []byte(secret)}
}

func (v *StaticVerifier) Verify(ctx context.Context, rawToken string) (*Identity, error) {
	_ = ctx
	tok, err := jwt.ParseWithClaims(rawToken, &staticClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	c, ok := tok.Claims.(*staticClaims)
	if !ok || !tok.Valid || c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Identity{
		Subject:       c.Subject,
		Email:         c.Email,
		EmailVerified: c.EmailVerified,
		Name:          c.Name,
		Picture:       c.Picture,
	}, nil
}

// SignStatic issues a token the StaticVerifier accepts. Used by tests and
// local tooling; never exposed over HTTP.
func SignStatic(secret string, ident Identity, ttl time.Duration) (string, error) {
	c := staticClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ident.Subject,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
		Email:         ident.Email,
		EmailVerified: ident.EmailVerified,
		Name:          ident.Name,
		Picture:       ident.Picture,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return tok.SignedString([]byte(secret))
}
