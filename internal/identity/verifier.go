package identity

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned for any credential that fails verification:
// malformed, expired, bad signature, or wrong issuer.
var ErrInvalidToken = errors.New("invalid token")

// Identity is what the external provider asserts about a caller.
type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Verifier validates a raw bearer credential. The backend never inspects
// token cryptography itself beyond what the chosen implementation does.
type Verifier interface {
	Verify(ctx context.Context, rawToken string) (*Identity, error)
}
