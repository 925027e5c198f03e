package identity

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestStaticVerifier_RoundTrip(t *testing.T) {
	v := NewStaticVerifier("test-secret")

	token, err := SignStatic("test-secret", Identity{
		Subject:       "uid-1",
		Email:         "user@example.com",
		EmailVerified: true,
		Name:          "User One",
	}, time.Minute)
	if err != nil {
		t.Fatalf("SignStatic: %v", err)
	}

	ident, err := v.Verify(context.Background(), token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ident.Subject != "uid-1" || ident.Email != "user@example.com" || !ident.EmailVerified {
		t.Errorf("identity: got %+v", ident)
	}
}

func TestStaticVerifier_Rejections(t *testing.T) {
	v := NewStaticVerifier("right-secret")
	ctx := context.Background()

	// Wrong secret.
	token, _ := SignStatic("wrong-secret", Identity{Subject: "uid-1"}, time.Minute)
	if _, err := v.Verify(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret: got %v, want ErrInvalidToken", err)
	}

	// Expired.
	token, _ = SignStatic("right-secret", Identity{Subject: "uid-1"}, -time.Minute)
	if _, err := v.Verify(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token: got %v, want ErrInvalidToken", err)
	}

	// Missing subject.
	token, _ = SignStatic("right-secret", Identity{Email: "nosub@example.com"}, time.Minute)
	if _, err := v.Verify(ctx, token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("missing subject: got %v, want ErrInvalidToken", err)
	}

	// Garbage.
	if _, err := v.Verify(ctx, "not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage token: got %v, want ErrInvalidToken", err)
	}
}
