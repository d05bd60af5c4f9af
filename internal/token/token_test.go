package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/idgate-dev/idgate/internal/model"
)

var testSecret = []byte("Abc123!xyz-Abc123!xyz-Abc123!xyz")

func testAccount() *model.Account {
	return &model.Account{ID: 42, Email: "user@example.com"}
}

func TestSignAndParse(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)

	signed, err := issuer.Sign(testAccount())
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	id, claims, err := issuer.Parse(signed)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if id != 42 {
		t.Errorf("subject id = %d, want 42", id)
	}
	if claims.Email != "user@example.com" {
		t.Errorf("email claim = %q", claims.Email)
	}
}

func TestParse_WrongSecret(t *testing.T) {
	signed, err := NewIssuer(testSecret, time.Hour).Sign(testAccount())
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	other := NewIssuer([]byte("another-secret-another-secret-12"), time.Hour)
	if _, _, err := other.Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Parse with wrong secret: err = %v, want ErrInvalidToken", err)
	}
}

func TestParse_Expired(t *testing.T) {
	issuedAt := time.Now().Add(-48 * time.Hour)
	issuer := NewIssuerWithClock(testSecret, time.Hour, func() time.Time { return issuedAt })

	signed, err := issuer.Sign(testAccount())
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	// Same issuer, real clock: the token expired 47 hours ago.
	verifier := NewIssuer(testSecret, time.Hour)
	if _, _, err := verifier.Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Parse of expired token: err = %v, want ErrInvalidToken", err)
	}
}

func TestParse_NotYetExpired(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)

	signed, err := issuer.Sign(testAccount())
	if err != nil {
		t.Fatalf("Sign error: %v", err)
	}

	// Verify from a clock 30 minutes in the future, still inside the TTL.
	later := NewIssuerWithClock(testSecret, time.Hour, func() time.Time {
		return time.Now().Add(30 * time.Minute)
	})
	if _, _, err := later.Parse(signed); err != nil {
		t.Fatalf("Parse of valid token: %v", err)
	}
}

func TestParse_Garbage(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)

	for _, raw := range []string{"", "garbage", "a.b.c"} {
		if _, _, err := issuer.Parse(raw); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Parse(%q): err = %v, want ErrInvalidToken", raw, err)
		}
	}
}

func TestParse_RejectsUnsignedAlgorithm(t *testing.T) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "42",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("building unsigned token: %v", err)
	}

	issuer := NewIssuer(testSecret, time.Hour)
	if _, _, err := issuer.Parse(unsigned); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("Parse of alg=none token: err = %v, want ErrInvalidToken", err)
	}
}

func TestParse_BadSubject(t *testing.T) {
	issuer := NewIssuer(testSecret, time.Hour)

	for _, subject := range []string{"", "abc", "0", "-5"} {
		claims := Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   subject,
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
		if err != nil {
			t.Fatalf("building token: %v", err)
		}
		if _, _, err := issuer.Parse(signed); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Parse with subject %q: err = %v, want ErrInvalidToken", subject, err)
		}
	}
}
