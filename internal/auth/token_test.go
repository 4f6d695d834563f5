package auth

import (
	"errors"
	"testing"
	"time"
)

const testSecret = "test-secret"

func TestGenerateAndValidateJWT(t *testing.T) {
	token, err := GenerateJWT(42, "alice", testSecret, "HS256", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateJWT(token, testSecret)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("user_id = %d, want 42", claims.UserID)
	}
	if claims.UserName != "alice" {
		t.Fatalf("user_name = %q, want alice", claims.UserName)
	}
}

func TestValidateJWTAlgorithms(t *testing.T) {
	for _, algo := range []string{"HS256", "HS384", "HS512"} {
		token, err := GenerateJWT(1, "bob", testSecret, algo, time.Hour)
		if err != nil {
			t.Fatalf("%s generate: %v", algo, err)
		}
		if _, err := ValidateJWT(token, testSecret); err != nil {
			t.Fatalf("%s validate: %v", algo, err)
		}
	}
}

func TestValidateJWTExpired(t *testing.T) {
	token, err := GenerateJWT(42, "alice", testSecret, "HS256", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ValidateJWT(token, testSecret); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("got %v, want ErrTokenExpired", err)
	}
}

func TestValidateJWTWrongSecret(t *testing.T) {
	token, err := GenerateJWT(42, "alice", testSecret, "HS256", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ValidateJWT(token, "other-secret"); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("got %v, want ErrTokenMalformed", err)
	}
}

func TestValidateJWTGarbage(t *testing.T) {
	if _, err := ValidateJWT("not.a.token", testSecret); !errors.Is(err, ErrTokenMalformed) {
		t.Fatalf("got %v, want ErrTokenMalformed", err)
	}
}
