package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims defines the custom claims carried by our session tokens.
// We embed jwt.RegisteredClaims to include standard claims like 'ExpiresAt'.
// UserID and UserName identify the authenticated user; UserName is included so
// the frontend can greet the user without an extra lookup.
type Claims struct {
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	jwt.RegisteredClaims
}

// Sentinel errors returned by ValidateJWT. Expired tokens are reported
// distinctly from malformed or badly-signed ones so the API layer can tell the
// caller which of the two happened.
var (
	ErrTokenMalformed = errors.New("invalid token")
	ErrTokenExpired   = errors.New("expired token")
)

// signingMethod maps a configured algorithm name to a JWT signing method.
// Only the HMAC family is supported; the config layer rejects anything else
// before we ever get here.
func signingMethod(algo string) *jwt.SigningMethodHMAC {
	switch algo {
	case "HS384":
		return jwt.SigningMethodHS384
	case "HS512":
		return jwt.SigningMethodHS512
	default:
		return jwt.SigningMethodHS256
	}
}

// GenerateJWT creates a new signed token string for the given user, valid for
// the supplied lifetime.
func GenerateJWT(userID int64, userName, secret, algo string, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID:   userID,
		UserName: userName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(signingMethod(algo), claims)
	return token.SignedString([]byte(secret))
}

// ValidateJWT parses and validates a token string, checking both the signature
// and the expiry. On success it returns the embedded claims; on failure it
// returns ErrTokenExpired or ErrTokenMalformed.
func ValidateJWT(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Reject tokens signed with anything but the HMAC family, regardless of
		// what the token header claims.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenMalformed
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}
