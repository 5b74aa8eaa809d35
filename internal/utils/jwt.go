package utils // package utils provides the credential helpers: password hashing and session tokens

import (
	"errors"  // sentinel errors for token verification
	"strconv" // subject claim carries the user id as a decimal string
	"time"    // time utilities for generating expirations

	"github.com/golang-jwt/jwt/v5" // JWT library for creating and verifying signed tokens
)

// ErrInvalidToken covers bad signatures, unexpected algorithms, malformed
// payloads and tokens that do not carry a usable identity.
var ErrInvalidToken = errors.New("invalid token")

// ErrExpiredToken is returned for a well-formed token whose exp has passed.
var ErrExpiredToken = errors.New("token expired")

// AccessToken represents a signed JWT access token along with its expiry.
// The Token field contains the JWT string sent back in the Authorization
// header as "Bearer <token>".
type AccessToken struct {
	Token string    // the serialized JWT string
	Exp   time.Time // the UTC expiration time
}

// Claims is the token payload: {userId, role, exp} plus sub and iat.
type Claims struct {
	UserID uint64 `json:"userId"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// signingMethod is the only algorithm accepted on the way back in.
var signingMethod = jwt.SigningMethodHS256

// NewAccessToken builds and signs an HS256 JWT for a user.  It takes the
// signing secret, the user ID, the user's role and a TTL.  The JWT
// includes userId, role, subject (sub), expiration (exp) and issued at (iat).
func NewAccessToken(secret string, userID uint64, role string, ttl time.Duration) (AccessToken, error) {
	if secret == "" {
		return AccessToken{}, errors.New("empty signing secret")
	}
	issued := time.Now().UTC()
	exp := issued.Add(ttl)
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(issued),
		},
	}
	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(secret))
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// ParseAccessToken verifies raw against secret and returns its claims.
// Expired tokens yield ErrExpiredToken; anything else that fails yields
// ErrInvalidToken.
func ParseAccessToken(secret, raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	if !tok.Valid || claims.UserID == 0 || claims.Subject != strconv.FormatUint(claims.UserID, 10) {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
