package utils // package utils provides helpers for session tokens and password hashing

import (
    "crypto/sha256" // SHA‑256 hashing for stored session tokens
    "encoding/hex"
    "errors"
    "fmt"
    "strconv"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/google/uuid"
)

// ErrInvalidToken is returned for any token that fails parsing,
// signature or expiry checks.
var ErrInvalidToken = errors.New("invalid token")

// SessionToken is a signed HS256 JWT handed to the client at login.
// The server also keeps a SHA‑256 hash of Token in the sessions table so
// a token can be revoked before it expires.
type SessionToken struct {
    Token string    // the serialized JWT string
    ID    string    // random jti, unique per login
    Exp   time.Time // UTC expiration time
}

// NewSessionToken signs a token for userID that expires after ttl.  The
// claims are sub (user id), jti (random uuid), exp and iat.
func NewSessionToken(secret string, userID uint64, ttl time.Duration) (SessionToken, error) {
    now := time.Now().UTC()
    exp := now.Add(ttl)
    jti := uuid.NewString()
    claims := jwt.RegisteredClaims{
        Subject:   strconv.FormatUint(userID, 10),
        ID:        jti,
        ExpiresAt: jwt.NewNumericDate(exp),
        IssuedAt:  jwt.NewNumericDate(now),
    }
    signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
    if err != nil {
        return SessionToken{}, err
    }
    return SessionToken{Token: signed, ID: jti, Exp: exp}, nil
}

// ParseSessionToken verifies signature and expiry and returns the user
// id from the sub claim.
func ParseSessionToken(secret, token string) (uint64, error) {
    var claims jwt.RegisteredClaims
    _, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
        return []byte(secret), nil
    }, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
    if err != nil {
        return 0, fmt.Errorf("%w: %v", ErrInvalidToken, err)
    }
    uid, err := strconv.ParseUint(claims.Subject, 10, 64)
    if err != nil || uid == 0 {
        return 0, fmt.Errorf("%w: bad subject", ErrInvalidToken)
    }
    return uid, nil
}

// HashToken returns the SHA‑256 hash of a token as a hex string.  Only
// this hash is persisted.
func HashToken(token string) string {
    sum := sha256.Sum256([]byte(token))
    return hex.EncodeToString(sum[:])
}
