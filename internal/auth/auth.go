package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/Craig-Turley/listsync/pkg/utils"
	"github.com/golang-jwt/jwt/v5"
)

var (
	JWTSecret  []byte
	CookieName = "auth"
)

const AUTHORIZATION_HEADER = "Authorization"
const BEARER_PREFIX = "Bearer "

// Init sets the HMAC secret. An empty secret leaves the API open.
func Init(secret string) {
	JWTSecret = []byte(secret)
}

func Enabled() bool {
	return len(JWTSecret) > 0
}

func KeyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, utils.NewError("unexpected signing method: %v", token.Header["alg"])
	}

	return JWTSecret, nil
}

var JWTParser = jwt.NewParser(
	jwt.WithValidMethods([]string{"HS256"}),
)

func VerifyToken(tokenStr string) (*jwt.Token, error) {
	return JWTParser.Parse(tokenStr, KeyFunc)
}

// NewToken signs an HS256 token for subject that expires after ttl.
func NewToken(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(JWTSecret)
}

// TokenFromRequest reads a bearer token, falling back to the auth cookie.
func TokenFromRequest(r *http.Request) string {
	if h := r.Header.Get(AUTHORIZATION_HEADER); strings.HasPrefix(h, BEARER_PREFIX) {
		return strings.TrimSpace(strings.TrimPrefix(h, BEARER_PREFIX))
	}

	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}

	return ""
}
