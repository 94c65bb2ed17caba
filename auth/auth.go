// Package auth issues and checks the platform's own access tokens. Two
// roles exist: admin (event management, analytics) and scanner (entry
// verification stations).
package auth

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
)

const (
	RoleAdmin   = "admin"
	RoleScanner = "scanner"
)

// ValidRole reports whether role is one the platform issues tokens for.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleScanner
}

// IssueAccessToken signs an HS256 token carrying the subject and role.
func IssueAccessToken(subject, role, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("issueAccessToken: error signing token: %w", err)
	}

	return signed, nil
}

// VerifyAccessToken parses t and returns the subject when the signature
// holds, the token is current and the role claim is one of roles.
func VerifyAccessToken(t, secret string, roles ...string) (subject string, ok bool) {
	parsed, err := jwt.Parse(t, func(t *jwt.Token) (interface{}, error) {
		if _, valid := t.Method.(*jwt.SigningMethodHMAC); !valid {
			return nil, fmt.Errorf("verifyAccessToken: unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return "", false
	}

	claims, valid := parsed.Claims.(jwt.MapClaims)
	if !valid {
		return "", false
	}

	role, _ := claims["role"].(string)
	for _, r := range roles {
		if role == r {
			subject, _ = claims["sub"].(string)
			return subject, subject != ""
		}
	}

	return "", false
}

// BearerToken pulls the token out of an Authorization header.
func BearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}
