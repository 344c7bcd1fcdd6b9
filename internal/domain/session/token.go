package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/yanqian/krishi-vaani/pkg/errors"
)

const tokenIssuer = "krishi-vaani"

type tokenClaims struct {
	jwt.RegisteredClaims
	Locale string `json:"locale,omitempty"`
}

type tokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func (c tokenCodec) issue(sessionID, loc string) (string, time.Time, error) {
	now := c.now()
	expires := now.Add(c.ttl)
	claims := tokenClaims{
		Locale: loc,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   sessionID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", time.Time{}, apperrors.Wrap(apperrors.CodeSessionFailed, "failed to sign session token", err)
	}
	return signed, expires, nil
}

func (c tokenCodec) parse(token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", apperrors.Wrap(apperrors.CodeInvalidToken, "token missing", nil)
	}
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInvalidToken, "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", apperrors.Wrap(apperrors.CodeInvalidToken, "token invalid", nil)
	}
	return claims.Subject, nil
}
