package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const serviceTokenIssuer = "nomorewaste-admin"

// ServiceClaims identify non-browser callers such as notification producers.
type ServiceClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

func GenerateServiceToken(secret, subject, role string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("service token secret is empty")
	}
	now := time.Now()
	claims := ServiceClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    serviceTokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign service token: %w", err)
	}
	return signed, nil
}

type JWTIdentity struct {
	secret []byte
	roles  RoleSet
}

func NewJWTIdentity(secret string, roles RoleSet) *JWTIdentity {
	return &JWTIdentity{secret: []byte(secret), roles: roles}
}

func (j *JWTIdentity) Resolve(_ context.Context, cred Credential) (Viewer, error) {
	if cred.Kind != CredentialBearer || len(j.secret) == 0 {
		return Viewer{}, ErrUnauthenticated
	}

	claims := &ServiceClaims{}
	token, err := jwt.ParseWithClaims(cred.Value, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return j.secret, nil
	}, jwt.WithIssuer(serviceTokenIssuer))
	if err != nil || !token.Valid || claims.Subject == "" {
		return Viewer{}, ErrUnauthenticated
	}

	return Viewer{
		ID:             claims.Subject,
		Role:           claims.Role,
		Administrative: j.roles.Administrative(Profile{Role: claims.Role}),
	}, nil
}
