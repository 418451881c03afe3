package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "scriptsynth"

type ServiceClaims struct {
	Service string `json:"service"`
	jwt.RegisteredClaims
}

// JWTHandler mints and checks the short-lived HS256 tokens the editor
// presents to the artifact store.
type JWTHandler struct {
	secretKey []byte
	tokenTTL  time.Duration
	service   string
}

func NewJWTHandler(secretKey string, tokenTTL time.Duration, service string) *JWTHandler {
	return &JWTHandler{
		secretKey: []byte(secretKey),
		tokenTTL:  tokenTTL,
		service:   service,
	}
}

// Token creates a new service token. It satisfies gateway.TokenSource.
func (j *JWTHandler) Token() (string, error) {
	now := time.Now()
	claims := ServiceClaims{
		Service: j.service,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   j.service,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a service token.
func (j *JWTHandler) Validate(tokenString string) (*ServiceClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ServiceClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*ServiceClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
