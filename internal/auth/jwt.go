package auth

import (
	"fmt"
	"time"

	"voter-canvass-backend/internal/config"
	"voter-canvass-backend/internal/model"

	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Username string     `json:"username"`
	Role     model.Role `json:"role"`
	jwt.RegisteredClaims
}

// Manager issues and verifies the bearer tokens the client attaches to
// every request.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

func NewManager(cfg *config.Config) *Manager {
	return &Manager{
		secret: []byte(cfg.Auth.JWTSecret),
		ttl:    cfg.Auth.TokenTTL,
	}
}

func (m *Manager) Issue(user *model.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *Manager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
