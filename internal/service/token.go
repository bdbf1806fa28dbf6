package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminClaims - данные администратора из access токена.
type AdminClaims struct {
	Subject string
	Role    string
}

// TokenVerifier проверяет access токены, выпущенные внешним бэкендом аутентификации.
// Сам сервис токены не выпускает, кроме как в тестах и dev-утилитах через Issue.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{secret: []byte(secret)}
}

// ParseAccess извлекает subject и роль из access токена.
func (v *TokenVerifier) ParseAccess(token string) (*AdminClaims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.Join(jwt.ErrTokenInvalidClaims, err)
	}
	role, _ := claims["role"].(string)

	return &AdminClaims{Subject: sub, Role: role}, nil
}

// Issue подписывает токен с заданными subject и ролью.
func (v *TokenVerifier) Issue(subject, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
