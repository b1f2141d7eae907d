// Package auth проверяет bearer-токены, выпущенные внешним сервисом аутентификации.
// Выпуск токенов здесь нужен только тестам и локальной отладке.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

var (
	// ErrInvalidToken — подпись, формат или claims токена неверны.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken — срок действия токена истёк.
	ErrExpiredToken = errors.New("token has expired")
)

// Claims — полезная нагрузка токена. Если userId пуст, берётся sub.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Verifier проверяет токены, подписанные HS256 общим секретом.
type Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewVerifier создаёт Verifier. Пустой issuer не проверяется.
func NewVerifier(secret, issuer string, leeway time.Duration) *Verifier {
	return &Verifier{secret: []byte(secret), issuer: issuer, leeway: leeway}
}

// Verify разбирает токен и возвращает субъекта запроса.
// Оборачивает domain.ErrUnauthorized, чтобы HTTP-слой ответил 401.
func (v *Verifier) Verify(token string) (domain.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Principal{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, ErrInvalidToken)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, ErrExpiredToken)
		}
		return domain.Principal{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, ErrInvalidToken)
	}
	if !parsed.Valid {
		return domain.Principal{}, fmt.Errorf("%w: %w", domain.ErrUnauthorized, ErrInvalidToken)
	}

	userID := claims.UserID
	if userID == "" {
		userID = claims.Subject
	}
	if userID == "" {
		return domain.Principal{}, fmt.Errorf("%w: %w: no subject", domain.ErrUnauthorized, ErrInvalidToken)
	}

	role := domain.RoleCustomer
	if strings.EqualFold(claims.Role, string(domain.RoleAdmin)) {
		role = domain.RoleAdmin
	}
	return domain.Principal{UserID: userID, Role: role}, nil
}

// Issue подписывает токен для субъекта.
func (v *Verifier) Issue(p domain.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: p.UserID,
		Role:   string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.UserID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
