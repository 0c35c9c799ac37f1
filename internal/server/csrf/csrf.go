// Package csrf выдает и проверяет CSRF токены эталонного сервера.
// Токен это JWT с коротким сроком жизни, подписанный HMAC секретом.
package csrf

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "cartsync"

var (
	// ErrInvalidToken токен не подписан этим сервером или поврежден
	ErrInvalidToken = errors.New("invalid csrf token")
	// ErrExpiredToken срок жизни токена истек
	ErrExpiredToken = errors.New("csrf token expired")
)

// Config содержит конфигурацию для CSRF токенов
type Config struct {
	Secret []byte
	TTL    time.Duration
}

// Claims представляет claims CSRF токена
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer выдает и проверяет токены
type Issuer struct {
	now func() time.Time
	cfg Config
}

// NewIssuer создает Issuer. Пустой секрет недопустим.
func NewIssuer(cfg Config) (*Issuer, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("csrf secret is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("csrf ttl must be positive, got %s", cfg.TTL)
	}
	return &Issuer{cfg: cfg, now: time.Now}, nil
}

// Issue создает новый токен. Возвращает токен и время жизни в секундах.
func (i *Issuer) Issue() (string, int64, error) {
	now := i.now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.cfg.Secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}

	return token, int64(i.cfg.TTL.Seconds()), nil
}

// Verify проверяет токен.
// Возвращает ErrExpiredToken для просроченного и ErrInvalidToken для
// любого другого негодного токена.
func (i *Issuer) Verify(token string) error {
	_, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.cfg.Secret, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)

	switch {
	case err == nil:
		return nil
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	default:
		return fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
}
