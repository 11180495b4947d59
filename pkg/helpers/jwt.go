package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/oksasatya/go-user-management/internal/domain/apperror"
	"github.com/oksasatya/go-user-management/internal/domain/entity"
)

// TokenService issues and decodes signed session tokens.
type TokenService struct {
	Secret []byte
	TTL    time.Duration
	Issuer string
	now    func() time.Time
}

func NewTokenService(secret string, ttl time.Duration, issuer string) *TokenService {
	return &TokenService{Secret: []byte(secret), TTL: ttl, Issuer: issuer, now: time.Now}
}

// Claims carries the identity and role of the token holder at issuance time.
type Claims struct {
	Role  entity.Role `json:"role"`
	Email string      `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// UserID is the token subject.
func (c *Claims) UserID() string { return c.Subject }

// Issue signs a token for u.
func (m *TokenService) Issue(u *entity.User) (string, time.Time, error) {
	now := m.now()
	exp := now.Add(m.TTL)
	claims := &Claims{
		Role:  u.Role,
		Email: u.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			Issuer:    m.Issuer,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.Secret)
	return s, exp, err
}

// Decode verifies signature and expiry. Any failure is reported as apperror.ErrInvalidToken.
func (m *TokenService) Decode(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	}
	if m.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.Issuer))
	}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return m.Secret, nil
	}, opts...)
	if err != nil {
		return nil, &apperror.Error{Kind: apperror.KindAuthentication, Detail: apperror.MsgInvalidToken, Err: err}
	}
	if !tkn.Valid || claims.Subject == "" || !claims.Role.Valid() {
		return nil, apperror.ErrInvalidToken
	}
	return claims, nil
}
