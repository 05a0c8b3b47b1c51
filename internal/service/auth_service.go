package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4" // Import JWT library
	"golang.org/x/crypto/bcrypt"   // Import bcrypt
)

// AdminSubject is the subject of every admin token. There is a single shared admin credential.
const AdminSubject = "admin"

// AdminRole is the role claim carried by admin tokens.
const AdminRole = "admin"

type AuthService interface {
	Login(ctx context.Context, password string) (token string, expiresAt time.Time, err error)
	GetJWTSecret() string
}

// authService implements the AuthService interface.
type authService struct {
	passwordHash  []byte
	jwtSecret     string
	jwtExpiration time.Duration
	now           func() time.Time
}

// NewAuthService returns ErrAdminDisabled unless both a bcrypt hash and a JWT secret are configured.
func NewAuthService(passwordHash, jwtSecret string, jwtExpiration time.Duration) (AuthService, error) {
	if passwordHash == "" || jwtSecret == "" {
		return nil, ErrAdminDisabled
	}
	if _, err := bcrypt.Cost([]byte(passwordHash)); err != nil {
		return nil, errors.New("admin.password_hash is not a bcrypt hash")
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour * 1 // Default to 1 hour if not set properly
	}
	return &authService{
		passwordHash:  []byte(passwordHash),
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
		now:           time.Now,
	}, nil
}

// Login checks the admin password and issues a token.
func (s *authService) Login(_ context.Context, password string) (string, time.Time, error) {
	if password == "" {
		return "", time.Time{}, ErrAuthenticationFailed
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", time.Time{}, ErrAuthenticationFailed
	}

	expiresAt := s.now().Add(s.jwtExpiration)
	token, err := s.generateJWT(expiresAt)
	if err != nil {
		return "", time.Time{}, ErrTokenGeneration
	}
	return token, expiresAt, nil
}

// --- JWT Helper ---

// AdminClaims defines the structure of the JWT payload.
type AdminClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (s *authService) generateJWT(expiresAt time.Time) (string, error) {
	claims := &AdminClaims{
		Role: AdminRole,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   AdminSubject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(s.now()),
			Issuer:    "snapbooth-site",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}
