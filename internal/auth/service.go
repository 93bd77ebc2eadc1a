// Package auth issues and validates the JWTs that gate the HTTP API.
package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sahanabu/MentorAI-sub000/internal/shared"
)

const tokenIssuer = "academic-records-engine"

// Store is the user lookup boundary.
type Store interface {
	UserByIdentifier(ctx context.Context, identifier string) (*shared.User, error)
}

// CustomClaims is the JWT payload.
type CustomClaims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Service authenticates users and signs tokens.
type Service struct {
	store  Store
	config shared.SecurityConfig
	logger log.Logger
}

// NewService creates a Service.
func NewService(store Store, config shared.SecurityConfig, logger log.Logger) *Service {
	return &Service{store: store, config: config, logger: logger}
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *shared.User `json:"user"`
}

// Login authenticates by email or USN and returns a signed JWT.
func (s *Service) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	if identifier == "" || password == "" {
		return nil, shared.Errorf(shared.CodeValidation, "identifier and password are required")
	}

	user, err := s.store.UserByIdentifier(ctx, identifier)
	if err != nil {
		if shared.IsCode(err, shared.CodeNotFound) {
			return nil, shared.Errorf(shared.CodeUnauthenticated, "invalid credentials")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.Errorf(shared.CodeUnauthenticated, "invalid credentials")
	}
	if !user.IsActive {
		return nil, shared.Errorf(shared.CodeForbidden, "account is inactive")
	}

	token, expiresAt, err := s.generateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	level.Info(s.logger).Log("msg", "user logged in", "user", user.ID, "role", user.Role)
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// Validate parses and verifies a token, returning its claims.
func (s *Service) Validate(tokenString string) (*CustomClaims, error) {
	if tokenString == "" {
		return nil, shared.Errorf(shared.CodeUnauthenticated, "token missing")
	}

	token, claims, err := s.parseToken(tokenString)
	if err != nil || !token.Valid {
		return nil, shared.Errorf(shared.CodeUnauthenticated, "invalid or expired token")
	}
	return claims, nil
}

// ============================================================================
// Internal Helpers
// ============================================================================

// generateToken creates a signed JWT from the shared security config.
func (s *Service) generateToken(userID, role string) (string, time.Time, error) {
	expirationTime := time.Now().Add(time.Duration(s.config.JWTExpirationHours) * time.Hour)

	claims := CustomClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			// Unique jti so tokens issued in the same second still differ
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))

	return tokenString, expirationTime, err
}

// parseToken validates the JWT signature and extracts claims.
func (s *Service) parseToken(tokenString string) (*jwt.Token, *CustomClaims, error) {
	claims := &CustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})

	return token, claims, err
}
