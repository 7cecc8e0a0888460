package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/aidar/team-tasks/internal/domain"
	"github.com/aidar/team-tasks/internal/repository"
	"github.com/aidar/team-tasks/internal/session"
)

// Claims represents JWT claims
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Credentials is the register/login request body
type Credentials struct {
	Username string `json:"username" form:"username" validate:"required,min=3,max=150"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

// bcrypt rejects longer input; the limit is in bytes, not runes
const maxPasswordBytes = 72

// AuthService handles registration, login and JWT sessions
type AuthService struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	revoker     session.Revoker
	jwtSecret   string
	jwtExpiry   time.Duration
	now         func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	revoker session.Revoker,
	jwtSecret string,
	jwtExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		revoker:     revoker,
		jwtSecret:   jwtSecret,
		jwtExpiry:   jwtExpiry,
		now:         time.Now,
	}
}

// Register creates an identity and its empty profile
func (s *AuthService) Register(ctx context.Context, in Credentials) (*domain.User, *domain.Profile, error) {
	in.Username = strings.TrimSpace(in.Username)
	if err := validateStruct(in); err != nil {
		return nil, nil, err
	}
	if len(in.Password) > maxPasswordBytes {
		return nil, nil, domain.NewValidationError("password", fmt.Sprintf("must be at most %d bytes", maxPasswordBytes))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{Username: in.Username, PasswordHash: string(hash)}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrUsernameTaken) {
			return nil, nil, domain.NewValidationError("username", "is already taken")
		}
		return nil, nil, err
	}

	profile, err := s.profileRepo.GetOrCreate(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	return user, profile, nil
}

// Authenticate checks username and password
func (s *AuthService) Authenticate(ctx context.Context, in Credentials) (*domain.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	return user, nil
}

// Login authenticates the user and issues a session token
func (s *AuthService) Login(ctx context.Context, in Credentials) (*domain.User, string, error) {
	user, err := s.Authenticate(ctx, in)
	if err != nil {
		return nil, "", err
	}

	token, err := s.IssueToken(user)
	if err != nil {
		return nil, "", err
	}

	return user, token, nil
}

// IssueToken generates a signed JWT for a user
func (s *AuthService) IssueToken(user *domain.User) (string, error) {
	now := s.now()

	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken validates a JWT token and returns claims. Revoked tokens are rejected.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))

	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, domain.ErrInvalidToken
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, domain.ErrInvalidToken
	}

	return claims, nil
}

// Logout revokes the session token until it expires
func (s *AuthService) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// TokenExpiry returns the session lifetime
func (s *AuthService) TokenExpiry() time.Duration {
	return s.jwtExpiry
}
