package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog/internal/logger"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/validation"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// Accepted date_of_birth layouts.
var dateOfBirthLayouts = []string{"2006-01-02", time.RFC3339}

// AuthService handles signup, login and token verification.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	tokenDurat time.Duration // Duration for which JWT is valid
	validate   *validator.Validate
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, tokenDuration time.Duration) *AuthService {
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		tokenDurat: tokenDuration,
		validate:   validation.New(),
	}
}

// Signup registers a new user and returns it together with a fresh token.
func (s *AuthService) Signup(ctx context.Context, req models.SignupRequest) (*models.User, string, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, "", toValidationError(err)
	}

	dob, err := parseDateOfBirth(req.DateOfBirth)
	if err != nil {
		return nil, "", &ValidationError{Fields: map[string]string{
			"date_of_birth": "Field 'date_of_birth' must be a date (YYYY-MM-DD)",
		}}
	}

	email := normalizeEmail(req.Email)
	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, "", ErrUserExists
	}
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, "", &StoreError{Op: "check email", Err: err}
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:             req.Name,
		Email:            email,
		PasswordHash:     string(hashedPassword),
		PhoneNumber:      req.PhoneNumber,
		Gender:           req.Gender,
		DateOfBirth:      dob,
		MembershipStatus: req.MembershipStatus,
	}
	if req.Address != nil {
		user.Address = *req.Address
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// A concurrent signup can take the email between the check and the insert.
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return nil, "", ErrUserExists
		}
		return nil, "", &StoreError{Op: "register user", Err: err}
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login authenticates a user by email and password and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, "", toValidationError(err)
	}

	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			// Do not reveal whether the email exists.
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", &StoreError{Op: "find user", Err: err}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// Authenticate resolves a bearer token to the ID of an existing user.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (string, error) {
	claims, err := s.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("%w: missing user_id claim", ErrInvalidToken)
	}

	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", fmt.Errorf("%w: unknown user", ErrInvalidToken)
		}
		return "", &StoreError{Op: "find user", Err: err}
	}
	return userID, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": user.ID,
		"email":   user.Email,
		"exp":     now.Add(s.tokenDurat).Unix(),
		"iat":     now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	logger.Logger.Debug().Str("user_id", user.ID).Msg("token issued")
	return tokenString, nil
}

func toValidationError(err error) error {
	if fields := validation.Fields(err); fields != nil {
		return &ValidationError{Fields: fields}
	}
	return err
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseDateOfBirth(value string) (time.Time, error) {
	for _, layout := range dateOfBirthLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
