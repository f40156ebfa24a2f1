package services_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"catalog/internal/logger"
	"catalog/internal/models"
	"catalog/internal/repositories"
	"catalog/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testJWTSecret = "test_jwt_secret"

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// TestMain is used to setup test environment
func TestMain(m *testing.M) {
	logger.Discard()
	os.Exit(m.Run())
}

func notFound(what string) error {
	return fmt.Errorf("%s: %w", what, repositories.ErrNotFound)
}

func validSignup() models.SignupRequest {
	return models.SignupRequest{
		Name:             "Jane Doe",
		Email:            "Jane@Example.com",
		Password:         "password123",
		PhoneNumber:      "+358401234567",
		Gender:           "Female",
		DateOfBirth:      "1990-01-01",
		MembershipStatus: "Active",
		Address: &models.Address{
			Street:  "Main St 1",
			City:    "Helsinki",
			State:   "Uusimaa",
			ZipCode: "00100",
		},
	}
}

func parseClaims(t *testing.T, token string) jwt.MapClaims {
	t.Helper()
	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	require.True(t, ok)
	return claims
}

func TestAuthService_Signup(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	mockRepo.On("GetByEmail", ctx, "jane@example.com").Return(nil, notFound("user")).Once()
	mockRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.Email == "jane@example.com" &&
			u.PasswordHash != "password123" &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) == nil &&
			u.DateOfBirth.Equal(time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)) &&
			u.Address.City == "Helsinki"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*models.User).ID = "user-123"
	}).Return(nil).Once()

	user, token, err := authService.Signup(ctx, validSignup())
	require.NoError(t, err)
	assert.Equal(t, "user-123", user.ID)
	assert.NotEmpty(t, token)

	claims := parseClaims(t, token)
	assert.Equal(t, "user-123", claims["user_id"])
	assert.Equal(t, "jane@example.com", claims["email"])
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Signup_EmailTaken(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	mockRepo.On("GetByEmail", ctx, "jane@example.com").Return(&models.User{ID: "1"}, nil).Once()

	_, _, err := authService.Signup(ctx, validSignup())
	assert.ErrorIs(t, err, services.ErrUserExists)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Signup_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(req *models.SignupRequest)
		field  string
	}{
		{"missing name", func(r *models.SignupRequest) { r.Name = "" }, "name"},
		{"bad email", func(r *models.SignupRequest) { r.Email = "not-an-email" }, "email"},
		{"short password", func(r *models.SignupRequest) { r.Password = "123" }, "password"},
		{"missing phone", func(r *models.SignupRequest) { r.PhoneNumber = "" }, "phone_number"},
		{"unparseable birth date", func(r *models.SignupRequest) { r.DateOfBirth = "yesterday" }, "date_of_birth"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

			req := validSignup()
			tt.mutate(&req)

			_, _, err := authService.Signup(context.Background(), req)
			var validationErr *services.ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Contains(t, validationErr.Fields, tt.field)
			mockRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	user := &models.User{
		ID:           "user-123",
		Email:        "jane@example.com",
		PasswordHash: string(hashedPassword),
	}

	// Test successful login
	mockRepo.On("GetByEmail", ctx, "jane@example.com").Return(user, nil).Once()
	got, token, err := authService.Login(ctx, models.LoginRequest{Email: "JANE@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "user-123", parseClaims(t, token)["user_id"])

	// Test invalid credentials (wrong password)
	mockRepo.On("GetByEmail", ctx, "jane@example.com").Return(user, nil).Once()
	_, _, err = authService.Login(ctx, models.LoginRequest{Email: "jane@example.com", Password: "wrongpassword"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	// Test invalid credentials (user not found)
	mockRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, notFound("user")).Once()
	_, _, err = authService.Login(ctx, models.LoginRequest{Email: "ghost@example.com", Password: "password123"})
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	mockRepo.AssertExpectations(t)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := services.NewAuthService(new(MockUserRepository), testJWTSecret, time.Hour)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-123",
		"exp":     jwt.TimeFunc().Add(time.Hour).Unix(),
	})
	validTokenString, _ := token.SignedString([]byte(testJWTSecret))

	claims, err := authService.ValidateToken(validTokenString)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", claims["user_id"])

	_, err = authService.ValidateToken("invalid.token.string")
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	wrongSecret, _ := token.SignedString([]byte("another_secret"))
	_, err = authService.ValidateToken(wrongSecret)
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-123",
		"exp":     jwt.TimeFunc().Add(-time.Hour).Unix(),
	})
	expiredTokenString, _ := expiredToken.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateToken(expiredTokenString)
	assert.ErrorIs(t, err, services.ErrInvalidToken)
}

func TestAuthService_Authenticate(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	sign := func(claims jwt.MapClaims) string {
		s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
		return s
	}
	exp := jwt.TimeFunc().Add(time.Hour).Unix()

	mockRepo.On("GetByID", ctx, "user-123").Return(&models.User{ID: "user-123"}, nil).Once()
	id, err := authService.Authenticate(ctx, sign(jwt.MapClaims{"user_id": "user-123", "exp": exp}))
	require.NoError(t, err)
	assert.Equal(t, "user-123", id)

	mockRepo.On("GetByID", ctx, "deleted-user").Return(nil, notFound("user")).Once()
	_, err = authService.Authenticate(ctx, sign(jwt.MapClaims{"user_id": "deleted-user", "exp": exp}))
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	_, err = authService.Authenticate(ctx, sign(jwt.MapClaims{"exp": exp}))
	assert.ErrorIs(t, err, services.ErrInvalidToken)

	mockRepo.AssertExpectations(t)
}

func TestAuthService_Signup_LostRaceIsUserExists(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(mockRepo, testJWTSecret, time.Hour)

	// The email is free at check time but taken by the time of the insert.
	mockRepo.On("GetByEmail", ctx, "jane@example.com").Return(nil, notFound("user")).Once()
	mockRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).
		Return(fmt.Errorf("failed to create user: %w", repositories.ErrDuplicateEmail)).Once()

	_, _, err := authService.Signup(ctx, validSignup())
	assert.ErrorIs(t, err, services.ErrUserExists)
	var storeErr *services.StoreError
	assert.False(t, errors.As(err, &storeErr))
	mockRepo.AssertExpectations(t)
}

func TestAuthService_Signup_Concurrent(t *testing.T) {
	authService := services.NewAuthService(repositories.NewMemoryUserRepository(), testJWTSecret, time.Hour)

	const attempts = 8
	var (
		wg      sync.WaitGroup
		start   = make(chan struct{})
		results = make([]error, attempts)
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			req := validSignup()
			req.Email = "dup@example.com"
			_, _, results[i] = authService.Signup(context.Background(), req)
		}(i)
	}
	close(start)
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, services.ErrUserExists)
	}
	assert.Equal(t, 1, succeeded)
}
