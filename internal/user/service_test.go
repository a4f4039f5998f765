package user

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) Create(ctx context.Context, u *User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func TestService_Login(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	ctx := context.Background()

	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	cafeteriaID := uint(2)
	staff := &User{
		ID:           5,
		Email:        "staff@example.com",
		DisplayName:  "Siti",
		PasswordHash: hash,
		Role:         "STAFF",
		CafeteriaID:  &cafeteriaID,
	}

	t.Run("Success", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByEmail", ctx, staff.Email).Return(staff, nil)
		svc := NewService(repo)

		token, u, err := svc.Login(ctx, staff.Email, "s3cret")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, staff.ID, u.ID)

		claims, err := ParseJWT(token)
		require.NoError(t, err)
		assert.Equal(t, "STAFF", claims.Role)
		require.NotNil(t, claims.CafeteriaID)
		assert.Equal(t, uint(2), *claims.CafeteriaID)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByEmail", ctx, staff.Email).Return(staff, nil)
		svc := NewService(repo)

		_, _, err := svc.Login(ctx, staff.Email, "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByEmail", ctx, "nobody@example.com").Return(nil, ErrUserNotFound)
		svc := NewService(repo)

		_, _, err := svc.Login(ctx, "nobody@example.com", "s3cret")
		// Same error as a wrong password, so the response does not leak
		// which emails exist.
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("GetByEmail", ctx, staff.Email).Return(nil, errors.New("db down"))
		svc := NewService(repo)

		_, _, err := svc.Login(ctx, staff.Email, "s3cret")
		assert.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
	})
}
