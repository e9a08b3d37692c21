package validator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"datesshop/internal/domain/model"
	"datesshop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) FindByID(ctx context.Context, id int64) (*model.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *UserRepoMock) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepoMock) IncrementTokenVersion(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *UserRepoMock) List(ctx context.Context, f repository.UserListFilter) ([]model.User, int64, error) {
	args := m.Called(ctx, f)
	us, _ := args.Get(0).([]model.User)
	return us, args.Get(1).(int64), args.Error(2)
}

func TestValidateRegister(t *testing.T) {
	ctx := context.Background()

	t.Run("ok", func(t *testing.T) {
		users := new(UserRepoMock)
		users.On("FindByEmail", mock.Anything, "new@example.com").Return(nil, repository.ErrUserNotFound).Once()

		err := NewAuthValidator(users).ValidateRegister(ctx, " new@example.com ", "sweet-medjool-42")
		require.NoError(t, err)
		users.AssertExpectations(t)
	})

	t.Run("field errors are collected", func(t *testing.T) {
		users := new(UserRepoMock)
		err := NewAuthValidator(users).ValidateRegister(ctx, "nope", "short")

		var fe *FieldErrors
		require.True(t, errors.As(err, &fe))
		assert.Equal(t, []string{"invalid email", "password must be at least 12 characters"}, fe.Fields)
		// 形式エラーならDBは見ない
		users.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
	})

	t.Run("email taken", func(t *testing.T) {
		users := new(UserRepoMock)
		users.On("FindByEmail", mock.Anything, "taken@example.com").Return(&model.User{ID: 1}, nil).Once()

		err := NewAuthValidator(users).ValidateRegister(ctx, "taken@example.com", "sweet-medjool-42")
		assert.ErrorIs(t, err, ErrEmailAlreadyUsed)
	})

	t.Run("db error", func(t *testing.T) {
		users := new(UserRepoMock)
		dbErr := errors.New("connection refused")
		users.On("FindByEmail", mock.Anything, "a@example.com").Return(nil, dbErr).Once()

		err := NewAuthValidator(users).ValidateRegister(ctx, "a@example.com", "sweet-medjool-42")
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestValidateLogin(t *testing.T) {
	v := NewAuthValidator(new(UserRepoMock))
	ctx := context.Background()

	assert.NoError(t, v.ValidateLogin(ctx, "a@example.com", "x"))
	assert.ErrorIs(t, v.ValidateLogin(ctx, "", "x"), ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateLogin(ctx, "a@example.com", ""), ErrInvalidInput)
	assert.ErrorIs(t, v.ValidateLogin(ctx, "not-an-email", "x"), ErrInvalidInput)
}

func TestPasswordProblems(t *testing.T) {
	assert.Empty(t, PasswordProblems("sweet-medjool-42"))
	assert.Equal(t, []string{"password too common"}, PasswordProblems("Password1234"))
	assert.Equal(t, []string{"password too long"}, PasswordProblems(strings.Repeat("a", 73)))
	assert.Len(t, PasswordProblems(""), 1)
}

func TestIsEmail(t *testing.T) {
	assert.True(t, IsEmail("anna@example.se"))
	assert.False(t, IsEmail("anna@example"))
	assert.False(t, IsEmail("an na@example.se"))
	assert.False(t, IsEmail(strings.Repeat("a", 250)+"@example.se"))
}
