package usecase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"datesshop/internal/domain/model"
	"datesshop/internal/infra/storage"
	repo "datesshop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type CustUserRepoMock struct{ mock.Mock }

func (m *CustUserRepoMock) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *CustUserRepoMock) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	args := m.Called(ctx, userID)
	u, _ := args.Get(0).(*model.User)
	return u, args.Error(1)
}

func (m *CustUserRepoMock) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	panic("not used in CustomerUsecase tests")
}

func (m *CustUserRepoMock) Update(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *CustUserRepoMock) IncrementTokenVersion(ctx context.Context, userID int64) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *CustUserRepoMock) List(ctx context.Context, f repo.UserListFilter) ([]model.User, int64, error) {
	args := m.Called(ctx, f)
	users, _ := args.Get(0).([]model.User)
	return users, args.Get(1).(int64), args.Error(2)
}

func TestCustomerUsecase_Me(t *testing.T) {
	users := new(CustUserRepoMock)
	uc := NewCustomerUsecase(users, memAudits{newMemStore()})
	ctx := context.Background()

	users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1, Email: "a@example.com"}, nil)
	users.On("FindByID", mock.Anything, int64(2)).Return(nil, repo.ErrUserNotFound)

	u, err := uc.Me(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", u.Email)

	_, err = uc.Me(ctx, 2)
	requireHTTPError(t, err, http.StatusNotFound, "not found")

	_, err = uc.Me(ctx, 0)
	requireHTTPError(t, err, http.StatusUnauthorized, "unauthorized")
}

func TestCustomerUsecase_UpdateMe(t *testing.T) {
	users := new(CustUserRepoMock)
	uc := NewCustomerUsecase(users, memAudits{newMemStore()})
	ctx := context.Background()

	users.On("FindByID", mock.Anything, int64(1)).Return(&model.User{ID: 1, Email: "a@example.com", FirstName: "Old"}, nil)
	users.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.FirstName == "Anna" && u.LastName == "Svensson" && u.Email == "a@example.com"
	})).Return(nil).Once()

	u, err := uc.UpdateMe(ctx, 1, UpdateProfileInput{FirstName: " Anna ", LastName: "Svensson", Phone: "+46 70 000"})
	require.NoError(t, err)
	assert.Equal(t, "Anna Svensson", u.FullName())

	_, err = uc.UpdateMe(ctx, 1, UpdateProfileInput{Phone: strings.Repeat("1", 31)})
	he := requireHTTPError(t, err, http.StatusBadRequest, "validation error")
	assert.Equal(t, []string{"phone too long"}, he.Errors)

	users.AssertExpectations(t)
}

func TestCustomerUsecase_AdminList_OnlyCustomers(t *testing.T) {
	users := new(CustUserRepoMock)
	uc := NewCustomerUsecase(users, memAudits{newMemStore()})

	users.On("List", mock.Anything, mock.MatchedBy(func(f repo.UserListFilter) bool {
		return f.Role != nil && *f.Role == model.RoleUser && f.Q == "anna" && f.Page == repo.Page{Page: 1, Limit: 20}
	})).Return([]model.User{{ID: 1}}, int64(1), nil).Once()

	out, err := uc.AdminList(context.Background(), ListCustomersInput{PageInput: PageInput{Page: 1, Limit: 20}, Q: " anna "})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)

	users.AssertExpectations(t)
}

// 無効化でtoken_versionが上がり監査ログが残る
func TestCustomerUsecase_AdminSetActive(t *testing.T) {
	users := new(CustUserRepoMock)
	s := newMemStore()
	uc := NewCustomerUsecase(users, s.AuditLogs())
	ctx := context.Background()

	users.On("FindByID", mock.Anything, int64(5)).Return(&model.User{ID: 5, IsActive: true, TokenVersion: 2}, nil).Once()
	users.On("Update", mock.Anything, mock.MatchedBy(func(u *model.User) bool { return u.ID == 5 && !u.IsActive })).Return(nil).Once()
	users.On("IncrementTokenVersion", mock.Anything, int64(5)).Return(nil).Once()

	u, err := uc.AdminSetActive(ctx, 1, 5, false)
	require.NoError(t, err)
	assert.False(t, u.IsActive)
	assert.Equal(t, 3, u.TokenVersion)

	require.Len(t, s.d.audits, 1)
	assert.Equal(t, model.AuditActionUpdateUserStatus, s.d.audits[0].Action)
	assert.Equal(t, `{"is_active":true}`, s.d.audits[0].BeforeJSON)
	assert.Equal(t, `{"is_active":false}`, s.d.audits[0].AfterJSON)

	users.AssertExpectations(t)
}

func TestCustomerUsecase_AdminSetActive_NoopAndErrors(t *testing.T) {
	users := new(CustUserRepoMock)
	s := newMemStore()
	uc := NewCustomerUsecase(users, s.AuditLogs())
	ctx := context.Background()

	users.On("FindByID", mock.Anything, int64(5)).Return(&model.User{ID: 5, IsActive: true}, nil)
	users.On("FindByID", mock.Anything, int64(6)).Return(nil, repo.ErrUserNotFound)

	// 同じ値なら何もしない
	_, err := uc.AdminSetActive(ctx, 1, 5, true)
	require.NoError(t, err)
	users.AssertNotCalled(t, "IncrementTokenVersion", mock.Anything, mock.Anything)
	assert.Empty(t, s.d.audits)

	_, err = uc.AdminSetActive(ctx, 1, 1, false)
	requireHTTPError(t, err, http.StatusBadRequest, "cannot change own status")

	_, err = uc.AdminSetActive(ctx, 1, 6, false)
	requireHTTPError(t, err, http.StatusNotFound, "not found")

	_, err = uc.AdminSetActive(ctx, 0, 5, false)
	requireHTTPError(t, err, http.StatusUnauthorized, "unauthorized")
}

// ---- upload ----

type fakeStorage struct {
	path string
	err  error
}

func (f fakeStorage) Save(folder, filename string, size int64, r io.Reader) (string, error) {
	return f.path, f.err
}

func TestUploadUsecase_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"folder", storage.ErrInvalidFolder, http.StatusBadRequest, "invalid folder"},
		{"extension", storage.ErrInvalidExtension, http.StatusBadRequest, "invalid file type"},
		{"too large", storage.ErrTooLarge, http.StatusRequestEntityTooLarge, "file too large"},
		{"disk", errors.New("no space left"), http.StatusInternalServerError, "upload failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := NewUploadUsecase(fakeStorage{err: tt.err})
			_, err := uc.Upload(context.Background(), "products", "a.jpg", 10, strings.NewReader("x"))
			requireHTTPError(t, err, tt.status, tt.msg)
		})
	}
}

func TestUploadUsecase_Success(t *testing.T) {
	uc := NewUploadUsecase(fakeStorage{path: "/uploads/products/abc.jpg"})

	out, err := uc.Upload(context.Background(), "products", "a.jpg", 10, strings.NewReader("x"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/products/abc.jpg", out.Path)
}
