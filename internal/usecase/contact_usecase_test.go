package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func validContact() ContactInput {
	return ContactInput{
		Name:    " Anna ",
		Email:   "anna@example.com",
		Subject: "Wholesale",
		Message: "Do you ship to Norway?",
	}
}

func TestContactUsecase_Submit_SendsBothMails(t *testing.T) {
	s := newMemStore()
	mailer := new(MockMailer)
	uc := NewContactUsecase(s, s.ContactMessages(), mailer, "shop@example.com")

	mailer.On("Send", mock.Anything, sentTo("anna@example.com")).Return(nil).Once()
	mailer.On("Send", mock.Anything, sentTo("shop@example.com")).Return(nil).Once()

	msg, err := uc.Submit(context.Background(), validContact())
	require.NoError(t, err)
	assert.NotZero(t, msg.ID)
	assert.Equal(t, "Anna", msg.Name)
	assert.Len(t, s.d.contacts, 1)

	mailer.AssertExpectations(t)
}

// どちらかのメールが失敗したら保存も取り消す
func TestContactUsecase_Submit_MailFailureRollsBack(t *testing.T) {
	s := newMemStore()
	mailer := new(MockMailer)
	uc := NewContactUsecase(s, s.ContactMessages(), mailer, "shop@example.com")

	mailer.On("Send", mock.Anything, sentTo("anna@example.com")).Return(nil).Maybe()
	mailer.On("Send", mock.Anything, sentTo("shop@example.com")).Return(errors.New("postmark 500")).Once()

	_, err := uc.Submit(context.Background(), validContact())
	requireHTTPError(t, err, http.StatusInternalServerError, "email send failed")
	assert.Empty(t, s.d.contacts)
}

func TestContactUsecase_Submit_Validation(t *testing.T) {
	s := newMemStore()
	mailer := new(MockMailer)
	uc := NewContactUsecase(s, s.ContactMessages(), mailer, "shop@example.com")

	in := ContactInput{Name: " ", Email: "nope", Subject: "", Message: strings.Repeat("m", 5001)}
	_, err := uc.Submit(context.Background(), in)
	he := requireHTTPError(t, err, http.StatusBadRequest, "validation error")
	assert.ElementsMatch(t, []string{"name required", "invalid email", "subject required", "message required"}, he.Errors)
	mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestContactUsecase_AdminInbox(t *testing.T) {
	s := newMemStore()
	uc := NewContactUsecase(s, s.ContactMessages(), new(MockMailer), "shop@example.com")
	ctx := context.Background()

	a := model.ContactMessage{Name: "A", Email: "a@example.com", Subject: "s", Message: "m"}
	b := model.ContactMessage{Name: "B", Email: "b@example.com", Subject: "s", Message: "m"}
	require.NoError(t, s.ContactMessages().Create(ctx, &a))
	require.NoError(t, s.ContactMessages().Create(ctx, &b))

	require.NoError(t, uc.MarkRead(ctx, a.ID))

	unread, err := uc.List(ctx, ListContactMessagesInput{PageInput: PageInput{Page: 1, Limit: 20}, UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread.Items, 1)
	assert.Equal(t, b.ID, unread.Items[0].ID)

	require.NoError(t, uc.Delete(ctx, b.ID))
	requireHTTPError(t, uc.Delete(ctx, b.ID), http.StatusNotFound, "not found")
	requireHTTPError(t, uc.MarkRead(ctx, 999), http.StatusNotFound, "not found")
	requireHTTPError(t, uc.MarkRead(ctx, 0), http.StatusBadRequest, "invalid id")
}

// ---- subscriptions ----

type memSubs struct {
	byID map[int64]model.EmailSubscription
	seq  int64
}

func newMemSubs() *memSubs {
	return &memSubs{byID: map[int64]model.EmailSubscription{}}
}

func (r *memSubs) FindByEmail(ctx context.Context, email string) (model.EmailSubscription, error) {
	for _, s := range r.byID {
		if s.Email == email {
			return s, nil
		}
	}
	return model.EmailSubscription{}, repo.ErrNotFound
}

func (r *memSubs) FindByToken(ctx context.Context, token string) (model.EmailSubscription, error) {
	for _, s := range r.byID {
		if s.UnsubscribeToken == token {
			return s, nil
		}
	}
	return model.EmailSubscription{}, repo.ErrNotFound
}

func (r *memSubs) Create(ctx context.Context, s *model.EmailSubscription) error {
	if _, err := r.FindByEmail(ctx, s.Email); err == nil {
		return repo.ErrConflict
	}
	r.seq++
	s.ID = r.seq
	r.byID[s.ID] = *s
	return nil
}

func (r *memSubs) Update(ctx context.Context, s *model.EmailSubscription) error {
	r.byID[s.ID] = *s
	return nil
}

func (r *memSubs) List(ctx context.Context, f repo.SubscriptionFilter) ([]model.EmailSubscription, int64, error) {
	all := sortedByID(r.byID, func(s model.EmailSubscription) bool { return f.Active == nil || s.IsActive == *f.Active })
	return pageOf(all, f.Page.Page, f.Limit), int64(len(all)), nil
}

// 先頭のFindByEmailを取りこぼして同時登録を再現する
type racingSubs struct {
	*memSubs
	misses  int
	findErr error
}

func (r *racingSubs) FindByEmail(ctx context.Context, email string) (model.EmailSubscription, error) {
	if r.misses > 0 {
		r.misses--
		return model.EmailSubscription{}, repo.ErrNotFound
	}
	if r.findErr != nil {
		return model.EmailSubscription{}, r.findErr
	}
	return r.memSubs.FindByEmail(ctx, email)
}

func TestSubscriptionUsecase_Subscribe_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	winner := model.EmailSubscription{Email: "race@example.com", UnsubscribeToken: "tok-w", IsActive: true}

	t.Run("continues with the other row", func(t *testing.T) {
		base := newMemSubs()
		require.NoError(t, base.Create(ctx, &winner))
		mailer := new(MockMailer)
		mailer.On("Send", mock.Anything, sentTo("race@example.com")).Return(nil).Once()
		uc := NewSubscriptionUsecase(&racingSubs{memSubs: base, misses: 1}, mailer, "https://shop.example.com")

		s, err := uc.Subscribe(ctx, "race@example.com")
		require.NoError(t, err)
		assert.Equal(t, winner.ID, s.ID)
		assert.Len(t, base.byID, 1)
		mailer.AssertExpectations(t)
	})

	t.Run("reload error is a db error", func(t *testing.T) {
		base := newMemSubs()
		require.NoError(t, base.Create(ctx, &winner))
		mailer := new(MockMailer)
		uc := NewSubscriptionUsecase(&racingSubs{memSubs: base, misses: 1, findErr: errors.New("conn reset")}, mailer, "https://shop.example.com")

		_, err := uc.Subscribe(ctx, "race@example.com")
		requireHTTPError(t, err, http.StatusInternalServerError, "db error")
		mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	})
}

func TestSubscriptionUsecase_SubscribeAndUnsubscribe(t *testing.T) {
	subs := newMemSubs()
	mailer := new(MockMailer)
	uc := NewSubscriptionUsecase(subs, mailer, "https://shop.example.com/")
	uc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	ctx := context.Background()

	mailer.On("Send", mock.Anything, sentTo("new@example.com")).Return(nil)

	s, err := uc.Subscribe(ctx, " New@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", s.Email)
	assert.True(t, s.IsActive)
	firstToken := s.UnsubscribeToken
	require.NotEmpty(t, firstToken)

	// 有効なら何もしない
	again, err := uc.Subscribe(ctx, "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, s.ID, again.ID)
	mailer.AssertNumberOfCalls(t, "Send", 1)

	require.NoError(t, uc.Unsubscribe(ctx, firstToken))
	stored := subs.byID[s.ID]
	assert.False(t, stored.IsActive)
	require.NotNil(t, stored.UnsubscribedAt)
	assert.Equal(t, uc.now(), *stored.UnsubscribedAt)

	// 2回目も成功扱い
	require.NoError(t, uc.Unsubscribe(ctx, firstToken))

	// 再登録で再開。トークンは新しくなる
	back, err := uc.Subscribe(ctx, "new@example.com")
	require.NoError(t, err)
	assert.True(t, back.IsActive)
	assert.Nil(t, back.UnsubscribedAt)
	assert.NotEqual(t, firstToken, back.UnsubscribeToken)
	assert.Len(t, subs.byID, 1)
}

func TestSubscriptionUsecase_Errors(t *testing.T) {
	uc := NewSubscriptionUsecase(newMemSubs(), new(MockMailer), "https://shop.example.com")
	ctx := context.Background()

	_, err := uc.Subscribe(ctx, "not-an-email")
	requireHTTPError(t, err, http.StatusBadRequest, "validation error")

	requireHTTPError(t, uc.Unsubscribe(ctx, " "), http.StatusBadRequest, "validation error")
	requireHTTPError(t, uc.Unsubscribe(ctx, "missing"), http.StatusNotFound, "not found")
}

// 歓迎メールの失敗は登録に影響しない
func TestSubscriptionUsecase_WelcomeMailFailureIgnored(t *testing.T) {
	subs := newMemSubs()
	mailer := new(MockMailer)
	uc := NewSubscriptionUsecase(subs, mailer, "https://shop.example.com")
	mailer.On("Send", mock.Anything, mock.Anything).Return(errors.New("down"))

	s, err := uc.Subscribe(context.Background(), "x@example.com")
	require.NoError(t, err)
	assert.True(t, s.IsActive)
}

func TestSubscriptionUsecase_List(t *testing.T) {
	subs := newMemSubs()
	mailer := new(MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything).Return(nil)
	uc := NewSubscriptionUsecase(subs, mailer, "https://shop.example.com")
	ctx := context.Background()

	a, err := uc.Subscribe(ctx, "a@example.com")
	require.NoError(t, err)
	_, err = uc.Subscribe(ctx, "b@example.com")
	require.NoError(t, err)
	require.NoError(t, uc.Unsubscribe(ctx, a.UnsubscribeToken))

	active := true
	out, err := uc.List(ctx, ListSubscriptionsInput{PageInput: PageInput{Page: 1, Limit: 20}, Active: &active})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "b@example.com", out.Items[0].Email)

	all, err := uc.List(ctx, ListSubscriptionsInput{PageInput: PageInput{Page: 1, Limit: 20}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
}
