package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"datesshop/internal/domain/model"
	"datesshop/internal/infra/mail"
	repo "datesshop/internal/repository"
	"datesshop/internal/validator"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type ContactUsecase struct {
	tx       repo.TransactionManager
	messages repo.ContactMessageRepository
	mailer   mail.Mailer
	inbox    string
}

func NewContactUsecase(tx repo.TransactionManager, messages repo.ContactMessageRepository, mailer mail.Mailer, inbox string) *ContactUsecase {
	return &ContactUsecase{tx: tx, messages: messages, mailer: mailer, inbox: inbox}
}

type ContactInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

func (in *ContactInput) validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)

	var errs fieldErrors
	errs.add(in.Name == "" || len(in.Name) > 255, "name required")
	errs.add(!validator.IsEmail(in.Email), "invalid email")
	errs.add(len(in.Phone) > 30, "phone too long")
	errs.add(in.Subject == "" || len(in.Subject) > 255, "subject required")
	errs.add(in.Message == "" || len(in.Message) > 5000, "message required")
	return errs.err()
}

// 保存して2通（送信者への確認・店への通知）を並行送信。どちらか失敗したら保存も取り消す
func (u *ContactUsecase) Submit(ctx context.Context, in ContactInput) (model.ContactMessage, error) {
	if err := in.validate(); err != nil {
		return model.ContactMessage{}, err
	}

	msg := model.ContactMessage{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Subject: in.Subject,
		Message: in.Message,
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.ContactMessages().Create(ctx, &msg); err != nil {
			return dbError(ctx, err)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return u.mailer.Send(gctx, mail.ContactConfirmation(msg))
		})
		g.Go(func() error {
			return u.mailer.Send(gctx, mail.ContactNotification(u.inbox, msg))
		})
		if err := g.Wait(); err != nil {
			return internalError(ctx, err, "email send failed")
		}
		return nil
	})
	if err != nil {
		return model.ContactMessage{}, err
	}
	return msg, nil
}

type ListContactMessagesInput struct {
	PageInput
	UnreadOnly bool
}

func (u *ContactUsecase) List(ctx context.Context, in ListContactMessagesInput) (Paged[model.ContactMessage], error) {
	if err := in.validate(); err != nil {
		return Paged[model.ContactMessage]{}, err
	}
	items, total, err := u.messages.List(ctx, repo.ContactMessageFilter{
		Page:       repo.Page{Page: in.Page, Limit: in.Limit},
		UnreadOnly: in.UnreadOnly,
	})
	if err != nil {
		return Paged[model.ContactMessage]{}, dbError(ctx, err)
	}
	return newPaged(items, total, in.PageInput), nil
}

func (u *ContactUsecase) MarkRead(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	err := u.messages.MarkRead(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return dbError(ctx, err)
	}
	return nil
}

func (u *ContactUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	err := u.messages.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return dbError(ctx, err)
	}
	return nil
}

type SubscriptionUsecase struct {
	subs   repo.EmailSubscriptionRepository
	mailer mail.Mailer
	feURL  string
	now    func() time.Time
}

func NewSubscriptionUsecase(subs repo.EmailSubscriptionRepository, mailer mail.Mailer, feURL string) *SubscriptionUsecase {
	return &SubscriptionUsecase{subs: subs, mailer: mailer, feURL: strings.TrimRight(feURL, "/"), now: time.Now}
}

// 新規 or 再開。既に有効なら何もしない
func (u *SubscriptionUsecase) Subscribe(ctx context.Context, email string) (model.EmailSubscription, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if !validator.IsEmail(email) {
		return model.EmailSubscription{}, NewValidationError("invalid email")
	}

	s, err := u.subs.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if s.IsActive {
			return s, nil
		}
		s.IsActive = true
		s.UnsubscribedAt = nil
		s.UnsubscribeToken = uuid.NewString()
		if err := u.subs.Update(ctx, &s); err != nil {
			return model.EmailSubscription{}, dbError(ctx, err)
		}
	case errors.Is(err, repo.ErrNotFound):
		s = model.EmailSubscription{
			Email:            email,
			UnsubscribeToken: uuid.NewString(),
			IsActive:         true,
		}
		err := u.subs.Create(ctx, &s)
		if errors.Is(err, repo.ErrConflict) {
			// 同時登録。もう一方の行で続ける
			s, err = u.subs.FindByEmail(ctx, email)
		}
		if err != nil {
			return model.EmailSubscription{}, dbError(ctx, err)
		}
	default:
		return model.EmailSubscription{}, dbError(ctx, err)
	}

	unsub := u.feURL + "/unsubscribe?token=" + url.QueryEscape(s.UnsubscribeToken)
	if err := u.mailer.Send(ctx, mail.SubscriptionWelcome(s, unsub)); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int64("subscription_id", s.ID).Msg("welcome email not sent")
	}
	return s, nil
}

func (u *SubscriptionUsecase) Unsubscribe(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return NewValidationError("token required")
	}
	s, err := u.subs.FindByToken(ctx, token)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return dbError(ctx, err)
	}
	if !s.IsActive {
		return nil
	}

	now := u.now()
	s.IsActive = false
	s.UnsubscribedAt = &now
	if err := u.subs.Update(ctx, &s); err != nil {
		return dbError(ctx, err)
	}
	return nil
}

type ListSubscriptionsInput struct {
	PageInput
	Active *bool
}

func (u *SubscriptionUsecase) List(ctx context.Context, in ListSubscriptionsInput) (Paged[model.EmailSubscription], error) {
	if err := in.validate(); err != nil {
		return Paged[model.EmailSubscription]{}, err
	}
	items, total, err := u.subs.List(ctx, repo.SubscriptionFilter{
		Page:   repo.Page{Page: in.Page, Limit: in.Limit},
		Active: in.Active,
	})
	if err != nil {
		return Paged[model.EmailSubscription]{}, dbError(ctx, err)
	}
	return newPaged(items, total, in.PageInput), nil
}
