package usecase

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"
)

// テーブルごとの違い
type ContentRules[T any] struct {
	// 入力エラーを返す（無ければnil）
	Validate func(v *T) []string
	SetID    func(v *T, id int64)
}

// Date / Gallery / Section / Faq などの一覧・CRUD
type ContentUsecase[T any] struct {
	repo  repo.ContentRepository[T]
	rules ContentRules[T]
}

func NewContentUsecase[T any](r repo.ContentRepository[T], rules ContentRules[T]) *ContentUsecase[T] {
	return &ContentUsecase[T]{repo: r, rules: rules}
}

type ListContentInput struct {
	PageInput
	Q string
}

func (u *ContentUsecase[T]) List(ctx context.Context, in ListContentInput, includeInactive bool) (Paged[T], error) {
	if err := in.validate(); err != nil {
		return Paged[T]{}, err
	}
	if len(in.Q) > 100 {
		return Paged[T]{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}

	items, total, err := u.repo.List(ctx, repo.ContentListQuery{
		Page:            in.Page,
		Limit:           in.Limit,
		Q:               strings.TrimSpace(in.Q),
		IncludeInactive: includeInactive,
	})
	if err != nil {
		return Paged[T]{}, dbError(ctx, err)
	}
	return newPaged(items, total, in.PageInput), nil
}

// 公開側は非公開を404にする
func (u *ContentUsecase[T]) Get(ctx context.Context, id int64, active func(T) bool) (T, error) {
	var zero T
	if id <= 0 {
		return zero, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	v, err := u.repo.FindByID(ctx, id)
	return u.found(ctx, v, err, active)
}

func (u *ContentUsecase[T]) GetBy(ctx context.Context, column string, value any, active func(T) bool) (T, error) {
	v, err := u.repo.FindBy(ctx, column, value)
	return u.found(ctx, v, err, active)
}

func (u *ContentUsecase[T]) found(ctx context.Context, v T, err error, active func(T) bool) (T, error) {
	var zero T
	if errors.Is(err, repo.ErrNotFound) {
		return zero, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return zero, dbError(ctx, err)
	}
	if active != nil && !active(v) {
		return zero, NewHTTPError(http.StatusNotFound, "not found")
	}
	return v, nil
}

func (u *ContentUsecase[T]) Create(ctx context.Context, v *T) error {
	u.rules.SetID(v, 0)
	if err := u.validate(v); err != nil {
		return err
	}
	if err := u.repo.Create(ctx, v); err != nil {
		if errors.Is(err, repo.ErrConflict) {
			return NewHTTPError(http.StatusConflict, "already exists")
		}
		return dbError(ctx, err)
	}
	return nil
}

func (u *ContentUsecase[T]) Update(ctx context.Context, id int64, v *T) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	u.rules.SetID(v, id)
	if err := u.validate(v); err != nil {
		return err
	}
	err := u.repo.Update(ctx, v)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if errors.Is(err, repo.ErrConflict) {
		return NewHTTPError(http.StatusConflict, "already exists")
	}
	if err != nil {
		return dbError(ctx, err)
	}
	return nil
}

func (u *ContentUsecase[T]) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	err := u.repo.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return dbError(ctx, err)
	}
	return nil
}

func (u *ContentUsecase[T]) validate(v *T) error {
	if u.rules.Validate == nil {
		return nil
	}
	if errs := u.rules.Validate(v); len(errs) > 0 {
		return NewValidationError(errs...)
	}
	return nil
}

func bilingualRequired(en, sv, field string) []string {
	if strings.TrimSpace(en) == "" && strings.TrimSpace(sv) == "" {
		return []string{field + "_en or " + field + "_sv required"}
	}
	return nil
}

func sortOrderOK(n int) []string {
	if n < 0 {
		return []string{"sort_order must be >= 0"}
	}
	return nil
}

var sectionKeyRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_.-]{0,99}$`)

var DateRules = ContentRules[model.Date]{
	Validate: func(v *model.Date) []string {
		var errs []string
		errs = append(errs, bilingualRequired(v.NameEn, v.NameSv, "name")...)
		return append(errs, sortOrderOK(v.SortOrder)...)
	},
	SetID: func(v *model.Date, id int64) { v.ID = id },
}

var CollectionRules = ContentRules[model.DatesCollection]{
	Validate: func(v *model.DatesCollection) []string {
		var errs []string
		errs = append(errs, bilingualRequired(v.TitleEn, v.TitleSv, "title")...)
		return append(errs, sortOrderOK(v.SortOrder)...)
	},
	SetID: func(v *model.DatesCollection, id int64) { v.ID = id },
}

var GalleryRules = ContentRules[model.Gallery]{
	Validate: func(v *model.Gallery) []string {
		var errs []string
		if strings.TrimSpace(v.ImagePath) == "" {
			errs = append(errs, "image_path required")
		}
		return append(errs, sortOrderOK(v.SortOrder)...)
	},
	SetID: func(v *model.Gallery, id int64) { v.ID = id },
}

var SectionRules = ContentRules[model.Section]{
	Validate: func(v *model.Section) []string {
		var errs []string
		v.Key = strings.ToLower(strings.TrimSpace(v.Key))
		if !sectionKeyRe.MatchString(v.Key) {
			errs = append(errs, "invalid key")
		}
		errs = append(errs, bilingualRequired(v.TitleEn, v.TitleSv, "title")...)
		return append(errs, sortOrderOK(v.SortOrder)...)
	},
	SetID: func(v *model.Section, id int64) { v.ID = id },
}

var FaqRules = ContentRules[model.Faq]{
	Validate: func(v *model.Faq) []string {
		var errs []string
		errs = append(errs, bilingualRequired(v.QuestionEn, v.QuestionSv, "question")...)
		errs = append(errs, bilingualRequired(v.AnswerEn, v.AnswerSv, "answer")...)
		return append(errs, sortOrderOK(v.SortOrder)...)
	},
	SetID: func(v *model.Faq, id int64) { v.ID = id },
}

// コレクションはデーツの紐付けも扱う
type CollectionUsecase struct {
	*ContentUsecase[model.DatesCollection]
	dates repo.CollectionDatesRepository
}

func NewCollectionUsecase(r repo.ContentRepository[model.DatesCollection], dates repo.CollectionDatesRepository) *CollectionUsecase {
	return &CollectionUsecase{
		ContentUsecase: NewContentUsecase(r, CollectionRules),
		dates:          dates,
	}
}

type CollectionInput struct {
	model.DatesCollection
	DateIDs *[]int64 `json:"date_ids"`
}

func (u *CollectionUsecase) CreateWithDates(ctx context.Context, in CollectionInput) (model.DatesCollection, error) {
	c := in.DatesCollection
	c.Dates = nil
	if err := u.Create(ctx, &c); err != nil {
		return model.DatesCollection{}, err
	}
	if in.DateIDs != nil {
		if err := u.replaceDates(ctx, c.ID, *in.DateIDs); err != nil {
			return model.DatesCollection{}, err
		}
	}
	return u.Get(ctx, c.ID, nil)
}

// date_ids が無ければ紐付けはそのまま
func (u *CollectionUsecase) UpdateWithDates(ctx context.Context, id int64, in CollectionInput) (model.DatesCollection, error) {
	c := in.DatesCollection
	c.Dates = nil
	if err := u.Update(ctx, id, &c); err != nil {
		return model.DatesCollection{}, err
	}
	if in.DateIDs != nil {
		if err := u.replaceDates(ctx, id, *in.DateIDs); err != nil {
			return model.DatesCollection{}, err
		}
	}
	return u.Get(ctx, id, nil)
}

func (u *CollectionUsecase) replaceDates(ctx context.Context, id int64, dateIDs []int64) error {
	for _, d := range dateIDs {
		if d <= 0 {
			return NewValidationError("invalid date_ids")
		}
	}
	err := u.dates.ReplaceDates(ctx, id, dateIDs)
	if errors.Is(err, repo.ErrNotFound) {
		return NewValidationError("unknown date_ids")
	}
	if err != nil {
		return dbError(ctx, err)
	}
	return nil
}
