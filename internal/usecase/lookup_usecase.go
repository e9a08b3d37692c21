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

type LookupUsecase struct {
	lookups repo.LookupRepository
}

func NewLookupUsecase(lookups repo.LookupRepository) *LookupUsecase {
	return &LookupUsecase{lookups: lookups}
}

type LookupInput struct {
	Kind      string `json:"kind"`
	Code      string `json:"code"`
	NameEn    string `json:"name_en"`
	NameSv    string `json:"name_sv"`
	SortOrder int    `json:"sort_order"`
	IsActive  bool   `json:"is_active"`
}

var lookupCodeRe = regexp.MustCompile(`^[a-z0-9_-]{1,50}$`)

func (in *LookupInput) validate() error {
	in.Kind = strings.ToLower(strings.TrimSpace(in.Kind))
	in.Code = strings.ToLower(strings.TrimSpace(in.Code))

	var errs fieldErrors
	errs.add(!model.LookupKind(in.Kind).Valid(), "invalid kind")
	errs.add(!lookupCodeRe.MatchString(in.Code), "invalid code")
	errs.add(strings.TrimSpace(in.NameEn) == "", "name_en required")
	errs.add(strings.TrimSpace(in.NameSv) == "", "name_sv required")
	errs.add(in.SortOrder < 0, "sort_order must be >= 0")
	return errs.err()
}

// kindごとにまとめて返す（kind指定時はその1種類）
func (u *LookupUsecase) List(ctx context.Context, kind string, includeInactive bool) (map[model.LookupKind][]model.Lookup, error) {
	k := model.LookupKind(strings.ToLower(strings.TrimSpace(kind)))
	if k != "" && !k.Valid() {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid kind")
	}

	items, err := u.lookups.List(ctx, k, includeInactive)
	if err != nil {
		return nil, dbError(ctx, err)
	}

	out := map[model.LookupKind][]model.Lookup{}
	for _, l := range items {
		out[l.Kind] = append(out[l.Kind], l)
	}
	return out, nil
}

func (u *LookupUsecase) Create(ctx context.Context, in LookupInput) (model.Lookup, error) {
	if err := in.validate(); err != nil {
		return model.Lookup{}, err
	}
	l, err := u.lookups.Create(ctx, model.Lookup{
		Kind:      model.LookupKind(in.Kind),
		Code:      in.Code,
		NameEn:    strings.TrimSpace(in.NameEn),
		NameSv:    strings.TrimSpace(in.NameSv),
		SortOrder: in.SortOrder,
		IsActive:  in.IsActive,
	})
	if errors.Is(err, repo.ErrConflict) {
		return model.Lookup{}, NewHTTPError(http.StatusConflict, "lookup already exists")
	}
	if err != nil {
		return model.Lookup{}, dbError(ctx, err)
	}
	return l, nil
}

// kindは変更できない
func (u *LookupUsecase) Update(ctx context.Context, id int64, in LookupInput) (model.Lookup, error) {
	if id <= 0 {
		return model.Lookup{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	current, err := u.lookups.FindByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Lookup{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Lookup{}, dbError(ctx, err)
	}

	in.Kind = string(current.Kind)
	if err := in.validate(); err != nil {
		return model.Lookup{}, err
	}

	current.Code = in.Code
	current.NameEn = strings.TrimSpace(in.NameEn)
	current.NameSv = strings.TrimSpace(in.NameSv)
	current.SortOrder = in.SortOrder
	current.IsActive = in.IsActive

	err = u.lookups.Update(ctx, current)
	if errors.Is(err, repo.ErrConflict) {
		return model.Lookup{}, NewHTTPError(http.StatusConflict, "lookup already exists")
	}
	if errors.Is(err, repo.ErrNotFound) {
		return model.Lookup{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Lookup{}, dbError(ctx, err)
	}
	return current, nil
}

func (u *LookupUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	err := u.lookups.Delete(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return dbError(ctx, err)
	}
	return nil
}
