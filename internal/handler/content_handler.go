package handler

import (
	"datesshop/internal/config"
	"datesshop/internal/domain/model"
	"datesshop/internal/repository"
	"datesshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// デーツ・コレクション・ギャラリー・セクション・FAQの公開一覧とadmin CRUD
type ContentHandler[T any] struct {
	uc     *usecase.ContentUsecase[T]
	path   string
	name   string
	active func(T) bool

	// 書き込みルートを差し替える（コレクション）
	writes func(admin *echo.Group)
	// 公開ルートの追加（セクションのkey引き）
	extra func(e *echo.Echo)
}

func NewContentHandler[T any](uc *usecase.ContentUsecase[T], path, name string, active func(T) bool) *ContentHandler[T] {
	return &ContentHandler[T]{uc: uc, path: path, name: name, active: active}
}

func NewDateHandler(uc *usecase.ContentUsecase[model.Date]) *ContentHandler[model.Date] {
	return NewContentHandler(uc, "/dates", "date", func(v model.Date) bool { return v.IsActive })
}

func NewGalleryHandler(uc *usecase.ContentUsecase[model.Gallery]) *ContentHandler[model.Gallery] {
	return NewContentHandler(uc, "/galleries", "gallery", func(v model.Gallery) bool { return v.IsActive })
}

func NewFaqHandler(uc *usecase.ContentUsecase[model.Faq]) *ContentHandler[model.Faq] {
	return NewContentHandler(uc, "/faqs", "faq", func(v model.Faq) bool { return v.IsActive })
}

func NewSectionHandler(uc *usecase.ContentUsecase[model.Section]) *ContentHandler[model.Section] {
	h := NewContentHandler(uc, "/sections", "section", func(v model.Section) bool { return v.IsActive })
	h.extra = func(e *echo.Echo) {
		e.GET("/sections/key/:key", h.getByKey)
	}
	return h
}

// コレクションはdate_idsを受け取るので書き込みだけ別
func NewCollectionHandler(uc *usecase.CollectionUsecase) *ContentHandler[model.DatesCollection] {
	h := NewContentHandler(uc.ContentUsecase, "/collections", "collection", func(v model.DatesCollection) bool { return v.IsActive })
	h.writes = func(admin *echo.Group) {
		admin.POST("/collections", func(c echo.Context) error {
			var req usecase.CollectionInput
			if err := bind(c, &req); err != nil {
				return writeError(c, err)
			}
			out, err := uc.CreateWithDates(c.Request().Context(), req)
			if err != nil {
				return writeError(c, err)
			}
			return created(c, out)
		})
		admin.PUT("/collections/:id", func(c echo.Context) error {
			id, err := paramID(c, "id")
			if err != nil {
				return writeError(c, err)
			}
			var req usecase.CollectionInput
			if err := bind(c, &req); err != nil {
				return writeError(c, err)
			}
			out, err := uc.UpdateWithDates(c.Request().Context(), id, req)
			if err != nil {
				return writeError(c, err)
			}
			return ok(c, out)
		})
	}
	return h
}

func (h *ContentHandler[T]) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	if h.extra != nil {
		h.extra(e)
	}
	e.GET(h.path, h.list)
	e.GET(h.path+"/:id", h.get)

	admin := adminGroup(e, cfg, userRepo)
	admin.GET(h.path, h.adminList)
	admin.GET(h.path+"/:id", h.adminGet)
	admin.DELETE(h.path+"/:id", h.delete)
	if h.writes != nil {
		h.writes(admin)
		return
	}
	admin.POST(h.path, h.create)
	admin.PUT(h.path+"/:id", h.update)
}

func (h *ContentHandler[T]) listInput(c echo.Context) (usecase.ListContentInput, error) {
	p, err := pageInput(c)
	if err != nil {
		return usecase.ListContentInput{}, err
	}
	return usecase.ListContentInput{PageInput: p, Q: c.QueryParam("q")}, nil
}

func (h *ContentHandler[T]) list(c echo.Context) error {
	return h.listWith(c, false)
}

func (h *ContentHandler[T]) adminList(c echo.Context) error {
	return h.listWith(c, true)
}

func (h *ContentHandler[T]) listWith(c echo.Context, includeInactive bool) error {
	in, err := h.listInput(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.uc.List(c.Request().Context(), in, includeInactive)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *ContentHandler[T]) get(c echo.Context) error {
	return h.getWith(c, h.active)
}

// 非公開も見える
func (h *ContentHandler[T]) adminGet(c echo.Context) error {
	return h.getWith(c, nil)
}

func (h *ContentHandler[T]) getWith(c echo.Context, active func(T) bool) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	v, err := h.uc.Get(c.Request().Context(), id, active)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, v)
}

func (h *ContentHandler[T]) getByKey(c echo.Context) error {
	v, err := h.uc.GetBy(c.Request().Context(), "key", c.Param("key"), h.active)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, v)
}

func (h *ContentHandler[T]) create(c echo.Context) error {
	var v T
	if err := bind(c, &v); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Create(c.Request().Context(), &v); err != nil {
		return writeError(c, err)
	}
	return created(c, v)
}

func (h *ContentHandler[T]) update(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	var v T
	if err := bind(c, &v); err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Update(c.Request().Context(), id, &v); err != nil {
		return writeError(c, err)
	}
	// created_atなどDB側の値を返す
	out, err := h.uc.Get(c.Request().Context(), id, nil)
	if err != nil {
		return writeError(c, err)
	}
	return ok(c, out)
}

func (h *ContentHandler[T]) delete(c echo.Context) error {
	id, err := paramID(c, "id")
	if err != nil {
		return writeError(c, err)
	}
	if err := h.uc.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return deleted(c, h.name)
}
