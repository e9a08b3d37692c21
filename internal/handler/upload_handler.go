package handler

import (
	"net/http"

	"datesshop/internal/config"
	"datesshop/internal/repository"
	"datesshop/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 管理画面からの画像アップロード
type UploadHandler struct {
	uc *usecase.UploadUsecase
}

func NewUploadHandler(uc *usecase.UploadUsecase) *UploadHandler {
	return &UploadHandler{uc: uc}
}

func (h *UploadHandler) RegisterRoutes(e *echo.Echo, cfg config.Config, userRepo repository.UserRepository) {
	admin := adminGroup(e, cfg, userRepo)
	admin.POST("/uploads/:folder", h.upload)
}

// multipartの "file"
func (h *UploadHandler) upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fail(c, http.StatusBadRequest, "validation error", "file required")
	}
	f, err := fh.Open()
	if err != nil {
		return fail(c, http.StatusBadRequest, "invalid file")
	}
	defer f.Close()

	out, err := h.uc.Upload(c.Request().Context(), c.Param("folder"), fh.Filename, fh.Size, f)
	if err != nil {
		return writeError(c, err)
	}
	return created(c, out)
}
