package usecase

import (
	"context"
	"errors"
	"io"
	"net/http"

	"datesshop/internal/infra/storage"
)

// ファイル保存先（ローカル）
type FileStorage interface {
	Save(folder, filename string, size int64, r io.Reader) (string, error)
}

type UploadUsecase struct {
	store FileStorage
}

func NewUploadUsecase(store FileStorage) *UploadUsecase {
	return &UploadUsecase{store: store}
}

type UploadOutput struct {
	Path string `json:"path"`
}

func (u *UploadUsecase) Upload(ctx context.Context, folder, filename string, size int64, r io.Reader) (UploadOutput, error) {
	path, err := u.store.Save(folder, filename, size, r)
	switch {
	case err == nil:
		return UploadOutput{Path: path}, nil
	case errors.Is(err, storage.ErrInvalidFolder):
		return UploadOutput{}, NewHTTPError(http.StatusBadRequest, "invalid folder")
	case errors.Is(err, storage.ErrInvalidExtension):
		return UploadOutput{}, NewHTTPError(http.StatusBadRequest, "invalid file type")
	case errors.Is(err, storage.ErrTooLarge):
		return UploadOutput{}, NewHTTPError(http.StatusRequestEntityTooLarge, "file too large")
	}
	return UploadOutput{}, internalError(ctx, err, "upload failed")
}
