package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrInvalidFolder    = errors.New("invalid folder")
	ErrInvalidExtension = errors.New("invalid file extension")
	ErrTooLarge         = errors.New("file too large")
)

var allowedFolders = map[string]bool{
	"products":    true,
	"dates":       true,
	"collections": true,
	"gallery":     true,
	"sections":    true,
}

var allowedExts = map[string]bool{
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"webp": true,
	"gif":  true,
}

// {dir}/{folder}/{uuid}.{ext} に保存し、/uploads/{folder}/{file} を返す
type LocalStorage struct {
	dir       string
	publicURL string
	maxBytes  int64
}

func NewLocalStorage(dir string, maxBytes int64) *LocalStorage {
	return &LocalStorage{dir: dir, publicURL: "/uploads", maxBytes: maxBytes}
}

func (s *LocalStorage) Save(folder, filename string, size int64, r io.Reader) (string, error) {
	if !allowedFolders[folder] {
		return "", ErrInvalidFolder
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if !allowedExts[ext] {
		return "", ErrInvalidExtension
	}
	if size > s.maxBytes {
		return "", ErrTooLarge
	}

	dir := filepath.Join(s.dir, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + "." + ext
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}

	// サイズ申告を信用せず上限+1まで読む
	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	if err == nil && n > s.maxBytes {
		err = ErrTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(dir, name))
		return "", err
	}

	return fmt.Sprintf("%s/%s/%s", s.publicURL, folder, name), nil
}
