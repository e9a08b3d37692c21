package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_Save(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStorage(dir, 1024)

	url, err := s.Save("products", "photo.JPG", 5, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "/uploads/products/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))

	b, err := os.ReadFile(filepath.Join(dir, "products", filepath.Base(url)))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestLocalStorage_Rejects(t *testing.T) {
	s := NewLocalStorage(t.TempDir(), 4)

	_, err := s.Save("../etc", "a.png", 1, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidFolder)

	_, err = s.Save("products", "a.exe", 1, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidExtension)

	_, err = s.Save("products", "a.png", 10, strings.NewReader("xxxxxxxxxx"))
	assert.ErrorIs(t, err, ErrTooLarge)

	// 申告サイズが小さくても実データで弾く
	_, err = s.Save("products", "a.png", 1, strings.NewReader("xxxxxxxxxx"))
	assert.ErrorIs(t, err, ErrTooLarge)
}
