package uploads

import (
	"bytes"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

func pngFile(t *testing.T) (multipart.File, *multipart.FileHeader) {
	t.Helper()
	var buf bytes.Buffer
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	require.NoError(t, png.Encode(&buf, img))
	header := &multipart.FileHeader{Filename: "poster.png", Size: int64(buf.Len())}
	return memFile{bytes.NewReader(buf.Bytes())}, header
}

func TestSaveAndServe(t *testing.T) {
	store, err := NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)
	defer store.Close()

	file, header := pngFile(t)
	url, err := store.Save(file, header)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(url, URLPrefix))
	require.True(t, strings.HasSuffix(url, ".png"))

	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	store.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotZero(t, rec.Body.Len())
}

func TestSaveRejectsNonImage(t *testing.T) {
	store, err := NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)
	defer store.Close()

	payload := []byte("#!/bin/sh\necho pwned\n")
	header := &multipart.FileHeader{Filename: "script.png", Size: int64(len(payload))}
	_, err = store.Save(memFile{bytes.NewReader(payload)}, header)
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported image type")
}

func TestSaveRejectsOversize(t *testing.T) {
	store, err := NewStore(t.TempDir(), 16)
	require.NoError(t, err)
	defer store.Close()

	file, header := pngFile(t)
	_, err = store.Save(file, header)
	require.Error(t, err)
}

func TestRemove(t *testing.T) {
	store, err := NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)
	defer store.Close()

	file, header := pngFile(t)
	url, err := store.Save(file, header)
	require.NoError(t, err)

	require.NoError(t, store.Remove(url))

	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	store.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotFound, rec.Code)

	require.NoError(t, store.Remove("/uploads/never-existed.png"))
}
