package uploads

import (
	"bytes"
	"encoding/base64"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariefcatur/go-shop-api/internal/apperr"
)

// 1x1 transparent PNG.
var pngBytes, _ = base64.StdEncoding.DecodeString(
	"iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg==")

func form(t *testing.T, files map[string][]byte) *multipart.Form {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for field, data := range files {
		part, err := w.CreateFormFile(field, field+".bin")
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/upload", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(32<<20))
	return req.MultipartForm
}

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), "http://cdn.test/uploads/")
	require.NoError(t, err)
	return s
}

func TestSaveFormStoresImages(t *testing.T) {
	s := newStore(t)

	res, err := s.SaveForm(form(t, map[string][]byte{
		"primaryFile":    pngBytes,
		"secondaryFile1": pngBytes,
		"secondaryFile0": pngBytes,
	}))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.PrimaryURL, "http://cdn.test/uploads/"))
	assert.True(t, strings.HasSuffix(res.PrimaryURL, ".png"))
	assert.Len(t, res.SecondaryURLs, 2)

	entries, err := os.ReadDir(s.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	saved, err := os.ReadFile(filepath.Join(s.Dir, filepath.Base(res.PrimaryURL)))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, saved)
}

func TestSaveFormRequiresPrimary(t *testing.T) {
	s := newStore(t)
	_, err := s.SaveForm(form(t, map[string][]byte{"secondaryFile0": pngBytes}))
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestRejectsNonImages(t *testing.T) {
	s := newStore(t)
	_, err := s.SaveForm(form(t, map[string][]byte{"primaryFile": []byte("#!/bin/sh\necho hi\n")}))
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestRejectsOversizedFiles(t *testing.T) {
	s := newStore(t)
	s.MaxBytes = 10
	_, err := s.SaveForm(form(t, map[string][]byte{"primaryFile": pngBytes}))
	assert.True(t, apperr.Is(err, apperr.KindBadRequest))
}

func TestFailedSecondaryRemovesSavedFiles(t *testing.T) {
	s := newStore(t)
	_, err := s.SaveForm(form(t, map[string][]byte{
		"primaryFile":     pngBytes,
		"secondaryFile_1": pngBytes,
		"secondaryFile_2": []byte("not an image at all"),
	}))
	require.True(t, apperr.Is(err, apperr.KindBadRequest))

	entries, err := os.ReadDir(s.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSecondaryFilesKeepNumericOrder(t *testing.T) {
	gifBytes := []byte("GIF89a\x01\x00\x01\x00\x00\x00\x00;")
	s := newStore(t)

	res, err := s.SaveForm(form(t, map[string][]byte{
		"primaryFile":      pngBytes,
		"secondaryFile_10": gifBytes,
		"secondaryFile_2":  pngBytes,
	}))
	require.NoError(t, err)
	require.Len(t, res.SecondaryURLs, 2)
	assert.True(t, strings.HasSuffix(res.SecondaryURLs[0], ".png"))
	assert.True(t, strings.HasSuffix(res.SecondaryURLs[1], ".gif"))
}

func TestLessField(t *testing.T) {
	keys := []string{"secondaryFile_10", "secondaryFileX", "secondaryFile2", "secondaryFile_1"}
	sort.Slice(keys, func(i, j int) bool { return lessField(keys[i], keys[j]) })
	assert.Equal(t, []string{"secondaryFile_1", "secondaryFile2", "secondaryFile_10", "secondaryFileX"}, keys)
}
