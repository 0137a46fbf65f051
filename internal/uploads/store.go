package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/ariefcatur/go-shop-api/internal/apperr"
)

const (
	PrimaryField    = "primaryFile"
	SecondaryPrefix = "secondaryFile"
	SingleField     = "file"

	DefaultMaxBytes = 5 << 20
)

var imageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

type Result struct {
	PrimaryURL    string   `json:"primaryUrl"`
	SecondaryURLs []string `json:"secondaryUrls"`
}

// Store keeps uploaded images on local disk under uuid names.
type Store struct {
	Dir      string
	BaseURL  string
	MaxBytes int64
}

func NewStore(dir, baseURL string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/"), MaxBytes: DefaultMaxBytes}, nil
}

func (s *Store) max() int64 {
	if s.MaxBytes <= 0 {
		return DefaultMaxBytes
	}
	return s.MaxBytes
}

// Save checks that fh is an image by its content and writes it. It returns the public URL.
func (s *Store) Save(fh *multipart.FileHeader) (string, error) {
	name, err := s.save(fh)
	if err != nil {
		return "", err
	}
	return s.url(name), nil
}

func (s *Store) url(name string) string { return s.BaseURL + "/" + name }

// save writes fh under a fresh name. A failed write leaves no file behind.
func (s *Store) save(fh *multipart.FileHeader) (string, error) {
	if fh.Size > s.max() {
		return "", apperr.BadRequest("file %s is larger than %d MiB", fh.Filename, s.max()>>20)
	}
	f, err := fh.Open()
	if err != nil {
		return "", apperr.Internal("open upload", err)
	}
	defer f.Close()

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		return "", apperr.Internal("detect upload type", err)
	}
	if !mimetype.EqualsAny(mt.String(), imageTypes...) {
		return "", apperr.BadRequest("file %s is not a supported image (got %s)", fh.Filename, mt.String())
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", apperr.Internal("rewind upload", err)
	}

	name := uuid.NewString() + mt.Extension()
	path := filepath.Join(s.Dir, name)
	out, err := os.Create(path)
	if err != nil {
		return "", apperr.Internal("store upload", err)
	}
	_, err = io.Copy(out, io.LimitReader(f, s.max()))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", apperr.Internal("store upload", err)
	}
	return name, nil
}

func (s *Store) remove(names []string) {
	for _, n := range names {
		_ = os.Remove(filepath.Join(s.Dir, n))
	}
}

// SaveForm stores the required primary file and every secondaryFile* field, ordered by
// the field's numeric suffix. Either every file is stored or none is.
func (s *Store) SaveForm(form *multipart.Form) (*Result, error) {
	primary := form.File[PrimaryField]
	if len(primary) == 0 {
		return nil, apperr.BadRequest("%s is required", PrimaryField)
	}

	var keys []string
	for k := range form.File {
		if strings.HasPrefix(k, SecondaryPrefix) {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return lessField(keys[i], keys[j]) })

	files := []*multipart.FileHeader{primary[0]}
	for _, k := range keys {
		files = append(files, form.File[k]...)
	}

	saved := make([]string, 0, len(files))
	for _, fh := range files {
		name, err := s.save(fh)
		if err != nil {
			s.remove(saved)
			return nil, err
		}
		saved = append(saved, name)
	}

	res := &Result{PrimaryURL: s.url(saved[0]), SecondaryURLs: []string{}}
	for _, n := range saved[1:] {
		res.SecondaryURLs = append(res.SecondaryURLs, s.url(n))
	}
	return res, nil
}

// lessField orders secondaryFile_2 before secondaryFile_10; suffixes that are not numbers sort last by name.
func lessField(a, b string) bool {
	na, aok := fieldIndex(a)
	nb, bok := fieldIndex(b)
	switch {
	case aok && bok && na != nb:
		return na < nb
	case aok != bok:
		return aok
	}
	return a < b
}

func fieldIndex(field string) (int, bool) {
	suffix := strings.TrimPrefix(strings.TrimPrefix(field, SecondaryPrefix), "_")
	n, err := strconv.Atoi(suffix)
	return n, err == nil
}
