package media

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/nkiryanov/minitwitter/internal/forms"
)

// Directory inside media root photos are stored in
const photosDir = "photos"

// Uploaded files stored on local disk
// Paths returned and accepted are slash separated and relative to root
type Storage struct {
	root string
}

func New(root string) (*Storage, error) {
	if root == "" {
		return nil, errors.New("media root must not be empty")
	}

	if err := os.MkdirAll(filepath.Join(root, photosDir), 0o755); err != nil {
		return nil, fmt.Errorf("can't create media dir: %w", err)
	}

	return &Storage{root: root}, nil
}

// Save photo under unique name and return its relative path
func (s *Storage) Save(upload *forms.Upload) (string, error) {
	name := path.Join(photosDir, uuid.NewString()+upload.Extension)

	f, err := os.OpenFile(s.abs(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("can't create media file: %w", err)
	}

	if _, err := f.Write(upload.Data); err != nil {
		_ = f.Close()
		_ = os.Remove(s.abs(name))
		return "", fmt.Errorf("can't write media file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(s.abs(name))
		return "", fmt.Errorf("can't write media file: %w", err)
	}

	return name, nil
}

// Remove stored file. Removing missing file is not an error
func (s *Storage) Remove(name string) error {
	if name == "" {
		return nil
	}
	if !filepath.IsLocal(filepath.FromSlash(name)) {
		return fmt.Errorf("media path %q is outside of media root", name)
	}

	err := os.Remove(s.abs(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("can't remove media file: %w", err)
	}
	return nil
}

func (s *Storage) abs(name string) string {
	return filepath.Join(s.root, filepath.FromSlash(name))
}

// Serve stored files, directory listings are not served
// Handler expects path relative to root, so strip url prefix before
func (s *Storage) Handler() http.Handler {
	files := http.FileServerFS(os.DirFS(s.root))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}
