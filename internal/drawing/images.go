package drawing

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ImageStore saves generated PNGs under a directory, named by timestamp.
type ImageStore struct {
	dir string
}

func NewImageStore(dir string) *ImageStore {
	return &ImageStore{dir: dir}
}

// Dir returns the directory images are written to.
func (s *ImageStore) Dir() string { return s.dir }

// Save writes png as <dir>/<YYYYMMDDhhmmss>.png and returns the path.
// Two saves within the same second overwrite each other.
func (s *ImageStore) Save(png []byte, now time.Time) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	path := filepath.Join(s.dir, now.Format("20060102150405")+".png")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return path, nil
}
