package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalUploader writes objects under a directory served at /uploads/.
type LocalUploader struct {
	dir     string
	baseURL string
}

func NewLocalUploader(dir, publicBaseURL string) *LocalUploader {
	return &LocalUploader{dir: dir, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Dir is the directory objects are written to.
func (u *LocalUploader) Dir() string {
	return u.dir
}

func (u *LocalUploader) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	clean := filepath.Clean("/" + key)[1:]
	if clean == "" || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}

	dst := filepath.Join(u.dir, clean)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return "", err
	}
	return u.baseURL + "/uploads/" + filepath.ToSlash(clean), nil
}
