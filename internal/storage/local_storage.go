package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/savanna-table/savanna-backend/pkg/logger"
)

// LocalStorage writes images under a directory served by the router as static files
type LocalStorage struct {
	dir          string
	publicPrefix string
	now          func() time.Time
}

func NewLocalStorage(dir, publicPrefix string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStorage{
		dir:          dir,
		publicPrefix: strings.TrimRight(publicPrefix, "/"),
		now:          time.Now,
	}, nil
}

// Save stores the file as <unix-millis>-<name> and returns its public path
func (s *LocalStorage) Save(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error) {
	name := fmt.Sprintf("%d-%s", s.now().UnixMilli(), sanitizeFilename(filename))
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}

	written, err := io.Copy(f, body)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	logger.Debug("Image stored locally", map[string]interface{}{
		"file":         name,
		"bytes":        written,
		"content_type": contentType,
	})
	return s.publicPrefix + "/" + name, nil
}

// Delete removes a file previously returned by Save; foreign URLs are ignored
func (s *LocalStorage) Delete(ctx context.Context, url string) error {
	if !strings.HasPrefix(url, s.publicPrefix+"/") {
		return nil
	}
	name := sanitizeFilename(strings.TrimPrefix(url, s.publicPrefix+"/"))
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
