package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	ErrFileTooLarge    = errors.New("file exceeds the maximum allowed size")
	ErrUnsupportedType = errors.New("file type is not allowed")
)

// AllowedImageTypes lists the content types accepted for menu images
var AllowedImageTypes = []string{"image/jpeg", "image/png", "image/webp", "image/gif"}

// ImageStorage persists uploaded images and returns the URL clients should use
type ImageStorage interface {
	Save(ctx context.Context, filename, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, url string) error
}

// ValidateFileSize validates the file size
func ValidateFileSize(size int64, maxSize int64) error {
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrFileTooLarge, size, maxSize)
	}
	return nil
}

// ValidateContentType validates the content type
func ValidateContentType(contentType string, allowedTypes []string) error {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	for _, allowed := range allowedTypes {
		if ct == allowed {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
}

// sanitizeFilename keeps the base name with only URL-safe characters
func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 || b.String() == "." || b.String() == ".." {
		return "image"
	}
	return b.String()
}
