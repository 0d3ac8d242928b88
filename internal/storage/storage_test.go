package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidators(t *testing.T) {
	assert.NoError(t, ValidateFileSize(10, 100))
	assert.ErrorIs(t, ValidateFileSize(101, 100), ErrFileTooLarge)

	assert.NoError(t, ValidateContentType("image/png", AllowedImageTypes))
	assert.NoError(t, ValidateContentType("IMAGE/JPEG; charset=binary", AllowedImageTypes))
	assert.ErrorIs(t, ValidateContentType("application/pdf", AllowedImageTypes), ErrUnsupportedType)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "wagyu-steak.jpg", sanitizeFilename("../../wagyu steak.jpg"))
	assert.Equal(t, "image", sanitizeFilename("///"))
}

func TestLocalStorage_SaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir, "/uploads/")
	require.NoError(t, err)
	s.now = func() time.Time { return time.UnixMilli(1700000000000) }

	url, err := s.Save(context.Background(), "shrimp.png", "image/png", strings.NewReader("png-bytes"), 9)
	require.NoError(t, err)
	assert.Equal(t, "/uploads/1700000000000-shrimp.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "1700000000000-shrimp.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	require.NoError(t, s.Delete(context.Background(), url))
	_, err = os.Stat(filepath.Join(dir, "1700000000000-shrimp.png"))
	assert.True(t, os.IsNotExist(err))

	// unknown and foreign URLs are ignored
	assert.NoError(t, s.Delete(context.Background(), url))
	assert.NoError(t, s.Delete(context.Background(), "https://cdn.example.com/x.png"))
}

type fakeS3 struct {
	putKey  string
	putBody string
	deleted string
	putErr  error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.putKey = aws.ToString(in.Key)
	b, _ := io.ReadAll(in.Body)
	f.putBody = string(b)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = aws.ToString(in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3Storage_SaveAndDelete(t *testing.T) {
	fake := &fakeS3{}
	s := newS3Storage(fake, "bucket", "us-east-1", "https://cdn.example.com/")

	url, err := s.Save(context.Background(), "Salad.JPG", "image/jpeg", strings.NewReader("jpg"), 3)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(fake.putKey, "menu/"))
	assert.True(t, strings.HasSuffix(fake.putKey, ".jpg"))
	assert.Equal(t, "jpg", fake.putBody)
	assert.Equal(t, "https://cdn.example.com/"+fake.putKey, url)

	require.NoError(t, s.Delete(context.Background(), url))
	assert.Equal(t, fake.putKey, fake.deleted)
}

func TestS3Storage_DirectURLAndErrors(t *testing.T) {
	fake := &fakeS3{putErr: errors.New("access denied")}
	s := newS3Storage(fake, "bucket", "eu-west-1", "")

	assert.Equal(t, "https://bucket.s3.eu-west-1.amazonaws.com/menu/a.png", s.objectURL("menu/a.png"))

	_, err := s.Save(context.Background(), "a.png", "image/png", strings.NewReader("x"), 1)
	assert.Error(t, err)
}
