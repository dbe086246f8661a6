package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"chirp/internal/config"
	"chirp/internal/models"
	"chirp/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageServiceValidate(t *testing.T) {
	svc := NewImageService(&config.Config{
		UploadDir:              t.TempDir(),
		MaxUploadSizeBytes:     1024,
		AllowedImageExtensions: "png, JPG,jpeg,gif",
	})

	// a real PNG signature and header followed by junk
	forgedPNG := append(append([]byte{}, testutil.PNGBytes[:33]...), bytes.Repeat([]byte{0xab}, 64)...)
	truncatedPNG := testutil.PNGBytes[:len(testutil.PNGBytes)-20]
	// GIF header claiming a 0x0 canvas
	emptyGIF := []byte("GIF89a\x00\x00\x00\x00\x00\x00\x00;")

	tests := []struct {
		name    string
		upload  *ImageUpload
		wantErr bool
	}{
		{name: "no upload", upload: nil},
		{name: "png", upload: &ImageUpload{Filename: "a.png", Content: testutil.PNGBytes}},
		{name: "upper-case extension", upload: &ImageUpload{Filename: "a.PNG", Content: testutil.PNGBytes}},
		{name: "gif", upload: &ImageUpload{Filename: "a.gif", Content: testutil.GIFBytes}},
		{name: "jpeg as jpg", upload: &ImageUpload{Filename: "photo.jpg", Content: testutil.JPEGBytes}},
		{name: "empty file", upload: &ImageUpload{Filename: "a.png"}, wantErr: true},
		{name: "disallowed extension", upload: &ImageUpload{Filename: "a.bmp", Content: testutil.PNGBytes}, wantErr: true},
		{name: "no extension", upload: &ImageUpload{Filename: "png", Content: testutil.PNGBytes}, wantErr: true},
		{name: "text disguised as png", upload: &ImageUpload{Filename: "a.png", Content: []byte("<html>hi</html>")}, wantErr: true},
		{name: "forged png body", upload: &ImageUpload{Filename: "a.png", Content: forgedPNG}, wantErr: true},
		{name: "truncated png", upload: &ImageUpload{Filename: "a.png", Content: truncatedPNG}, wantErr: true},
		{name: "zero-size gif", upload: &ImageUpload{Filename: "a.gif", Content: emptyGIF}, wantErr: true},
		{name: "jpeg named png", upload: &ImageUpload{Filename: "a.png", Content: testutil.JPEGBytes}, wantErr: true},
		{name: "too large", upload: &ImageUpload{Filename: "a.png", Content: append(append([]byte{}, testutil.PNGBytes...), make([]byte, 1024)...)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := svc.Validate(tt.upload)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, models.HasCode(err, models.CodeValidation), "got %v", err)
		})
	}
}

func TestImageServiceDefaults(t *testing.T) {
	svc := NewImageService(nil)
	assert.Equal(t, DefaultImageUploadDir, svc.UploadDir())
	assert.Equal(t, int64(DefaultMaxUploadSizeBytes), svc.MaxUploadSizeBytes())
	assert.NoError(t, svc.Validate(&ImageUpload{Filename: "x.png", Content: testutil.PNGBytes}))
}

func TestImageServiceStoreAndRemove(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	svc := NewImageService(&config.Config{UploadDir: dir})
	ctx := context.Background()

	first, err := svc.Store(ctx, &ImageUpload{Filename: "../../evil.png", Content: testutil.PNGBytes})
	require.NoError(t, err)
	second, err := svc.Store(ctx, &ImageUpload{Filename: "evil.png", Content: testutil.PNGBytes})
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
	assert.Equal(t, filepath.Base(first), first)

	data, err := os.ReadFile(filepath.Join(dir, first))
	require.NoError(t, err)
	assert.Equal(t, testutil.PNGBytes, data)

	svc.Remove(ctx, first)
	_, err = os.Stat(filepath.Join(dir, first))
	assert.True(t, os.IsNotExist(err))

	// missing files and path tricks are ignored
	svc.Remove(ctx, first)
	svc.Remove(ctx, "../"+second)
	_, err = os.Stat(filepath.Join(dir, second))
	assert.NoError(t, err)

	name, err := svc.Store(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, name)
}

func TestImageServiceRejectsUndecodableImage(t *testing.T) {
	svc := NewImageService(&config.Config{UploadDir: t.TempDir()})

	truncated := testutil.JPEGBytes[:len(testutil.JPEGBytes)/2]
	err := svc.Validate(&ImageUpload{Filename: "photo.jpeg", Content: truncated})
	require.Error(t, err)

	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "File is not a valid image", appErr.Fields["image"])
}
