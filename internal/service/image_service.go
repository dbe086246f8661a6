package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"chirp/internal/config"
	"chirp/internal/middleware"
	"chirp/internal/models"

	"github.com/google/uuid"
	_ "golang.org/x/image/bmp"  // Register BMP decoder
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageUploadDir     = "static/uploads"
	DefaultMaxUploadSizeBytes = 2 * 1024 * 1024
	maxImageDimension         = 10000
)

var defaultImageExtensions = []string{"png", "jpg", "jpeg", "gif"}

// sniffed content type per allowed extension
var extensionMIME = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
	"bmp":  "image/bmp",
}

// ImageUpload is a file submitted with a tweet form.
type ImageUpload struct {
	Filename string
	Content  []byte
}

// ImageService validates and stores tweet images on local disk.
type ImageService struct {
	uploadDir          string
	maxUploadSizeBytes int64
	extensions         map[string]struct{}
	extensionList      []string
	now                func() time.Time
}

func NewImageService(cfg *config.Config) *ImageService {
	uploadDir := DefaultImageUploadDir
	maxSize := int64(DefaultMaxUploadSizeBytes)
	exts := defaultImageExtensions

	if cfg != nil {
		if cfg.UploadDir != "" {
			uploadDir = cfg.UploadDir
		}
		if cfg.MaxUploadSizeBytes > 0 {
			maxSize = cfg.MaxUploadSizeBytes
		}
		if configured := cfg.ImageExtensions(); len(configured) > 0 {
			exts = configured
		}
	}

	allowed := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		allowed[ext] = struct{}{}
	}

	return &ImageService{
		uploadDir:          uploadDir,
		maxUploadSizeBytes: maxSize,
		extensions:         allowed,
		extensionList:      exts,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// UploadDir is the directory served under /uploads.
func (s *ImageService) UploadDir() string {
	return s.uploadDir
}

// MaxUploadSizeBytes is the largest accepted image.
func (s *ImageService) MaxUploadSizeBytes() int64 {
	return s.maxUploadSizeBytes
}

// Validate checks extension, size, sniffed type and decodability of an upload.
func (s *ImageService) Validate(in *ImageUpload) error {
	if in == nil {
		return nil
	}
	if len(in.Content) == 0 {
		return models.NewFieldValidationError(map[string]string{"image": "Uploaded image is empty"})
	}

	ext := imageExtension(in.Filename)
	if _, ok := s.extensions[ext]; !ok {
		return models.NewFieldValidationError(map[string]string{
			"image": "Image must be one of: " + s.allowedList(),
		})
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return models.NewFieldValidationError(map[string]string{
			"image": fmt.Sprintf("Image too large (max %d KB)", s.maxUploadSizeBytes/1024),
		})
	}

	detected := http.DetectContentType(in.Content)
	if !s.isAllowedMIME(detected) {
		return models.NewFieldValidationError(map[string]string{"image": "File is not a supported image"})
	}
	return validateImageData(ext, in.Content)
}

// validateImageData decodes the upload so truncated or forged files are refused.
func validateImageData(ext string, content []byte) error {
	invalid := models.NewFieldValidationError(map[string]string{"image": "File is not a valid image"})

	cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil || extensionMIME[ext] != "image/"+format {
		return invalid
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width > maxImageDimension || cfg.Height > maxImageDimension {
		return invalid
	}
	if _, _, err := image.Decode(bytes.NewReader(content)); err != nil {
		return invalid
	}
	return nil
}

// Store writes a validated upload under a generated name and returns that name.
func (s *ImageService) Store(ctx context.Context, in *ImageUpload) (string, error) {
	if in == nil {
		return "", nil
	}
	name := fmt.Sprintf("%s_%s.%s", s.now().Format("20060102150405"), uuid.NewString(), imageExtension(in.Filename))
	if err := writeBytesToFile(filepath.Join(s.uploadDir, name), in.Content); err != nil {
		return "", models.NewInternalError(fmt.Errorf("store image: %w", err))
	}
	middleware.Logger.DebugContext(ctx, "Stored image", slog.String("name", name), slog.Int("bytes", len(in.Content)))
	return name, nil
}

// Remove deletes a stored image. Failures are logged and swallowed.
func (s *ImageService) Remove(ctx context.Context, name string) {
	if name == "" {
		return
	}
	// stored names never contain separators; refuse anything else
	if filepath.Base(name) != name {
		middleware.Logger.WarnContext(ctx, "Refusing to remove image outside upload dir", slog.String("name", name))
		return
	}
	if err := os.Remove(filepath.Join(s.uploadDir, name)); err != nil && !os.IsNotExist(err) {
		middleware.Logger.WarnContext(ctx, "Failed to remove image", slog.String("name", name), slog.String("error", err.Error()))
	}
}

func (s *ImageService) isAllowedMIME(contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	for ext := range s.extensions {
		if extensionMIME[ext] == contentType {
			return true
		}
	}
	return false
}

func (s *ImageService) allowedList() string {
	return strings.Join(s.extensionList, ", ")
}

func imageExtension(filename string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
}

func writeBytesToFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
