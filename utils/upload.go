package utils

import (
	"errors"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ktwom22/plater8te/config"
)

// ErrUnsupportedImageType is returned for uploads outside the image allow-list.
var ErrUnsupportedImageType = errors.New("unsupported image type")

// ErrImageTooLarge is returned when an upload exceeds the configured limit.
var ErrImageTooLarge = errors.New("image exceeds size limit")

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// SaveUploadedImage stores an uploaded image under the configured upload
// directory with a random filename and returns the URL path clients should
// use. The original filename only contributes its extension.
func SaveUploadedImage(ctx *gin.Context, file *multipart.FileHeader) (string, error) {
	cfg := config.Get()

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !imageExtensions[ext] {
		return "", ErrUnsupportedImageType
	}
	if file.Size > int64(cfg.UploadMaxSizeMB)<<20 {
		return "", ErrImageTooLarge
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return "", err
	}

	name := uuid.NewString() + ext
	dst := filepath.Join(cfg.UploadDir, name)
	if err := ctx.SaveUploadedFile(file, dst); err != nil {
		return "", err
	}
	return "/" + filepath.ToSlash(dst), nil
}
