// Package storage keeps photocard images in object storage. Photocards
// only hold the object key.
package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlaceholderImage is what clients show when a photocard has no image.
const PlaceholderImage = "camera-placeholder.png"

// UploadURLExpiry is how long a presigned upload URL stays valid.
const UploadURLExpiry = time.Hour

type ImageStore interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// IsRealImage reports whether key points at an uploaded object rather than
// the placeholder or nothing.
func IsRealImage(key string) bool {
	return key != "" && key != PlaceholderImage
}

// NewObjectKey builds the key for a new photocard image uploaded by userID.
func NewObjectKey(userID uint, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	return fmt.Sprintf("photocards/%d/%d_%s%s", userID, time.Now().Unix(), uuid.New().String(), ext)
}

// OwnsKey reports whether key was issued to userID by NewObjectKey.
func OwnsKey(key string, userID uint) bool {
	parts := strings.Split(key, "/")
	if len(parts) < 3 || parts[0] != "photocards" {
		return false
	}
	return parts[1] == fmt.Sprintf("%d", userID)
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// MaxImageSize is the largest accepted upload, in bytes.
const MaxImageSize = 5 * 1024 * 1024

func ValidImage(contentType string, size int64) error {
	if !allowedContentTypes[contentType] {
		return fmt.Errorf("unsupported image type %q", contentType)
	}
	if size <= 0 || size > MaxImageSize {
		return fmt.Errorf("image size must be between 1 byte and %d bytes", MaxImageSize)
	}
	return nil
}
