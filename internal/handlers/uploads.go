package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"zaistock_backend/internal/config"
	"zaistock_backend/internal/storage"
	"zaistock_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// validateUpload checks extension and size against the configured upload
// policy.
func validateUpload(header *multipart.FileHeader) error {
	cfg := config.GetConfig()

	if header.Size > cfg.Upload.MaxSize {
		return apperrors.ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	for _, allowed := range cfg.Upload.AllowedExts {
		if ext == allowed {
			return nil
		}
	}
	return apperrors.ErrUnsupportedFileType
}

// storeUpload validates the file and writes it under dir with a
// collision-safe name like payment-proofs/payment-1712345678-a1b2c3.png.
// Returns the storage key.
func storeUpload(c *gin.Context, store storage.Storage, header *multipart.FileHeader, dir, prefix string) (string, error) {
	if err := validateUpload(header); err != nil {
		return "", err
	}

	f, err := header.Open()
	if err != nil {
		return "", apperrors.InternalError(err)
	}
	defer f.Close()

	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return "", apperrors.InternalError(err)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	name := fmt.Sprintf("%s-%d-%s%s", prefix, time.Now().Unix(), hex.EncodeToString(suffix), ext)
	key := dir + "/" + name

	contentType := header.Header.Get("Content-Type")
	if err := store.Save(c.Request.Context(), key, f, contentType); err != nil {
		return "", apperrors.InternalError(err)
	}
	return key, nil
}
