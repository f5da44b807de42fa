package handlers

import (
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"zaistock_backend/internal/middleware"
	"zaistock_backend/internal/storage"
	"zaistock_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

// FileHandler serves stored payment proofs and withdrawal receipts.
// Both directories hold financial evidence, so access is admin only.
type FileHandler struct {
	*BaseHandler
	storage storage.Storage
}

func NewFileHandler(base *BaseHandler, fileStorage storage.Storage) *FileHandler {
	return &FileHandler{
		BaseHandler: base,
		storage:     fileStorage,
	}
}

func (h *FileHandler) RegisterRoutes(r *gin.RouterGroup) {
	uploads := r.Group("/uploads")
	uploads.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		uploads.GET("/payment-proofs/:filename", h.servePaymentProof)
		uploads.GET("/withdraw-receipts/:filename", h.serveWithdrawReceipt)
	}
}

func (h *FileHandler) servePaymentProof(c *gin.Context) {
	h.serveFromDir(c, "payment-proofs")
}

func (h *FileHandler) serveWithdrawReceipt(c *gin.Context) {
	h.serveFromDir(c, "withdraw-receipts")
}

func (h *FileHandler) serveFromDir(c *gin.Context, dir string) {
	filename := filepath.Base(c.Param("filename"))
	if filename == "." || filename == "/" || strings.Contains(filename, "..") {
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid filename"))
		return
	}

	reader, err := h.storage.Get(c.Request.Context(), dir+"/"+filename)
	if err != nil {
		apperrors.HandleError(c, apperrors.NewNotFoundError("file", "File not found"))
		return
	}
	defer reader.Close()

	contentType := mime.TypeByExtension(filepath.Ext(filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	io.Copy(c.Writer, reader)
}
