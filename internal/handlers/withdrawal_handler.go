package handlers

import (
	"net/http"

	"zaistock_backend/internal/middleware"
	"zaistock_backend/internal/services"
	"zaistock_backend/internal/services/dto"
	"zaistock_backend/internal/storage"
	"zaistock_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
)

type WithdrawalHandler struct {
	*BaseHandler
	withdrawalService services.WithdrawalService
	storage           storage.Storage
}

func NewWithdrawalHandler(base *BaseHandler, withdrawalService services.WithdrawalService, fileStorage storage.Storage) *WithdrawalHandler {
	return &WithdrawalHandler{
		BaseHandler:       base,
		withdrawalService: withdrawalService,
		storage:           fileStorage,
	}
}

func (h *WithdrawalHandler) RegisterRoutes(r *gin.RouterGroup) {
	withdraw := r.Group("/subscription/withdraw")
	withdraw.Use(middleware.AuthMiddleware())
	{
		withdraw.POST("/request", h.Request)
		withdraw.GET("/history", h.History)
	}

	admin := r.Group("/subscription/admin/withdraw")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("/requests", h.ListAll)
		admin.POST("/:id/approve", h.Approve)
		admin.POST("/:id/reject", h.Reject)
	}
}

func (h *WithdrawalHandler) Request(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.RequestWithdrawalRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	withdrawal, err := h.withdrawalService.Request(h.GetDB(c), userID, req.Amount)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"withdrawal": withdrawal})
}

func (h *WithdrawalHandler) History(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	withdrawals, err := h.withdrawalService.History(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"withdrawals": withdrawals,
		"total":       len(withdrawals),
	})
}

func (h *WithdrawalHandler) ListAll(c *gin.Context) {
	withdrawals, err := h.withdrawalService.ListAll(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"withdrawals": withdrawals,
		"total":       len(withdrawals),
	})
}

// Approve takes a multipart form: the payout receipt plus an optional
// note.
func (h *WithdrawalHandler) Approve(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("receipt")
	if err != nil {
		h.HandleServiceError(c, apperrors.ErrReceiptRequired)
		return
	}

	receiptPath, err := storeUpload(c, h.storage, fileHeader, "withdraw-receipts", "receipt")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	withdrawal, err := h.withdrawalService.Approve(h.GetDB(c), c.Param("id"), adminID, receiptPath, c.PostForm("note"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawal": withdrawal})
}

func (h *WithdrawalHandler) Reject(c *gin.Context) {
	adminID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.RejectWithdrawalRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	withdrawal, err := h.withdrawalService.Reject(h.GetDB(c), c.Param("id"), adminID, req.Reason)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"withdrawal": withdrawal})
}
