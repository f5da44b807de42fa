package handlers

import (
	"net/http"

	"zaistock_backend/internal/middleware"
	"zaistock_backend/internal/services"
	"zaistock_backend/internal/services/dto"
	"zaistock_backend/internal/storage"
	"zaistock_backend/pkg/apperrors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SubscriptionHandler struct {
	*BaseHandler
	subscriptionService services.SubscriptionService
	storage             storage.Storage
}

func NewSubscriptionHandler(base *BaseHandler, subscriptionService services.SubscriptionService, fileStorage storage.Storage) *SubscriptionHandler {
	return &SubscriptionHandler{
		BaseHandler:         base,
		subscriptionService: subscriptionService,
		storage:             fileStorage,
	}
}

func (h *SubscriptionHandler) RegisterRoutes(r *gin.RouterGroup) {
	sub := r.Group("/subscription")
	sub.Use(middleware.AuthMiddleware())
	{
		sub.POST("/request", h.Request)
		sub.GET("/my", h.ListOwn)
		sub.GET("/dashboard", h.Dashboard)
	}

	admin := r.Group("/subscription/admin")
	admin.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.GET("/subscriptions/pending", h.ListPending)
		admin.GET("/subscriptions/active", h.ListActive)
		admin.GET("/subscriptions/all", h.ListProcessed)
		admin.GET("/subscriptions/expired", h.ListExpired)
		admin.GET("/users/stats", h.UserStats)

		admin.POST("/subscriptions/:id/approve", h.Approve)
		admin.POST("/subscriptions/:id/reject", h.Reject)
		admin.POST("/subscriptions/:id/toggle", h.Toggle)
		admin.PUT("/subscriptions/:id/token", h.SetToken)
		admin.POST("/subscriptions/:id/expire", h.MarkExpired)
	}
}

// Request accepts a multipart form with the payment proof and creates a
// pending stock request.
func (h *SubscriptionHandler) Request(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("paymentProof")
	if err != nil {
		h.HandleServiceError(c, apperrors.ErrPaymentProofRequired)
		return
	}

	proofPath, err := storeUpload(c, h.storage, fileHeader, "payment-proofs", "payment")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	var continuedFrom *string
	if v := c.PostForm("continuedFrom"); v != "" {
		continuedFrom = &v
	}

	sub, err := h.subscriptionService.Request(h.GetDB(c), userID, proofPath, continuedFrom)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"subscription": sub})
}

func (h *SubscriptionHandler) ListOwn(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	subs, err := h.subscriptionService.ListOwn(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subscriptions": subs,
		"total":         len(subs),
	})
}

func (h *SubscriptionHandler) Dashboard(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	dashboard, err := h.subscriptionService.Dashboard(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

func (h *SubscriptionHandler) ListPending(c *gin.Context) {
	h.adminList(c, h.subscriptionService.ListPending)
}

func (h *SubscriptionHandler) ListActive(c *gin.Context) {
	h.adminList(c, h.subscriptionService.ListActive)
}

func (h *SubscriptionHandler) ListProcessed(c *gin.Context) {
	h.adminList(c, h.subscriptionService.ListProcessed)
}

func (h *SubscriptionHandler) ListExpired(c *gin.Context) {
	h.adminList(c, h.subscriptionService.ListExpired)
}

func (h *SubscriptionHandler) adminList(c *gin.Context, list func(db *gorm.DB) ([]dto.AdminSubscription, error)) {
	subs, err := list(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"subscriptions": subs,
		"total":         len(subs),
	})
}

func (h *SubscriptionHandler) UserStats(c *gin.Context) {
	stats, err := h.subscriptionService.UserStats(h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users": stats,
		"total": len(stats),
	})
}

func (h *SubscriptionHandler) Approve(c *gin.Context) {
	var req dto.ApproveSubscriptionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.Approve(h.GetDB(c), c.Param("id"), req.APIToken)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

func (h *SubscriptionHandler) Reject(c *gin.Context) {
	var req dto.RejectSubscriptionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.Reject(h.GetDB(c), c.Param("id"), req.Reason)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

func (h *SubscriptionHandler) Toggle(c *gin.Context) {
	sub, err := h.subscriptionService.Toggle(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

func (h *SubscriptionHandler) SetToken(c *gin.Context) {
	var req dto.UpdateTokenRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	sub, err := h.subscriptionService.SetToken(h.GetDB(c), c.Param("id"), req.APIToken)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}

func (h *SubscriptionHandler) MarkExpired(c *gin.Context) {
	sub, err := h.subscriptionService.MarkExpired(h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}
