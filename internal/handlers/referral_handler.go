package handlers

import (
	"net/http"

	"zaistock_backend/internal/middleware"
	"zaistock_backend/internal/services"
	"zaistock_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	*BaseHandler
	referralService services.ReferralService
}

func NewReferralHandler(base *BaseHandler, referralService services.ReferralService) *ReferralHandler {
	return &ReferralHandler{
		BaseHandler:     base,
		referralService: referralService,
	}
}

func (h *ReferralHandler) RegisterRoutes(r *gin.RouterGroup) {
	referral := r.Group("/subscription/referral")
	referral.Use(middleware.AuthMiddleware())
	{
		referral.GET("/code", h.GetCode)
		referral.POST("/insert", h.Insert)
		referral.GET("/stats", h.Stats)
		referral.GET("/active", h.Active)
	}
}

func (h *ReferralHandler) GetCode(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	code, err := h.referralService.GetOrCreateCode(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referralCode": code})
}

func (h *ReferralHandler) Insert(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.InsertReferralRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.referralService.RedeemCode(h.GetDB(c), userID, req.ReferralCode)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "Referral code applied",
		"referrer": resp.Referrer,
	})
}

func (h *ReferralHandler) Stats(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	stats, err := h.referralService.GetStats(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *ReferralHandler) Active(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	resp, err := h.referralService.ListActive(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
