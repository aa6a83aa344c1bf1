package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/phimhub/internal/middleware"
	"github.com/user/phimhub/internal/model"
	"github.com/user/phimhub/internal/service"
	"github.com/user/phimhub/internal/utils"
)

// VipCheckout 创建支付订单，返回网关跳转地址
// POST /api/vip/checkout
func (h *Handler) VipCheckout(c *gin.Context) {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		utils.Unauthorized(c, "")
		return
	}

	var req struct {
		PlanID int `json:"plan_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		// 也接受表单提交，VIP 页的按钮是普通 form
		planID, err := strconv.Atoi(c.PostForm("plan_id"))
		if err != nil {
			utils.BadRequest(c, "Gói VIP không hợp lệ")
			return
		}
		req.PlanID = planID
	}

	payURL, err := h.Payment.Checkout(userID, req.PlanID, c.ClientIP())
	if err != nil {
		log.Printf("[Payment] 创建订单失败 user=%d plan=%d: %v", userID, req.PlanID, err)
		utils.BadRequest(c, "Không thể tạo đơn thanh toán")
		return
	}

	utils.OK(c, gin.H{"pay_url": payURL})
}

// VipReturn 网关支付完成后的回跳
// GET /api/vip/return
func (h *Handler) VipReturn(c *gin.Context) {
	payment, err := h.Payment.HandleReturn(c.Request.URL.Query())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSignature):
			c.Redirect(http.StatusFound, "/vip?result=invalid")
		case errors.Is(err, service.ErrUnknownTxnRef):
			c.Redirect(http.StatusFound, "/vip?result=unknown")
		default:
			log.Printf("[Payment] 处理回调失败: %v", err)
			c.Redirect(http.StatusFound, "/vip?result=error")
		}
		return
	}

	if payment.Status == model.PaymentCompleted {
		c.Redirect(http.StatusFound, "/vip?result=success")
		return
	}
	c.Redirect(http.StatusFound, "/vip?result=failed")
}
