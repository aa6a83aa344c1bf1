package handler

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/user/phimhub/internal/model"
	"github.com/user/phimhub/internal/service"
	"github.com/user/phimhub/internal/utils"
)

// BotWebhook Telegram webhook 入口
// POST /api/bot/webhook
func (h *Handler) BotWebhook(c *gin.Context) {
	var update service.TgUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		utils.BadRequest(c, "Payload không hợp lệ")
		return
	}

	h.handleBotUpdate(update)
	// Telegram 只要求 200，否则会不断重投
	utils.OK(c, nil)
}

// AdminBotPoll 管理员手动轮询机器人更新（webhook 之外的备用通道）
// POST /api/admin/bot/poll
func (h *Handler) AdminBotPoll(c *gin.Context) {
	if !h.Notifier.Enabled() {
		utils.BadRequest(c, "Bot chưa được cấu hình")
		return
	}

	offset, _ := strconv.ParseInt(c.DefaultQuery("offset", "0"), 10, 64)
	updates, err := h.Notifier.GetUpdates(offset)
	if err != nil {
		log.Printf("[Bot] 轮询更新失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}

	var nextOffset int64
	for _, u := range updates {
		h.handleBotUpdate(u)
		if u.UpdateID >= nextOffset {
			nextOffset = u.UpdateID + 1
		}
	}

	utils.OK(c, gin.H{"handled": len(updates), "next_offset": nextOffset})
}

// handleBotUpdate 处理单条更新，目前只支持 /stats 命令
func (h *Handler) handleBotUpdate(update service.TgUpdate) {
	text := strings.TrimSpace(update.Message.Text)
	chatID := update.Message.Chat.ID
	if text == "" || chatID == 0 {
		return
	}

	// 去掉 @botname 后缀
	cmd := strings.Fields(text)[0]
	if i := strings.Index(cmd, "@"); i > 0 {
		cmd = cmd[:i]
	}

	switch cmd {
	case "/stats":
		h.replyStats(chatID)
	case "/start", "/help":
		reply := "Lệnh khả dụng:\n/stats - thống kê hệ thống"
		if err := h.Notifier.SendMessage(strconv.FormatInt(chatID, 10), reply); err != nil {
			log.Printf("[Bot] 回复失败 chat=%d: %v", chatID, err)
		}
	}
}

// replyStats 回复系统统计
func (h *Handler) replyStats(chatID int64) {
	pendingCount, _ := h.Repos.Approval.CountByStatus(model.ApprovalPending)
	approvedCount, _ := h.Repos.Approval.CountByStatus(model.ApprovalApproved)
	userCount, _ := h.Repos.User.Count()
	paymentCount, _ := h.Repos.Payment.CountCompleted()

	var b strings.Builder
	fmt.Fprintf(&b, "Thống kê %s:\n", h.Config.SiteName)
	fmt.Fprintf(&b, "• Chờ duyệt: %d\n", pendingCount)
	fmt.Fprintf(&b, "• Đã duyệt: %d\n", approvedCount)
	fmt.Fprintf(&b, "• Người dùng: %d\n", userCount)
	fmt.Fprintf(&b, "• Thanh toán thành công: %d\n", paymentCount)

	if err := h.Notifier.SendMessage(strconv.FormatInt(chatID, 10), b.String()); err != nil {
		log.Printf("[Bot] 回复统计失败 chat=%d: %v", chatID, err)
	}
}
