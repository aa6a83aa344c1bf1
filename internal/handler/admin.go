package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/phimhub/internal/middleware"
	"github.com/user/phimhub/internal/model"
	"github.com/user/phimhub/internal/service"
	"github.com/user/phimhub/internal/utils"
)

// ==================== 管理后台 ====================

// AdminDashboard 后台首页
func (h *Handler) AdminDashboard(c *gin.Context) {
	pendingCount, _ := h.Repos.Approval.CountByStatus(model.ApprovalPending)
	approvedCount, _ := h.Repos.Approval.CountByStatus(model.ApprovalApproved)
	userCount, _ := h.Repos.User.Count()
	paymentCount, _ := h.Repos.Payment.CountCompleted()

	c.HTML(http.StatusOK, "admin_dashboard.html", h.RenderData(c, gin.H{
		"Title":         "Bảng điều khiển - " + h.Config.SiteName,
		"PendingCount":  pendingCount,
		"ApprovedCount": approvedCount,
		"UserCount":     userCount,
		"PaymentCount":  paymentCount,
	}))
}

// AdminApprovals 审核管理页面
func (h *Handler) AdminApprovals(c *gin.Context) {
	status := c.DefaultQuery("status", model.ApprovalPending)
	page := pageQuery(c)
	const perPage = 50

	approvals, err := h.Repos.Approval.ListByStatus(status, perPage, (page-1)*perPage)
	if err != nil {
		approvals = []*model.MovieApproval{}
	}
	total, _ := h.Repos.Approval.CountByStatus(status)

	c.HTML(http.StatusOK, "admin_approvals.html", h.RenderData(c, gin.H{
		"Title":      "Kiểm duyệt phim - " + h.Config.SiteName,
		"Approvals":  approvals,
		"Status":     status,
		"Pagination": service.Paginate(int(total), perPage, page),
	}))
}

// AdminUsers 用户管理页面
func (h *Handler) AdminUsers(c *gin.Context) {
	users, err := h.Repos.User.ListAll()
	if err != nil {
		users = []*model.User{}
	}

	c.HTML(http.StatusOK, "admin_users.html", h.RenderData(c, gin.H{
		"Title": "Quản lý người dùng - " + h.Config.SiteName,
		"Users": users,
	}))
}

// ==================== 审核 API ====================

// AdminListApprovals 审核记录列表
// GET /api/admin/approvals?status=pending
func (h *Handler) AdminListApprovals(c *gin.Context) {
	status := c.Query("status")
	limit, offset := pageLimit(c, 50)

	approvals, err := h.Repos.Approval.ListByStatus(status, limit, offset)
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}
	total, _ := h.Repos.Approval.CountByStatus(status)

	utils.OK(c, gin.H{"items": approvals, "total": total})
}

// AdminApprove 审核通过
// POST /api/admin/approvals/:slug/approve
func (h *Handler) AdminApprove(c *gin.Context) {
	h.setApproval(c, model.ApprovalApproved)
}

// AdminReject 审核驳回
// POST /api/admin/approvals/:slug/reject
func (h *Handler) AdminReject(c *gin.Context) {
	h.setApproval(c, model.ApprovalRejected)
}

func (h *Handler) setApproval(c *gin.Context, status string) {
	slug := c.Param("slug")
	adminID := middleware.GetUserID(c)

	approval, err := h.Repos.Approval.FindBySlug(slug)
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}
	if approval == nil {
		utils.NotFound(c, "Không tìm thấy bản ghi kiểm duyệt")
		return
	}

	if err := h.Repos.Approval.SetStatus(slug, status, adminID); err != nil {
		utils.InternalServerError(c, "")
		return
	}

	// 驳回同时下架，通过则恢复可见
	visible := status == model.ApprovalApproved
	if err := h.Repos.Visibility.SetVisible(slug, visible); err != nil {
		log.Printf("[Admin] 更新可见性失败 slug=%s: %v", slug, err)
	}
	h.Catalog.ClearCaches()

	utils.OK(c, gin.H{"slug": slug, "status": status})
}

// ==================== 可见性 API ====================

// AdminHideMovie 下架影片
// POST /api/admin/visibility/:slug/hide
func (h *Handler) AdminHideMovie(c *gin.Context) {
	slug := c.Param("slug")
	if err := h.Repos.Visibility.SetVisible(slug, false); err != nil {
		utils.InternalServerError(c, "")
		return
	}
	h.Catalog.ClearCaches()
	utils.OK(c, gin.H{"slug": slug, "visible": false})
}

// AdminShowMovie 上架影片
// POST /api/admin/visibility/:slug/show
func (h *Handler) AdminShowMovie(c *gin.Context) {
	slug := c.Param("slug")
	if err := h.Repos.Visibility.SetVisible(slug, true); err != nil {
		utils.InternalServerError(c, "")
		return
	}
	h.Catalog.ClearCaches()
	utils.OK(c, gin.H{"slug": slug, "visible": true})
}

// AdminScheduleMovie 定时放出：先隐藏，到点由清理任务自动放出
// POST /api/admin/visibility/:slug/schedule
func (h *Handler) AdminScheduleMovie(c *gin.Context) {
	slug := c.Param("slug")

	var req struct {
		At time.Time `json:"at" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Thời gian không hợp lệ")
		return
	}
	if !req.At.After(time.Now()) {
		utils.BadRequest(c, "Thời gian phải ở tương lai")
		return
	}

	if err := h.Repos.Visibility.Schedule(slug, req.At); err != nil {
		utils.InternalServerError(c, "")
		return
	}
	h.Catalog.ClearCaches()
	utils.OK(c, gin.H{"slug": slug, "scheduled_at": req.At})
}

// ==================== 同步 API ====================

// AdminSyncAll 触发全量同步
// 任务在后台执行，触发请求立即返回；断开连接不影响同步进行
// POST /api/admin/sync-all
func (h *Handler) AdminSyncAll(c *gin.Context) {
	if err := h.Sync.SyncAllAsync(); err != nil {
		if errors.Is(err, service.ErrSyncRunning) {
			utils.Fail(c, http.StatusConflict, "Đồng bộ đang chạy")
			return
		}
		log.Printf("[Admin] 同步任务启动失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}

	utils.OK(c, gin.H{"started": true})
}

// ==================== 统计 / 用户 API ====================

// AdminStats 后台统计
// GET /api/admin/stats
func (h *Handler) AdminStats(c *gin.Context) {
	pendingCount, _ := h.Repos.Approval.CountByStatus(model.ApprovalPending)
	approvedCount, _ := h.Repos.Approval.CountByStatus(model.ApprovalApproved)
	rejectedCount, _ := h.Repos.Approval.CountByStatus(model.ApprovalRejected)
	userCount, _ := h.Repos.User.Count()
	paymentCount, _ := h.Repos.Payment.CountCompleted()
	openReports, _ := h.Repos.Report.CountOpen()

	utils.OK(c, gin.H{
		"approvals": gin.H{
			"pending":  pendingCount,
			"approved": approvedCount,
			"rejected": rejectedCount,
		},
		"users":              userCount,
		"payments_completed": paymentCount,
		"open_reports":       openReports,
	})
}

// AdminSetRole 调整用户角色，仅 super_admin 可用
// POST /api/admin/users/:id/role
func (h *Handler) AdminSetRole(c *gin.Context) {
	if middleware.GetRole(c) != model.RoleSuperAdmin {
		utils.Forbidden(c)
		return
	}

	userID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "ID không hợp lệ")
		return
	}

	var req struct {
		Role string `json:"role" binding:"required,oneof=free vip admin super_admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Vai trò không hợp lệ")
		return
	}

	if err := h.Repos.User.UpdateRole(userID, req.Role); err != nil {
		utils.InternalServerError(c, "")
		return
	}
	utils.OK(c, gin.H{"id": userID, "role": req.Role})
}
