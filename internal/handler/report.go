package handler

import (
	"log"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/user/phimhub/internal/middleware"
	"github.com/user/phimhub/internal/model"
	"github.com/user/phimhub/internal/utils"
)

// CreateReportRequest 播放报错上报
type CreateReportRequest struct {
	MovieSlug string `json:"movie_slug" binding:"required,slug"`
	EpisodeID uint32 `json:"episode_id"`
	Type      string `json:"type" binding:"required,oneof=dead_link wrong_episode bad_subtitle no_sound other"`
	Content   string `json:"content" binding:"max=500"`
}

// CreateReport 处理播放报错（允许匿名上报）
func (h *Handler) CreateReport(c *gin.Context) {
	var req CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Dữ liệu không hợp lệ")
		return
	}

	var userIDPtr *int
	if userID := middleware.GetUserID(c); userID > 0 {
		userIDPtr = &userID
	}

	report := &model.Report{
		UserID:    userIDPtr,
		MovieSlug: req.MovieSlug,
		EpisodeID: req.EpisodeID,
		Type:      req.Type,
		Content:   req.Content,
	}
	if err := h.Repos.Report.Create(report); err != nil {
		log.Printf("[Handler] 创建报错失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}

	utils.OK(c, gin.H{"id": report.ID})
}

// AdminListReports 管理后台报错列表 GET /api/admin/reports
func (h *Handler) AdminListReports(c *gin.Context) {
	status := c.Query("status")
	limit, offset := pageLimit(c, 50)

	reports, err := h.Repos.Report.ListByStatus(status, limit, offset)
	if err != nil {
		log.Printf("[Handler] 查询报错列表失败: %v", err)
		utils.InternalServerError(c, "")
		return
	}

	openCount, _ := h.Repos.Report.CountOpen()
	utils.OK(c, gin.H{"reports": reports, "open_count": openCount})
}

// AdminResolveReport 标记报错已处理 POST /api/admin/reports/:id/resolve
func (h *Handler) AdminResolveReport(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		utils.BadRequest(c, "ID không hợp lệ")
		return
	}

	if err := h.Repos.Report.Resolve(id); err != nil {
		log.Printf("[Handler] 处理报错失败 %d: %v", id, err)
		utils.InternalServerError(c, "")
		return
	}

	utils.OK(c, nil)
}
