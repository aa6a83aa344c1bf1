package handler

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/user/phimhub/internal/middleware"
	"github.com/user/phimhub/internal/model"
	"github.com/user/phimhub/internal/utils"
)

// resetTokenTTL 密码重置链接有效期
const resetTokenTTL = 30 * time.Minute

// ==================== 收藏 ====================

// AddFavorite 收藏影片
// POST /api/favorites/:slug
func (h *Handler) AddFavorite(c *gin.Context) {
	userID := middleware.GetUserID(c)
	slug := c.Param("slug")

	var req struct {
		Name   string `json:"name"`
		Poster string `json:"poster"`
		Year   int    `json:"year"`
	}
	// 没有元数据也允许收藏，详情页补全
	_ = c.ShouldBindJSON(&req)

	if err := h.Repos.Favorite.Add(userID, slug, req.Name, req.Poster, req.Year); err != nil {
		log.Printf("[API] 收藏失败 user=%d slug=%s: %v", userID, slug, err)
		utils.InternalServerError(c, "")
		return
	}
	utils.OK(c, gin.H{"slug": slug, "favorited": true})
}

// RemoveFavorite 取消收藏
// DELETE /api/favorites/:slug
func (h *Handler) RemoveFavorite(c *gin.Context) {
	userID := middleware.GetUserID(c)
	slug := c.Param("slug")

	if err := h.Repos.Favorite.Remove(userID, slug); err != nil {
		utils.InternalServerError(c, "")
		return
	}
	utils.OK(c, gin.H{"slug": slug, "favorited": false})
}

// ListFavorites 收藏列表
// GET /api/favorites
func (h *Handler) ListFavorites(c *gin.Context) {
	userID := middleware.GetUserID(c)
	limit, offset := pageLimit(c, 50)

	favorites, err := h.Repos.Favorite.ListByUser(userID, limit, offset)
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}
	utils.OK(c, gin.H{"items": favorites})
}

// ==================== 播放列表 ====================

// CreatePlaylist 新建播放列表
// POST /api/playlists
func (h *Handler) CreatePlaylist(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req struct {
		Name string `json:"name" binding:"required,min=1,max=50"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Tên danh sách không hợp lệ")
		return
	}

	playlist, err := h.Repos.Playlist.Create(userID, strings.TrimSpace(req.Name))
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}
	utils.OK(c, gin.H{"playlist": playlist})
}

// ListPlaylists 播放列表总览
// GET /api/playlists
func (h *Handler) ListPlaylists(c *gin.Context) {
	userID := middleware.GetUserID(c)

	playlists, err := h.Repos.Playlist.ListByUser(userID)
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}
	utils.OK(c, gin.H{"items": playlists})
}

// GetPlaylist 播放列表详情（含条目）
// GET /api/playlists/:id
func (h *Handler) GetPlaylist(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "ID không hợp lệ")
		return
	}

	playlist, err := h.Repos.Playlist.FindByID(userID, id)
	if err != nil || playlist == nil {
		utils.NotFound(c, "Không tìm thấy danh sách")
		return
	}
	utils.OK(c, gin.H{"playlist": playlist})
}

// RenamePlaylist 重命名
// PUT /api/playlists/:id
func (h *Handler) RenamePlaylist(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "ID không hợp lệ")
		return
	}

	var req struct {
		Name string `json:"name" binding:"required,min=1,max=50"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Tên danh sách không hợp lệ")
		return
	}

	if err := h.Repos.Playlist.Rename(userID, id, strings.TrimSpace(req.Name)); err != nil {
		utils.NotFound(c, "Không tìm thấy danh sách")
		return
	}
	utils.OK(c, gin.H{"id": id})
}

// DeletePlaylist 删除播放列表（连同条目）
// DELETE /api/playlists/:id
func (h *Handler) DeletePlaylist(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "ID không hợp lệ")
		return
	}

	if err := h.Repos.Playlist.Delete(userID, id); err != nil {
		utils.NotFound(c, "Không tìm thấy danh sách")
		return
	}
	utils.OK(c, gin.H{"id": id})
}

// AddPlaylistItem 向播放列表添加影片
// POST /api/playlists/:id/items
func (h *Handler) AddPlaylistItem(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "ID không hợp lệ")
		return
	}

	var req struct {
		Slug   string `json:"slug" binding:"required,slug"`
		Name   string `json:"name"`
		Poster string `json:"poster"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Slug phim không hợp lệ")
		return
	}

	if err := h.Repos.Playlist.AddItem(userID, id, req.Slug, req.Name, req.Poster); err != nil {
		utils.NotFound(c, "Không tìm thấy danh sách")
		return
	}
	utils.OK(c, gin.H{"id": id, "slug": req.Slug})
}

// RemovePlaylistItem 从播放列表移除影片
// DELETE /api/playlists/:id/items/:slug
func (h *Handler) RemovePlaylistItem(c *gin.Context) {
	userID := middleware.GetUserID(c)
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		utils.BadRequest(c, "ID không hợp lệ")
		return
	}
	slug := c.Param("slug")

	if err := h.Repos.Playlist.RemoveItem(userID, id, slug); err != nil {
		utils.NotFound(c, "Không tìm thấy danh sách")
		return
	}
	utils.OK(c, gin.H{"id": id, "slug": slug})
}

// ==================== 观看进度 ====================

// SaveProgressReq 进度上报结构，播放器定时 POST
type SaveProgressReq struct {
	MovieSlug string  `json:"movie_slug" binding:"required,slug"`
	EpisodeID uint32  `json:"episode_id" binding:"required"`
	Episode   string  `json:"episode"`
	Name      string  `json:"name"`
	Poster    string  `json:"poster"`
	Seconds   float64 `json:"seconds" binding:"gte=0"`
	Duration  float64 `json:"duration" binding:"gte=0"`
}

// SaveProgress 保存观看进度
// POST /api/progress
func (h *Handler) SaveProgress(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req SaveProgressReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Dữ liệu tiến độ không hợp lệ")
		return
	}

	record := &model.WatchProgress{
		UserID:    userID,
		MovieSlug: req.MovieSlug,
		EpisodeID: req.EpisodeID,
		Episode:   req.Episode,
		Name:      req.Name,
		Poster:    req.Poster,
		Seconds:   req.Seconds,
		Duration:  req.Duration,
		WatchedAt: time.Now(),
	}
	if err := h.Repos.Progress.Upsert(record); err != nil {
		log.Printf("[API] 保存进度失败 user=%d slug=%s: %v", userID, req.MovieSlug, err)
		utils.InternalServerError(c, "")
		return
	}
	utils.OK(c, gin.H{"movie_slug": req.MovieSlug, "episode_id": req.EpisodeID})
}

// GetProgress 某部影片的全部分集进度
// GET /api/progress/:slug
func (h *Handler) GetProgress(c *gin.Context) {
	userID := middleware.GetUserID(c)
	slug := c.Param("slug")

	progresses, err := h.Repos.Progress.ListByMovie(userID, slug)
	if err != nil {
		utils.InternalServerError(c, "")
		return
	}
	utils.OK(c, gin.H{"items": progresses})
}

// ==================== 找回密码 / 邮箱验证 ====================

// ForgotPassword 请求密码重置
// POST /api/auth/forgot
func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Email không hợp lệ")
		return
	}

	// 无论邮箱是否存在都返回成功，避免枚举账号
	user, err := h.Repos.User.FindByEmail(strings.TrimSpace(req.Email))
	if err == nil && user != nil {
		if token, err := h.Repos.Token.Issue(user.ID, model.TokenReset, resetTokenTTL); err != nil {
			log.Printf("[API] 签发重置 token 失败: %v", err)
		} else {
			log.Printf("[API] 用户 %d 重置链接: %s/auth/reset?token=%s", user.ID, h.Config.SiteUrl, token.Token)
		}
	}
	utils.OK(c, gin.H{"message": "Nếu email tồn tại, liên kết đặt lại mật khẩu đã được gửi"})
}

// ResetPassword 通过 token 重置密码
// POST /api/auth/reset
func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token" binding:"required"`
		Password string `json:"password" binding:"required,min=6"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, "Mật khẩu cần ít nhất 6 ký tự")
		return
	}

	token, err := h.Repos.Token.Consume(req.Token, model.TokenReset)
	if err != nil || token == nil {
		utils.BadRequest(c, "Liên kết đặt lại đã hết hạn hoặc không hợp lệ")
		return
	}

	if err := h.Repos.User.UpdatePassword(token.UserID, req.Password); err != nil {
		utils.InternalServerError(c, "")
		return
	}
	utils.OK(c, gin.H{"message": "Đặt lại mật khẩu thành công"})
}

// VerifyEmail 邮箱验证
// POST /api/auth/verify（也接受 GET，便于点击邮件链接）
func (h *Handler) VerifyEmail(c *gin.Context) {
	tokenStr := c.Query("token")
	if tokenStr == "" {
		var req struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.BadRequest(c, "Thiếu mã xác nhận")
			return
		}
		tokenStr = req.Token
	}

	token, err := h.Repos.Token.Consume(tokenStr, model.TokenVerify)
	if err != nil || token == nil {
		utils.BadRequest(c, "Liên kết xác nhận đã hết hạn hoặc không hợp lệ")
		return
	}

	if err := h.Repos.User.MarkVerified(token.UserID); err != nil {
		utils.InternalServerError(c, "")
		return
	}
	utils.OK(c, gin.H{"message": "Xác nhận email thành công"})
}

// pageLimit 解析 limit/offset 查询参数
func pageLimit(c *gin.Context, def int) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(def)))
	if limit < 1 || limit > 200 {
		limit = def
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
