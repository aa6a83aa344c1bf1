package handler

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/phimhub/internal/config"
	"github.com/user/phimhub/internal/middleware"
	"github.com/user/phimhub/internal/model"
	"github.com/user/phimhub/internal/repository"
	"github.com/user/phimhub/internal/service"
	"github.com/user/phimhub/internal/utils"
	"golang.org/x/sync/errgroup"
)

// Handler HTTP 处理器
type Handler struct {
	Repos    *repository.Repositories
	Config   *config.Config
	Catalog  *service.CatalogService
	Sync     *service.SyncService
	Payment  *service.PaymentService
	Notifier *service.TelegramNotifier
}

// NewHandler 创建处理器
func NewHandler(repos *repository.Repositories, cfg *config.Config) *Handler {
	// 上游客户端，响应记忆化 60 秒
	client := service.NewOphimClient(cfg.OphimBaseURL, service.GoCacheStore{TTL: 60 * time.Second})

	// 目录读取服务
	catalog := service.NewCatalogService(client, repos.Visibility)

	// 通知机器人
	notifier := service.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.SiteUrl)

	// 同步任务
	syncSvc := service.NewSyncService(client, repos.Approval, repos.Visibility, notifier, catalog.ClearCaches)

	// 支付服务
	payment := service.NewPaymentService(service.VnpConfig{
		TmnCode:    cfg.VnpTmnCode,
		HashSecret: cfg.VnpHashSecret,
		PayURL:     cfg.VnpPayURL,
		ReturnURL:  cfg.VnpReturnURL,
	}, repos.Payment, repos.Plan, repos.User)

	return &Handler{
		Repos:    repos,
		Config:   cfg,
		Catalog:  catalog,
		Sync:     syncSvc,
		Payment:  payment,
		Notifier: notifier,
	}
}

// RenderData 统一封装公共渲染数据
func (h *Handler) RenderData(c *gin.Context, data gin.H) gin.H {
	// 基础数据
	res := gin.H{
		"SiteName": h.Config.SiteName,
		"SiteUrl":  h.Config.SiteUrl,
		"Path":     c.Request.URL.Path,
		"Referer":  c.Request.Referer(),
	}

	// 注入用户信息
	session := sessions.Default(c)
	if userinfo := session.Get("userinfo"); userinfo != nil {
		if su, ok := userinfo.(model.SessionUser); ok {
			res["UserInfo"] = su
		}
	}

	// 菜单高亮逻辑
	res["ActiveMenu"] = h.getActiveMenu(c.Request.URL.Path)

	// 合并传入的数据
	for k, v := range data {
		res[k] = v
	}

	return res
}

// getActiveMenu 根据路径判断当前高亮菜单
func (h *Handler) getActiveMenu(path string) string {
	switch {
	case path == "/":
		return "home"
	case strings.HasPrefix(path, "/danh-sach/phim-le"):
		return "single"
	case strings.HasPrefix(path, "/danh-sach/phim-bo"):
		return "series"
	case strings.HasPrefix(path, "/danh-sach"):
		return "list"
	case strings.HasPrefix(path, "/the-loai"):
		return "category"
	case strings.HasPrefix(path, "/quoc-gia"):
		return "region"
	case path == "/vip":
		return "vip"
	case strings.HasPrefix(path, "/dashboard"):
		return "user"
	default:
		return ""
	}
}

// pageQuery 解析 page 查询参数
func pageQuery(c *gin.Context) int {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// ==================== 公开页面 ====================

// Home 首页：几个列表区块 + 导航分类并行拉取
// 任何一个区块失败都降级为空列表，不让整页挂掉
func (h *Handler) Home(c *gin.Context) {
	type section struct {
		Title string
		Slug  string
		List  *model.MovieList
	}
	sections := []*section{
		{Title: "Phim mới cập nhật", Slug: "phim-moi"},
		{Title: "Phim lẻ", Slug: "phim-le"},
		{Title: "Phim bộ", Slug: "phim-bo"},
		{Title: "Hoạt hình", Slug: "hoat-hinh"},
	}

	var categories, regions []model.TaxRef

	g, gctx := errgroup.WithContext(c.Request.Context())
	for _, sec := range sections {
		sec := sec
		g.Go(func() error {
			list, err := h.Catalog.ListBy(gctx, sec.Slug, 1, 0)
			if err != nil {
				log.Printf("[Handler] 首页区块 %s 拉取失败: %v", sec.Slug, err)
				list = &model.MovieList{}
			}
			sec.List = list
			return nil
		})
	}
	g.Go(func() error {
		var err error
		categories, regions, err = h.Catalog.Taxonomies(gctx)
		if err != nil {
			log.Printf("[Handler] 导航分类拉取失败: %v", err)
		}
		return nil
	})
	_ = g.Wait()

	c.HTML(http.StatusOK, "home.html", h.RenderData(c, gin.H{
		"Title":      h.Config.SiteName + " - Xem phim online",
		"Sections":   sections,
		"Categories": categories,
		"Regions":    regions,
	}))
}

// Catalog 列表页 /danh-sach/:slug
func (h *Handler) CatalogPage(c *gin.Context) {
	slug := c.Param("slug")
	year, _ := strconv.Atoi(c.Query("year"))

	list, err := h.Catalog.ListBy(c.Request.Context(), slug, pageQuery(c), year)
	if err != nil {
		log.Printf("[Handler] 列表页拉取失败 %s: %v", slug, err)
		list = &model.MovieList{}
	}

	title := list.Title
	if title == "" {
		title = slug
	}

	c.HTML(http.StatusOK, "catalog.html", h.RenderData(c, gin.H{
		"Title":    title + " - " + h.Config.SiteName,
		"Heading":  title,
		"BasePath": "/danh-sach/" + slug,
		"List":     list,
	}))
}

// CategoryPage 分类页 /the-loai/:slug
func (h *Handler) CategoryPage(c *gin.Context) {
	slug := c.Param("slug")

	list, err := h.Catalog.ByCategory(c.Request.Context(), slug, pageQuery(c))
	if err != nil {
		log.Printf("[Handler] 分类页拉取失败 %s: %v", slug, err)
		list = &model.MovieList{}
	}

	title := list.Title
	if title == "" {
		title = slug
	}

	c.HTML(http.StatusOK, "catalog.html", h.RenderData(c, gin.H{
		"Title":    title + " - " + h.Config.SiteName,
		"Heading":  title,
		"BasePath": "/the-loai/" + slug,
		"List":     list,
	}))
}

// RegionPage 地区页 /quoc-gia/:slug
func (h *Handler) RegionPage(c *gin.Context) {
	slug := c.Param("slug")

	list, err := h.Catalog.ByRegion(c.Request.Context(), slug, pageQuery(c))
	if err != nil {
		log.Printf("[Handler] 地区页拉取失败 %s: %v", slug, err)
		list = &model.MovieList{}
	}

	title := list.Title
	if title == "" {
		title = slug
	}

	c.HTML(http.StatusOK, "catalog.html", h.RenderData(c, gin.H{
		"Title":    title + " - " + h.Config.SiteName,
		"Heading":  title,
		"BasePath": "/quoc-gia/" + slug,
		"List":     list,
	}))
}

// SearchPage 搜索页 /tim-kiem
func (h *Handler) SearchPage(c *gin.Context) {
	keyword := strings.TrimSpace(c.Query("keyword"))
	if keyword == "" {
		c.Redirect(http.StatusFound, "/")
		return
	}

	list, err := h.Catalog.Search(c.Request.Context(), keyword, pageQuery(c))
	if err != nil {
		log.Printf("[Handler] 搜索失败 %q: %v", keyword, err)
		list = &model.MovieList{}
	}

	// 异步记录搜索词（用于热搜统计）
	if len(list.Items) > 0 {
		var userIDPtr *int
		if userID := middleware.GetUserID(c); userID > 0 {
			userIDPtr = &userID
		}
		ipHash := utils.HashIP(c.ClientIP())
		go func() {
			if logErr := h.Repos.SearchLog.Log(keyword, userIDPtr, ipHash); logErr != nil {
				log.Printf("[Handler] 记录搜索词失败: %v", logErr)
			}
		}()
	}

	trending, _ := h.Repos.SearchLog.GetTrending(10)

	c.HTML(http.StatusOK, "search.html", h.RenderData(c, gin.H{
		"Title":    keyword + " - Tìm kiếm - " + h.Config.SiteName,
		"Keyword":  keyword,
		"BasePath": "/tim-kiem",
		"List":     list,
		"Trending": trending,
	}))
}

// MoviePage 影片详情页 /phim/:slug
func (h *Handler) MoviePage(c *gin.Context) {
	slug := c.Param("slug")

	movie, err := h.Catalog.Detail(c.Request.Context(), slug)
	if err != nil || movie == nil {
		if err != nil {
			log.Printf("[Handler] 详情拉取失败 %s: %v", slug, err)
		}
		c.HTML(http.StatusNotFound, "404.html", h.RenderData(c, gin.H{
			"Title": "Không tìm thấy phim - " + h.Config.SiteName,
		}))
		return
	}

	// 已登录用户的收藏状态与观看进度
	userID := middleware.GetUserID(c)
	isFavorited := false
	var progresses []*model.WatchProgress
	if userID > 0 {
		isFavorited, _ = h.Repos.Favorite.IsFavorited(userID, slug)
		progresses, _ = h.Repos.Progress.ListByMovie(userID, slug)
	}

	c.HTML(http.StatusOK, "movie.html", h.RenderData(c, gin.H{
		"Title":       movie.Name + " (" + strconv.Itoa(movie.Year) + ") - " + h.Config.SiteName,
		"Description": movie.Summary,
		"Movie":       movie,
		"IsFavorited": isFavorited,
		"Progresses":  progresses,
	}))
}

// WatchPage 播放页 /phim/:slug/:episode，episode 形如 "tap-01-123456789"
func (h *Handler) WatchPage(c *gin.Context) {
	slug := c.Param("slug")
	epParam := c.Param("episode")

	epSlug, epID, ok := parseEpisodeParam(epParam)
	if !ok {
		c.Redirect(http.StatusFound, "/phim/"+slug)
		return
	}

	movie, err := h.Catalog.Detail(c.Request.Context(), slug)
	if err != nil || movie == nil {
		c.HTML(http.StatusNotFound, "404.html", h.RenderData(c, gin.H{
			"Title": "Không tìm thấy phim - " + h.Config.SiteName,
		}))
		return
	}

	episode := service.FindEpisode(movie.Servers, epSlug, epID)
	if episode == nil {
		c.Redirect(http.StatusFound, "/phim/"+slug)
		return
	}

	// 续播位置
	userID := middleware.GetUserID(c)
	var resume float64
	if userID > 0 {
		progresses, _ := h.Repos.Progress.ListByMovie(userID, slug)
		for _, p := range progresses {
			if p.EpisodeID == epID {
				resume = p.Seconds
				break
			}
		}
	}

	c.HTML(http.StatusOK, "watch.html", h.RenderData(c, gin.H{
		"Title":   movie.Name + " - " + episode.Name + " - " + h.Config.SiteName,
		"Movie":   movie,
		"Episode": episode,
		"Resume":  resume,
	}))
}

// parseEpisodeParam 解析 "{epSlug}-{id}" 形式的播放页参数
func parseEpisodeParam(param string) (string, uint32, bool) {
	idx := strings.LastIndex(param, "-")
	if idx <= 0 || idx == len(param)-1 {
		return "", 0, false
	}
	id, err := strconv.ParseUint(param[idx+1:], 10, 32)
	if err != nil {
		return "", 0, false
	}
	return param[:idx], uint32(id), true
}

// VipPage VIP 套餐页
func (h *Handler) VipPage(c *gin.Context) {
	plans, err := h.Repos.Plan.ListActive()
	if err != nil {
		plans = nil
	}

	userID := middleware.GetUserID(c)
	var user *model.User
	var payments []*model.Payment
	if userID > 0 {
		user, _ = h.Repos.User.FindByID(userID)
		payments, _ = h.Repos.Payment.ListByUser(userID, 10, 0)
	}

	result := c.Query("result")

	c.HTML(http.StatusOK, "vip.html", h.RenderData(c, gin.H{
		"Title":    "VIP - " + h.Config.SiteName,
		"Plans":    plans,
		"User":     user,
		"Payments": payments,
		"Result":   result,
	}))
}
