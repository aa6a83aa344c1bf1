package router

import (
	"fmt"
	"html/template"
	"net/http"
	"path/filepath"

	"github.com/gin-contrib/multitemplate"
	"github.com/gin-gonic/gin"
	"github.com/user/phimhub/internal/handler"
	"github.com/user/phimhub/internal/middleware"
)

// RegisterRoutes 注册所有路由
func RegisterRoutes(r *gin.Engine, h *handler.Handler) {
	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== 公开页面 ====================
	r.GET("/", middleware.OptionalAuth(h.Config.AppSecret), h.Home)

	pages := r.Group("")
	pages.Use(middleware.OptionalAuth(h.Config.AppSecret))
	{
		pages.GET("/danh-sach/:slug", h.CatalogPage)
		pages.GET("/the-loai/:slug", h.CategoryPage)
		pages.GET("/quoc-gia/:slug", h.RegionPage)
		pages.GET("/tim-kiem", h.SearchPage)
		pages.GET("/phim/:slug", h.MoviePage)
		pages.GET("/phim/:slug/:episode", h.WatchPage)
		pages.GET("/vip", h.VipPage)
	}

	// ==================== 认证页面 ====================
	auth := r.Group("/auth")
	auth.Use(middleware.OptionalAuth(h.Config.AppSecret))
	{
		auth.GET("/login", h.LoginPage)
		auth.POST("/login", h.Login)
		auth.GET("/register", h.RegisterPage)
		auth.POST("/register", h.Register)
		auth.POST("/logout", h.Logout)
	}

	// ==================== 用户中心（需要登录）====================
	dashboard := r.Group("/dashboard")
	dashboard.Use(middleware.RequireAuth(h.Config.AppSecret))
	{
		dashboard.GET("", h.Dashboard)
		dashboard.GET("/favorites", h.Favorites)
		dashboard.GET("/continue", h.ContinueWatching)
		dashboard.GET("/settings", h.Settings)
		dashboard.POST("/settings/username", h.UpdateUsername)
		dashboard.POST("/settings/password", h.UpdatePassword)
	}

	// ==================== JSON API ====================
	api := r.Group("/api")
	api.Use(middleware.OptionalAuth(h.Config.AppSecret))
	{
		// 找回密码 / 邮箱验证
		api.POST("/auth/forgot", h.ForgotPassword)
		api.POST("/auth/reset", h.ResetPassword)
		api.POST("/auth/verify", h.VerifyEmail)
		api.GET("/auth/verify", h.VerifyEmail)

		// 支付回跳由网关发起，不要求登录态
		api.GET("/vip/return", h.VipReturn)

		// Telegram webhook
		api.POST("/bot/webhook", h.BotWebhook)

		// 播放报错，允许匿名
		api.POST("/reports", h.CreateReport)

		// 以下需要登录
		authed := api.Group("")
		authed.Use(middleware.RequireAuth(h.Config.AppSecret))
		{
			authed.GET("/favorites", h.ListFavorites)
			authed.POST("/favorites/:slug", h.AddFavorite)
			authed.DELETE("/favorites/:slug", h.RemoveFavorite)

			authed.GET("/playlists", h.ListPlaylists)
			authed.POST("/playlists", h.CreatePlaylist)
			authed.GET("/playlists/:id", h.GetPlaylist)
			authed.PUT("/playlists/:id", h.RenamePlaylist)
			authed.DELETE("/playlists/:id", h.DeletePlaylist)
			authed.POST("/playlists/:id/items", h.AddPlaylistItem)
			authed.DELETE("/playlists/:id/items/:slug", h.RemovePlaylistItem)

			authed.POST("/progress", h.SaveProgress)
			authed.GET("/progress/:slug", h.GetProgress)

			authed.POST("/vip/checkout", h.VipCheckout)
		}
	}

	// ==================== 管理 API ====================
	// 未登录或权限不足统一返回 403
	adminAPI := r.Group("/api/admin")
	adminAPI.Use(middleware.OptionalAuth(h.Config.AppSecret))
	adminAPI.Use(middleware.RequireAdmin())
	{
		adminAPI.GET("/approvals", h.AdminListApprovals)
		adminAPI.POST("/approvals/:slug/approve", h.AdminApprove)
		adminAPI.POST("/approvals/:slug/reject", h.AdminReject)

		adminAPI.POST("/visibility/:slug/hide", h.AdminHideMovie)
		adminAPI.POST("/visibility/:slug/show", h.AdminShowMovie)
		adminAPI.POST("/visibility/:slug/schedule", h.AdminScheduleMovie)

		adminAPI.GET("/reports", h.AdminListReports)
		adminAPI.POST("/reports/:id/resolve", h.AdminResolveReport)

		adminAPI.POST("/sync-all", h.AdminSyncAll)
		adminAPI.GET("/stats", h.AdminStats)
		adminAPI.POST("/users/:id/role", h.AdminSetRole)
		adminAPI.POST("/bot/poll", h.AdminBotPoll)
	}

	// ==================== 管理后台页面 ====================
	admin := r.Group("/admin")
	admin.Use(middleware.RequireAuth(h.Config.AppSecret))
	admin.Use(middleware.RequireAdmin())
	{
		admin.GET("", h.AdminDashboard)
		admin.GET("/approvals", h.AdminApprovals)
		admin.GET("/users", h.AdminUsers)
	}
}

// LoadTemplates 使用 multitemplate 加载模板，解决模板继承问题
func LoadTemplates(templatesDir string) multitemplate.Renderer {
	r := multitemplate.NewRenderer()

	// 获取布局和局部模板
	layouts, err := filepath.Glob(templatesDir + "/layouts/*.html")
	if err != nil {
		panic(err)
	}

	partials, err := filepath.Glob(templatesDir + "/partials/*.html")
	if err != nil {
		panic(err)
	}

	// 组装模板文件列表
	assemble := func(view string) []string {
		files := make([]string, 0)
		files = append(files, layouts...)
		files = append(files, partials...)
		files = append(files, view)
		return files
	}

	// 模板函数
	funcMap := template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			dict := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				dict[key] = values[i+1]
			}
			return dict, nil
		},
		"default": func(defaultValue, value interface{}) interface{} {
			switch v := value.(type) {
			case string:
				if v == "" {
					return defaultValue
				}
			case int:
				if v == 0 {
					return defaultValue
				}
			case nil:
				return defaultValue
			}
			return value
		},
		"js": func(s string) template.JS {
			return template.JS(s)
		},
	}

	// 注册所有页面模板
	pages := []string{
		"home", "catalog", "search", "movie", "watch",
		"vip", "404",
		"login", "register",
		"dashboard", "favorites", "continue", "settings",
		"admin_dashboard", "admin_approvals", "admin_users",
	}

	for _, page := range pages {
		viewPath := templatesDir + "/pages/" + page + ".html"
		r.AddFromFilesFuncs(page+".html", funcMap, assemble(viewPath)...)
	}

	return r
}
