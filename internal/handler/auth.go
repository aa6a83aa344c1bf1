package handler

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/user/phimhub/internal/middleware"
	"github.com/user/phimhub/internal/model"
)

// verifyTokenTTL 邮箱验证链接有效期
const verifyTokenTTL = 48 * time.Hour

// sanitizeRedirect 登录后跳转只允许站内相对路径
// 拒绝绝对地址和 //host、/\host 形式的协议相对跳转
func sanitizeRedirect(redirect string) string {
	if redirect == "" || !strings.HasPrefix(redirect, "/") ||
		strings.HasPrefix(redirect, "//") || strings.HasPrefix(redirect, "/\\") {
		return "/"
	}
	return redirect
}

// LoginPage 登录页面
func (h *Handler) LoginPage(c *gin.Context) {
	// 已登录直接跳转首页
	if middleware.GetUserID(c) > 0 {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.HTML(http.StatusOK, "login.html", h.RenderData(c, gin.H{
		"Title":    "Đăng nhập - " + h.Config.SiteName,
		"Redirect": c.Query("redirect"),
	}))
}

// Login 登录处理
func (h *Handler) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	redirect := sanitizeRedirect(c.PostForm("redirect"))

	user, err := h.Repos.User.FindByEmail(email)
	if err != nil || user == nil || !h.Repos.User.CheckPassword(user, password) {
		c.HTML(http.StatusOK, "login.html", h.RenderData(c, gin.H{
			"Title":    "Đăng nhập - " + h.Config.SiteName,
			"Error":    "Email hoặc mật khẩu không đúng",
			"Redirect": redirect,
		}))
		return
	}

	if err := h.signIn(c, user); err != nil {
		c.HTML(http.StatusInternalServerError, "login.html", h.RenderData(c, gin.H{
			"Title": "Đăng nhập - " + h.Config.SiteName,
			"Error": "Đăng nhập thất bại, vui lòng thử lại",
		}))
		return
	}

	c.Redirect(http.StatusFound, redirect)
}

// RegisterPage 注册页面
func (h *Handler) RegisterPage(c *gin.Context) {
	if middleware.GetUserID(c) > 0 {
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.HTML(http.StatusOK, "register.html", h.RenderData(c, gin.H{
		"Title": "Đăng ký - " + h.Config.SiteName,
	}))
}

// Register 注册处理
func (h *Handler) Register(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	confirmPassword := c.PostForm("confirm_password")

	renderErr := func(msg string) {
		c.HTML(http.StatusOK, "register.html", h.RenderData(c, gin.H{
			"Title": "Đăng ký - " + h.Config.SiteName,
			"Error": msg,
		}))
	}

	if email == "" || !strings.Contains(email, "@") {
		renderErr("Vui lòng nhập địa chỉ email hợp lệ")
		return
	}
	if password != confirmPassword {
		renderErr("Mật khẩu nhập lại không khớp")
		return
	}
	if len(password) < 6 {
		renderErr("Mật khẩu cần ít nhất 6 ký tự")
		return
	}

	// 检查邮箱是否已存在
	existing, _ := h.Repos.User.FindByEmail(email)
	if existing != nil {
		renderErr("Email này đã được đăng ký")
		return
	}

	user, err := h.Repos.User.Create(email, password)
	if err != nil {
		c.HTML(http.StatusInternalServerError, "register.html", h.RenderData(c, gin.H{
			"Title": "Đăng ký - " + h.Config.SiteName,
			"Error": "Đăng ký thất bại, vui lòng thử lại",
		}))
		return
	}

	// 签发邮箱验证 token，验证链接由 /api/auth/verify 消费
	if token, err := h.Repos.Token.Issue(user.ID, model.TokenVerify, verifyTokenTTL); err != nil {
		log.Printf("[Auth] 签发验证 token 失败: %v", err)
	} else {
		log.Printf("[Auth] 用户 %d 验证链接: %s/api/auth/verify?token=%s", user.ID, h.Config.SiteUrl, token.Token)
	}

	if err := h.signIn(c, user); err != nil {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// Logout 登出
func (h *Handler) Logout(c *gin.Context) {
	c.SetCookie("token", "", -1, "/", "", false, true)

	session := sessions.Default(c)
	session.Clear()
	session.Save()

	c.Redirect(http.StatusFound, "/")
}

// signIn 生成 JWT 写入 Cookie，并把用户概要存入 Session
func (h *Handler) signIn(c *gin.Context, user *model.User) error {
	token, err := middleware.GenerateToken(user.ID, user.Email, user.Role, h.Config.AppSecret, h.Config.JWTExpiry)
	if err != nil {
		return err
	}
	c.SetCookie("token", token, int(h.Config.JWTExpiry.Seconds()), "/", "", false, true)

	session := sessions.Default(c)
	session.Set("userinfo", model.SessionUser{
		ID:       user.ID,
		Email:    user.Email,
		Username: user.Username,
		Role:     user.Role,
	})
	return session.Save()
}

// ==================== 用户中心 ====================

// Dashboard 用户中心
func (h *Handler) Dashboard(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.Repos.User.FindByID(userID)
	if err != nil || user == nil {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	favoriteCount, _ := h.Repos.Favorite.CountByUser(userID)
	progressCount, _ := h.Repos.Progress.CountByUser(userID)

	favorites, _ := h.Repos.Favorite.ListByUser(userID, 20, 0)
	progresses, _ := h.Repos.Progress.ListByUser(userID, 20, 0)
	playlists, _ := h.Repos.Playlist.ListByUser(userID)

	c.HTML(http.StatusOK, "dashboard.html", h.RenderData(c, gin.H{
		"Title":         "Trang cá nhân - " + h.Config.SiteName,
		"User":          user,
		"IsVip":         user.IsVip(time.Now()),
		"FavoriteCount": favoriteCount,
		"ProgressCount": progressCount,
		"Favorites":     favorites,
		"Progresses":    progresses,
		"Playlists":     playlists,
	}))
}

// Favorites 收藏夹
func (h *Handler) Favorites(c *gin.Context) {
	userID := middleware.GetUserID(c)
	favorites, _ := h.Repos.Favorite.ListByUser(userID, 50, 0)

	c.HTML(http.StatusOK, "favorites.html", h.RenderData(c, gin.H{
		"Title":     "Phim đã lưu - " + h.Config.SiteName,
		"Favorites": favorites,
	}))
}

// ContinueWatching 继续观看
func (h *Handler) ContinueWatching(c *gin.Context) {
	userID := middleware.GetUserID(c)
	progresses, _ := h.Repos.Progress.ListByUser(userID, 50, 0)

	c.HTML(http.StatusOK, "continue.html", h.RenderData(c, gin.H{
		"Title":      "Đang xem dở - " + h.Config.SiteName,
		"Progresses": progresses,
	}))
}

// Settings 账号设置
func (h *Handler) Settings(c *gin.Context) {
	userID := middleware.GetUserID(c)

	user, err := h.Repos.User.FindByID(userID)
	if err != nil || user == nil {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	c.HTML(http.StatusOK, "settings.html", h.RenderData(c, gin.H{
		"Title":   "Cài đặt tài khoản - " + h.Config.SiteName,
		"User":    user,
		"Success": c.Query("success"),
	}))
}

// UpdateUsername 修改用户名
func (h *Handler) UpdateUsername(c *gin.Context) {
	userID := middleware.GetUserID(c)
	newUsername := strings.TrimSpace(c.PostForm("username"))

	if len(newUsername) < 2 || len(newUsername) > 20 {
		c.HTML(http.StatusOK, "settings.html", h.RenderData(c, gin.H{
			"Title": "Cài đặt tài khoản - " + h.Config.SiteName,
			"Error": "Tên hiển thị phải từ 2 đến 20 ký tự",
		}))
		return
	}

	if err := h.Repos.User.UpdateUsername(userID, newUsername); err != nil {
		c.HTML(http.StatusOK, "settings.html", h.RenderData(c, gin.H{
			"Title": "Cài đặt tài khoản - " + h.Config.SiteName,
			"Error": "Cập nhật tên hiển thị thất bại",
		}))
		return
	}

	// 同步 Session 中的用户名
	session := sessions.Default(c)
	if userinfo := session.Get("userinfo"); userinfo != nil {
		if su, ok := userinfo.(model.SessionUser); ok {
			su.Username = newUsername
			session.Set("userinfo", su)
			session.Save()
		}
	}

	c.Redirect(http.StatusFound, "/dashboard/settings?success=username")
}

// UpdatePassword 修改密码
func (h *Handler) UpdatePassword(c *gin.Context) {
	userID := middleware.GetUserID(c)
	currentPassword := c.PostForm("current_password")
	newPassword := c.PostForm("new_password")
	confirmPassword := c.PostForm("confirm_password")

	user, err := h.Repos.User.FindByID(userID)
	if err != nil || user == nil {
		c.Redirect(http.StatusFound, "/auth/login")
		return
	}

	renderErr := func(msg string) {
		c.HTML(http.StatusOK, "settings.html", h.RenderData(c, gin.H{
			"Title": "Cài đặt tài khoản - " + h.Config.SiteName,
			"User":  user,
			"Error": msg,
		}))
	}

	if !h.Repos.User.CheckPassword(user, currentPassword) {
		renderErr("Mật khẩu hiện tại không đúng")
		return
	}
	if newPassword != confirmPassword {
		renderErr("Mật khẩu mới nhập lại không khớp")
		return
	}
	if len(newPassword) < 6 {
		renderErr("Mật khẩu mới cần ít nhất 6 ký tự")
		return
	}

	if err := h.Repos.User.UpdatePassword(userID, newPassword); err != nil {
		renderErr("Đổi mật khẩu thất bại")
		return
	}

	c.Redirect(http.StatusFound, "/dashboard/settings?success=password")
}
