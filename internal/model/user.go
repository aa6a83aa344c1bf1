package model

import (
	"time"
)

// 用户角色
const (
	RoleFree       = "free"
	RoleVip        = "vip"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// User 用户模型
type User struct {
	ID           int        `json:"id" db:"id"`
	Email        string     `json:"email" db:"email" gorm:"unique"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	ProviderID   string     `json:"-" db:"provider_id" gorm:"index"` // 第三方登录 ID，可为空
	Role         string     `json:"role" db:"role"`
	VipUntil     *time.Time `json:"vip_until" db:"vip_until"`
	Verified     bool       `json:"verified" db:"verified"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// IsAdmin 是否管理员（含超级管理员）
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.Role == RoleSuperAdmin
}

// IsVip 当前时刻是否享有 VIP 权益
// 仅由 role 和 vip_until 两个字段决定
func (u *User) IsVip(now time.Time) bool {
	if u.IsAdmin() {
		return true
	}
	return u.VipUntil != nil && u.VipUntil.After(now)
}

// SessionUser 专门用于 Session 存储的用户信息结构
type SessionUser struct {
	ID       int
	Email    string
	Username string
	Role     string
}

// Favorite 收藏（按影片 slug 记录）
type Favorite struct {
	ID        int       `json:"id" db:"id"`
	UserID    int       `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_user_favorite_slug"`
	MovieSlug string    `json:"movie_slug" db:"movie_slug" gorm:"uniqueIndex:idx_user_favorite_slug"`
	Name      string    `json:"name" db:"name"`
	Poster    string    `json:"poster" db:"poster"`
	Year      int       `json:"year" db:"year"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Playlist 播放列表
type Playlist struct {
	ID        int            `json:"id" db:"id"`
	UserID    int            `json:"user_id" db:"user_id" gorm:"index"`
	Name      string         `json:"name" db:"name"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	Items     []PlaylistItem `json:"items,omitempty" gorm:"foreignKey:PlaylistID"`
}

// PlaylistItem 播放列表条目，(playlist, slug) 唯一
type PlaylistItem struct {
	ID         int       `json:"id" db:"id"`
	PlaylistID int       `json:"playlist_id" db:"playlist_id" gorm:"uniqueIndex:idx_playlist_item_slug"`
	MovieSlug  string    `json:"movie_slug" db:"movie_slug" gorm:"uniqueIndex:idx_playlist_item_slug"`
	Name       string    `json:"name" db:"name"`
	Poster     string    `json:"poster" db:"poster"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// WatchProgress 观看进度，(user, slug, episode) 唯一
type WatchProgress struct {
	ID         int       `json:"id" db:"id"`
	UserID     int       `json:"user_id" db:"user_id" gorm:"uniqueIndex:idx_user_progress"`
	MovieSlug  string    `json:"movie_slug" db:"movie_slug" gorm:"uniqueIndex:idx_user_progress"`
	EpisodeID  uint32    `json:"episode_id" db:"episode_id" gorm:"uniqueIndex:idx_user_progress"`
	Episode    string    `json:"episode" db:"episode"`
	Name       string    `json:"name" db:"name"`
	Poster     string    `json:"poster" db:"poster"`
	Seconds    float64   `json:"seconds" db:"seconds"`
	Duration   float64   `json:"duration" db:"duration"`
	WatchedAt  time.Time `json:"watched_at" db:"watched_at"`
}
