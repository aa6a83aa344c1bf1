package model

import "time"

// SearchLog 搜索日志原始记录
type SearchLog struct {
	ID        int       `json:"id" db:"id"`
	Keyword   string    `json:"keyword" db:"keyword" gorm:"index"`
	UserID    *int      `json:"user_id" db:"user_id"`
	IPHash    string    `json:"-" db:"ip_hash"`
	CreatedAt time.Time `json:"created_at" db:"created_at" gorm:"index"`
}

// TrendingKeyword 热搜关键词汇总
type TrendingKeyword struct {
	Keyword        string    `json:"keyword" db:"keyword" gorm:"primaryKey"`
	Count          int64     `json:"count" db:"count"`
	LastSearchedAt time.Time `json:"last_searched_at" db:"last_searched_at"`
}

// TableName 固定表名，原始日志按表名聚合统计
func (TrendingKeyword) TableName() string {
	return "trending_keywords"
}

// 报错状态
const (
	ReportOpen     = "open"
	ReportResolved = "resolved"
)

// Report 播放报错（死链、字幕错位等）
type Report struct {
	ID         int        `json:"id" db:"id"`
	UserID     *int       `json:"user_id" db:"user_id"` // 允许匿名报错
	MovieSlug  string     `json:"movie_slug" db:"movie_slug" gorm:"index"`
	EpisodeID  uint32     `json:"episode_id" db:"episode_id"`
	Type       string     `json:"type" db:"type"`
	Content    string     `json:"content" db:"content"`
	Status     string     `json:"status" db:"status" gorm:"index"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	ResolvedAt *time.Time `json:"resolved_at" db:"resolved_at"`
}
