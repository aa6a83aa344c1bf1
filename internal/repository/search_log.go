package repository

import (
	"fmt"
	"time"

	"github.com/user/phimhub/internal/model"
	"github.com/user/phimhub/internal/utils"
	"gorm.io/gorm"
)

type SearchLogRepository struct {
	db *gorm.DB
}

func NewSearchLogRepository(db *gorm.DB) *SearchLogRepository {
	return &SearchLogRepository{db: db}
}

// Log 记录搜索日志并更新热搜统计
func (r *SearchLogRepository) Log(keyword string, userID *int, ipHash string) error {
	entry := &model.SearchLog{
		Keyword:   keyword,
		UserID:    userID,
		IPHash:    ipHash,
		CreatedAt: time.Now(),
	}
	if err := r.db.Create(entry).Error; err != nil {
		return err
	}

	return r.db.Exec(`
		INSERT INTO trending_keywords (keyword, count, last_searched_at)
		VALUES (?, 1, NOW())
		ON CONFLICT (keyword) DO UPDATE SET
			count = trending_keywords.count + 1,
			last_searched_at = EXCLUDED.last_searched_at
	`, keyword).Error
}

// GetTrending 获取热搜关键词，结果缓存 30 分钟
func (r *SearchLogRepository) GetTrending(limit int) ([]*model.TrendingKeyword, error) {
	cacheKey := fmt.Sprintf("trending:%d", limit)
	if cached, found := utils.CacheGet(cacheKey); found {
		if keywords, ok := cached.([]*model.TrendingKeyword); ok {
			return keywords, nil
		}
	}

	var keywords []*model.TrendingKeyword
	err := r.db.Table("trending_keywords").
		Select("keyword, count, last_searched_at").
		Order("count DESC").
		Limit(limit).
		Scan(&keywords).Error
	if err != nil {
		return nil, err
	}

	utils.CacheSet(cacheKey, keywords, 30*time.Minute)
	return keywords, nil
}

// DeleteOldLogs 清理超过指定天数的原始搜索日志
func (r *SearchLogRepository) DeleteOldLogs(days int) (int64, error) {
	result := r.db.Exec(`
		DELETE FROM search_logs
		WHERE created_at < NOW() - INTERVAL '1 day' * ?
	`, days)
	return result.RowsAffected, result.Error
}

// DeleteOldKeywords 清理长期无人搜索的热搜关键词
func (r *SearchLogRepository) DeleteOldKeywords(days int) (int64, error) {
	result := r.db.Exec(`
		DELETE FROM trending_keywords
		WHERE last_searched_at < NOW() - INTERVAL '1 day' * ?
	`, days)
	return result.RowsAffected, result.Error
}
