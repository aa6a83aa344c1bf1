package repository

import (
	"time"

	"github.com/user/phimhub/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProgressRepository struct {
	db *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// Upsert 更新或插入观看进度
func (r *ProgressRepository) Upsert(p *model.WatchProgress) error {
	p.WatchedAt = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "movie_slug"}, {Name: "episode_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"episode", "name", "poster", "seconds", "duration", "watched_at"}),
	}).Create(p).Error
}

// ListByMovie 获取用户在某部影片下的全部进度
func (r *ProgressRepository) ListByMovie(userID int, slug string) ([]*model.WatchProgress, error) {
	var progresses []*model.WatchProgress
	err := r.db.Where("user_id = ? AND movie_slug = ?", userID, slug).
		Order("watched_at DESC").
		Find(&progresses).Error
	return progresses, err
}

// ListByUser 获取用户最近的观看进度（“继续观看”）
func (r *ProgressRepository) ListByUser(userID, limit, offset int) ([]*model.WatchProgress, error) {
	var progresses []*model.WatchProgress
	err := r.db.Where("user_id = ?", userID).
		Order("watched_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&progresses).Error
	return progresses, err
}

// CountByUser 统计用户进度条数
func (r *ProgressRepository) CountByUser(userID int) (int, error) {
	var count int64
	err := r.db.Model(&model.WatchProgress{}).Where("user_id = ?", userID).Count(&count).Error
	return int(count), err
}

// Delete 删除一条进度
func (r *ProgressRepository) Delete(userID, id int) error {
	return r.db.Where("user_id = ? AND id = ?", userID, id).Delete(&model.WatchProgress{}).Error
}
