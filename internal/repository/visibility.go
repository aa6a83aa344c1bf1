package repository

import (
	"time"

	"github.com/user/phimhub/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type VisibilityRepository struct {
	db *gorm.DB
}

func NewVisibilityRepository(db *gorm.DB) *VisibilityRepository {
	return &VisibilityRepository{db: db}
}

// UpsertVisibleBatch 批量将 slug 置为可见
func (r *VisibilityRepository) UpsertVisibleBatch(slugs []string) error {
	if len(slugs) == 0 {
		return nil
	}

	now := time.Now()
	rows := make([]*model.MovieVisibility, 0, len(slugs))
	for _, s := range slugs {
		rows = append(rows, &model.MovieVisibility{
			Slug:      s,
			IsVisible: true,
			UpdatedAt: now,
		})
	}

	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_visible", "updated_at"}),
	}).Create(&rows).Error
}

// SetVisible 设置单个 slug 的可见性
func (r *VisibilityRepository) SetVisible(slug string, visible bool) error {
	row := &model.MovieVisibility{
		Slug:      slug,
		IsVisible: visible,
		UpdatedAt: time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_visible", "updated_at"}),
	}).Create(row).Error
}

// Schedule 设置定时放出：立即隐藏，到点由清理任务放出
func (r *VisibilityRepository) Schedule(slug string, at time.Time) error {
	row := &model.MovieVisibility{
		Slug:        slug,
		IsVisible:   false,
		ScheduledAt: &at,
		UpdatedAt:   time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_visible", "scheduled_at", "updated_at"}),
	}).Create(row).Error
}

// HiddenSlugs 获取所有被隐藏 slug 的集合（读路径过滤用）
func (r *VisibilityRepository) HiddenSlugs() (map[string]struct{}, error) {
	var slugs []string
	err := r.db.Model(&model.MovieVisibility{}).
		Where("is_visible = ?", false).
		Pluck("slug", &slugs).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		set[s] = struct{}{}
	}
	return set, nil
}

// RevealDue 放出所有定时时间已到的影片，返回影响行数
func (r *VisibilityRepository) RevealDue(now time.Time) (int64, error) {
	res := r.db.Model(&model.MovieVisibility{}).
		Where("is_visible = ? AND scheduled_at IS NOT NULL AND scheduled_at <= ?", false, now).
		Updates(map[string]interface{}{
			"is_visible":   true,
			"scheduled_at": gorm.Expr("NULL"),
			"updated_at":   now,
		})
	return res.RowsAffected, res.Error
}
