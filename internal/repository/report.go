package repository

import (
	"time"

	"github.com/user/phimhub/internal/model"
	"gorm.io/gorm"
)

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Create 创建播放报错
func (r *ReportRepository) Create(report *model.Report) error {
	report.Status = model.ReportOpen
	report.CreatedAt = time.Now()
	return r.db.Create(report).Error
}

// ListByStatus 按状态分页列出报错（管理后台用）
func (r *ReportRepository) ListByStatus(status string, limit, offset int) ([]*model.Report, error) {
	var reports []*model.Report
	q := r.db.Order("created_at DESC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&reports).Error
	return reports, err
}

// Resolve 标记报错已处理
func (r *ReportRepository) Resolve(id int) error {
	now := time.Now()
	return r.db.Model(&model.Report{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      model.ReportResolved,
			"resolved_at": now,
		}).Error
}

// CountOpen 未处理报错数
func (r *ReportRepository) CountOpen() (int64, error) {
	var count int64
	err := r.db.Model(&model.Report{}).
		Where("status = ?", model.ReportOpen).
		Count(&count).Error
	return count, err
}
