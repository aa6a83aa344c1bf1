package repository

import (
	"errors"
	"time"

	"github.com/user/phimhub/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ApprovalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// KnownSlugs 获取所有已知 slug 的集合，用于同步任务 diff
func (r *ApprovalRepository) KnownSlugs() (map[string]struct{}, error) {
	var slugs []string
	if err := r.db.Model(&model.MovieApproval{}).Pluck("slug", &slugs).Error; err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		set[s] = struct{}{}
	}
	return set, nil
}

// InsertPendingBatch 批量插入待审核记录，slug 冲突时跳过
func (r *ApprovalRepository) InsertPendingBatch(approvals []*model.MovieApproval) error {
	if len(approvals) == 0 {
		return nil
	}
	now := time.Now()
	for _, a := range approvals {
		a.Status = model.ApprovalPending
		a.CreatedAt = now
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "slug"}},
		DoNothing: true,
	}).Create(&approvals).Error
}

// FindBySlug 根据 slug 查找审核记录
func (r *ApprovalRepository) FindBySlug(slug string) (*model.MovieApproval, error) {
	var a model.MovieApproval
	err := r.db.Where("slug = ?", slug).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SetStatus 管理员审核：更新状态并记录审核人
func (r *ApprovalRepository) SetStatus(slug, status string, approverID int) error {
	now := time.Now()
	return r.db.Model(&model.MovieApproval{}).
		Where("slug = ?", slug).
		Updates(map[string]interface{}{
			"status":      status,
			"approver_id": approverID,
			"approved_at": now,
		}).Error
}

// ApprovedSlugs 获取已审核通过 slug 的集合
func (r *ApprovalRepository) ApprovedSlugs() (map[string]struct{}, error) {
	var slugs []string
	err := r.db.Model(&model.MovieApproval{}).
		Where("status = ?", model.ApprovalApproved).
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

// ListByStatus 按状态分页列出审核记录
func (r *ApprovalRepository) ListByStatus(status string, limit, offset int) ([]*model.MovieApproval, error) {
	var approvals []*model.MovieApproval
	q := r.db.Order("created_at DESC").Limit(limit).Offset(offset)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&approvals).Error
	return approvals, err
}

// CountByStatus 按状态统计
func (r *ApprovalRepository) CountByStatus(status string) (int64, error) {
	var count int64
	q := r.db.Model(&model.MovieApproval{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Count(&count).Error
	return count, err
}
