package repository

import (
	"errors"
	"time"

	"github.com/user/phimhub/internal/model"
	"gorm.io/gorm"
)

type VipPlanRepository struct {
	db *gorm.DB
}

func NewVipPlanRepository(db *gorm.DB) *VipPlanRepository {
	return &VipPlanRepository{db: db}
}

// ListActive 获取所有可购买的套餐
func (r *VipPlanRepository) ListActive() ([]*model.VipPlan, error) {
	var plans []*model.VipPlan
	err := r.db.Where("active = ?", true).Order("days ASC").Find(&plans).Error
	return plans, err
}

// FindByID 根据 ID 查找套餐
func (r *VipPlanRepository) FindByID(id int) (*model.VipPlan, error) {
	var plan model.VipPlan
	err := r.db.First(&plan, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// Seed 初始化默认套餐（仅在表为空时）
func (r *VipPlanRepository) Seed() error {
	var count int64
	if err := r.db.Model(&model.VipPlan{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	plans := []*model.VipPlan{
		{Name: "VIP 1 tháng", Days: 30, Price: 49000, Active: true, CreatedAt: now},
		{Name: "VIP 3 tháng", Days: 90, Price: 129000, Active: true, CreatedAt: now},
		{Name: "VIP 1 năm", Days: 365, Price: 399000, Active: true, CreatedAt: now},
	}
	return r.db.Create(&plans).Error
}

type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create 创建支付订单
func (r *PaymentRepository) Create(p *model.Payment) error {
	p.Status = model.PaymentPending
	p.CreatedAt = time.Now()
	return r.db.Create(p).Error
}

// FindByTxnRef 根据交易号查找订单
func (r *PaymentRepository) FindByTxnRef(ref string) (*model.Payment, error) {
	var p model.Payment
	err := r.db.Where("txn_ref = ?", ref).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CompleteIfPending 原子完成订单
// 条件更新代替“读状态再写”，两个并发回调只会有一个拿到 affected=1
func (r *PaymentRepository) CompleteIfPending(ref, responseCode string) (bool, error) {
	now := time.Now()
	res := r.db.Model(&model.Payment{}).
		Where("txn_ref = ? AND status = ?", ref, model.PaymentPending).
		Updates(map[string]interface{}{
			"status":        model.PaymentCompleted,
			"response_code": responseCode,
			"paid_at":       now,
		})
	return res.RowsAffected == 1, res.Error
}

// MarkFailed 标记订单失败（仅 pending 状态可失败）
func (r *PaymentRepository) MarkFailed(ref, responseCode string) error {
	return r.db.Model(&model.Payment{}).
		Where("txn_ref = ? AND status = ?", ref, model.PaymentPending).
		Updates(map[string]interface{}{
			"status":        model.PaymentFailed,
			"response_code": responseCode,
		}).Error
}

// ListByUser 获取用户的支付记录
func (r *PaymentRepository) ListByUser(userID, limit, offset int) ([]*model.Payment, error) {
	var payments []*model.Payment
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&payments).Error
	return payments, err
}

// CountCompleted 统计已完成订单数
func (r *PaymentRepository) CountCompleted() (int64, error) {
	var count int64
	err := r.db.Model(&model.Payment{}).
		Where("status = ?", model.PaymentCompleted).
		Count(&count).Error
	return count, err
}
