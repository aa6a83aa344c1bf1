package model

import (
	"time"

	"github.com/lib/pq"
)

// 审核状态
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// MovieApproval 影片审核记录
// 由同步任务在首次发现 slug 时创建，之后只被管理员审核操作修改，不做物理删除
type MovieApproval struct {
	ID         int            `json:"id" db:"id"`
	Slug       string         `json:"slug" db:"slug" gorm:"unique"`
	Source     string         `json:"source" db:"source"`
	Status     string         `json:"status" db:"status" gorm:"index"`
	Name       string         `json:"name" db:"name"`   // 同步时的快照，审核页无需回源
	Year       int            `json:"year" db:"year"`
	Poster     string         `json:"poster" db:"poster"`
	Categories pq.StringArray `json:"categories" db:"categories" gorm:"type:text[]"`
	ApproverID *int           `json:"approver_id" db:"approver_id"`
	ApprovedAt *time.Time     `json:"approved_at" db:"approved_at"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
}

// MovieVisibility 影片可见性，slug 唯一，upsert 写入
type MovieVisibility struct {
	ID          int        `json:"id" db:"id"`
	Slug        string     `json:"slug" db:"slug" gorm:"unique"`
	IsVisible   bool       `json:"is_visible" db:"is_visible"`
	ScheduledAt *time.Time `json:"scheduled_at" db:"scheduled_at"` // 定时放出时间
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// VipPlan VIP 套餐
type VipPlan struct {
	ID        int       `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Days      int       `json:"days" db:"days"`
	Price     int64     `json:"price" db:"price"` // 单位 VND
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// 支付状态
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
)

// Payment 支付订单
type Payment struct {
	ID           int        `json:"id" db:"id"`
	UserID       int        `json:"user_id" db:"user_id" gorm:"index"`
	PlanID       int        `json:"plan_id" db:"plan_id"`
	Amount       int64      `json:"amount" db:"amount"`
	Gateway      string     `json:"gateway" db:"gateway"`
	TxnRef       string     `json:"txn_ref" db:"txn_ref" gorm:"unique"`
	Status       string     `json:"status" db:"status" gorm:"index"`
	ResponseCode string     `json:"response_code" db:"response_code"`
	PaidAt       *time.Time `json:"paid_at" db:"paid_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// 令牌类型
const (
	TokenReset  = "reset"
	TokenVerify = "verify"
)

// AuthToken 密码重置/邮箱验证令牌
type AuthToken struct {
	ID        int        `json:"id" db:"id"`
	UserID    int        `json:"user_id" db:"user_id" gorm:"index"`
	Token     string     `json:"-" db:"token" gorm:"unique"`
	Kind      string     `json:"kind" db:"kind"`
	ExpiresAt time.Time  `json:"expires_at" db:"expires_at"`
	UsedAt    *time.Time `json:"used_at" db:"used_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}
