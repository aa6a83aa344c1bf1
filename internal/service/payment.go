package service

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/user/phimhub/internal/model"
)

// 支付回调结果
var (
	ErrInvalidSignature = errors.New("chữ ký không hợp lệ")
	ErrUnknownTxnRef    = errors.New("không tìm thấy giao dịch")
)

// PaymentStore 支付服务需要的订单存储
type PaymentStore interface {
	Create(p *model.Payment) error
	FindByTxnRef(ref string) (*model.Payment, error)
	CompleteIfPending(ref, responseCode string) (bool, error)
	MarkFailed(ref, responseCode string) error
}

// PlanStore 套餐存储
type PlanStore interface {
	FindByID(id int) (*model.VipPlan, error)
}

// VipUserStore VIP 续期需要的用户存储
type VipUserStore interface {
	FindByID(id int) (*model.User, error)
	SetVipUntil(userID int, until time.Time) error
}

// VnpConfig VNPay 网关参数
type VnpConfig struct {
	TmnCode    string
	HashSecret string
	PayURL     string
	ReturnURL  string
}

// PaymentService VIP 支付服务
type PaymentService struct {
	cfg      VnpConfig
	payments PaymentStore
	plans    PlanStore
	users    VipUserStore
	now      func() time.Time // 测试注入时间
}

// NewPaymentService 创建支付服务
func NewPaymentService(cfg VnpConfig, payments PaymentStore, plans PlanStore, users VipUserStore) *PaymentService {
	return &PaymentService{
		cfg:      cfg,
		payments: payments,
		plans:    plans,
		users:    users,
		now:      time.Now,
	}
}

// Checkout 创建订单并构建网关跳转地址
func (s *PaymentService) Checkout(userID, planID int, clientIP string) (string, error) {
	plan, err := s.plans.FindByID(planID)
	if err != nil {
		return "", err
	}
	if plan == nil || !plan.Active {
		return "", errors.New("gói VIP không tồn tại")
	}

	payment := &model.Payment{
		UserID:  userID,
		PlanID:  plan.ID,
		Amount:  plan.Price,
		Gateway: "vnpay",
		TxnRef:  uuid.NewString(),
	}
	if err := s.payments.Create(payment); err != nil {
		return "", err
	}

	now := s.now()
	params := url.Values{}
	params.Set("vnp_Version", "2.1.0")
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", s.cfg.TmnCode)
	params.Set("vnp_Amount", fmt.Sprintf("%d", plan.Price*100)) // 网关要求金额 x100
	params.Set("vnp_CurrCode", "VND")
	params.Set("vnp_TxnRef", payment.TxnRef)
	params.Set("vnp_OrderInfo", fmt.Sprintf("Thanh toan %s", plan.Name))
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Locale", "vn")
	params.Set("vnp_IpAddr", clientIP)
	params.Set("vnp_CreateDate", now.Format("20060102150405"))
	params.Set("vnp_ExpireDate", now.Add(15*time.Minute).Format("20060102150405"))
	params.Set("vnp_ReturnUrl", s.cfg.ReturnURL)

	query := canonicalQuery(params)
	signature := s.sign(query)

	return s.cfg.PayURL + "?" + query + "&vnp_SecureHash=" + signature, nil
}

// VerifyReturn 验证回调签名
// 重新计算 HMAC 并与网关给的 vnp_SecureHash 比对，通过前不信任任何字段
func (s *PaymentService) VerifyReturn(query url.Values) bool {
	given := query.Get("vnp_SecureHash")
	if given == "" {
		return false
	}

	params := url.Values{}
	for k, vs := range query {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		for _, v := range vs {
			params.Add(k, v)
		}
	}

	expected := s.sign(canonicalQuery(params))
	return hmac.Equal([]byte(strings.ToLower(given)), []byte(expected))
}

// HandleReturn 处理网关回调：验签、原子完成订单、VIP 续期
func (s *PaymentService) HandleReturn(query url.Values) (*model.Payment, error) {
	if !s.VerifyReturn(query) {
		return nil, ErrInvalidSignature
	}

	ref := query.Get("vnp_TxnRef")
	code := query.Get("vnp_ResponseCode")

	payment, err := s.payments.FindByTxnRef(ref)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrUnknownTxnRef
	}

	if code != "00" {
		if err := s.payments.MarkFailed(ref, code); err != nil {
			return nil, err
		}
		payment.Status = model.PaymentFailed
		payment.ResponseCode = code
		return payment, nil
	}

	// 条件更新：两个并发回调只会有一个拿到 completed=true，续期只发生一次
	completed, err := s.payments.CompleteIfPending(ref, code)
	if err != nil {
		return nil, err
	}
	if completed {
		if err := s.extendVip(payment.UserID, payment.PlanID); err != nil {
			log.Printf("[PaymentService] VIP 续期失败 user=%d: %v", payment.UserID, err)
		}
	}

	payment.Status = model.PaymentCompleted
	payment.ResponseCode = code
	return payment, nil
}

// extendVip 按套餐天数续期
func (s *PaymentService) extendVip(userID, planID int) error {
	plan, err := s.plans.FindByID(planID)
	if err != nil {
		return err
	}
	if plan == nil {
		return errors.New("gói VIP không tồn tại")
	}

	user, err := s.users.FindByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return errors.New("người dùng không tồn tại")
	}

	until := ExtendVip(user.VipUntil, s.now(), plan.Days)
	return s.users.SetVipUntil(userID, until)
}

// ExtendVip 计算新的 VIP 到期时间
// 现有 VIP 未过期则叠加，否则从当前时间起算
func ExtendVip(current *time.Time, now time.Time, days int) time.Time {
	d := time.Duration(days) * 24 * time.Hour
	if current != nil && current.After(now) {
		return current.Add(d)
	}
	return now.Add(d)
}

// canonicalQuery 按 key 排序并编码的查询串（签名输入）
func canonicalQuery(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params.Get(k)))
	}
	return b.String()
}

// sign HMAC-SHA512 签名，小写十六进制
func (s *PaymentService) sign(data string) string {
	mac := hmac.New(sha512.New, []byte(s.cfg.HashSecret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}
