package service

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/phimhub/internal/model"
)

// fakePaymentStore 内存订单存储
type fakePaymentStore struct {
	payments  map[string]*model.Payment
	completes int
}

func newFakePaymentStore() *fakePaymentStore {
	return &fakePaymentStore{payments: make(map[string]*model.Payment)}
}

func (f *fakePaymentStore) Create(p *model.Payment) error {
	p.Status = model.PaymentPending
	f.payments[p.TxnRef] = p
	return nil
}

func (f *fakePaymentStore) FindByTxnRef(ref string) (*model.Payment, error) {
	p, ok := f.payments[ref]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentStore) CompleteIfPending(ref, responseCode string) (bool, error) {
	p, ok := f.payments[ref]
	if !ok || p.Status != model.PaymentPending {
		return false, nil
	}
	p.Status = model.PaymentCompleted
	p.ResponseCode = responseCode
	f.completes++
	return true, nil
}

func (f *fakePaymentStore) MarkFailed(ref, responseCode string) error {
	if p, ok := f.payments[ref]; ok {
		p.Status = model.PaymentFailed
		p.ResponseCode = responseCode
	}
	return nil
}

// fakePlanStore 固定套餐
type fakePlanStore struct {
	plan *model.VipPlan
}

func (f *fakePlanStore) FindByID(id int) (*model.VipPlan, error) {
	if f.plan != nil && f.plan.ID == id {
		return f.plan, nil
	}
	return nil, nil
}

// fakeVipUserStore 记录续期结果
type fakeVipUserStore struct {
	user    *model.User
	setTo   *time.Time
	setHits int
}

func (f *fakeVipUserStore) FindByID(id int) (*model.User, error) {
	return f.user, nil
}

func (f *fakeVipUserStore) SetVipUntil(userID int, until time.Time) error {
	f.setTo = &until
	f.setHits++
	return nil
}

func newPaymentService(payments *fakePaymentStore, users *fakeVipUserStore, now time.Time) *PaymentService {
	svc := NewPaymentService(VnpConfig{
		TmnCode:    "PHIMHUB1",
		HashSecret: "bi-mat-thu-nghiem",
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "http://localhost:5008/api/vip/return",
	}, payments, &fakePlanStore{plan: &model.VipPlan{ID: 1, Name: "VIP 1 tháng", Days: 30, Price: 49000, Active: true}}, users)
	svc.now = func() time.Time { return now }
	return svc
}

func TestExtendVip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("未过期叠加", func(t *testing.T) {
		current := now.Add(48 * time.Hour)
		got := ExtendVip(&current, now, 30)
		assert.Equal(t, current.Add(30*24*time.Hour), got)
	})

	t.Run("已过期从现在起算", func(t *testing.T) {
		current := now.Add(-time.Hour)
		got := ExtendVip(&current, now, 30)
		assert.Equal(t, now.Add(30*24*time.Hour), got)
	})

	t.Run("从未开通过", func(t *testing.T) {
		got := ExtendVip(nil, now, 7)
		assert.Equal(t, now.Add(7*24*time.Hour), got)
	})
}

func TestCheckoutSignatureRoundTrip(t *testing.T) {
	payments := newFakePaymentStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newPaymentService(payments, &fakeVipUserStore{}, now)

	payURL, err := svc.Checkout(7, 1, "203.0.113.9")
	require.NoError(t, err)

	parsed, err := url.Parse(payURL)
	require.NoError(t, err)
	q := parsed.Query()

	// 金额 x100，订单已落库为 pending
	assert.Equal(t, "4900000", q.Get("vnp_Amount"))
	ref := q.Get("vnp_TxnRef")
	require.NotEmpty(t, ref)
	assert.Equal(t, model.PaymentPending, payments.payments[ref].Status)

	// 自家签出的参数必须能通过回调验签
	assert.True(t, svc.VerifyReturn(q))

	// 篡改金额后验签失败
	q.Set("vnp_Amount", "100")
	assert.False(t, svc.VerifyReturn(q))
}

func TestCheckoutUnknownPlan(t *testing.T) {
	svc := newPaymentService(newFakePaymentStore(), &fakeVipUserStore{}, time.Now())
	_, err := svc.Checkout(7, 99, "203.0.113.9")
	assert.Error(t, err)
}

// signedReturn 构造一条签名合法的回调
func signedReturn(svc *PaymentService, ref, code string) url.Values {
	q := url.Values{}
	q.Set("vnp_TxnRef", ref)
	q.Set("vnp_ResponseCode", code)
	q.Set("vnp_Amount", "4900000")
	q.Set("vnp_SecureHash", svc.sign(canonicalQuery(q)))
	return q
}

func TestHandleReturnSuccess(t *testing.T) {
	payments := newFakePaymentStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	users := &fakeVipUserStore{user: &model.User{ID: 7}}
	svc := newPaymentService(payments, users, now)

	payURL, err := svc.Checkout(7, 1, "203.0.113.9")
	require.NoError(t, err)
	parsed, _ := url.Parse(payURL)
	ref := parsed.Query().Get("vnp_TxnRef")

	payment, err := svc.HandleReturn(signedReturn(svc, ref, "00"))
	require.NoError(t, err)
	assert.Equal(t, model.PaymentCompleted, payment.Status)

	// VIP 从当前时间起算 30 天
	require.NotNil(t, users.setTo)
	assert.Equal(t, now.Add(30*24*time.Hour), *users.setTo)
}

func TestHandleReturnIdempotent(t *testing.T) {
	payments := newFakePaymentStore()
	users := &fakeVipUserStore{user: &model.User{ID: 7}}
	svc := newPaymentService(payments, users, time.Now())

	payURL, err := svc.Checkout(7, 1, "203.0.113.9")
	require.NoError(t, err)
	parsed, _ := url.Parse(payURL)
	ref := parsed.Query().Get("vnp_TxnRef")

	q := signedReturn(svc, ref, "00")
	_, err = svc.HandleReturn(q)
	require.NoError(t, err)
	_, err = svc.HandleReturn(q)
	require.NoError(t, err)

	assert.Equal(t, 1, payments.completes, "条件更新只允许完成一次")
	assert.Equal(t, 1, users.setHits, "重复回调不允许再次续期")
}

func TestHandleReturnInvalidSignature(t *testing.T) {
	svc := newPaymentService(newFakePaymentStore(), &fakeVipUserStore{}, time.Now())

	q := url.Values{}
	q.Set("vnp_TxnRef", "gia-mao")
	q.Set("vnp_ResponseCode", "00")
	q.Set("vnp_SecureHash", "deadbeef")

	_, err := svc.HandleReturn(q)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestHandleReturnFailureCode(t *testing.T) {
	payments := newFakePaymentStore()
	users := &fakeVipUserStore{user: &model.User{ID: 7}}
	svc := newPaymentService(payments, users, time.Now())

	payURL, err := svc.Checkout(7, 1, "203.0.113.9")
	require.NoError(t, err)
	parsed, _ := url.Parse(payURL)
	ref := parsed.Query().Get("vnp_TxnRef")

	payment, err := svc.HandleReturn(signedReturn(svc, ref, "24"))
	require.NoError(t, err)
	assert.Equal(t, model.PaymentFailed, payment.Status)
	assert.Equal(t, 0, users.setHits, "失败交易不续期")
}

func TestHandleReturnUnknownRef(t *testing.T) {
	svc := newPaymentService(newFakePaymentStore(), &fakeVipUserStore{}, time.Now())

	_, err := svc.HandleReturn(signedReturn(svc, "khong-co", "00"))
	assert.ErrorIs(t, err, ErrUnknownTxnRef)
}
