package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsVip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-24 * time.Hour)

	cases := []struct {
		name string
		user User
		want bool
	}{
		{"免费用户", User{Role: RoleFree}, false},
		{"VIP 未过期", User{Role: RoleVip, VipUntil: &future}, true},
		{"VIP 已过期", User{Role: RoleVip, VipUntil: &past}, false},
		{"VIP 无到期时间", User{Role: RoleVip}, false},
		{"管理员恒为 VIP", User{Role: RoleAdmin}, true},
		{"超管恒为 VIP", User{Role: RoleSuperAdmin, VipUntil: &past}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.user.IsVip(now))
		})
	}
}

func TestIsAdmin(t *testing.T) {
	assert.False(t, (&User{Role: RoleVip}).IsAdmin())
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.True(t, (&User{Role: RoleSuperAdmin}).IsAdmin())
}
