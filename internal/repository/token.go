package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/user/phimhub/internal/model"
	"gorm.io/gorm"
)

type TokenRepository struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) *TokenRepository {
	return &TokenRepository{db: db}
}

// Issue 为用户签发一个令牌
func (r *TokenRepository) Issue(userID int, kind string, ttl time.Duration) (*model.AuthToken, error) {
	token := &model.AuthToken{
		UserID:    userID,
		Token:     uuid.NewString(),
		Kind:      kind,
		ExpiresAt: time.Now().Add(ttl),
		CreatedAt: time.Now(),
	}
	if err := r.db.Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

// Consume 消费令牌：存在、类型匹配、未过期、未使用，成功后标记已用
func (r *TokenRepository) Consume(tokenStr, kind string) (*model.AuthToken, error) {
	var token model.AuthToken
	err := r.db.Where("token = ? AND kind = ?", tokenStr, kind).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return nil, nil
	}

	now := time.Now()
	res := r.db.Model(&model.AuthToken{}).
		Where("id = ? AND used_at IS NULL", token.ID).
		Update("used_at", now)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// 并发消费，让对方赢
		return nil, nil
	}

	token.UsedAt = &now
	return &token, nil
}

// DeleteExpired 清理过期令牌，返回影响行数
func (r *TokenRepository) DeleteExpired() (int64, error) {
	res := r.db.Where("expires_at < ?", time.Now()).Delete(&model.AuthToken{})
	return res.RowsAffected, res.Error
}
