package repository

import (
	"errors"
	"time"

	"github.com/user/phimhub/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlaylistRepository struct {
	db *gorm.DB
}

func NewPlaylistRepository(db *gorm.DB) *PlaylistRepository {
	return &PlaylistRepository{db: db}
}

// Create 创建播放列表
func (r *PlaylistRepository) Create(userID int, name string) (*model.Playlist, error) {
	playlist := &model.Playlist{
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now(),
	}
	if err := r.db.Create(playlist).Error; err != nil {
		return nil, err
	}
	return playlist, nil
}

// Rename 重命名播放列表
func (r *PlaylistRepository) Rename(userID, playlistID int, name string) error {
	return r.db.Model(&model.Playlist{}).
		Where("id = ? AND user_id = ?", playlistID, userID).
		Update("name", name).Error
}

// Delete 删除播放列表及其条目
func (r *PlaylistRepository) Delete(userID, playlistID int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", playlistID, userID).Delete(&model.Playlist{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("playlist_id = ?", playlistID).Delete(&model.PlaylistItem{}).Error
	})
}

// FindByID 查找用户的播放列表（含条目）
func (r *PlaylistRepository) FindByID(userID, playlistID int) (*model.Playlist, error) {
	var playlist model.Playlist
	err := r.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at DESC")
	}).Where("id = ? AND user_id = ?", playlistID, userID).First(&playlist).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &playlist, nil
}

// ListByUser 获取用户所有播放列表
func (r *PlaylistRepository) ListByUser(userID int) ([]*model.Playlist, error) {
	var playlists []*model.Playlist
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&playlists).Error
	return playlists, err
}

// AddItem 向播放列表添加影片，(playlist, slug) 冲突时跳过
func (r *PlaylistRepository) AddItem(userID, playlistID int, slug, name, poster string) error {
	// 先确认归属
	var count int64
	if err := r.db.Model(&model.Playlist{}).
		Where("id = ? AND user_id = ?", playlistID, userID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}

	item := &model.PlaylistItem{
		PlaylistID: playlistID,
		MovieSlug:  slug,
		Name:       name,
		Poster:     poster,
		CreatedAt:  time.Now(),
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(item).Error
}

// RemoveItem 从播放列表移除影片
func (r *PlaylistRepository) RemoveItem(userID, playlistID int, slug string) error {
	var count int64
	if err := r.db.Model(&model.Playlist{}).
		Where("id = ? AND user_id = ?", playlistID, userID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return gorm.ErrRecordNotFound
	}

	return r.db.Where("playlist_id = ? AND movie_slug = ?", playlistID, slug).
		Delete(&model.PlaylistItem{}).Error
}
