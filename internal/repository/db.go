package repository

import (
	"fmt"

	"github.com/user/phimhub/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDB 初始化数据库连接并迁移表结构
func InitDB(databaseURL string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("无法连接数据库: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := db.AutoMigrate(
		&model.User{},
		&model.MovieApproval{},
		&model.MovieVisibility{},
		&model.VipPlan{},
		&model.Payment{},
		&model.Playlist{},
		&model.PlaylistItem{},
		&model.Favorite{},
		&model.WatchProgress{},
		&model.AuthToken{},
		&model.SearchLog{},
		&model.TrendingKeyword{},
		&model.Report{},
	); err != nil {
		return nil, fmt.Errorf("表结构迁移失败: %w", err)
	}

	return db, nil
}

// Repositories 仓库集合
type Repositories struct {
	DB         *gorm.DB
	User       *UserRepository
	Approval   *ApprovalRepository
	Visibility *VisibilityRepository
	Plan       *VipPlanRepository
	Payment    *PaymentRepository
	Favorite   *FavoriteRepository
	Playlist   *PlaylistRepository
	Progress   *ProgressRepository
	Token      *TokenRepository
	SearchLog  *SearchLogRepository
	Report     *ReportRepository
}

// NewRepositories 创建仓库集合
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		DB:         db,
		User:       NewUserRepository(db),
		Approval:   NewApprovalRepository(db),
		Visibility: NewVisibilityRepository(db),
		Plan:       NewVipPlanRepository(db),
		Payment:    NewPaymentRepository(db),
		Favorite:   NewFavoriteRepository(db),
		Playlist:   NewPlaylistRepository(db),
		Progress:   NewProgressRepository(db),
		Token:      NewTokenRepository(db),
		SearchLog:  NewSearchLogRepository(db),
		Report:     NewReportRepository(db),
	}
}
