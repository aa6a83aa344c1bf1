package service

import (
	"log"
	"time"

	"github.com/user/phimhub/internal/repository"
)

const (
	searchLogRetainDays     = 90
	trendingWordsRetainDays = 30
)

// CleanupService 后台定时任务：定时放出影片、清理过期令牌和旧搜索记录
type CleanupService struct {
	repos      *repository.Repositories
	clearCache func()
}

// NewCleanupService 创建清理服务
func NewCleanupService(repos *repository.Repositories, clearCache func()) *CleanupService {
	return &CleanupService{repos: repos, clearCache: clearCache}
}

// Start 启动定时任务
func (s *CleanupService) Start() {
	// 定时放出每分钟检查一次，令牌清理每天一次
	revealTicker := time.NewTicker(time.Minute)
	tokenTicker := time.NewTicker(24 * time.Hour)

	// 启动时先各跑一次
	go s.runReveal()
	go s.runTokenCleanup()

	go func() {
		for range revealTicker.C {
			s.runReveal()
		}
	}()
	go func() {
		for range tokenTicker.C {
			s.runTokenCleanup()
			s.runSearchLogCleanup()
		}
	}()
}

func (s *CleanupService) runReveal() {
	affected, err := s.repos.Visibility.RevealDue(time.Now())
	if err != nil {
		log.Printf("[CleanupService] 定时放出失败: %v", err)
		return
	}
	if affected > 0 {
		log.Printf("[CleanupService] 已放出 %d 部定时影片", affected)
		if s.clearCache != nil {
			s.clearCache()
		}
	}
}

func (s *CleanupService) runTokenCleanup() {
	affected, err := s.repos.Token.DeleteExpired()
	if err != nil {
		log.Printf("[CleanupService] 清理过期令牌失败: %v", err)
		return
	}
	if affected > 0 {
		log.Printf("[CleanupService] 已清理 %d 条过期令牌", affected)
	}
}

func (s *CleanupService) runSearchLogCleanup() {
	logs, err := s.repos.SearchLog.DeleteOldLogs(searchLogRetainDays)
	if err != nil {
		log.Printf("[CleanupService] 清理搜索日志失败: %v", err)
	} else if logs > 0 {
		log.Printf("[CleanupService] 已清理 %d 条搜索日志", logs)
	}

	words, err := s.repos.SearchLog.DeleteOldKeywords(trendingWordsRetainDays)
	if err != nil {
		log.Printf("[CleanupService] 清理热搜词失败: %v", err)
	} else if words > 0 {
		log.Printf("[CleanupService] 已清理 %d 个过期热搜词", words)
	}
}
