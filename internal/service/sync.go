package service

import (
	"context"
	"errors"
	"log"
	"sync/atomic"
	"time"

	"github.com/user/phimhub/internal/model"
)

// syncListSlugs 同步任务扫描的固定列表端点
var syncListSlugs = []string{
	"phim-moi",
	"phim-le",
	"phim-bo",
	"hoat-hinh",
	"tv-shows",
	"phim-sap-chieu",
}

const (
	syncPageCap     = 200 // 单端点翻页硬上限
	syncEmptyLimit  = 3   // 连续空页停止阈值
	syncBatchSize   = 100 // 批量写库大小
	syncBatchDelay  = 200 * time.Millisecond
	syncNotifyLimit = 10 // 通知中最多携带的新 slug 数
	syncYearFloor   = 1970
)

// ErrSyncRunning 同一进程内同步任务不允许并发执行
var ErrSyncRunning = errors.New("同步任务正在运行")

// ApprovalStore 同步任务需要的审核存储
type ApprovalStore interface {
	KnownSlugs() (map[string]struct{}, error)
	InsertPendingBatch(approvals []*model.MovieApproval) error
}

// VisibilityStore 同步任务需要的可见性存储
type VisibilityStore interface {
	UpsertVisibleBatch(slugs []string) error
}

// Notifier 新片通知器，尽力而为，不等待结果
type Notifier interface {
	NotifyNewMovies(slugs []string)
}

// SyncReport 同步任务结果
type SyncReport struct {
	Discovered        int           `json:"discovered"`
	New               int           `json:"new"`
	Inserted          int           `json:"inserted"`
	VisibilityUpserts int           `json:"visibility_upserts"`
	StoreErrors       int           `json:"store_errors"`
	NewSlugs          []string      `json:"new_slugs"`
	Duration          time.Duration `json:"duration"`
}

// SyncService 目录同步任务（管理员手动触发）
// 扫描上游全部列表/分类/地区/年份端点，收集 slug 并集，diff 后批量落库
type SyncService struct {
	client     OphimClient
	approvals  ApprovalStore
	visibility VisibilityStore
	notifier   Notifier
	clearCache func()
	running    atomic.Bool
}

// NewSyncService 创建同步服务
func NewSyncService(client OphimClient, approvals ApprovalStore, visibility VisibilityStore, notifier Notifier, clearCache func()) *SyncService {
	return &SyncService{
		client:     client,
		approvals:  approvals,
		visibility: visibility,
		notifier:   notifier,
		clearCache: clearCache,
	}
}

// SyncAll 执行全量同步并等待完成
// 单端点网络错误按“该页 0 条”处理，绝不中断整个任务；落库错误按条计数，不重试
func (s *SyncService) SyncAll(ctx context.Context) (*SyncReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrSyncRunning
	}
	defer s.running.Store(false)
	return s.syncAll(ctx)
}

// SyncAllAsync 在后台执行全量同步，立即返回
// 任务一经触发就不再受触发方控制：请求断开或超时都不会中止爬取
func (s *SyncService) SyncAllAsync() error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrSyncRunning
	}
	go func() {
		defer s.running.Store(false)
		if _, err := s.syncAll(context.Background()); err != nil {
			log.Printf("[SyncService] 后台同步失败: %v", err)
		}
	}()
	return nil
}

func (s *SyncService) syncAll(ctx context.Context) (*SyncReport, error) {
	start := time.Now()
	log.Println("[SyncService] 开始全量同步...")

	// slug -> 首次发现时的条目快照
	discovered := make(map[string]OphimItem)

	// 1. 固定列表端点
	for _, listSlug := range syncListSlugs {
		s.crawlInto(ctx, discovered, func(ctx context.Context, page int) (*OphimListData, error) {
			return s.client.List(ctx, listSlug, page, 0)
		})
	}

	// 2. 全部分类与地区，捞主列表漏掉的 slug
	if categories, err := s.client.Categories(ctx); err != nil {
		log.Printf("[SyncService] 获取分类失败: %v", err)
	} else {
		for _, cat := range categories {
			slug := cat.Slug
			s.crawlInto(ctx, discovered, func(ctx context.Context, page int) (*OphimListData, error) {
				return s.client.ByCategory(ctx, slug, page)
			})
		}
	}
	if regions, err := s.client.Regions(ctx); err != nil {
		log.Printf("[SyncService] 获取地区失败: %v", err)
	} else {
		for _, region := range regions {
			slug := region.Slug
			s.crawlInto(ctx, discovered, func(ctx context.Context, page int) (*OphimListData, error) {
				return s.client.ByRegion(ctx, slug, page)
			})
		}
	}

	// 3. 按年份回扫到 1970
	for year := time.Now().Year(); year >= syncYearFloor; year-- {
		y := year
		s.crawlInto(ctx, discovered, func(ctx context.Context, page int) (*OphimListData, error) {
			return s.client.List(ctx, "phim-moi", page, y)
		})
	}

	// 4. diff 已知 slug，新 slug 入审核队列
	known, err := s.approvals.KnownSlugs()
	if err != nil {
		return nil, err
	}

	report := &SyncReport{Discovered: len(discovered)}

	var newApprovals []*model.MovieApproval
	allSlugs := make([]string, 0, len(discovered))
	for slug, item := range discovered {
		allSlugs = append(allSlugs, slug)
		if _, ok := known[slug]; ok {
			continue
		}
		newApprovals = append(newApprovals, &model.MovieApproval{
			Slug:       slug,
			Status:     model.ApprovalPending,
			Source:     "ophim",
			Name:       item.Name,
			Year:       item.Year,
			Poster:     item.PosterURL,
			Categories: taxNames(item.Category),
		})
		report.NewSlugs = append(report.NewSlugs, slug)
	}
	report.New = len(newApprovals)

	for i := 0; i < len(newApprovals); i += syncBatchSize {
		end := i + syncBatchSize
		if end > len(newApprovals) {
			end = len(newApprovals)
		}
		batch := newApprovals[i:end]
		if err := s.approvals.InsertPendingBatch(batch); err != nil {
			// 整批失败时降级逐条重写，坏行只计自己，不拖累同批的好行
			log.Printf("[SyncService] 审核记录批量插入失败，降级逐条写入: %v", err)
			for _, approval := range batch {
				if rowErr := s.approvals.InsertPendingBatch([]*model.MovieApproval{approval}); rowErr != nil {
					log.Printf("[SyncService] 审核记录写入失败 %s: %v", approval.Slug, rowErr)
					report.StoreErrors++
				} else {
					report.Inserted++
				}
			}
		} else {
			report.Inserted += len(batch)
		}
		time.Sleep(syncBatchDelay)
	}

	// 同一调用点会把发现的所有 slug（新旧都在内）upsert 为可见
	// 读路径再用审核/隐藏过滤把关，语义矛盾见 DESIGN.md，刻意保留原行为
	for i := 0; i < len(allSlugs); i += syncBatchSize {
		end := i + syncBatchSize
		if end > len(allSlugs) {
			end = len(allSlugs)
		}
		batch := allSlugs[i:end]
		if err := s.visibility.UpsertVisibleBatch(batch); err != nil {
			log.Printf("[SyncService] 可见性批量写入失败，降级逐条写入: %v", err)
			for _, slug := range batch {
				if rowErr := s.visibility.UpsertVisibleBatch([]string{slug}); rowErr != nil {
					log.Printf("[SyncService] 可见性写入失败 %s: %v", slug, rowErr)
					report.StoreErrors++
				} else {
					report.VisibilityUpserts++
				}
			}
		} else {
			report.VisibilityUpserts += len(batch)
		}
		time.Sleep(syncBatchDelay)
	}

	if s.clearCache != nil {
		s.clearCache()
	}

	// 5. 新片通知，异步尽力而为
	if len(report.NewSlugs) > 0 && s.notifier != nil {
		slugs := report.NewSlugs
		if len(slugs) > syncNotifyLimit {
			slugs = slugs[:syncNotifyLimit]
		}
		go s.notifier.NotifyNewMovies(slugs)
	}

	report.Duration = time.Since(start)
	log.Printf("[SyncService] 同步完成: 发现 %d, 新增 %d, 入库 %d, 可见性 %d, 失败 %d, 耗时 %v",
		report.Discovered, report.New, report.Inserted, report.VisibilityUpserts, report.StoreErrors, report.Duration)

	return report, nil
}

// crawlInto 翻页扫描单个端点，把发现的条目并入 discovered
// 停止条件：上游分页到头、连续 3 个空页、或翻页达到硬上限
func (s *SyncService) crawlInto(ctx context.Context, discovered map[string]OphimItem, fetch listFetch) {
	emptyStreak := 0
	for page := 1; page <= syncPageCap; page++ {
		data, err := fetch(ctx, page)
		if err != nil {
			// 单次失败按空页处理，不中断整个任务
			log.Printf("[SyncService] 拉取第 %d 页失败: %v", page, err)
			data = nil
		}

		if data == nil || len(data.Items) == 0 {
			emptyStreak++
			if emptyStreak >= syncEmptyLimit {
				return
			}
			continue
		}
		emptyStreak = 0

		for _, item := range data.Items {
			if item.Slug == "" {
				continue
			}
			if _, ok := discovered[item.Slug]; !ok {
				discovered[item.Slug] = item
			}
		}

		// 分页元数据说到头了就停
		perPage := data.Params.Pagination.TotalItemsPerPage
		if perPage <= 0 {
			perPage = defaultPerPage
		}
		lastPage := (data.Params.Pagination.TotalItems + perPage - 1) / perPage
		if lastPage > 0 && page >= lastPage {
			return
		}
	}
}

// taxNames 分类名称列表（审核快照用）
func taxNames(taxes []OphimTax) []string {
	names := make([]string, 0, len(taxes))
	for _, t := range taxes {
		if t.Name != "" {
			names = append(names, t.Name)
		}
	}
	return names
}
