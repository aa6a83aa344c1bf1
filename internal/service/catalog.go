package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/user/phimhub/internal/model"
	"github.com/user/phimhub/internal/utils"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// defaultPerPage 上游未声明每页条数时的回退值
const defaultPerPage = 24

// FilterVisible 审核/可见性过滤
// 只保留 slug 非空且不在隐藏集合中的条目
// 注意：当前行为不要求 slug 在已审核通过集合中，与原始读路径保持一致
func FilterVisible(items []OphimItem, hidden map[string]struct{}) []OphimItem {
	result := make([]OphimItem, 0, len(items))
	for _, item := range items {
		if item.Slug == "" {
			continue
		}
		if _, ok := hidden[item.Slug]; ok {
			continue
		}
		result = append(result, item)
	}
	return result
}

// Paginate 将上游分页元数据归一化为站内分页信息
// 链接窗口为当前页 ±2，带首尾快捷链接和省略号占位
func Paginate(total, perPage, current int) model.Pagination {
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	lastPage := (total + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}
	if current < 1 {
		current = 1
	}
	if current > lastPage {
		current = lastPage
	}

	from, to := 0, 0
	if total > 0 {
		from = (current-1)*perPage + 1
		to = current * perPage
		if to > total {
			to = total
		}
	}

	lo := current - 2
	if lo < 1 {
		lo = 1
	}
	hi := current + 2
	if hi > lastPage {
		hi = lastPage
	}

	var links []model.PageLink
	if lo > 1 {
		links = append(links, model.PageLink{Label: "1", Page: 1})
		if lo > 2 {
			links = append(links, model.PageLink{Label: "…"})
		}
	}
	for p := lo; p <= hi; p++ {
		links = append(links, model.PageLink{
			Label:  fmt.Sprintf("%d", p),
			Page:   p,
			Active: p == current,
		})
	}
	if hi < lastPage {
		if hi < lastPage-1 {
			links = append(links, model.PageLink{Label: "…"})
		}
		links = append(links, model.PageLink{Label: fmt.Sprintf("%d", lastPage), Page: lastPage})
	}

	return model.Pagination{
		CurrentPage: current,
		LastPage:    lastPage,
		PerPage:     perPage,
		Total:       total,
		From:        from,
		To:          to,
		Links:       links,
	}
}

// VisibilitySource 读路径的隐藏 slug 来源
type VisibilitySource interface {
	HiddenSlugs() (map[string]struct{}, error)
}

// CatalogService 目录读取服务：拉取、过滤、映射、分页
type CatalogService struct {
	client      OphimClient
	visibility  VisibilitySource
	detailCache *utils.DetailCache[model.Movie]
	sf          singleflight.Group
}

// NewCatalogService 创建目录服务
func NewCatalogService(client OphimClient, visibility VisibilitySource) *CatalogService {
	return &CatalogService{
		client:      client,
		visibility:  visibility,
		detailCache: utils.NewDetailCache[model.Movie](1000, 10*time.Minute),
	}
}

// ClearCaches 清空读路径缓存（同步任务和管理操作后调用）
func (s *CatalogService) ClearCaches() {
	utils.CacheClear()
	s.detailCache.Clear()
}

// listFetch 单页拉取函数，补页时复用
type listFetch func(ctx context.Context, page int) (*OphimListData, error)

// assemble 列表页组装：并行取隐藏集合与上游页，过滤、补页、映射、分页
func (s *CatalogService) assemble(ctx context.Context, fetch listFetch, page int) (*model.MovieList, error) {
	if page < 1 {
		page = 1
	}

	var hidden map[string]struct{}
	var data *OphimListData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		h, err := s.visibility.HiddenSlugs()
		if err != nil {
			// 过滤集合取不到时放行全部，不让页面挂掉
			log.Printf("[CatalogService] 获取隐藏集合失败: %v", err)
			h = map[string]struct{}{}
		}
		hidden = h
		return nil
	})
	g.Go(func() error {
		d, err := fetch(gctx, page)
		if err != nil {
			return err
		}
		data = d
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	perPage := data.Params.Pagination.TotalItemsPerPage
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	total := data.Params.Pagination.TotalItems
	lastPage := (total + perPage - 1) / perPage

	items := FilterVisible(data.Items, hidden)

	// 补页：过滤削薄了当前页且上游还有下一页时，只追加拉取一页
	if len(items) < perPage && page < lastPage {
		if next, err := fetch(ctx, page+1); err == nil {
			items = append(items, FilterVisible(next.Items, hidden)...)
		} else {
			log.Printf("[CatalogService] 补页拉取失败: %v", err)
		}
		if len(items) > perPage {
			items = items[:perPage]
		}
	}

	movies := make([]model.Movie, 0, len(items))
	for i := range items {
		movies = append(movies, MapMovie(&items[i], data.CDNImage))
	}

	return &model.MovieList{
		Items:      movies,
		Pagination: Paginate(total, perPage, page),
		Title:      data.TitlePage,
	}, nil
}

// ListBy 列表页（danh-sach）
func (s *CatalogService) ListBy(ctx context.Context, listSlug string, page, year int) (*model.MovieList, error) {
	return s.assemble(ctx, func(ctx context.Context, p int) (*OphimListData, error) {
		return s.client.List(ctx, listSlug, p, year)
	}, page)
}

// ByCategory 分类页
func (s *CatalogService) ByCategory(ctx context.Context, slug string, page int) (*model.MovieList, error) {
	return s.assemble(ctx, func(ctx context.Context, p int) (*OphimListData, error) {
		return s.client.ByCategory(ctx, slug, p)
	}, page)
}

// ByRegion 地区页
func (s *CatalogService) ByRegion(ctx context.Context, slug string, page int) (*model.MovieList, error) {
	return s.assemble(ctx, func(ctx context.Context, p int) (*OphimListData, error) {
		return s.client.ByRegion(ctx, slug, p)
	}, page)
}

// Search 搜索页
func (s *CatalogService) Search(ctx context.Context, keyword string, page int) (*model.MovieList, error) {
	return s.assemble(ctx, func(ctx context.Context, p int) (*OphimListData, error) {
		return s.client.Search(ctx, keyword, p)
	}, page)
}

// Taxonomies 并行获取分类和地区（导航菜单用）
func (s *CatalogService) Taxonomies(ctx context.Context) ([]model.TaxRef, []model.TaxRef, error) {
	var categories, regions []model.TaxRef

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		taxes, err := s.client.Categories(gctx)
		if err != nil {
			return err
		}
		categories = mapTaxRefs(taxes, "/the-loai")
		return nil
	})
	g.Go(func() error {
		taxes, err := s.client.Regions(gctx)
		if err != nil {
			return err
		}
		regions = mapTaxRefs(taxes, "/quoc-gia")
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return categories, regions, nil
}

// Detail 影片详情，带 LRU 缓存和 singleflight 去重
// 被隐藏的影片按不存在处理
func (s *CatalogService) Detail(ctx context.Context, slug string) (*model.Movie, error) {
	hidden, err := s.visibility.HiddenSlugs()
	if err != nil {
		log.Printf("[CatalogService] 获取隐藏集合失败: %v", err)
		hidden = map[string]struct{}{}
	}
	if _, ok := hidden[slug]; ok {
		return nil, nil
	}

	if m, ok := s.detailCache.Get(slug); ok {
		return &m, nil
	}

	v, err, _ := s.sf.Do(slug, func() (interface{}, error) {
		item, cdn, err := s.client.Detail(ctx, slug)
		if err != nil {
			return nil, err
		}
		if item == nil {
			return nil, nil
		}
		m := MapMovieDetail(item, cdn)
		s.detailCache.Set(slug, m)
		return m, nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}

	m := v.(model.Movie)
	return &m, nil
}
