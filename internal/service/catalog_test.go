package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeVisibility 固定隐藏集合
type fakeVisibility struct {
	hidden map[string]struct{}
	err    error
}

func (f *fakeVisibility) HiddenSlugs() (map[string]struct{}, error) {
	return f.hidden, f.err
}

// fakeClient 可编程的上游客户端
type fakeClient struct {
	pages      map[int]*OphimListData // List/ByCategory 共用
	detail     *OphimItem
	detailCDN  string
	detailErr  error
	listCalls  int
	detailHits int
}

func (f *fakeClient) Categories(ctx context.Context) ([]OphimTax, error) { return nil, nil }
func (f *fakeClient) Regions(ctx context.Context) ([]OphimTax, error)    { return nil, nil }

func (f *fakeClient) List(ctx context.Context, listSlug string, page, year int) (*OphimListData, error) {
	f.listCalls++
	if d, ok := f.pages[page]; ok {
		return d, nil
	}
	return &OphimListData{}, nil
}

func (f *fakeClient) ByCategory(ctx context.Context, slug string, page int) (*OphimListData, error) {
	return f.List(ctx, slug, page, 0)
}

func (f *fakeClient) ByRegion(ctx context.Context, slug string, page int) (*OphimListData, error) {
	return f.List(ctx, slug, page, 0)
}

func (f *fakeClient) Search(ctx context.Context, keyword string, page int) (*OphimListData, error) {
	return f.List(ctx, keyword, page, 0)
}

func (f *fakeClient) Detail(ctx context.Context, slug string) (*OphimItem, string, error) {
	f.detailHits++
	return f.detail, f.detailCDN, f.detailErr
}

func items(slugs ...string) []OphimItem {
	out := make([]OphimItem, 0, len(slugs))
	for _, s := range slugs {
		out = append(out, OphimItem{Slug: s, Name: s})
	}
	return out
}

func pageData(total, perPage int, slugs ...string) *OphimListData {
	return &OphimListData{
		Items: items(slugs...),
		Params: OphimParams{
			Pagination: OphimPagination{TotalItems: total, TotalItemsPerPage: perPage},
		},
	}
}

func TestFilterVisible(t *testing.T) {
	in := items("a", "", "b", "c")
	hidden := map[string]struct{}{"b": {}}

	got := FilterVisible(in, hidden)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Slug)
	assert.Equal(t, "c", got[1].Slug)
}

func TestPaginate(t *testing.T) {
	t.Run("首页", func(t *testing.T) {
		p := Paginate(53, 25, 1)
		assert.Equal(t, 3, p.LastPage)
		assert.Equal(t, 1, p.From)
		assert.Equal(t, 25, p.To)
	})

	t.Run("末页不满", func(t *testing.T) {
		p := Paginate(53, 25, 3)
		assert.Equal(t, 51, p.From)
		assert.Equal(t, 53, p.To)
	})

	t.Run("当前页越界回落到末页", func(t *testing.T) {
		p := Paginate(53, 25, 99)
		assert.Equal(t, 3, p.CurrentPage)
	})

	t.Run("空结果", func(t *testing.T) {
		p := Paginate(0, 25, 1)
		assert.Equal(t, 1, p.LastPage)
		assert.Equal(t, 0, p.From)
		assert.Equal(t, 0, p.To)
	})

	t.Run("窗口带省略号", func(t *testing.T) {
		p := Paginate(1000, 10, 50)
		// 1 … 48 49 [50] 51 52 … 100
		require.Len(t, p.Links, 9)
		assert.Equal(t, "1", p.Links[0].Label)
		assert.Equal(t, "…", p.Links[1].Label)
		assert.True(t, p.Links[4].Active)
		assert.Equal(t, "…", p.Links[7].Label)
		assert.Equal(t, "100", p.Links[8].Label)
	})

	t.Run("窗口贴边不出省略号", func(t *testing.T) {
		p := Paginate(100, 25, 2)
		// 1 [2] 3 4
		require.Len(t, p.Links, 4)
		for _, l := range p.Links {
			assert.NotEqual(t, "…", l.Label)
		}
	})
}

func TestListByFilters(t *testing.T) {
	client := &fakeClient{pages: map[int]*OphimListData{
		1: pageData(3, 3, "a", "b", "c"),
	}}
	vis := &fakeVisibility{hidden: map[string]struct{}{"b": {}}}
	svc := NewCatalogService(client, vis)

	list, err := svc.ListBy(context.Background(), "phim-moi", 1, 0)
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, "a", list.Items[0].Slug)
	assert.Equal(t, "c", list.Items[1].Slug)
}

func TestListByTopUp(t *testing.T) {
	// 第 1 页有 3 条但 1 条被隐藏，上游还有下一页，应当恰好补拉一页
	client := &fakeClient{pages: map[int]*OphimListData{
		1: pageData(6, 3, "a", "b", "c"),
		2: pageData(6, 3, "d", "e", "f"),
	}}
	vis := &fakeVisibility{hidden: map[string]struct{}{"b": {}}}
	svc := NewCatalogService(client, vis)

	list, err := svc.ListBy(context.Background(), "phim-moi", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, client.listCalls, "只允许追加拉取一页")
	// 2 条 + 补页 3 条，截断回每页 3 条
	require.Len(t, list.Items, 3)
	assert.Equal(t, "d", list.Items[2].Slug)
}

func TestListByNoTopUpOnLastPage(t *testing.T) {
	client := &fakeClient{pages: map[int]*OphimListData{
		1: pageData(3, 3, "a", "b", "c"),
	}}
	vis := &fakeVisibility{hidden: map[string]struct{}{"b": {}}}
	svc := NewCatalogService(client, vis)

	_, err := svc.ListBy(context.Background(), "phim-moi", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, client.listCalls, "已是末页不应补拉")
}

func TestListByVisibilityErrorDegrades(t *testing.T) {
	client := &fakeClient{pages: map[int]*OphimListData{
		1: pageData(2, 2, "a", "b"),
	}}
	vis := &fakeVisibility{err: fmt.Errorf("db down")}
	svc := NewCatalogService(client, vis)

	list, err := svc.ListBy(context.Background(), "phim-moi", 1, 0)
	require.NoError(t, err, "隐藏集合失败时放行全部")
	assert.Len(t, list.Items, 2)
}

func TestDetailHidden(t *testing.T) {
	client := &fakeClient{detail: &OphimItem{Slug: "phim-x", Name: "X"}}
	vis := &fakeVisibility{hidden: map[string]struct{}{"phim-x": {}}}
	svc := NewCatalogService(client, vis)

	m, err := svc.Detail(context.Background(), "phim-x")
	require.NoError(t, err)
	assert.Nil(t, m, "被隐藏的影片按不存在处理")
	assert.Equal(t, 0, client.detailHits, "不应回源")
}

func TestDetailCached(t *testing.T) {
	client := &fakeClient{detail: &OphimItem{Slug: "phim-x", Name: "X"}}
	vis := &fakeVisibility{hidden: map[string]struct{}{}}
	svc := NewCatalogService(client, vis)

	first, err := svc.Detail(context.Background(), "phim-x")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := svc.Detail(context.Background(), "phim-x")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, 1, client.detailHits, "第二次必须命中缓存")
	assert.Equal(t, first.Name, second.Name)
}
