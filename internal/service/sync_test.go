package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/phimhub/internal/model"
)

// fakeApprovalStore 内存审核存储
type fakeApprovalStore struct {
	known    map[string]struct{}
	inserted []*model.MovieApproval
}

func (f *fakeApprovalStore) KnownSlugs() (map[string]struct{}, error) {
	return f.known, nil
}

func (f *fakeApprovalStore) InsertPendingBatch(approvals []*model.MovieApproval) error {
	f.inserted = append(f.inserted, approvals...)
	return nil
}

// fakeVisibilityStore 内存可见性存储
type fakeVisibilityStore struct {
	upserted []string
}

func (f *fakeVisibilityStore) UpsertVisibleBatch(slugs []string) error {
	f.upserted = append(f.upserted, slugs...)
	return nil
}

// fakeNotifier 记录通知调用
type fakeNotifier struct {
	called chan []string
}

func (f *fakeNotifier) NotifyNewMovies(slugs []string) {
	f.called <- slugs
}

func TestSyncAll(t *testing.T) {
	client := &fakeClient{pages: map[int]*OphimListData{
		1: {
			Items: []OphimItem{
				{Slug: "phim-cu", Name: "Phim Cũ", Year: 2020},
				{Slug: "phim-moi-1", Name: "Phim Mới 1", Year: 2024, Category: []OphimTax{{Name: "Hành Động", Slug: "hanh-dong"}}},
				{Slug: "phim-moi-2", Name: "Phim Mới 2", Year: 2024},
			},
			Params: OphimParams{Pagination: OphimPagination{TotalItems: 3, TotalItemsPerPage: 24}},
		},
	}}
	approvals := &fakeApprovalStore{known: map[string]struct{}{"phim-cu": {}}}
	visibility := &fakeVisibilityStore{}
	notifier := &fakeNotifier{called: make(chan []string, 1)}

	cleared := 0
	svc := NewSyncService(client, approvals, visibility, notifier, func() { cleared++ })

	report, err := svc.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Discovered)
	assert.Equal(t, 2, report.New)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 0, report.StoreErrors)

	// 新 slug 入审核队列并带快照
	require.Len(t, approvals.inserted, 2)
	bySlug := map[string]*model.MovieApproval{}
	for _, a := range approvals.inserted {
		bySlug[a.Slug] = a
	}
	require.Contains(t, bySlug, "phim-moi-1")
	require.Contains(t, bySlug, "phim-moi-2")
	assert.Equal(t, model.ApprovalPending, bySlug["phim-moi-1"].Status)
	assert.Equal(t, model.ApprovalPending, bySlug["phim-moi-2"].Status)
	assert.Equal(t, "ophim", bySlug["phim-moi-1"].Source)
	assert.Equal(t, []string{"Hành Động"}, []string(bySlug["phim-moi-1"].Categories))

	// 发现的所有 slug（含已知的）都被置为可见
	assert.ElementsMatch(t, []string{"phim-cu", "phim-moi-1", "phim-moi-2"}, visibility.upserted)
	assert.Equal(t, 3, report.VisibilityUpserts)

	assert.Equal(t, 1, cleared, "同步后必须清缓存")

	// 新片通知异步送达
	select {
	case slugs := <-notifier.called:
		assert.ElementsMatch(t, report.NewSlugs, slugs)
	case <-time.After(2 * time.Second):
		t.Fatal("等待新片通知超时")
	}
}

func TestSyncAllNoNewSlugs(t *testing.T) {
	client := &fakeClient{pages: map[int]*OphimListData{
		1: pageData(1, 24, "phim-cu"),
	}}
	approvals := &fakeApprovalStore{known: map[string]struct{}{"phim-cu": {}}}
	visibility := &fakeVisibilityStore{}
	notifier := &fakeNotifier{called: make(chan []string, 1)}

	svc := NewSyncService(client, approvals, visibility, notifier, nil)

	report, err := svc.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, report.New)
	assert.Equal(t, 0, report.Inserted)

	select {
	case <-notifier.called:
		t.Fatal("没有新片不应发通知")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestSyncAllRejectsConcurrentRun(t *testing.T) {
	svc := NewSyncService(&fakeClient{}, &fakeApprovalStore{}, &fakeVisibilityStore{}, nil, nil)
	svc.running.Store(true)

	_, err := svc.SyncAll(context.Background())
	assert.ErrorIs(t, err, ErrSyncRunning)

	assert.ErrorIs(t, svc.SyncAllAsync(), ErrSyncRunning)
}

func TestSyncAllAsyncCompletesAfterCallerGone(t *testing.T) {
	client := &fakeClient{pages: map[int]*OphimListData{
		1: pageData(1, 24, "phim-moi-1"),
	}}
	approvals := &fakeApprovalStore{known: map[string]struct{}{}}
	visibility := &fakeVisibilityStore{}
	notifier := &fakeNotifier{called: make(chan []string, 1)}

	svc := NewSyncService(client, approvals, visibility, notifier, nil)

	// 触发后立即返回，触发方不再持有任何控制权
	require.NoError(t, svc.SyncAllAsync())

	// 任务在后台完整跑完：发现、落库、通知都不被截断
	select {
	case slugs := <-notifier.called:
		assert.Equal(t, []string{"phim-moi-1"}, slugs)
	case <-time.After(5 * time.Second):
		t.Fatal("后台同步未完成")
	}
	assert.Len(t, approvals.inserted, 1)
	assert.ElementsMatch(t, []string{"phim-moi-1"}, visibility.upserted)
	assert.Positive(t, client.listCalls)
}

// flakyApprovalStore 含坏行的批量写入会失败，逐条写入时只有坏行失败
type flakyApprovalStore struct {
	fakeApprovalStore
	badSlug string
}

func (f *flakyApprovalStore) InsertPendingBatch(approvals []*model.MovieApproval) error {
	for _, a := range approvals {
		if a.Slug == f.badSlug {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	return f.fakeApprovalStore.InsertPendingBatch(approvals)
}

func TestSyncAllCountsStoreErrorsPerRow(t *testing.T) {
	client := &fakeClient{pages: map[int]*OphimListData{
		1: pageData(3, 24, "phim-a", "phim-hong", "phim-b"),
	}}
	approvals := &flakyApprovalStore{badSlug: "phim-hong"}
	visibility := &fakeVisibilityStore{}

	svc := NewSyncService(client, approvals, visibility, nil, nil)

	report, err := svc.SyncAll(context.Background())
	require.NoError(t, err)

	// 坏行只计自己，同批其余行照常入库
	assert.Equal(t, 3, report.New)
	assert.Equal(t, 2, report.Inserted)
	assert.Equal(t, 1, report.StoreErrors)
	require.Len(t, approvals.inserted, 2)
	for _, a := range approvals.inserted {
		assert.NotEqual(t, "phim-hong", a.Slug)
	}
}

func TestCrawlIntoStopsOnEmptyStreak(t *testing.T) {
	// 所有页都为空：连续 3 个空页后停止
	client := &fakeClient{pages: map[int]*OphimListData{}}
	svc := NewSyncService(client, &fakeApprovalStore{}, &fakeVisibilityStore{}, nil, nil)

	discovered := make(map[string]OphimItem)
	svc.crawlInto(context.Background(), discovered, func(ctx context.Context, page int) (*OphimListData, error) {
		return client.List(ctx, "phim-moi", page, 0)
	})

	assert.Empty(t, discovered)
	assert.Equal(t, syncEmptyLimit, client.listCalls)
}

func TestCrawlIntoStopsAtLastPage(t *testing.T) {
	client := &fakeClient{pages: map[int]*OphimListData{
		1: pageData(30, 24, "a"),
		2: pageData(30, 24, "b"),
		3: pageData(30, 24, "c"), // 分页元数据说只有 2 页，这页不该被拉
	}}
	svc := NewSyncService(client, &fakeApprovalStore{}, &fakeVisibilityStore{}, nil, nil)

	discovered := make(map[string]OphimItem)
	svc.crawlInto(context.Background(), discovered, func(ctx context.Context, page int) (*OphimListData, error) {
		return client.List(ctx, "phim-moi", page, 0)
	})

	assert.Len(t, discovered, 2)
	assert.Equal(t, 2, client.listCalls)
}
