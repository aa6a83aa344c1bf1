package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapCache 测试用的内存响应缓存
type mapCache struct {
	data map[string][]byte
	sets int
}

func newMapCache() *mapCache {
	return &mapCache{data: make(map[string][]byte)}
}

func (m *mapCache) Get(key string) ([]byte, bool) {
	v, ok := m.data[key]
	return v, ok
}

func (m *mapCache) Set(key string, value []byte) {
	m.sets++
	m.data[key] = value
}

const listBody = `{
	"status": true,
	"data": {
		"items": [{"name": "Phim X", "slug": "phim-x", "year": 2024}],
		"params": {"pagination": {"totalItems": 1, "totalItemsPerPage": 24, "currentPage": 1}},
		"APP_DOMAIN_CDN_IMAGE": "https://img.ophim.live"
	}
}`

func TestClientRetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(listBody))
	}))
	defer srv.Close()

	client := NewOphimClient(srv.URL, nil)
	data, err := client.List(context.Background(), "phim-moi", 1, 0)
	require.NoError(t, err)

	assert.Equal(t, int32(2), calls.Load(), "5xx 后应重试一次")
	require.Len(t, data.Items, 1)
	assert.Equal(t, "phim-x", data.Items[0].Slug)
	assert.Equal(t, "https://img.ophim.live", data.CDNImage)
}

func TestClientNoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewOphimClient(srv.URL, nil)
	_, err := client.List(context.Background(), "phim-moi", 1, 0)
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx 不应重试")
}

func TestClientMemoization(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte(listBody))
	}))
	defer srv.Close()

	client := NewOphimClient(srv.URL, newMapCache())

	for i := 0; i < 3; i++ {
		data, err := client.List(context.Background(), "phim-moi", 1, 0)
		require.NoError(t, err)
		require.Len(t, data.Items, 1)
	}
	assert.Equal(t, int32(1), calls.Load(), "同一 URL 只回源一次")

	// 不同页是不同的缓存键
	_, err := client.List(context.Background(), "phim-moi", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientDetailMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": false, "message": "not found", "data": {"item": {}}}`))
	}))
	defer srv.Close()

	client := NewOphimClient(srv.URL, nil)
	item, _, err := client.Detail(context.Background(), "khong-ton-tai")
	require.NoError(t, err)
	assert.Nil(t, item, "上游无 slug 视为不存在")
}
