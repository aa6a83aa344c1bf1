package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/user/phimhub/internal/utils"
)

// OphimClient 上游影片接口客户端
// 不做并发，只负责单次请求，并发由调用方控制
type OphimClient interface {
	// Categories 获取全部分类
	Categories(ctx context.Context) ([]OphimTax, error)

	// Regions 获取全部地区
	Regions(ctx context.Context) ([]OphimTax, error)

	// List 获取列表页，year 为 0 时不按年份过滤
	List(ctx context.Context, listSlug string, page, year int) (*OphimListData, error)

	// ByCategory 按分类获取列表页
	ByCategory(ctx context.Context, slug string, page int) (*OphimListData, error)

	// ByRegion 按地区获取列表页
	ByRegion(ctx context.Context, slug string, page int) (*OphimListData, error)

	// Search 关键词搜索
	Search(ctx context.Context, keyword string, page int) (*OphimListData, error)

	// Detail 获取影片详情，返回条目和 CDN 域名
	Detail(ctx context.Context, slug string) (*OphimItem, string, error)
}

// OphimListResponse 上游列表接口响应
type OphimListResponse struct {
	Status  any           `json:"status"`
	Message string        `json:"message"`
	Data    OphimListData `json:"data"`
}

// OphimListData 列表数据体
type OphimListData struct {
	Items     []OphimItem `json:"items"`
	Params    OphimParams `json:"params"`
	CDNImage  string      `json:"APP_DOMAIN_CDN_IMAGE"`
	TitlePage string      `json:"titlePage"`
}

// OphimParams 列表参数
type OphimParams struct {
	Pagination OphimPagination `json:"pagination"`
}

// OphimPagination 上游分页元数据
type OphimPagination struct {
	TotalItems        int `json:"totalItems"`
	TotalItemsPerPage int `json:"totalItemsPerPage"`
	CurrentPage       int `json:"currentPage"`
	PageRanges        int `json:"pageRanges"`
}

// OphimDetailResponse 详情接口响应
type OphimDetailResponse struct {
	Status  any    `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Item     OphimItem `json:"item"`
		CDNImage string    `json:"APP_DOMAIN_CDN_IMAGE"`
	} `json:"data"`
}

// OphimItem 上游影片条目
type OphimItem struct {
	ID             string        `json:"_id"`
	Name           string        `json:"name"`
	Slug           string        `json:"slug"`
	OriginName     string        `json:"origin_name"`
	Content        string        `json:"content"`
	Type           string        `json:"type"`
	Status         string        `json:"status"`
	PosterURL      string        `json:"poster_url"`
	ThumbURL       string        `json:"thumb_url"`
	TrailerURL     string        `json:"trailer_url"`
	Time           string        `json:"time"`
	EpisodeCurrent string        `json:"episode_current"`
	EpisodeTotal   string        `json:"episode_total"`
	Quality        string        `json:"quality"`
	Lang           string        `json:"lang"`
	Year           int           `json:"year"`
	View           int           `json:"view"`
	Category       []OphimTax    `json:"category"`
	Country        []OphimTax    `json:"country"`
	Actor          []string      `json:"actor"`
	Director       []string      `json:"director"`
	Episodes       []OphimServer `json:"episodes"`
}

// OphimTax 上游分类/地区
type OphimTax struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// OphimServer 上游播放源
type OphimServer struct {
	ServerName string          `json:"server_name"`
	ServerData []OphimServerEp `json:"server_data"`
}

// OphimServerEp 上游单集
type OphimServerEp struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Filename  string `json:"filename"`
	LinkEmbed string `json:"link_embed"`
	LinkM3U8  string `json:"link_m3u8"`
}

// ResponseCache 响应记忆化缓存
// 以接口注入，测试可控制内容，多实例部署可换成共享缓存
type ResponseCache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

// GoCacheStore 基于全局 go-cache 的默认实现
type GoCacheStore struct {
	TTL time.Duration
}

func (s GoCacheStore) Get(key string) ([]byte, bool) {
	v, ok := utils.CacheGet(key)
	if !ok {
		return nil, false
	}
	body, ok := v.([]byte)
	return body, ok
}

func (s GoCacheStore) Set(key string, value []byte) {
	utils.CacheSet(key, value, s.TTL)
}

// DefaultOphimClient 默认上游客户端实现
type DefaultOphimClient struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
	cache   ResponseCache
}

// NewOphimClient 创建上游客户端
// 单次请求超时 8 秒，仅超时和 5xx 重试最多 2 次，延迟线性递增
func NewOphimClient(baseURL string, cache ResponseCache) *DefaultOphimClient {
	timeout := 8 * time.Second
	return &DefaultOphimClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
		cache:   cache,
	}
}

// httpStatusError 非 2xx 响应
type httpStatusError struct {
	status int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("请求返回状态码: %d", e.status)
}

// isRetryable 只有超时/中断和 5xx 才值得重试
func isRetryable(err error) bool {
	var se *httpStatusError
	if errors.As(err, &se) {
		return se.status >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// getJSON 拉取并解析 JSON，带记忆化和有限重试
func (c *DefaultOphimClient) getJSON(ctx context.Context, path string, target interface{}) error {
	fullURL := c.baseURL + path

	if c.cache != nil {
		if body, ok := c.cache.Get(fullURL); ok {
			return json.Unmarshal(body, target)
		}
	}

	var body []byte
	err := retry.Do(
		func() error {
			var err error
			body, err = c.doOnce(ctx, fullURL)
			return err
		},
		retry.Attempts(3), // 首次 + 2 次重试
		retry.Context(ctx),
		retry.RetryIf(isRetryable),
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			return time.Duration(n+1) * 500 * time.Millisecond
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return err
	}

	if c.cache != nil {
		c.cache.Set(fullURL, body)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("解析JSON失败: %w", err)
	}
	return nil
}

// doOnce 单次请求，独立超时
func (c *DefaultOphimClient) doOnce(ctx context.Context, fullURL string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "GET", fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &httpStatusError{status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}
	return body, nil
}

// Categories 获取全部分类
func (c *DefaultOphimClient) Categories(ctx context.Context) ([]OphimTax, error) {
	var raw struct {
		Data struct {
			Items []OphimTax `json:"items"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "/v1/api/the-loai", &raw); err != nil {
		return nil, err
	}
	return raw.Data.Items, nil
}

// Regions 获取全部地区
func (c *DefaultOphimClient) Regions(ctx context.Context) ([]OphimTax, error) {
	var raw struct {
		Data struct {
			Items []OphimTax `json:"items"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, "/v1/api/quoc-gia", &raw); err != nil {
		return nil, err
	}
	return raw.Data.Items, nil
}

// List 获取列表页
func (c *DefaultOphimClient) List(ctx context.Context, listSlug string, page, year int) (*OphimListData, error) {
	path := fmt.Sprintf("/v1/api/danh-sach/%s?page=%d", url.PathEscape(listSlug), page)
	if year > 0 {
		path += fmt.Sprintf("&year=%d", year)
	}

	var resp OphimListResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ByCategory 按分类获取列表页
func (c *DefaultOphimClient) ByCategory(ctx context.Context, slug string, page int) (*OphimListData, error) {
	path := fmt.Sprintf("/v1/api/the-loai/%s?page=%d", url.PathEscape(slug), page)

	var resp OphimListResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// ByRegion 按地区获取列表页
func (c *DefaultOphimClient) ByRegion(ctx context.Context, slug string, page int) (*OphimListData, error) {
	path := fmt.Sprintf("/v1/api/quoc-gia/%s?page=%d", url.PathEscape(slug), page)

	var resp OphimListResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Search 关键词搜索
func (c *DefaultOphimClient) Search(ctx context.Context, keyword string, page int) (*OphimListData, error) {
	path := fmt.Sprintf("/v1/api/tim-kiem?keyword=%s&page=%d", url.QueryEscape(keyword), page)

	var resp OphimListResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// Detail 获取影片详情
func (c *DefaultOphimClient) Detail(ctx context.Context, slug string) (*OphimItem, string, error) {
	path := "/v1/api/phim/" + url.PathEscape(slug)

	var resp OphimDetailResponse
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, "", err
	}
	if resp.Data.Item.Slug == "" {
		return nil, "", nil
	}
	return &resp.Data.Item, resp.Data.CDNImage, nil
}
