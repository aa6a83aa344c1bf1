package utils

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/patrickmn/go-cache"
)

// Cache 全局缓存实例（上游响应记忆化）
var Cache *cache.Cache

// InitCache 初始化缓存
func InitCache() {
	// 默认过期时间60秒，清理间隔5分钟
	Cache = cache.New(60*time.Second, 5*time.Minute)
}

// CacheGet 获取缓存值
func CacheGet(key string) (interface{}, bool) {
	return Cache.Get(key)
}

// CacheSet 设置缓存值
func CacheSet(key string, value interface{}, duration time.Duration) {
	Cache.Set(key, value, duration)
}

// CacheDelete 删除缓存
func CacheDelete(key string) {
	Cache.Delete(key)
}

// CacheClear 清空所有缓存
func CacheClear() {
	Cache.Flush()
}

// CacheItem 包装实际的数据，增加过期时间
type CacheItem[T any] struct {
	Value     T
	ExpiredAt time.Time
}

// DetailCache 影片详情缓存封装
type DetailCache[T any] struct {
	storage *lru.Cache[string, CacheItem[T]]
	ttl     time.Duration
}

// NewDetailCache 初始化，size 是最大缓存条数（如 1000），ttl 是数据有效期
func NewDetailCache[T any](size int, ttl time.Duration) *DetailCache[T] {
	// lru.New 是线程安全的
	c, _ := lru.New[string, CacheItem[T]](size)
	return &DetailCache[T]{
		storage: c,
		ttl:     ttl,
	}
}

// Set 写入缓存（LRU 中 Add 会自动处理更新）
func (c *DetailCache[T]) Set(key string, value T) {
	item := CacheItem[T]{
		Value:     value,
		ExpiredAt: time.Now().Add(c.ttl),
	}
	c.storage.Add(key, item)
}

// Get 读取缓存（带过期检查）
func (c *DetailCache[T]) Get(key string) (T, bool) {
	var zero T
	item, ok := c.storage.Get(key)
	if !ok {
		return zero, false
	}

	// 检查是否过期
	if time.Now().After(item.ExpiredAt) {
		c.storage.Remove(key)
		return zero, false
	}

	return item.Value, true
}

// Delete 删除缓存
func (c *DetailCache[T]) Delete(key string) {
	c.storage.Remove(key)
}

// Clear 清空缓存
func (c *DetailCache[T]) Clear() {
	c.storage.Purge()
}

// Len 获取当前长度
func (c *DetailCache[T]) Len() int {
	return c.storage.Len()
}
