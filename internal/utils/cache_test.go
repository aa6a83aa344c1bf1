package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDetailCacheExpiry(t *testing.T) {
	c := NewDetailCache[string](10, 20*time.Millisecond)

	c.Set("a", "giá trị")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "giá trị", v)

	time.Sleep(30 * time.Millisecond)
	_, ok = c.Get("a")
	assert.False(t, ok, "过期后必须读不到")
}

func TestDetailCacheEviction(t *testing.T) {
	c := NewDetailCache[int](2, time.Minute)

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3) // 触发淘汰最旧的 a

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
}
