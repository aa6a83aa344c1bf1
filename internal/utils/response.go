package utils

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/gin-gonic/gin"
)

// HashIP 对 IP 地址进行哈希处理（用于匿名统计）
func HashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8]) // 只取前8字节，足够用于统计
}

// OK 返回成功响应 {ok:true, ...}
func OK(c *gin.Context, data gin.H) {
	res := gin.H{"ok": true}
	for k, v := range data {
		res[k] = v
	}
	c.JSON(200, res)
}

// Fail 返回错误响应 {error:...}
func Fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"error": message})
}

// BadRequest 返回400错误
func BadRequest(c *gin.Context, message string) {
	Fail(c, 400, message)
}

// Unauthorized 返回401错误
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Chưa đăng nhập"
	}
	Fail(c, 401, message)
}

// Forbidden 返回403错误
func Forbidden(c *gin.Context) {
	Fail(c, 403, "Forbidden")
}

// NotFound 返回404错误
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Không tìm thấy"
	}
	Fail(c, 404, message)
}

// InternalServerError 返回500错误
func InternalServerError(c *gin.Context, message string) {
	if message == "" {
		message = "Lỗi máy chủ"
	}
	Fail(c, 500, message)
}
