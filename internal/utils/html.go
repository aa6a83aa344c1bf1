package utils

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLToText 将上游接口返回的 HTML 简介压缩为纯文本
// 用于页面 meta description 和通知消息
func HTMLToText(html string) string {
	if html == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.TrimSpace(html)
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}

// Truncate 按 rune 截断字符串，超长时追加省略号
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
