package utils

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Slugify 将名称转换为 URL slug
// "Nguyễn Văn A" -> "nguyen-van-a"：去音调、转小写、非字母数字折叠为连字符
func Slugify(name string) string {
	s := unidecode.Unidecode(name)
	s = strings.ToLower(s)

	var b strings.Builder
	lastHyphen := true // 开头的分隔符直接丢弃
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}

	return strings.Trim(b.String(), "-")
}

// EpisodeID 根据播放源名称、集 slug 和流类型派生稳定的 32 位集数 ID
// 同一 (server, slug, kind) 在进程内恒定返回同一个值
func EpisodeID(server, slug, kind string) uint32 {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%s:%s", server, slug, kind)
	return h.Sum32()
}
