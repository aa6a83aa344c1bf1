package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTMLToText(t *testing.T) {
	in := "<p>Bộ phim kể về <b>một gia đình</b> ở Hà Nội.</p>\n<p>Phần hai.</p>"
	assert.Equal(t, "Bộ phim kể về một gia đình ở Hà Nội. Phần hai.", HTMLToText(in))
}

func TestHTMLToTextPlain(t *testing.T) {
	assert.Equal(t, "không có thẻ nào", HTMLToText("không   có\nthẻ nào"))
	assert.Equal(t, "", HTMLToText(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "ngắn", Truncate("ngắn", 10))
	// 按 rune 截断，不劈开多字节字符
	assert.Equal(t, "Bộ ph…", Truncate("Bộ phim dài", 5))
}
