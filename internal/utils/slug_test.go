package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"去音调", "Nguyễn Văn A", "nguyen-van-a"},
		{"折叠分隔符", "Phim  Hành   Động!!!", "phim-hanh-dong"},
		{"首尾分隔符", "--Đào, Phở và Piano--", "dao-pho-va-piano"},
		{"数字保留", "Gặp Nhau Cuối Năm 2024", "gap-nhau-cuoi-nam-2024"},
		{"空串", "", ""},
		{"纯符号", "!!!", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Slugify(tc.in))
		})
	}
}

func TestEpisodeIDDeterministic(t *testing.T) {
	a := EpisodeID("Vietsub #1", "tap-01", "m3u8")
	b := EpisodeID("Vietsub #1", "tap-01", "m3u8")
	assert.Equal(t, a, b, "同一输入必须得到同一 ID")
}

func TestEpisodeIDDistinct(t *testing.T) {
	base := EpisodeID("Vietsub #1", "tap-01", "m3u8")

	assert.NotEqual(t, base, EpisodeID("Vietsub #2", "tap-01", "m3u8"), "播放源不同")
	assert.NotEqual(t, base, EpisodeID("Vietsub #1", "tap-02", "m3u8"), "集 slug 不同")
	assert.NotEqual(t, base, EpisodeID("Vietsub #1", "tap-01", "embed"), "流类型不同")
}
