package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/phimhub/internal/model"
	"github.com/user/phimhub/internal/utils"
)

func TestImageURL(t *testing.T) {
	cdn := "https://img.ophim.live"

	assert.Equal(t, "https://img.ophim.live/uploads/movies/poster.jpg", ImageURL(cdn, "poster.jpg"))
	assert.Equal(t, "https://img.ophim.live/uploads/movies/poster.jpg", ImageURL(cdn+"/", "poster.jpg"))
	// 绝对地址原样返回
	assert.Equal(t, "https://other.cdn/x.jpg", ImageURL(cdn, "https://other.cdn/x.jpg"))
	assert.Equal(t, "", ImageURL(cdn, ""))
}

func TestMapMovie(t *testing.T) {
	item := &OphimItem{
		ID:         "65a1",
		Name:       "Đào, Phở và Piano",
		Slug:       "dao-pho-va-piano",
		Content:    "<p>Chuyện tình giữa <b>chiến tranh</b>.</p>",
		Year:       2024,
		PosterURL:  "poster.jpg",
		Category:   []OphimTax{{Name: "Chính Kịch", Slug: "chinh-kich"}},
		Country:    []OphimTax{{Name: "Việt Nam", Slug: "viet-nam"}},
		Actor:      []string{"Doãn Quốc Đam", ""},
		Director:   []string{"Phi Tiến Sơn"},
	}

	m := MapMovie(item, "https://img.ophim.live")

	assert.Equal(t, "dao-pho-va-piano", m.Slug)
	assert.Equal(t, "Chuyện tình giữa chiến tranh.", m.Summary)
	assert.Equal(t, "https://img.ophim.live/uploads/movies/poster.jpg", m.PosterURL)

	require.Len(t, m.Categories, 1)
	assert.Equal(t, "/the-loai/chinh-kich", m.Categories[0].URL)
	require.Len(t, m.Regions, 1)
	assert.Equal(t, "/quoc-gia/viet-nam", m.Regions[0].URL)

	// 空名字的演员被丢弃，slug 由名称派生
	require.Len(t, m.Actors, 1)
	assert.Equal(t, "doan-quoc-dam", m.Actors[0].Slug)
}

func TestMapServers(t *testing.T) {
	item := &OphimItem{
		Slug: "dao-pho-va-piano",
		Episodes: []OphimServer{
			{
				ServerName: "Vietsub #1",
				ServerData: []OphimServerEp{
					{Name: "Tập 01", Slug: "tap-01", LinkEmbed: "https://e/1", LinkM3U8: "https://m/1.m3u8"},
					{Name: "Tập 02", Slug: "", LinkEmbed: "https://e/2"}, // slug 为空，丢弃
				},
			},
			{ServerName: "Trống", ServerData: nil}, // 空源组不输出
		},
	}

	servers := mapServers(item.Slug, item.Episodes)
	require.Len(t, servers, 1)
	require.Len(t, servers[0].Episodes, 2, "embed 和 m3u8 各出一条")

	embed, m3u8 := servers[0].Episodes[0], servers[0].Episodes[1]
	assert.Equal(t, model.StreamEmbed, embed.Kind)
	assert.Equal(t, model.StreamM3U8, m3u8.Kind)
	assert.NotEqual(t, embed.ID, m3u8.ID, "不同流类型的 ID 必须不同")

	wantID := utils.EpisodeID("Vietsub #1", "tap-01", model.StreamM3U8)
	assert.Equal(t, wantID, m3u8.ID)
	assert.Equal(t, fmt.Sprintf("/phim/dao-pho-va-piano/tap-01-%d", wantID), m3u8.URL)
}

func TestFindEpisode(t *testing.T) {
	item := &OphimItem{
		Slug: "phim-x",
		Episodes: []OphimServer{
			{
				ServerName: "Vietsub #1",
				ServerData: []OphimServerEp{
					{Name: "Tập 01", Slug: "tap-01", LinkM3U8: "https://m/1.m3u8"},
				},
			},
		},
	}
	servers := mapServers(item.Slug, item.Episodes)

	id := utils.EpisodeID("Vietsub #1", "tap-01", model.StreamM3U8)
	ep := FindEpisode(servers, "tap-01", id)
	require.NotNil(t, ep)
	assert.Equal(t, "https://m/1.m3u8", ep.Link)

	assert.Nil(t, FindEpisode(servers, "tap-01", id+1), "ID 不匹配时返回 nil")
	assert.Nil(t, FindEpisode(servers, "tap-02", id), "slug 不匹配时返回 nil")
}
