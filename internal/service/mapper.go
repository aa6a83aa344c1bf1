package service

import (
	"fmt"
	"strings"

	"github.com/user/phimhub/internal/model"
	"github.com/user/phimhub/internal/utils"
)

// ImageURL 构建 CDN 图片地址
// 已是绝对地址的文件名原样返回
func ImageURL(cdnBase, filename string) string {
	if filename == "" {
		return ""
	}
	if strings.HasPrefix(filename, "http://") || strings.HasPrefix(filename, "https://") {
		return filename
	}
	return strings.TrimRight(cdnBase, "/") + "/uploads/movies/" + filename
}

// mapTaxRefs 分类/地区引用，slug 同时作为 id
func mapTaxRefs(taxes []OphimTax, basePath string) []model.TaxRef {
	refs := make([]model.TaxRef, 0, len(taxes))
	for _, t := range taxes {
		if t.Slug == "" {
			continue
		}
		refs = append(refs, model.TaxRef{
			ID:   t.Slug,
			Name: t.Name,
			Slug: t.Slug,
			URL:  basePath + "/" + t.Slug,
		})
	}
	return refs
}

// mapPersonRefs 演员/导演引用，slug 由名称派生
func mapPersonRefs(names []string) []model.PersonRef {
	refs := make([]model.PersonRef, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		refs = append(refs, model.PersonRef{
			Name: n,
			Slug: utils.Slugify(n),
		})
	}
	return refs
}

// MapMovie 上游条目 -> 站内影片模型（纯转换，不含播放源）
func MapMovie(item *OphimItem, cdnBase string) model.Movie {
	return model.Movie{
		ID:             item.ID,
		Slug:           item.Slug,
		Name:           item.Name,
		OriginName:     item.OriginName,
		Content:        item.Content,
		Summary:        utils.HTMLToText(item.Content),
		Type:           item.Type,
		Status:         item.Status,
		PosterURL:      ImageURL(cdnBase, item.PosterURL),
		ThumbURL:       ImageURL(cdnBase, item.ThumbURL),
		TrailerURL:     item.TrailerURL,
		Quality:        item.Quality,
		Lang:           item.Lang,
		Year:           item.Year,
		Time:           item.Time,
		EpisodeCurrent: item.EpisodeCurrent,
		EpisodeTotal:   item.EpisodeTotal,
		View:           item.View,
		Categories:     mapTaxRefs(item.Category, "/the-loai"),
		Regions:        mapTaxRefs(item.Country, "/quoc-gia"),
		Actors:         mapPersonRefs(item.Actor),
		Directors:      mapPersonRefs(item.Director),
	}
}

// MapMovieDetail 上游条目 -> 站内影片模型，含播放源分组
func MapMovieDetail(item *OphimItem, cdnBase string) model.Movie {
	m := MapMovie(item, cdnBase)
	m.Servers = mapServers(item.Slug, item.Episodes)
	return m
}

// mapServers 播放源分组
// 每个上游单集按可用流类型展开：有 embed 链接出一条 embed，有 m3u8 链接出一条 m3u8
func mapServers(movieSlug string, servers []OphimServer) []model.EpisodeServer {
	result := make([]model.EpisodeServer, 0, len(servers))
	for _, srv := range servers {
		group := model.EpisodeServer{Name: srv.ServerName}
		for _, ep := range srv.ServerData {
			if ep.Slug == "" {
				continue
			}
			if ep.LinkEmbed != "" {
				group.Episodes = append(group.Episodes, buildEpisode(movieSlug, srv.ServerName, ep, model.StreamEmbed, ep.LinkEmbed))
			}
			if ep.LinkM3U8 != "" {
				group.Episodes = append(group.Episodes, buildEpisode(movieSlug, srv.ServerName, ep, model.StreamM3U8, ep.LinkM3U8))
			}
		}
		if len(group.Episodes) > 0 {
			result = append(result, group)
		}
	}
	return result
}

// buildEpisode 单集构建
// ID 是 (server, slug, kind) 的 32 位哈希，进程内稳定，用于拼播放页地址
func buildEpisode(movieSlug, serverName string, ep OphimServerEp, kind, link string) model.Episode {
	id := utils.EpisodeID(serverName, ep.Slug, kind)
	return model.Episode{
		ID:         id,
		ServerName: serverName,
		Name:       ep.Name,
		Slug:       ep.Slug,
		Kind:       kind,
		Link:       link,
		URL:        fmt.Sprintf("/phim/%s/%s-%d", movieSlug, ep.Slug, id),
	}
}

// FindEpisode 在播放源分组中按 (slug, id) 定位单集
func FindEpisode(servers []model.EpisodeServer, epSlug string, id uint32) *model.Episode {
	for _, srv := range servers {
		for i := range srv.Episodes {
			if srv.Episodes[i].Slug == epSlug && srv.Episodes[i].ID == id {
				return &srv.Episodes[i]
			}
		}
	}
	return nil
}
