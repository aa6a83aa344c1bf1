package model

// Movie 影片模型（来自上游接口，不落库）
// 每次读取都从上游响应重新构建，本地只持久化 slug 与审核/可见性标记
type Movie struct {
	ID             string          `json:"id"`
	Slug           string          `json:"slug"`
	Name           string          `json:"name"`
	OriginName     string          `json:"origin_name"`
	Content        string          `json:"content"`
	Summary        string          `json:"summary"` // content 去 HTML 后的纯文本
	Type           string          `json:"type"`
	Status         string          `json:"status"`
	PosterURL      string          `json:"poster_url"`
	ThumbURL       string          `json:"thumb_url"`
	TrailerURL     string          `json:"trailer_url"`
	Quality        string          `json:"quality"`
	Lang           string          `json:"lang"`
	Year           int             `json:"year"`
	Time           string          `json:"time"`
	EpisodeCurrent string          `json:"episode_current"`
	EpisodeTotal   string          `json:"episode_total"`
	View           int             `json:"view"`
	Categories     []TaxRef        `json:"categories"`
	Regions        []TaxRef        `json:"regions"`
	Actors         []PersonRef     `json:"actors"`
	Directors      []PersonRef     `json:"directors"`
	Servers        []EpisodeServer `json:"servers,omitempty"`
}

// TaxRef 分类/地区引用（slug 同时作为 id）
type TaxRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	URL  string `json:"url"`
}

// PersonRef 演员/导演引用
type PersonRef struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// EpisodeServer 播放源分组
type EpisodeServer struct {
	Name     string    `json:"name"`
	Episodes []Episode `json:"episodes"`
}

// Episode 单集播放项
// ID 由 (播放源, 集 slug, 流类型) 哈希派生，进程内稳定但不持久化
type Episode struct {
	ID         uint32 `json:"id"`
	ServerName string `json:"server_name"`
	Name       string `json:"name"`
	Slug       string `json:"slug"`
	Kind       string `json:"kind"` // embed 或 m3u8
	Link       string `json:"link"`
	URL        string `json:"url"` // 站内播放页地址 /phim/{movie}/{slug}-{id}
}

// StreamEmbed / StreamM3U8 流类型
const (
	StreamEmbed = "embed"
	StreamM3U8  = "m3u8"
)

// Pagination 站内分页信息
type Pagination struct {
	CurrentPage int        `json:"current_page"`
	LastPage    int        `json:"last_page"`
	PerPage     int        `json:"per_page"`
	Total       int        `json:"total"`
	From        int        `json:"from"`
	To          int        `json:"to"`
	Links       []PageLink `json:"links"`
}

// PageLink 分页链接，Page 为 0 表示省略号占位
type PageLink struct {
	Label  string `json:"label"`
	Page   int    `json:"page"`
	Active bool   `json:"active"`
}

// MovieList 列表页数据（已过滤、已映射）
type MovieList struct {
	Items      []Movie    `json:"items"`
	Pagination Pagination `json:"pagination"`
	Title      string     `json:"title,omitempty"`
}
