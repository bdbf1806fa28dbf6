package consent

import (
	"net/url"
	"regexp"

	"github.com/ignatzorin/rsip-gallery/internal/models"
)

var youTubeIDRegex = regexp.MustCompile(`(?:embed/|v=|/v/|youtu\.be/)([^&?#/]+)`)

// Embed - как клиенту показать материал: плеером или заглушкой.
type Embed struct {
	Allowed      bool    `json:"allowed"`
	Provider     string  `json:"provider"`
	EmbedURL     string  `json:"embed_url,omitempty"`
	SourceURL    string  `json:"source_url"`
	ThumbnailURL *string `json:"thumbnail_url,omitempty"`
	Message      string  `json:"message,omitempty"`
}

// YouTubeID извлекает идентификатор ролика из ссылки YouTube любого вида.
func YouTubeID(link string) string {
	m := youTubeIDRegex.FindStringSubmatch(link)
	if m == nil {
		return ""
	}
	return m[1]
}

// EmbedFor решает, можно ли встроить материал при данном согласии.
// Ссылка на плеер отдаётся только при согласии на сторонний контент.
func EmbedFor(item *models.GalleryItem, s *State) Embed {
	link := item.SourceURL
	if item.ContentURL != nil && *item.ContentURL != "" {
		link = *item.ContentURL
	}

	e := Embed{
		Provider:     provider(item, link),
		SourceURL:    item.SourceURL,
		ThumbnailURL: item.ThumbnailURL,
	}
	if !s.AllowsEmbeds() {
		e.Message = "Для просмотра встроенного контента разрешите сторонние материалы в настройках cookie"
		return e
	}

	e.Allowed = true
	if id := YouTubeID(link); id != "" {
		e.EmbedURL = youTubeEmbedURL(id)
	}
	return e
}

func provider(item *models.GalleryItem, link string) string {
	if item.SourceType == models.SourceYouTube || YouTubeID(link) != "" {
		return "youtube"
	}
	if u, err := url.Parse(link); err == nil && u.Host != "" {
		return u.Hostname()
	}
	return item.SourceType
}

// youTubeEmbedURL строит ссылку на плеер в режиме без cookie.
func youTubeEmbedURL(id string) string {
	params := url.Values{}
	params.Set("rel", "0")
	return "https://www.youtube-nocookie.com/embed/" + url.PathEscape(id) + "?" + params.Encode()
}
