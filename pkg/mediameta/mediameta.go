package mediameta

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var ErrNoResult = errors.New("no media found")

const (
	SourceYouTube    = "youtube"
	SourceSoundCloud = "soundcloud"
	SourceUnknown    = "unknown"
)

// TrackData is everything the resolver could learn about a submitted URL.
type TrackData struct {
	StreamURL string   `json:"stream_url"`
	Title     string   `json:"title"`
	Author    *string  `json:"author_name"`
	Thumbnail *string  `json:"thumbnail_url"`
	Duration  *float64 `json:"duration"`
	Source    string   `json:"source"`
}

type Resolver struct {
	client *http.Client
}

func NewResolver(timeout time.Duration) *Resolver {
	return &Resolver{
		client: &http.Client{Timeout: timeout},
	}
}

// Get resolves a media URL to a streamable asset plus metadata. Known sources
// are asked via oEmbed first; anything else falls back to fetching the page
// and reading its Open Graph tags.
func (r *Resolver) Get(mediaUrl string) (*TrackData, error) {
	source := detectSource(mediaUrl)

	if endpoint := oembedEndpoint(source, mediaUrl); endpoint != "" {
		data, err := r.getWithOembed(endpoint, source)
		if err == nil {
			data.StreamURL = mediaUrl
			return data, nil
		}
		if !errors.Is(err, ErrNoResult) {
			return nil, fmt.Errorf("failed to get media data with oembed: %w", err)
		}
	}

	data, err := r.getFromPage(mediaUrl, source)
	if err != nil {
		return nil, fmt.Errorf("failed to get media data from page: %w", err)
	}

	return data, nil
}

func detectSource(mediaUrl string) string {
	u, err := url.Parse(mediaUrl)
	if err != nil {
		return SourceUnknown
	}

	host := strings.TrimPrefix(u.Hostname(), "www.")
	switch {
	case host == "youtube.com" || host == "youtu.be" || host == "music.youtube.com":
		return SourceYouTube
	case host == "soundcloud.com" || strings.HasSuffix(host, ".soundcloud.com"):
		return SourceSoundCloud
	default:
		return SourceUnknown
	}
}

func oembedEndpoint(source string, mediaUrl string) string {
	switch source {
	case SourceYouTube:
		return "https://www.youtube.com/oembed?url=" + url.QueryEscape(mediaUrl)
	case SourceSoundCloud:
		return "https://soundcloud.com/oembed?format=json&url=" + url.QueryEscape(mediaUrl)
	default:
		return ""
	}
}
