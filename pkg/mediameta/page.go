package mediameta

import (
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

func (r *Resolver) getFromPage(mediaUrl string, source string) (*TrackData, error) {
	resp, err := r.client.Get(mediaUrl)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ErrNoResult
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, err
	}

	data := &TrackData{
		StreamURL: mediaUrl,
		Source:    source,
	}

	if title := getMetaProperty(doc, "og:title"); title != "" {
		data.Title = title
	} else if title := getTitle(doc); title != "" {
		data.Title = cleanPageTitle(title)
	} else {
		return nil, ErrNoResult
	}

	if author := firstMetaProperty(doc, "og:audio:artist", "music:musician"); author != "" {
		data.Author = &author
	} else if author := authorFromPageTitle(getTitle(doc)); author != "" {
		data.Author = &author
	}

	if thumbnail := getMetaProperty(doc, "og:image"); thumbnail != "" {
		data.Thumbnail = &thumbnail
	}

	if streamUrl := firstMetaProperty(doc, "og:audio", "og:audio:url", "og:video:url"); streamUrl != "" {
		data.StreamURL = streamUrl
	}

	return data, nil
}

func getTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" && n.FirstChild != nil {
		return n.FirstChild.Data
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := getTitle(c); title != "" {
			return title
		}
	}

	return ""
}

func getMetaProperty(n *html.Node, property string) string {
	if n.Type == html.ElementNode && n.Data == "meta" {
		matched := false
		content := ""
		for _, attr := range n.Attr {
			if attr.Key == "property" && attr.Val == property {
				matched = true
			}
			if attr.Key == "content" {
				content = attr.Val
			}
		}
		if matched {
			return content
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if content := getMetaProperty(c, property); content != "" {
			return content
		}
	}

	return ""
}

func firstMetaProperty(n *html.Node, properties ...string) string {
	for _, property := range properties {
		if content := getMetaProperty(n, property); content != "" {
			return content
		}
	}

	return ""
}

var titleSuffixes = []string{" - YouTube", " | Spotify", " on Spotify", " | Music", " - Apple Music"}

func cleanPageTitle(title string) string {
	for _, suffix := range titleSuffixes {
		title = strings.TrimSuffix(title, suffix)
	}

	return strings.TrimSpace(title)
}

// authorFromPageTitle digs an artist out of titles like
// "Stream Title by Author | Listen online".
func authorFromPageTitle(title string) string {
	_, after, found := strings.Cut(title, " by ")
	if !found {
		return ""
	}

	author, _, _ := strings.Cut(after, "|")

	return strings.TrimSpace(author)
}
