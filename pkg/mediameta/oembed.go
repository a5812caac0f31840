package mediameta

import (
	"encoding/json"
	"fmt"
	"net/http"
)

type oembedResponse struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailUrl string `json:"thumbnail_url"`
}

func (r *Resolver) getWithOembed(endpoint string, source string) (*TrackData, error) {
	resp, err := r.client.Get(endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		switch resp.StatusCode {
		case http.StatusBadRequest, http.StatusNotFound, http.StatusUnauthorized, http.StatusForbidden:
			return nil, ErrNoResult
		default:
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}
	}

	var result oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}

	if result.Title == "" {
		return nil, ErrNoResult
	}

	data := &TrackData{
		Title:  result.Title,
		Source: source,
	}
	if result.AuthorName != "" {
		data.Author = &result.AuthorName
	}
	if result.ThumbnailUrl != "" {
		data.Thumbnail = &result.ThumbnailUrl
	}

	return data, nil
}
