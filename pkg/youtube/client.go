// Package youtube refreshes video source metadata from the YouTube Data API.
package youtube

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mchmarny/gearpulse/pkg/data"
	"github.com/mchmarny/gearpulse/pkg/net"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	// API limit for ids per videos.list call
	maxBatchSize = 50
	videoParts   = "snippet,statistics"
)

// Client reads video metadata. HTTP must carry credentials, e.g. from net.GetOAuthClient.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func NewClient(httpClient *http.Client) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		HTTP:    httpClient,
	}
}

type videoListResponse struct {
	Items []*videoItem `json:"items"`
}

type videoItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title        string `json:"title"`
		ChannelTitle string `json:"channelTitle"`
		PublishedAt  string `json:"publishedAt"`
	} `json:"snippet"`
	Statistics struct {
		// the API encodes counts as strings
		ViewCount string `json:"viewCount"`
	} `json:"statistics"`
}

// GetVideos returns metadata for the given video ids. Ids the API does not
// return (deleted or private videos) are omitted.
func (c *Client) GetVideos(ctx context.Context, ids []string) ([]*data.SourceMeta, error) {
	if c == nil || c.HTTP == nil {
		return nil, errors.New("client not initialized")
	}

	list := make([]*data.SourceMeta, 0, len(ids))
	for start := 0; start < len(ids); start += maxBatchSize {
		end := min(start+maxBatchSize, len(ids))

		batch, err := c.getVideoBatch(ctx, ids[start:end])
		if err != nil {
			return nil, err
		}
		list = append(list, batch...)
	}

	return list, nil
}

func (c *Client) getVideoBatch(ctx context.Context, ids []string) ([]*data.SourceMeta, error) {
	q := url.Values{}
	q.Set("part", videoParts)
	q.Set("id", strings.Join(ids, ","))
	q.Set("maxResults", strconv.Itoa(maxBatchSize))

	u := strings.TrimSuffix(c.BaseURL, "/") + "/videos?" + q.Encode()

	var res videoListResponse
	if err := net.GetJSON(ctx, c.HTTP, u, &res); err != nil {
		return nil, fmt.Errorf("error listing videos: %w", err)
	}

	list := make([]*data.SourceMeta, 0, len(res.Items))
	for _, it := range res.Items {
		if it == nil || it.ID == "" {
			continue
		}
		m := &data.SourceMeta{
			ID:          it.ID,
			Title:       it.Snippet.Title,
			Author:      it.Snippet.ChannelTitle,
			PublishedAt: it.Snippet.PublishedAt,
		}
		if it.Statistics.ViewCount != "" {
			v, err := strconv.ParseInt(it.Statistics.ViewCount, 10, 64)
			if err != nil {
				slog.Debug("invalid view count", "id", it.ID, "value", it.Statistics.ViewCount)
			} else {
				m.Views = &v
			}
		}
		list = append(list, m)
	}

	return list, nil
}

// RefreshResult summarizes a metadata refresh.
type RefreshResult struct {
	Requested int `json:"requested" yaml:"requested"`
	Found     int `json:"found" yaml:"found"`
	Updated   int `json:"updated" yaml:"updated"`
}

// RefreshSources updates title, channel, publish date and views of every
// stored video source.
func RefreshSources(ctx context.Context, db *sql.DB, c *Client) (*RefreshResult, error) {
	ids, err := data.GetVideoSourceIDs(db)
	if err != nil {
		return nil, fmt.Errorf("error getting video sources: %w", err)
	}

	res := &RefreshResult{Requested: len(ids)}
	if len(ids) == 0 {
		return res, nil
	}

	list, err := c.GetVideos(ctx, ids)
	if err != nil {
		return nil, err
	}
	res.Found = len(list)

	res.Updated, err = data.UpdateSourceMeta(db, list)
	if err != nil {
		return nil, fmt.Errorf("error saving video metadata: %w", err)
	}

	slog.Debug("refreshed video sources", "requested", res.Requested, "found", res.Found, "updated", res.Updated)
	return res, nil
}
