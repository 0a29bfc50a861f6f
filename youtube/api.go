package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"ytsheet/internal/retry"
)

// maxPageSize is the largest maxResults the playlistItems endpoint accepts.
const maxPageSize = 50

// APIFetcher implements Fetcher using YouTube Data API v3. Each fetch costs
// three quota units: channels.list, playlistItems.list and videos.list.
type APIFetcher struct {
	service     *youtube.Service
	log         logrus.FieldLogger
	RetryConfig *retry.Config

	mu        sync.Mutex
	quotaUsed int
}

// NewAPIFetcher creates a fetcher authenticated with apiKey. If client is
// non-nil all requests go through it with the key attached as a query
// parameter. Extra options (e.g. option.WithEndpoint) are passed to the
// service constructor.
func NewAPIFetcher(ctx context.Context, apiKey string, client *http.Client, log logrus.FieldLogger, opts ...option.ClientOption) (*APIFetcher, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	if client != nil {
		opts = append(opts, option.WithHTTPClient(withAPIKey(client, apiKey)))
	} else {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	cfg := retry.DefaultConfig()
	return &APIFetcher{
		service:     service,
		log:         log.WithField("component", "youtube"),
		RetryConfig: &cfg,
	}, nil
}

// ListRecentMediaItems resolves the channel's uploads playlist, lists its
// newest limit entries and fetches statistics for exactly those IDs in one
// batch. Videos missing from the statistics response (deleted or private)
// are dropped; the rest keep playlist order.
func (a *APIFetcher) ListRecentMediaItems(ctx context.Context, channelID string, limit int) ([]Video, error) {
	if limit <= 0 || limit > maxPageSize {
		return nil, &FetchError{Op: "playlistItems", Channel: channelID,
			Err: fmt.Errorf("%w: limit %d outside 1..%d", ErrInvalidRequest, limit, maxPageSize)}
	}

	uploads, err := a.uploadsPlaylistID(ctx, channelID)
	if err != nil {
		return nil, &FetchError{Op: "channels", Channel: channelID, Err: err}
	}

	ids, err := a.recentVideoIDs(ctx, uploads, limit)
	if err != nil {
		return nil, &FetchError{Op: "playlistItems", Channel: channelID, Err: err}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	videos, err := a.videoDetails(ctx, ids)
	if err != nil {
		return nil, &FetchError{Op: "videos", Channel: channelID, Err: err}
	}

	a.log.WithFields(logrus.Fields{
		"channel":    channelID,
		"listed":     len(ids),
		"returned":   len(videos),
		"quota_used": a.QuotaUsed(),
	}).Debug("fetched recent uploads")

	return videos, nil
}

// uploadsPlaylistID returns the ID of the channel's "uploads" playlist.
func (a *APIFetcher) uploadsPlaylistID(ctx context.Context, channelID string) (string, error) {
	var playlistID string

	err := retry.Do(ctx, a.retryConfig(), apiErrorClassifier, func(ctx context.Context) error {
		resp, err := a.service.Channels.List([]string{"contentDetails"}).
			Id(channelID).
			Context(ctx).
			Do()
		a.trackQuotaUsage(1)
		if err != nil {
			return classifyAPIError(ctx, err)
		}

		if len(resp.Items) == 0 {
			return ErrChannelNotFound
		}
		details := resp.Items[0].ContentDetails
		if details == nil || details.RelatedPlaylists == nil || details.RelatedPlaylists.Uploads == "" {
			return fmt.Errorf("%w: channel has no uploads playlist", ErrChannelNotFound)
		}

		playlistID = details.RelatedPlaylists.Uploads
		return nil
	})

	return playlistID, err
}

// recentVideoIDs returns the IDs of the newest limit playlist entries.
func (a *APIFetcher) recentVideoIDs(ctx context.Context, playlistID string, limit int) ([]string, error) {
	var ids []string

	err := retry.Do(ctx, a.retryConfig(), apiErrorClassifier, func(ctx context.Context) error {
		resp, err := a.service.PlaylistItems.List([]string{"snippet"}).
			PlaylistId(playlistID).
			MaxResults(int64(limit)).
			Context(ctx).
			Do()
		a.trackQuotaUsage(1)
		if err != nil {
			return classifyAPIError(ctx, err)
		}

		ids = ids[:0]
		for _, item := range resp.Items {
			if item.Snippet == nil || item.Snippet.ResourceId == nil || item.Snippet.ResourceId.VideoId == "" {
				continue
			}
			ids = append(ids, item.Snippet.ResourceId.VideoId)
		}
		return nil
	})

	return ids, err
}

// videoDetails fetches snippet, duration and statistics for ids in one call.
func (a *APIFetcher) videoDetails(ctx context.Context, ids []string) ([]Video, error) {
	byID := make(map[string]Video, len(ids))

	err := retry.Do(ctx, a.retryConfig(), apiErrorClassifier, func(ctx context.Context) error {
		resp, err := a.service.Videos.List([]string{"statistics", "snippet", "contentDetails"}).
			Id(strings.Join(ids, ",")).
			Context(ctx).
			Do()
		a.trackQuotaUsage(1)
		if err != nil {
			return classifyAPIError(ctx, err)
		}

		for _, item := range resp.Items {
			byID[item.Id] = videoFromItem(item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	videos := make([]Video, 0, len(ids))
	for _, id := range ids {
		v, ok := byID[id]
		if !ok {
			a.log.WithField("video_id", id).Debug("video missing from statistics response, skipping")
			continue
		}
		videos = append(videos, v)
	}
	return videos, nil
}

// videoFromItem converts an API video resource. Missing parts leave zero values.
func videoFromItem(item *youtube.Video) Video {
	v := Video{ID: item.Id}
	if item.Snippet != nil {
		v.Title = item.Snippet.Title
		// Publish times are RFC 3339 in UTC with second precision.
		if t, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt); err == nil {
			v.PublishedAt = t.UTC()
		}
	}
	if item.ContentDetails != nil {
		v.Duration = item.ContentDetails.Duration
	}
	if item.Statistics != nil {
		v.ViewCount = item.Statistics.ViewCount
		v.LikeCount = item.Statistics.LikeCount
		v.CommentCount = item.Statistics.CommentCount
	}
	return v
}

func (a *APIFetcher) retryConfig() retry.Config {
	if a.RetryConfig == nil {
		return retry.DefaultConfig()
	}
	return *a.RetryConfig
}

// trackQuotaUsage adds units to the quota consumed by this fetcher.
func (a *APIFetcher) trackQuotaUsage(units int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.quotaUsed += units
}

// QuotaUsed returns the quota units consumed since the fetcher was created.
func (a *APIFetcher) QuotaUsed() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quotaUsed
}

// classifyAPIError maps a googleapi error onto the package sentinels while
// keeping the original error in the chain.
func classifyAPIError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %w", ErrNetworkTimeout, err)
	}

	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}

	switch {
	case hasReason(gerr, "quotaExceeded", "dailyLimitExceeded"):
		return fmt.Errorf("%w: %w", ErrQuotaExceeded, err)
	case gerr.Code == http.StatusTooManyRequests || hasReason(gerr, "rateLimitExceeded", "userRateLimitExceeded"):
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case gerr.Code == http.StatusNotFound:
		return fmt.Errorf("%w: %w", ErrChannelNotFound, err)
	case gerr.Code >= 400 && gerr.Code < 500:
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return err
}

func hasReason(gerr *googleapi.Error, reasons ...string) bool {
	for _, item := range gerr.Errors {
		for _, r := range reasons {
			if item.Reason == r {
				return true
			}
		}
	}
	return false
}

// apiErrorClassifier determines if an API error is retryable.
func apiErrorClassifier(err error) bool {
	if err == nil {
		return false
	}

	switch {
	case errors.Is(err, ErrChannelNotFound),
		errors.Is(err, ErrQuotaExceeded),
		errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ErrNetworkTimeout):
		return false
	case errors.Is(err, ErrRateLimited):
		return true
	}

	return retry.IsRetryable(err)
}

// apiKeyTransport adds the API key to every request.
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	q := req.URL.Query()
	q.Set("key", t.key)
	req.URL.RawQuery = q.Encode()
	return t.base.RoundTrip(req)
}

// withAPIKey returns a shallow copy of client whose transport sets the key.
func withAPIKey(client *http.Client, key string) *http.Client {
	base := client.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c := *client
	c.Transport = &apiKeyTransport{key: key, base: base}
	return &c
}
