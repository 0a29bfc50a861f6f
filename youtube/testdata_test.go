package youtube

// Canned Data API responses for the channel UCuAXFkgsw1L7xaCfnd5JJOw.
const (
	sampleChannelsResponse = `{
  "kind": "youtube#channelListResponse",
  "items": [
    {
      "kind": "youtube#channel",
      "id": "UCuAXFkgsw1L7xaCfnd5JJOw",
      "contentDetails": {"relatedPlaylists": {"uploads": "UUuAXFkgsw1L7xaCfnd5JJOw"}}
    }
  ]
}`

	emptyChannelsResponse = `{"kind": "youtube#channelListResponse", "pageInfo": {"totalResults": 0}}`

	samplePlaylistItemsResponse = `{
  "kind": "youtube#playlistItemListResponse",
  "items": [
    {"snippet": {"title": "Third", "resourceId": {"kind": "youtube#video", "videoId": "vid3"}}},
    {"snippet": {"title": "Second", "resourceId": {"kind": "youtube#video", "videoId": "vid2"}}},
    {"snippet": {"title": "First", "resourceId": {"kind": "youtube#video", "videoId": "vid1"}}}
  ]
}`

	emptyPlaylistItemsResponse = `{"kind": "youtube#playlistItemListResponse", "items": []}`

	// vid2 is absent, as happens for videos made private after listing.
	sampleVideosResponse = `{
  "kind": "youtube#videoListResponse",
  "items": [
    {
      "id": "vid1",
      "snippet": {"publishedAt": "2024-03-01T08:30:00Z", "title": "First"},
      "contentDetails": {"duration": "PT12M5S"},
      "statistics": {"viewCount": "1000", "likeCount": "100", "commentCount": "10"}
    },
    {
      "id": "vid3",
      "snippet": {"publishedAt": "2024-03-03T10:00:00Z", "title": "Third"},
      "contentDetails": {"duration": "PT45S"},
      "statistics": {"viewCount": "300"}
    }
  ]
}`

	quotaExceededResponse = `{
  "error": {
    "code": 403,
    "message": "The request cannot be completed because you have exceeded your quota.",
    "errors": [{"message": "quota", "domain": "youtube.quota", "reason": "quotaExceeded"}]
  }
}`

	rateLimitedResponse = `{
  "error": {
    "code": 403,
    "message": "Rate limit exceeded.",
    "errors": [{"message": "rate", "domain": "usageLimits", "reason": "rateLimitExceeded"}]
  }
}`
)
