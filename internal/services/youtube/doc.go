// Package youtube publishes composed videos through the YouTube Data API v3.
//
// OAuth2 credentials come exclusively from the environment
// (YOUTUBE_CLIENT_ID, YOUTUBE_CLIENT_SECRET, YOUTUBE_REFRESH_TOKEN); the
// refresh token is exchanged on demand so no interactive flow is needed at
// upload time.
package youtube
