package api

import "time"

// Session cookie settings.
const (
	SessionCookieName   = "session_id"
	sessionCookieMaxAge = 365 * 24 * time.Hour
)

// Cache-Control header values.
const (
	CacheOneHour = "public, max-age=3600"
	CachePrivate = "private, no-cache"
	CacheNoStore = "no-store"
)
