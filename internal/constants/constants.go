package constants

import "time"

// Context keys
const (
	ContextKeyUserID    = "user_id"
	ContextKeyUserEmail = "user_email"
	ContextKeyTraceID   = "trace_id"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Auth
const (
	MinPasswordLength      = 8
	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
	TraceIDHeader          = "X-Trace-ID"
)

// AI
const (
	MaxAIGeneratedChores = 20
)

// Jobs
const (
	NotificationBatchSize = 100
	ReminderLookahead     = 24 * time.Hour
)
