package constants

import "time"

const (
	SessionSecretMinLength = 32
	JWTSecretMinLength     = 32

	MaxSearchQueryLength  = 100
	DefaultMaxRequestSize = 1 << 20

	DBPoolMaxOpenConns    = 25
	DBPoolMinOpenConns    = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second
	DBQueryTimeout        = 30 * time.Second
	SQLiteBusyTimeoutMS   = 5000

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultStoriesHTTPPort       = "8080"
	DefaultStoriesRequestTimeout = 5 * time.Second
	DefaultSessionMaxAge         = 7 * 24 * time.Hour
	DefaultAccessTokenTTL        = 30 * time.Minute
	OAuthStateTTL                = 10 * time.Minute

	DefaultCircuitBreakerThreshold = 50
	DefaultCircuitBreakerTimeout   = 15 * time.Second
	DefaultCircuitBreakerReset     = 10 * time.Second

	FeedWriteWait       = 10 * time.Second
	FeedPongWait        = 60 * time.Second
	FeedPingPeriod      = (FeedPongWait * 9) / 10
	FeedMaxMessageSize  = 4 * 1024
	FeedSendBufSize     = 64
	FeedReadBufferSize  = 1024
	FeedWriteBufferSize = 1024

	LoggerMaxSize    = 100
	LoggerMaxBackups = 3
	LoggerMaxAge     = 28

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	SessionCookieName = "storybooks_session"
	OAuthStateCookie  = "storybooks_oauth_state"

	DashboardPath   = "/dashboard"
	StoriesListPath = "/stories"
	LoginPath       = "/"
)

type TraceIDKeyType string

const TraceIDKey TraceIDKeyType = "trace_id"
