package http

import (
	"net/http"
	"time"

	"github.com/AlibekovAA/storybooks/internal/common/constants"
	"github.com/AlibekovAA/storybooks/internal/common/httpmetrics"
	"github.com/AlibekovAA/storybooks/internal/common/logger"
)

type BaseOptions struct {
	CORSAllowedOrigins []string
	RequestTimeout     time.Duration
}

// BuildBaseHandler wraps handler with the middleware shared by every route.
// Method override runs innermost so that metrics and the mux see the
// effective method.
func BuildBaseHandler(appName string, log *logger.Logger, handler http.Handler, opts BaseOptions) http.Handler {
	metrics := httpmetrics.New(appName)
	recovery := RecoveryMiddleware(log)
	maxRequestSize := MaxRequestSizeMiddleware(constants.DefaultMaxRequestSize)
	csp := ContentSecurityPolicyMiddleware("")
	corsMW := CORSMiddleware(opts.CORSAllowedOrigins)
	timeout := WithTimeout(opts.RequestTimeout)

	inner := maxRequestSize(MethodOverrideMiddleware(metrics.Wrap(timeout(handler))))
	return corsMW(SecurityHeadersMiddleware(csp(TraceIDMiddleware(recovery(inner)))))
}
