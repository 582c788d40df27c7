package http

const (
	CodeRequestTooLarge = "REQUEST_TOO_LARGE"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeUnhealthy       = "UNHEALTHY"
)
